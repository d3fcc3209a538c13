package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"flashmall/internal/pkg/pagination"
)

func TestCampaignOrderClauseRejectsUnknownSortColumns(t *testing.T) {
	q := pagination.Query{SortBy: "start_time; DELETE FROM flash_sales"}
	q.Normalize()
	assert.Equal(t, "start_time desc", orderClause(q, "start_time"))

	q = pagination.Query{SortBy: "endTime", SortType: "asc"}
	q.Normalize()
	assert.Equal(t, "end_time asc", orderClause(q, "start_time"))
}
