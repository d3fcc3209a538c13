package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"flashmall/internal/pkg/pagination"
)

func TestItemOrderClauseRejectsUnknownSortColumns(t *testing.T) {
	q := pagination.Query{SortBy: "price_cents, (SELECT 1)", SortType: "asc"}
	q.Normalize()
	assert.Equal(t, "created_at asc", orderClause(q, "created_at"))

	q = pagination.Query{SortBy: "price"}
	q.Normalize()
	assert.Equal(t, "price_cents desc", orderClause(q, "created_at"))
}
