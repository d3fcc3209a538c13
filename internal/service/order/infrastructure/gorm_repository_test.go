package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"flashmall/internal/pkg/pagination"
)

func TestOrderClauseRejectsUnknownSortColumns(t *testing.T) {
	q := pagination.Query{SortBy: "created_at; DROP TABLE orders--", SortType: "asc"}
	q.Normalize()
	assert.Equal(t, "orders.created_at asc", orderClause(q))

	q = pagination.Query{SortBy: "totalPrice", SortType: "evil"}
	q.Normalize()
	assert.Equal(t, "orders.total_price_cents desc", orderClause(q))
}
