package pagination

// 列表接口统一的分页契约，字段名沿用前端已经依赖的
// mongoose-paginate 风格：docs/totalDocs/limit/totalPages/page/pagingCounter。

const (
	DefaultPage    = 1
	DefaultPerPage = 25
)

// Query 是列表查询的通用输入。
type Query struct {
	Page     int    `json:"page"`
	PerPage  int    `json:"perPage"`
	SortBy   string `json:"sortBy"`
	SortType string `json:"sortType"` // asc | desc
}

// Normalize 填充默认值并约束非法输入。
func (q *Query) Normalize() {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.SortType != "asc" {
		q.SortType = "desc"
	}
}

// Offset 返回当前页在结果集中的偏移量。
func (q *Query) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// Page 是分页结果的统一外壳。
type Page[T any] struct {
	Docs          []T   `json:"docs"`
	TotalDocs     int64 `json:"totalDocs"`
	Limit         int   `json:"limit"`
	TotalPages    int   `json:"totalPages"`
	Page          int   `json:"page"`
	PagingCounter int   `json:"pagingCounter"`
}

// NewPage 根据总数和查询参数组装一页结果。
func NewPage[T any](docs []T, totalDocs int64, q Query) Page[T] {
	q.Normalize()
	totalPages := int((totalDocs + int64(q.PerPage) - 1) / int64(q.PerPage))
	if docs == nil {
		docs = []T{}
	}
	return Page[T]{
		Docs:          docs,
		TotalDocs:     totalDocs,
		Limit:         q.PerPage,
		TotalPages:    totalPages,
		Page:          q.Page,
		PagingCounter: q.Offset() + 1,
	}
}
