package book

import (
	"strings"

	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxResultWindow 分页窗口上限（Offset+Size），与Elasticsearch的index.max_result_window一致
	MaxResultWindow = 10000

	DefaultSortBy    = "created_at"
	DefaultSortOrder = "desc"
)

// Filter 图书检索条件
// 检索路径支持全部字段；关系型降级路径只支持：
// ISBNCode、Editor、Edition、Type、出版日期区间、AuthorName、CategoryTitle、分页
type Filter struct {
	// 精确匹配
	Edition *int
	Type    Type

	// 短语匹配（忽略大小写）
	ISBNCode string
	Editor   string

	PublishDateFrom *shared.Date
	PublishDateTo   *shared.Date

	// 全文检索
	TextQuery     string
	TitleQuery    string
	SummaryQuery  string
	AuthorName    string
	CategoryTitle string
	Languages     []string
	FuzzySearch   bool

	Page            int
	Size            int
	SortBy          string // Normalize后非空
	SortOrder       string // asc | desc，Normalize后非空
	HighlightFields []string
}

// 允许排序的字段
var sortableFields = map[string]struct{}{
	"created_at":   {},
	"updated_at":   {},
	"publish_date": {},
	"edition":      {},
	"isbn_code":    {},
	"version":      {},
}

// Normalize 补齐分页与排序默认值并校验
// 检索路径和关系型降级路径都只读取Normalize后的排序字段
func (f *Filter) Normalize() error {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Size <= 0 {
		f.Size = DefaultPageSize
	}
	if f.Size > MaxPageSize {
		f.Size = MaxPageSize
	}

	if f.Offset()+f.Size > MaxResultWindow {
		return apperrors.New(apperrors.ErrCodeInvalidParams, "分页超出范围，请缩小检索条件")
	}

	f.SortOrder = strings.ToLower(f.SortOrder)
	switch f.SortOrder {
	case "":
		f.SortOrder = DefaultSortOrder
	case "asc", "desc":
	default:
		return apperrors.New(apperrors.ErrCodeInvalidParams, "不支持的排序方向: "+f.SortOrder)
	}
	if f.SortBy == "" {
		f.SortBy = DefaultSortBy
	}
	if _, ok := sortableFields[f.SortBy]; !ok {
		return apperrors.New(apperrors.ErrCodeInvalidParams, "不支持的排序字段: "+f.SortBy)
	}

	if f.Type != "" && !f.Type.Valid() {
		return ErrInvalidType
	}
	if f.PublishDateFrom != nil && f.PublishDateTo != nil && f.PublishDateFrom.After(f.PublishDateTo.Time) {
		return apperrors.New(apperrors.ErrCodeInvalidParams, "出版日期区间无效")
	}
	return nil
}

// Offset 分页偏移量
func (f Filter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Size
}
