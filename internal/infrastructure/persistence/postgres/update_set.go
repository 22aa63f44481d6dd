package postgres

import (
	"fmt"
	"sort"

	"github.com/xiebiao/bookcatalog/internal/domain/author"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/domain/branch"
	"github.com/xiebiao/bookcatalog/internal/domain/category"
	"github.com/xiebiao/bookcatalog/internal/domain/exemplar"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
)

// immutableColumns 任何更新路径都不允许写入的列
var immutableColumns = map[string]struct{}{
	"id":         {},
	"created_at": {},
	"created_by": {},
}

// 各实体允许更新的列
// 馆藏的book_id/branch_id是自然键（branch_id同时是分区键），不在更新范围内
var (
	metadataColumns = []string{"version", "updated_at", "updated_by"}
	authorColumns   = append([]string{"name"}, metadataColumns...)
	categoryColumns = append([]string{"title", "description"}, metadataColumns...)
	branchColumns   = append([]string{"name"}, metadataColumns...)
	bookColumns     = append([]string{"isbn_code", "editor", "edition", "type", "publish_date"}, metadataColumns...)
	exemplarColumns = append([]string{"available", "room", "floor", "bookshelf"}, metadataColumns...)
)

// UpdateSet 条件更新的列与值
// 只能通过NewUpdateSet构建，保证每一列都在白名单内
type UpdateSet struct {
	allowed map[string]struct{}
	values  map[string]any
}

// NewUpdateSet 以白名单创建更新集合
// 白名单中出现不可变列时panic（属于编码错误）
func NewUpdateSet(allowed ...string) *UpdateSet {
	s := &UpdateSet{
		allowed: make(map[string]struct{}, len(allowed)),
		values:  make(map[string]any, len(allowed)),
	}
	for _, col := range allowed {
		if _, ok := immutableColumns[col]; ok {
			panic(fmt.Sprintf("列%s不可更新", col))
		}
		s.allowed[col] = struct{}{}
	}
	return s
}

// Set 设置列值，列不在白名单内时返回错误
func (s *UpdateSet) Set(column string, value any) error {
	if _, ok := immutableColumns[column]; ok {
		return fmt.Errorf("列%s不可更新", column)
	}
	if _, ok := s.allowed[column]; !ok {
		return fmt.Errorf("列%s不在可更新范围内", column)
	}
	s.values[column] = value
	return nil
}

// Columns 已设置的列（有序）
func (s *UpdateSet) Columns() []string {
	cols := make([]string, 0, len(s.values))
	for col := range s.values {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// Map 供GORM Updates使用的副本
func (s *UpdateSet) Map() map[string]any {
	m := make(map[string]any, len(s.values))
	for k, v := range s.values {
		m[k] = v
	}
	return m
}

// mustSet 构建固定列集合，列名错误属于编码错误
func (s *UpdateSet) mustSet(column string, value any) *UpdateSet {
	if err := s.Set(column, value); err != nil {
		panic(err)
	}
	return s
}

func (s *UpdateSet) metadata(m shared.Metadata) *UpdateSet {
	return s.mustSet("version", m.Version).
		mustSet("updated_at", m.UpdatedAt.UTC()).
		mustSet("updated_by", m.UpdatedBy)
}

// =========================================
// 各实体的更新集合
// =========================================

func authorUpdates(a *author.Author) *UpdateSet {
	return NewUpdateSet(authorColumns...).
		mustSet("name", a.Name).
		metadata(a.Metadata)
}

func categoryUpdates(c *category.Category) *UpdateSet {
	return NewUpdateSet(categoryColumns...).
		mustSet("title", c.Title).
		mustSet("description", c.Description).
		metadata(c.Metadata)
}

func branchUpdates(b *branch.Branch) *UpdateSet {
	return NewUpdateSet(branchColumns...).
		mustSet("name", b.Name).
		metadata(b.Metadata)
}

func bookUpdates(b *book.Book) *UpdateSet {
	s := NewUpdateSet(bookColumns...).
		mustSet("isbn_code", b.ISBNCode).
		mustSet("editor", b.Editor).
		mustSet("edition", b.Edition).
		mustSet("type", string(b.Type))
	if b.PublishDate.IsZero() {
		s.mustSet("publish_date", nil)
	} else {
		s.mustSet("publish_date", b.PublishDate.Time)
	}
	return s.metadata(b.Metadata)
}

func exemplarUpdates(e *exemplar.Exemplar) *UpdateSet {
	return NewUpdateSet(exemplarColumns...).
		mustSet("available", e.Available).
		mustSet("room", e.Room).
		mustSet("floor", e.Floor).
		mustSet("bookshelf", e.Bookshelf).
		metadata(e.Metadata)
}
