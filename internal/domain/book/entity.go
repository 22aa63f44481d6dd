package book

import (
	"strings"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/domain/author"
	"github.com/xiebiao/bookcatalog/internal/domain/category"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// Type 图书形态
type Type string

const (
	TypePhysical Type = "physical"
	TypeEbook    Type = "ebook"
	TypeBoth     Type = "both"
)

// Valid 是否为已知形态
func (t Type) Valid() bool {
	switch t {
	case TypePhysical, TypeEbook, TypeBoth:
		return true
	}
	return false
}

// Book 图书聚合根
// 设计说明:
// 1. 与作者、分类是多对多关系，AuthorIDs/CategoryIDs是写入时的权威来源
// 2. Authors/Categories是发布命令时内嵌的快照，用于构建检索文档
// 3. Data是按语言区分的标题与简介，随图书整体替换
type Book struct {
	ID          uuid.UUID            `json:"id"`
	ISBNCode    string               `json:"isbn_code"`
	Editor      string               `json:"editor"`
	Edition     int                  `json:"edition"`
	Type        Type                 `json:"type"`
	PublishDate shared.Date          `json:"publish_date"`
	AuthorIDs   []uuid.UUID          `json:"author_ids"`
	CategoryIDs []uuid.UUID          `json:"category_ids"`
	Authors     []*author.Author     `json:"authors,omitempty"`
	Categories  []*category.Category `json:"book_categories,omitempty"`
	Data        []Data               `json:"book_data,omitempty"`
	shared.Metadata
}

// Data 本地化的标题与简介
type Data struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Summary  *string   `json:"summary,omitempty"`
	Language string    `json:"language"`
	shared.Metadata
}

// Validate 校验图书
func (b *Book) Validate() error {
	if b.ID == uuid.Nil {
		return apperrors.New(apperrors.ErrCodeInvalidParams, "图书id不能为空")
	}
	if strings.TrimSpace(b.ISBNCode) == "" {
		return ErrInvalidISBN
	}
	if !b.Type.Valid() {
		return ErrInvalidType
	}
	if b.Edition < 1 {
		return ErrInvalidEdition
	}
	if len(b.AuthorIDs) == 0 {
		return ErrNoAuthors
	}
	for _, d := range b.Data {
		if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Language) == "" {
			return ErrInvalidData
		}
	}
	if err := b.Metadata.Validate(); err != nil {
		return apperrors.WithCode(apperrors.ErrCodeInvalidParams, err, "图书元数据无效")
	}
	return nil
}

// FillData 为本地化数据补齐id与元数据
// 没有id的条目生成UUIDv7，元数据跟随图书
func (b *Book) FillData() error {
	for i := range b.Data {
		if b.Data[i].ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return apperrors.Wrap(err, "生成图书数据id失败")
			}
			b.Data[i].ID = id
		}
		b.Data[i].Metadata = b.Metadata
	}
	return nil
}

// Languages 图书包含的语言
func (b *Book) Languages() []string {
	langs := make([]string, 0, len(b.Data))
	for _, d := range b.Data {
		langs = append(langs, d.Language)
	}
	return langs
}
