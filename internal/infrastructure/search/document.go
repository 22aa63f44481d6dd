package search

import (
	"time"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/domain/author"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/domain/category"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
)

// audit 文档中的审计字段
type audit struct {
	Version   int       `json:"version,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by"`
	UpdatedBy string    `json:"updated_by"`
}

func toAudit(m shared.Metadata) audit {
	return audit{
		Version:   m.Version,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
		CreatedBy: m.CreatedBy,
		UpdatedBy: m.UpdatedBy,
	}
}

func (a audit) metadata() shared.Metadata {
	return shared.Metadata{
		Version:   a.Version,
		CreatedAt: a.CreatedAt.UTC(),
		UpdatedAt: a.UpdatedAt.UTC(),
		CreatedBy: a.CreatedBy,
		UpdatedBy: a.UpdatedBy,
	}
}

// BookDocument 检索文档
type BookDocument struct {
	ID          uuid.UUID          `json:"id"`
	ISBNCode    string             `json:"isbn_code"`
	Editor      string             `json:"editor"`
	Edition     int                `json:"edition"`
	Type        string             `json:"type"`
	PublishDate *string            `json:"publish_date"`
	AuthorIDs   []uuid.UUID        `json:"author_ids"`
	CategoryIDs []uuid.UUID        `json:"category_ids"`
	Authors     []AuthorDocument   `json:"authors"`
	Categories  []CategoryDocument `json:"book_categories"`
	Data        []DataDocument     `json:"book_data"`
	audit
}

type AuthorDocument struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	audit
}

type CategoryDocument struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	audit
}

type DataDocument struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Summary  *string   `json:"summary"`
	Language string    `json:"language"`
	audit
}

// NewBookDocument 把图书聚合展开成检索文档
func NewBookDocument(b *book.Book) BookDocument {
	doc := BookDocument{
		ID:          b.ID,
		ISBNCode:    b.ISBNCode,
		Editor:      b.Editor,
		Edition:     b.Edition,
		Type:        string(b.Type),
		AuthorIDs:   nonNil(b.AuthorIDs),
		CategoryIDs: nonNil(b.CategoryIDs),
		Authors:     make([]AuthorDocument, 0, len(b.Authors)),
		Categories:  make([]CategoryDocument, 0, len(b.Categories)),
		Data:        make([]DataDocument, 0, len(b.Data)),
		audit:       toAudit(b.Metadata),
	}
	if !b.PublishDate.IsZero() {
		s := b.PublishDate.String()
		doc.PublishDate = &s
	}
	for _, a := range b.Authors {
		doc.Authors = append(doc.Authors, AuthorDocument{ID: a.ID, Name: a.Name, audit: toAudit(a.Metadata)})
	}
	for _, c := range b.Categories {
		doc.Categories = append(doc.Categories, CategoryDocument{
			ID: c.ID, Title: c.Title, Description: c.Description, audit: toAudit(c.Metadata),
		})
	}
	for _, d := range b.Data {
		doc.Data = append(doc.Data, DataDocument{
			ID: d.ID, Title: d.Title, Summary: d.Summary, Language: d.Language, audit: toAudit(d.Metadata),
		})
	}
	return doc
}

// Book 还原成图书聚合
func (d BookDocument) Book() *book.Book {
	b := &book.Book{
		ID:          d.ID,
		ISBNCode:    d.ISBNCode,
		Editor:      d.Editor,
		Edition:     d.Edition,
		Type:        book.Type(d.Type),
		AuthorIDs:   nonNil(d.AuthorIDs),
		CategoryIDs: nonNil(d.CategoryIDs),
		Metadata:    d.metadata(),
	}
	if d.PublishDate != nil {
		if date, err := shared.ParseDate(*d.PublishDate); err == nil {
			b.PublishDate = date
		}
	}
	for _, a := range d.Authors {
		b.Authors = append(b.Authors, &author.Author{ID: a.ID, Name: a.Name, Metadata: a.metadata()})
	}
	for _, c := range d.Categories {
		b.Categories = append(b.Categories, &category.Category{
			ID: c.ID, Title: c.Title, Description: c.Description, Metadata: c.metadata(),
		})
	}
	for _, x := range d.Data {
		b.Data = append(b.Data, book.Data{
			ID: x.ID, Title: x.Title, Summary: x.Summary, Language: x.Language, Metadata: x.metadata(),
		})
	}
	return b
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
