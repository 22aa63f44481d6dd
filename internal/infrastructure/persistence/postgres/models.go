package postgres

import (
	"time"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/domain/author"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/domain/branch"
	"github.com/xiebiao/bookcatalog/internal/domain/category"
	"github.com/xiebiao/bookcatalog/internal/domain/exemplar"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
)

// =========================================
// GORM模型定义
// =========================================
// 设计说明:
// 1. 表结构由migrate.go中的DDL维护（分区表和pg_trgm索引AutoMigrate无法表达）
// 2. 审计字段由领域层赋值，关闭GORM的自动时间戳
// 3. 模型只在本包内使用，对外只暴露领域实体

// MetadataColumns 审计字段与版本号
type MetadataColumns struct {
	Version   int       `gorm:"column:version;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
	CreatedBy string    `gorm:"column:created_by"`
	UpdatedBy string    `gorm:"column:updated_by"`
}

// AuthorModel 作者表
type AuthorModel struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name string    `gorm:"column:name"`
	MetadataColumns
}

func (AuthorModel) TableName() string { return "author" }

// CategoryModel 图书分类表
type CategoryModel struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Title       string    `gorm:"column:title"`
	Description *string   `gorm:"column:description"`
	MetadataColumns
}

func (CategoryModel) TableName() string { return "book_category" }

// BranchModel 分馆表
type BranchModel struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name string    `gorm:"column:name"`
	MetadataColumns
}

func (BranchModel) TableName() string { return "branch" }

// BookModel 图书表
type BookModel struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ISBNCode    string     `gorm:"column:isbn_code"`
	Editor      string     `gorm:"column:editor"`
	Edition     int        `gorm:"column:edition"`
	Type        string     `gorm:"column:type"`
	PublishDate *time.Time `gorm:"column:publish_date;type:date"`
	MetadataColumns

	Authors    []AuthorModel   `gorm:"many2many:author_book_link;joinForeignKey:BookID;joinReferences:AuthorID"`
	Categories []CategoryModel `gorm:"many2many:book_book_category_link;joinForeignKey:BookID;joinReferences:BookCategoryID"`
	Data       []BookDataModel `gorm:"foreignKey:BookID"`
}

func (BookModel) TableName() string { return "book" }

// BookDataModel 图书本地化数据表
type BookDataModel struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	BookID   uuid.UUID `gorm:"column:book_id;type:uuid"`
	Title    string    `gorm:"column:title"`
	Summary  *string   `gorm:"column:summary"`
	Language string    `gorm:"column:language"`
	MetadataColumns
}

func (BookDataModel) TableName() string { return "book_data" }

// AuthorBookLink 作者-图书关联表
type AuthorBookLink struct {
	AuthorID uuid.UUID `gorm:"column:author_id;type:uuid;primaryKey"`
	BookID   uuid.UUID `gorm:"column:book_id;type:uuid;primaryKey"`
}

func (AuthorBookLink) TableName() string { return "author_book_link" }

// BookCategoryLink 图书-分类关联表
type BookCategoryLink struct {
	BookID         uuid.UUID `gorm:"column:book_id;type:uuid;primaryKey"`
	BookCategoryID uuid.UUID `gorm:"column:book_category_id;type:uuid;primaryKey"`
}

func (BookCategoryLink) TableName() string { return "book_book_category_link" }

// ExemplarModel 馆藏表（按branch_id列表分区）
type ExemplarModel struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Available bool      `gorm:"column:available"`
	Room      int       `gorm:"column:room"`
	Floor     int       `gorm:"column:floor"`
	Bookshelf int       `gorm:"column:bookshelf"`
	BookID    uuid.UUID `gorm:"column:book_id;type:uuid"`
	BranchID  uuid.UUID `gorm:"column:branch_id;type:uuid;primaryKey"`
	MetadataColumns
}

func (ExemplarModel) TableName() string { return "physical_exemplar" }

// =========================================
// 模型与领域实体转换
// =========================================

func fromMetadata(m shared.Metadata) MetadataColumns {
	return MetadataColumns{
		Version:   m.Version,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
		CreatedBy: m.CreatedBy,
		UpdatedBy: m.UpdatedBy,
	}
}

func (c MetadataColumns) toMetadata() shared.Metadata {
	return shared.Metadata{
		Version:   c.Version,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
		CreatedBy: c.CreatedBy,
		UpdatedBy: c.UpdatedBy,
	}
}

func fromAuthorEntity(a *author.Author) *AuthorModel {
	return &AuthorModel{ID: a.ID, Name: a.Name, MetadataColumns: fromMetadata(a.Metadata)}
}

func toAuthorEntity(m *AuthorModel) *author.Author {
	return &author.Author{ID: m.ID, Name: m.Name, Metadata: m.toMetadata()}
}

func fromCategoryEntity(c *category.Category) *CategoryModel {
	return &CategoryModel{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		MetadataColumns: fromMetadata(c.Metadata),
	}
}

func toCategoryEntity(m *CategoryModel) *category.Category {
	return &category.Category{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Metadata:    m.toMetadata(),
	}
}

func fromBranchEntity(b *branch.Branch) *BranchModel {
	return &BranchModel{ID: b.ID, Name: b.Name, MetadataColumns: fromMetadata(b.Metadata)}
}

func toBranchEntity(m *BranchModel) *branch.Branch {
	return &branch.Branch{ID: m.ID, Name: m.Name, Metadata: m.toMetadata()}
}

func fromExemplarEntity(e *exemplar.Exemplar) *ExemplarModel {
	return &ExemplarModel{
		ID:              e.ID,
		Available:       e.Available,
		Room:            e.Room,
		Floor:           e.Floor,
		Bookshelf:       e.Bookshelf,
		BookID:          e.BookID,
		BranchID:        e.BranchID,
		MetadataColumns: fromMetadata(e.Metadata),
	}
}

func toExemplarEntity(m *ExemplarModel) *exemplar.Exemplar {
	return &exemplar.Exemplar{
		ID:        m.ID,
		Available: m.Available,
		Room:      m.Room,
		Floor:     m.Floor,
		Bookshelf: m.Bookshelf,
		BookID:    m.BookID,
		BranchID:  m.BranchID,
		Metadata:  m.toMetadata(),
	}
}

// fromBookEntity 只转换book表本身的列，关联由仓储单独写入
func fromBookEntity(b *book.Book) *BookModel {
	m := &BookModel{
		ID:              b.ID,
		ISBNCode:        b.ISBNCode,
		Editor:          b.Editor,
		Edition:         b.Edition,
		Type:            string(b.Type),
		MetadataColumns: fromMetadata(b.Metadata),
	}
	if !b.PublishDate.IsZero() {
		d := b.PublishDate.Time
		m.PublishDate = &d
	}
	return m
}

func fromBookDataEntity(bookID uuid.UUID, d book.Data) BookDataModel {
	return BookDataModel{
		ID:              d.ID,
		BookID:          bookID,
		Title:           d.Title,
		Summary:         d.Summary,
		Language:        d.Language,
		MetadataColumns: fromMetadata(d.Metadata),
	}
}

// toBookEntity 转换图书及已预加载的关联
func toBookEntity(m *BookModel) *book.Book {
	b := &book.Book{
		ID:          m.ID,
		ISBNCode:    m.ISBNCode,
		Editor:      m.Editor,
		Edition:     m.Edition,
		Type:        book.Type(m.Type),
		Metadata:    m.toMetadata(),
		AuthorIDs:   make([]uuid.UUID, 0, len(m.Authors)),
		CategoryIDs: make([]uuid.UUID, 0, len(m.Categories)),
	}
	if m.PublishDate != nil {
		b.PublishDate = shared.NewDate(*m.PublishDate)
	}

	for i := range m.Authors {
		b.AuthorIDs = append(b.AuthorIDs, m.Authors[i].ID)
		b.Authors = append(b.Authors, toAuthorEntity(&m.Authors[i]))
	}
	for i := range m.Categories {
		b.CategoryIDs = append(b.CategoryIDs, m.Categories[i].ID)
		b.Categories = append(b.Categories, toCategoryEntity(&m.Categories[i]))
	}
	for _, d := range m.Data {
		b.Data = append(b.Data, book.Data{
			ID:       d.ID,
			Title:    d.Title,
			Summary:  d.Summary,
			Language: d.Language,
			Metadata: d.toMetadata(),
		})
	}
	return b
}
