package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
)

// 关联表上的存在性子查询
const (
	authorNameExists = `EXISTS (
		SELECT 1 FROM author_book_link abl
		JOIN author a ON a.id = abl.author_id
		WHERE abl.book_id = book.id AND a.name ILIKE ?)`

	categoryTitleExists = `EXISTS (
		SELECT 1 FROM book_book_category_link bcl
		JOIN book_category c ON c.id = bcl.book_category_id
		WHERE bcl.book_id = book.id AND similarity(c.title, ?) > ?)`
)

// bookRepository 图书仓储实现(PostgreSQL)
// 设计说明:
// 1. 实现domain/book/repository.go定义的接口
// 2. Upsert在一个事务中完成：图书行CAS → 替换作者/分类关联 → 替换本地化数据
// 3. 关联是整体替换（先删后插），版本CAS保证同一本书不会被两个写入者同时替换
type bookRepository struct {
	db *DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *DB) book.Repository {
	return &bookRepository{db: db}
}

// Upsert 版本CAS写入图书及其关联
func (r *bookRepository) Upsert(ctx context.Context, b *book.Book) error {
	return r.db.Writer(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 图书行CAS
		existing, err := casUpsert(tx, casWrite{
			entity:  "book",
			table:   BookModel{}.TableName(),
			id:      b.ID,
			version: b.Version,
			model:   fromBookEntity(b),
			updates: bookUpdates(b),
		})
		if err != nil {
			return err
		}
		if existing != nil {
			b.PreserveCreation(existing.CreatedAt, existing.CreatedBy)
		}

		// 2. 替换作者与分类关联
		if err := replaceAuthorLinks(tx, b.ID, b.AuthorIDs); err != nil {
			return err
		}
		if err := replaceCategoryLinks(tx, b.ID, b.CategoryIDs); err != nil {
			return err
		}

		// 3. 替换本地化数据
		if err := b.FillData(); err != nil {
			return err
		}
		return replaceBookData(tx, b)
	})
}

func replaceAuthorLinks(tx *gorm.DB, bookID uuid.UUID, authorIDs []uuid.UUID) error {
	if err := tx.Where("book_id = ?", bookID).Delete(&AuthorBookLink{}).Error; err != nil {
		return classify(err, "删除作者关联失败")
	}
	ids := uniqueIDs(authorIDs)
	if len(ids) == 0 {
		return nil
	}
	links := make([]AuthorBookLink, len(ids))
	for i, id := range ids {
		links[i] = AuthorBookLink{AuthorID: id, BookID: bookID}
	}
	if err := tx.Create(&links).Error; err != nil {
		return classify(err, "写入作者关联失败")
	}
	return nil
}

func replaceCategoryLinks(tx *gorm.DB, bookID uuid.UUID, categoryIDs []uuid.UUID) error {
	if err := tx.Where("book_id = ?", bookID).Delete(&BookCategoryLink{}).Error; err != nil {
		return classify(err, "删除分类关联失败")
	}
	ids := uniqueIDs(categoryIDs)
	if len(ids) == 0 {
		return nil
	}
	links := make([]BookCategoryLink, len(ids))
	for i, id := range ids {
		links[i] = BookCategoryLink{BookID: bookID, BookCategoryID: id}
	}
	if err := tx.Create(&links).Error; err != nil {
		return classify(err, "写入分类关联失败")
	}
	return nil
}

func replaceBookData(tx *gorm.DB, b *book.Book) error {
	if err := tx.Where("book_id = ?", b.ID).Delete(&BookDataModel{}).Error; err != nil {
		return classify(err, "删除图书数据失败")
	}
	if len(b.Data) == 0 {
		return nil
	}
	rows := make([]BookDataModel, len(b.Data))
	for i, d := range b.Data {
		rows[i] = fromBookDataEntity(b.ID, d)
	}
	if err := tx.Create(&rows).Error; err != nil {
		return classify(err, "写入图书数据失败")
	}
	return nil
}

// uniqueIDs 去重并保持顺序
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Delete 删除图书，本地化数据、关联与馆藏随外键级联删除
func (r *bookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.Writer(ctx), &BookModel{}, "图书", id)
}

func (r *bookRepository) FindByID(ctx context.Context, id uuid.UUID) (*book.Book, error) {
	return r.findOne(r.db.Reader(ctx), id)
}

// FindCurrent 主库读取，避开从库复制延迟
func (r *bookRepository) FindCurrent(ctx context.Context, id uuid.UUID) (*book.Book, error) {
	return r.findOne(r.db.Writer(ctx), id)
}

func (r *bookRepository) findOne(db *gorm.DB, id uuid.UUID) (*book.Book, error) {
	var model BookModel
	err := withBookAssociations(db).Where("book.id = ?", id).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// Filter 关系型降级查询
func (r *bookRepository) Filter(ctx context.Context, f book.Filter) ([]*book.Book, error) {
	if err := f.Normalize(); err != nil {
		return nil, err
	}

	var models []BookModel
	query := withBookAssociations(buildBookFilterQuery(r.db.Reader(ctx), f))
	if err := query.Find(&models).Error; err != nil {
		return nil, classify(err, "查询图书列表失败")
	}
	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books, nil
}

func withBookAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Authors", func(db *gorm.DB) *gorm.DB { return db.Order("author.name") }).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("book_category.title") }).
		Preload("Data", func(db *gorm.DB) *gorm.DB { return db.Order("book_data.language") })
}

// buildBookFilterQuery 把过滤条件转换为SQL
// 只支持精确子集：ISBN、出版社、版次、形态、出版日期区间、作者姓名、分类标题、分页排序
// f必须已经Normalize
func buildBookFilterQuery(db *gorm.DB, f book.Filter) *gorm.DB {
	query := db.Model(&BookModel{})

	if f.ISBNCode != "" {
		query = query.Where("lower(book.isbn_code) = lower(?)", f.ISBNCode)
	}
	if f.Editor != "" {
		query = query.Where("book.editor ILIKE ?", containsPattern(f.Editor))
	}
	if f.Edition != nil {
		query = query.Where("book.edition = ?", *f.Edition)
	}
	if f.Type != "" {
		query = query.Where("book.type = ?", string(f.Type))
	}
	if f.PublishDateFrom != nil {
		query = query.Where("book.publish_date >= ?", f.PublishDateFrom.Time)
	}
	if f.PublishDateTo != nil {
		query = query.Where("book.publish_date <= ?", f.PublishDateTo.Time)
	}
	if f.AuthorName != "" {
		query = query.Where(authorNameExists, containsPattern(f.AuthorName))
	}
	if f.CategoryTitle != "" {
		query = query.Where(categoryTitleExists, f.CategoryTitle, similarityThreshold)
	}

	// SortBy/SortOrder已在Normalize中按白名单校验并补齐默认值
	query = query.Order("book." + f.SortBy + " " + strings.ToUpper(f.SortOrder)).Order("book.id")

	return query.Offset(f.Offset()).Limit(f.Size)
}
