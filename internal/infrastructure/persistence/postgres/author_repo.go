package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/bookcatalog/internal/domain/author"
)

// similarityThreshold pg_trgm相似度阈值
const similarityThreshold = 0.2

// authorRepository 作者仓储实现(PostgreSQL)
type authorRepository struct {
	db *DB
}

// NewAuthorRepository 创建作者仓储
func NewAuthorRepository(db *DB) author.Repository {
	return &authorRepository{db: db}
}

// Upsert 版本CAS写入，写入后回填已存在记录的创建信息
func (r *authorRepository) Upsert(ctx context.Context, a *author.Author) error {
	existing, err := casUpsert(r.db.Writer(ctx), casWrite{
		entity:  "author",
		table:   AuthorModel{}.TableName(),
		id:      a.ID,
		version: a.Version,
		model:   fromAuthorEntity(a),
		updates: authorUpdates(a),
	})
	if err != nil {
		return err
	}
	if existing != nil {
		a.PreserveCreation(existing.CreatedAt, existing.CreatedBy)
	}
	return nil
}

func (r *authorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.Writer(ctx), &AuthorModel{}, "作者", id)
}

func (r *authorRepository) FindByID(ctx context.Context, id uuid.UUID) (*author.Author, error) {
	var model AuthorModel
	err := r.db.Reader(ctx).Where("id = ?", id).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "查询作者失败")
	}
	return toAuthorEntity(&model), nil
}

func (r *authorRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*author.Author, error) {
	if len(ids) == 0 {
		return []*author.Author{}, nil
	}
	var models []AuthorModel
	if err := r.db.Reader(ctx).Where("id IN ?", ids).Order("name").Find(&models).Error; err != nil {
		return nil, classify(err, "查询作者失败")
	}
	authors := make([]*author.Author, len(models))
	for i := range models {
		authors[i] = toAuthorEntity(&models[i])
	}
	return authors, nil
}

// FilterByName 按姓名相似度查询，相似度高的在前
func (r *authorRepository) FilterByName(ctx context.Context, name string, page, size int) ([]*author.Author, error) {
	query := r.db.Reader(ctx).Model(&AuthorModel{})
	if name != "" {
		query = query.
			Where("similarity(name, ?) > ?", name, similarityThreshold).
			Order(orderBySimilarity("name", name))
	} else {
		query = query.Order("created_at DESC")
	}

	var models []AuthorModel
	if err := paginate(query, page, size).Find(&models).Error; err != nil {
		return nil, classify(err, "查询作者列表失败")
	}
	authors := make([]*author.Author, len(models))
	for i := range models {
		authors[i] = toAuthorEntity(&models[i])
	}
	return authors, nil
}

// orderBySimilarity 按相似度降序，相同时按创建时间降序
func orderBySimilarity(column, value string) clause.OrderBy {
	return clause.OrderBy{Expression: clause.Expr{
		SQL:                "similarity(" + column + ", ?) DESC, created_at DESC",
		Vars:               []any{value},
		WithoutParentheses: true,
	}}
}

// paginate 分页，page从1开始
func paginate(query *gorm.DB, page, size int) *gorm.DB {
	if size <= 0 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	if page < 1 {
		page = 1
	}
	return query.Offset((page - 1) * size).Limit(size)
}
