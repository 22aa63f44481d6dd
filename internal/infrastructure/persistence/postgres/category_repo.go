package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xiebiao/bookcatalog/internal/domain/category"
)

// categoryRepository 图书分类仓储实现(PostgreSQL)
type categoryRepository struct {
	db *DB
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *DB) category.Repository {
	return &categoryRepository{db: db}
}

// Upsert 版本CAS写入
// 标题全局唯一，不同id使用已存在的标题时返回InvalidData
func (r *categoryRepository) Upsert(ctx context.Context, c *category.Category) error {
	existing, err := casUpsert(r.db.Writer(ctx), casWrite{
		entity:  "book_category",
		table:   CategoryModel{}.TableName(),
		id:      c.ID,
		version: c.Version,
		model:   fromCategoryEntity(c),
		updates: categoryUpdates(c),
	})
	if err != nil {
		return err
	}
	if existing != nil {
		c.PreserveCreation(existing.CreatedAt, existing.CreatedBy)
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.Writer(ctx), &CategoryModel{}, "图书分类", id)
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *categoryRepository) FindByTitle(ctx context.Context, title string) (*category.Category, error) {
	return r.findOne(ctx, "title = ?", title)
}

func (r *categoryRepository) findOne(ctx context.Context, where string, args ...any) (*category.Category, error) {
	var model CategoryModel
	err := r.db.Reader(ctx).Where(where, args...).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "查询图书分类失败")
	}
	return toCategoryEntity(&model), nil
}

func (r *categoryRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*category.Category, error) {
	if len(ids) == 0 {
		return []*category.Category{}, nil
	}
	var models []CategoryModel
	if err := r.db.Reader(ctx).Where("id IN ?", ids).Order("title").Find(&models).Error; err != nil {
		return nil, classify(err, "查询图书分类失败")
	}
	return toCategoryEntities(models), nil
}

// Filter 标题按相似度匹配，描述按单词顺序ILIKE匹配
func (r *categoryRepository) Filter(ctx context.Context, f category.Filter) ([]*category.Category, error) {
	query := r.db.Reader(ctx).Model(&CategoryModel{})
	if pattern := category.DescriptionPattern(f.Description); pattern != "" {
		query = query.Where("description ILIKE ?", pattern)
	}
	if f.Title != "" {
		query = query.
			Where("similarity(title, ?) > ?", f.Title, similarityThreshold).
			Order(orderBySimilarity("title", f.Title))
	} else {
		query = query.Order("created_at DESC")
	}

	var models []CategoryModel
	if err := paginate(query, f.Page, f.Size).Find(&models).Error; err != nil {
		return nil, classify(err, "查询图书分类列表失败")
	}
	return toCategoryEntities(models), nil
}

func toCategoryEntities(models []CategoryModel) []*category.Category {
	categories := make([]*category.Category, len(models))
	for i := range models {
		categories[i] = toCategoryEntity(&models[i])
	}
	return categories
}
