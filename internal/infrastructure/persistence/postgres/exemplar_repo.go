package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xiebiao/bookcatalog/internal/domain/exemplar"
)

// exemplarRepository 馆藏仓储实现(PostgreSQL分区表)
type exemplarRepository struct {
	db *DB
}

// NewExemplarRepository 创建馆藏仓储
func NewExemplarRepository(db *DB) exemplar.Repository {
	return &exemplarRepository{db: db}
}

// Upsert 按(book_id, branch_id)写入
// 1. 自然键已存在：沿用已有id与创建信息，在其上执行版本CAS
// 2. 不存在：按给定内容插入；分馆分区不存在时数据库返回23514，转换为ReferentialIntegrity
func (r *exemplarRepository) Upsert(ctx context.Context, e *exemplar.Exemplar) error {
	existing, err := casUpsert(r.db.Writer(ctx), casWrite{
		entity:         "physical_exemplar",
		table:          ExemplarModel{}.TableName(),
		id:             e.ID,
		version:        e.Version,
		model:          fromExemplarEntity(e),
		updates:        exemplarUpdates(e),
		naturalKey:     "book_id = ? AND branch_id = ?",
		naturalKeyArgs: []any{e.BookID, e.BranchID},
	})
	if err != nil {
		return err
	}
	if existing != nil {
		e.ID = existing.ID
		e.PreserveCreation(existing.CreatedAt, existing.CreatedBy)
	}
	return nil
}

func (r *exemplarRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.Writer(ctx), &ExemplarModel{}, "馆藏", id)
}

func (r *exemplarRepository) FindByID(ctx context.Context, id uuid.UUID) (*exemplar.Exemplar, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *exemplarRepository) FindByBookAndBranch(ctx context.Context, bookID, branchID uuid.UUID) (*exemplar.Exemplar, error) {
	return r.findOne(ctx, "book_id = ? AND branch_id = ?", bookID, branchID)
}

func (r *exemplarRepository) findOne(ctx context.Context, where string, args ...any) (*exemplar.Exemplar, error) {
	var model ExemplarModel
	err := r.db.Reader(ctx).Where(where, args...).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "查询馆藏失败")
	}
	return toExemplarEntity(&model), nil
}

// FilterByBranch 查询某分馆的馆藏，按所属图书的属性过滤
// branch_id条件让查询只扫描该分馆的分区
func (r *exemplarRepository) FilterByBranch(ctx context.Context, f exemplar.BranchFilter) ([]*exemplar.Exemplar, error) {
	query := buildExemplarFilterQuery(r.db.Reader(ctx), f)

	var models []ExemplarModel
	if err := paginate(query, f.Page, f.Size).Find(&models).Error; err != nil {
		return nil, classify(err, "查询馆藏列表失败")
	}
	exemplars := make([]*exemplar.Exemplar, len(models))
	for i := range models {
		exemplars[i] = toExemplarEntity(&models[i])
	}
	return exemplars, nil
}

func buildExemplarFilterQuery(db *gorm.DB, f exemplar.BranchFilter) *gorm.DB {
	query := db.Model(&ExemplarModel{}).
		Select("physical_exemplar.*").
		Joins("JOIN book ON book.id = physical_exemplar.book_id").
		Where("physical_exemplar.branch_id = ?", f.BranchID)

	if f.Available != nil {
		query = query.Where("physical_exemplar.available = ?", *f.Available)
	}
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
	if f.AuthorName != "" {
		query = query.Where(authorNameExists, containsPattern(f.AuthorName))
	}
	return query.Order("physical_exemplar.created_at DESC")
}
