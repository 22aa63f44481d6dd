package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xiebiao/bookcatalog/internal/domain/branch"
)

// branchRepository 分馆仓储实现(PostgreSQL)
// 分区的创建与删除由PartitionManager负责，调用方把两者放在同一事务中
type branchRepository struct {
	db *DB
}

// NewBranchRepository 创建分馆仓储
func NewBranchRepository(db *DB) branch.Repository {
	return &branchRepository{db: db}
}

func (r *branchRepository) Upsert(ctx context.Context, b *branch.Branch) error {
	existing, err := casUpsert(r.db.Writer(ctx), casWrite{
		entity:  "branch",
		table:   BranchModel{}.TableName(),
		id:      b.ID,
		version: b.Version,
		model:   fromBranchEntity(b),
		updates: branchUpdates(b),
	})
	if err != nil {
		return err
	}
	if existing != nil {
		b.PreserveCreation(existing.CreatedAt, existing.CreatedBy)
	}
	return nil
}

// Delete 删除分馆，馆藏随外键级联删除
func (r *branchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.Writer(ctx), &BranchModel{}, "分馆", id)
}

func (r *branchRepository) FindByID(ctx context.Context, id uuid.UUID) (*branch.Branch, error) {
	var model BranchModel
	err := r.db.Reader(ctx).Where("id = ?", id).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "查询分馆失败")
	}
	return toBranchEntity(&model), nil
}

// FilterByName 名称包含匹配（忽略大小写）
func (r *branchRepository) FilterByName(ctx context.Context, name string, page, size int) ([]*branch.Branch, error) {
	query := r.db.Reader(ctx).Model(&BranchModel{})
	if name = strings.TrimSpace(name); name != "" {
		query = query.Where("name ILIKE ?", containsPattern(name))
	}

	var models []BranchModel
	if err := paginate(query.Order("name"), page, size).Find(&models).Error; err != nil {
		return nil, classify(err, "查询分馆列表失败")
	}
	branches := make([]*branch.Branch, len(models))
	for i := range models {
		branches[i] = toBranchEntity(&models[i])
	}
	return branches, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern 生成 %value% 形式的LIKE模式
func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}
