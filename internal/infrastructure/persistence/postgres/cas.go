package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// creation 已存在记录的创建信息
type creation struct {
	ID        uuid.UUID
	CreatedAt time.Time
	CreatedBy string
	Version   int
}

// findCreation 查询已存在记录，不存在返回(nil, nil)
func findCreation(db *gorm.DB, table string, where string, args ...any) (*creation, error) {
	var c creation
	err := db.Table(table).
		Select("id", "created_at", "created_by", "version").
		Where(where, args...).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// casWrite 一次版本CAS写入
type casWrite struct {
	entity  string    // 实体名，用于错误信息与指标标签
	table   string    // 表名
	id      uuid.UUID // 目标记录id
	version int       // 提交的新版本
	model   any       // 插入时使用的完整模型
	updates *UpdateSet

	// 自然键查询条件，为空时按id查询
	naturalKey     string
	naturalKeyArgs []any
}

// casUpsert 版本CAS写入
// 1. 按id（或自然键）查询已存在记录（显式的可空查询结果）
// 2. 不存在：按给定内容插入；并发插入同一id的主键冲突视为版本冲突
// 3. 存在：UPDATE ... WHERE id = <已存在记录id> AND version = ?-1，影响0行即版本冲突
// 返回已存在记录的创建信息（新插入时为nil），供调用方保留created_at/created_by
func casUpsert(db *gorm.DB, w casWrite) (*creation, error) {
	where, args := "id = ?", []any{w.id}
	if w.naturalKey != "" {
		where, args = w.naturalKey, w.naturalKeyArgs
	}

	existing, err := findCreation(db, w.table, where, args...)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("查询%s失败", w.entity))
	}

	if existing == nil {
		if err := db.Create(w.model).Error; err != nil {
			return nil, classify(err, fmt.Sprintf("写入%s失败", w.entity))
		}
		return nil, nil
	}

	result := db.Table(w.table).
		Where("id = ? AND version = ?", existing.ID, w.version-1).
		Updates(w.updates.Map())
	if result.Error != nil {
		return nil, classify(result.Error, fmt.Sprintf("更新%s失败", w.entity))
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.WithCode(apperrors.ErrCodeOptimisticLock,
			fmt.Errorf("%s %s: 期望存储版本%d，实际为%d", w.entity, existing.ID, w.version-1, existing.Version),
			"数据已被修改，版本冲突")
	}
	return existing, nil
}

// deleteByID 无条件删除，不存在时不报错
func deleteByID(db *gorm.DB, model any, entity string, id uuid.UUID) error {
	if err := db.Where("id = ?", id).Delete(model).Error; err != nil {
		return classify(err, fmt.Sprintf("删除%s失败", entity))
	}
	return nil
}
