// Package shared 所有聚合共用的元数据与命令载荷
package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// Metadata 审计字段与版本号
// 设计说明：
// 1. Version是乐观锁版本，新建为1，每次成功写入+1
// 2. CreatedAt/CreatedBy只在首次写入时确定，后续写入保留原值
type Metadata struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by"`
	UpdatedBy string    `json:"updated_by"`
}

// NewMetadata 新建聚合的元数据（version=1）
func NewMetadata(actor string, now time.Time) Metadata {
	now = now.UTC()
	return Metadata{
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: actor,
		UpdatedBy: actor,
	}
}

// NextVersion 基于客户端读到的版本生成下一次写入的元数据
// 创建信息沿用existing，版本为existing.Version+1
func NextVersion(existing Metadata, actor string, now time.Time) Metadata {
	return Metadata{
		Version:   existing.Version + 1,
		CreatedAt: existing.CreatedAt,
		CreatedBy: existing.CreatedBy,
		UpdatedAt: now.UTC(),
		UpdatedBy: actor,
	}
}

// Revise 客户端基于readVersion修改已存在的聚合
// readVersion必须等于当前存储版本，否则说明客户端读到的是旧数据
func Revise(stored Metadata, readVersion int, actor string, now time.Time) (Metadata, error) {
	if readVersion < 1 {
		return Metadata{}, apperrors.New(apperrors.ErrCodeInvalidParams, "修改时必须提供读取到的version")
	}
	if readVersion != stored.Version {
		return Metadata{}, apperrors.New(apperrors.ErrCodeOptimisticLock,
			fmt.Sprintf("版本冲突：当前版本为%d，提交的版本为%d", stored.Version, readVersion))
	}
	return NextVersion(stored, actor, now), nil
}

// PreserveCreation 用已存在记录的创建信息覆盖m，其余字段不变
func (m *Metadata) PreserveCreation(createdAt time.Time, createdBy string) {
	m.CreatedAt = createdAt.UTC()
	m.CreatedBy = createdBy
}

// Validate 校验元数据
func (m Metadata) Validate() error {
	if m.Version < 1 {
		return fmt.Errorf("version必须大于等于1，实际为%d", m.Version)
	}
	if strings.TrimSpace(m.UpdatedBy) == "" {
		return fmt.Errorf("updated_by不能为空")
	}
	return nil
}

// Deletion 删除命令载荷
// 支持两种格式：{"id": "<uuid>"} 或 "<uuid>"
type Deletion struct {
	ID uuid.UUID `json:"id"`
}

// UnmarshalJSON 兼容对象与裸字符串两种格式
func (d *Deletion) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("无效的id: %w", err)
		}
		d.ID = id
		return nil
	}

	var obj struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	d.ID = obj.ID
	return nil
}
