// Package category 图书分类聚合
package category

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// Category 图书分类，Title全局唯一
type Category struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	shared.Metadata
}

var (
	ErrCategoryNotFound = apperrors.New(apperrors.ErrCodeNotFound, "图书分类不存在")
	ErrInvalidTitle     = apperrors.New(apperrors.ErrCodeInvalidParams, "分类标题不能为空")
)

// Validate 校验分类
func (c *Category) Validate() error {
	if c.ID == uuid.Nil {
		return apperrors.New(apperrors.ErrCodeInvalidParams, "分类id不能为空")
	}
	if strings.TrimSpace(c.Title) == "" {
		return ErrInvalidTitle
	}
	if err := c.Metadata.Validate(); err != nil {
		return apperrors.WithCode(apperrors.ErrCodeInvalidParams, err, "分类元数据无效")
	}
	return nil
}

// Filter 分类查询条件
type Filter struct {
	Title       string // 标题相似度 > 0.2
	Description string // 按空格拆词，依次ILIKE匹配
	Page        int
	Size        int
}

// DescriptionPattern 把描述拆成单词，生成 %w1%w2% 形式的ILIKE模式
// 空描述返回空字符串
func DescriptionPattern(description string) string {
	words := strings.Fields(description)
	if len(words) == 0 {
		return ""
	}
	escaped := make([]string, len(words))
	for i, w := range words {
		escaped[i] = escapeLike(w)
	}
	return "%" + strings.Join(escaped, "%") + "%"
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Repository 分类仓储
// 查询方法在记录不存在时返回(nil, nil)
type Repository interface {
	Upsert(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Category, error)
	FindByTitle(ctx context.Context, title string) (*Category, error)
	Filter(ctx context.Context, f Filter) ([]*Category, error)
}
