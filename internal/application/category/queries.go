package category

import (
	"context"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/domain/category"
)

// QueryUseCase 分类查询
type QueryUseCase struct {
	repo category.Repository
}

// NewQueryUseCase 创建分类查询用例
func NewQueryUseCase(repo category.Repository) *QueryUseCase {
	return &QueryUseCase{repo: repo}
}

// Get 按id查询
func (uc *QueryUseCase) Get(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	c, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, category.ErrCategoryNotFound
	}
	return c, nil
}

// Filter 按标题相似度与描述关键词查询
func (uc *QueryUseCase) Filter(ctx context.Context, f category.Filter) ([]*category.Category, error) {
	return uc.repo.Filter(ctx, f)
}
