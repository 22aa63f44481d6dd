package author

import (
	"context"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/domain/author"
)

// QueryUseCase 作者查询（从库）
type QueryUseCase struct {
	repo author.Repository
}

// NewQueryUseCase 创建作者查询用例
func NewQueryUseCase(repo author.Repository) *QueryUseCase {
	return &QueryUseCase{repo: repo}
}

// Get 按id查询，不存在时返回NotFound
func (uc *QueryUseCase) Get(ctx context.Context, id uuid.UUID) (*author.Author, error) {
	a, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, author.ErrAuthorNotFound
	}
	return a, nil
}

// FilterByName 按姓名相似度查询
func (uc *QueryUseCase) FilterByName(ctx context.Context, name string, page, size int) ([]*author.Author, error) {
	return uc.repo.FilterByName(ctx, name, page, size)
}
