package branch

import (
	"context"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/domain/branch"
)

// QueryUseCase 分馆查询
type QueryUseCase struct {
	repo branch.Repository
}

func NewQueryUseCase(repo branch.Repository) *QueryUseCase {
	return &QueryUseCase{repo: repo}
}

// Get 按id查询
func (uc *QueryUseCase) Get(ctx context.Context, id uuid.UUID) (*branch.Branch, error) {
	b, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, branch.ErrBranchNotFound
	}
	return b, nil
}

// FilterByName 按名称模糊查询
func (uc *QueryUseCase) FilterByName(ctx context.Context, name string, page, size int) ([]*branch.Branch, error) {
	return uc.repo.FilterByName(ctx, name, page, size)
}
