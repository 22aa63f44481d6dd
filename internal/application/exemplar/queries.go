package exemplar

import (
	"context"

	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/domain/exemplar"
)

// QueryUseCase 馆藏查询
type QueryUseCase struct {
	repo exemplar.Repository
}

func NewQueryUseCase(repo exemplar.Repository) *QueryUseCase {
	return &QueryUseCase{repo: repo}
}

// Get 按id查询
func (uc *QueryUseCase) Get(ctx context.Context, id uuid.UUID) (*exemplar.Exemplar, error) {
	return found(uc.repo.FindByID(ctx, id))
}

// GetByBookAndBranch 按自然键查询
func (uc *QueryUseCase) GetByBookAndBranch(ctx context.Context, bookID, branchID uuid.UUID) (*exemplar.Exemplar, error) {
	return found(uc.repo.FindByBookAndBranch(ctx, bookID, branchID))
}

// FilterByBranch 某分馆的馆藏
func (uc *QueryUseCase) FilterByBranch(ctx context.Context, f exemplar.BranchFilter) ([]*exemplar.Exemplar, error) {
	return uc.repo.FilterByBranch(ctx, f)
}

func found(e *exemplar.Exemplar, err error) (*exemplar.Exemplar, error) {
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, exemplar.ErrExemplarNotFound
	}
	return e, nil
}
