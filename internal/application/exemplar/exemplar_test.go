package exemplar

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/internal/application/command/commandtest"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/domain/branch"
	"github.com/xiebiao/bookcatalog/internal/domain/exemplar"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// fakeRepo 按(book_id, branch_id)存储，分馆没有分区时返回ReferentialIntegrity
type fakeRepo struct {
	rows       map[[2]uuid.UUID]exemplar.Exemplar
	partitions map[uuid.UUID]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[[2]uuid.UUID]exemplar.Exemplar{}, partitions: map[uuid.UUID]bool{}}
}

func (r *fakeRepo) Upsert(_ context.Context, e *exemplar.Exemplar) error {
	if !r.partitions[e.BranchID] {
		return apperrors.ErrReferentialIntegrity
	}
	key := [2]uuid.UUID{e.BookID, e.BranchID}
	if cur, ok := r.rows[key]; ok {
		if cur.Version != e.Version-1 {
			return apperrors.ErrOptimisticLock
		}
		e.ID = cur.ID
		e.PreserveCreation(cur.CreatedAt, cur.CreatedBy)
	}
	r.rows[key] = *e
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	for k, e := range r.rows {
		if e.ID == id {
			delete(r.rows, k)
		}
	}
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*exemplar.Exemplar, error) {
	for _, e := range r.rows {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindByBookAndBranch(_ context.Context, bookID, branchID uuid.UUID) (*exemplar.Exemplar, error) {
	if e, ok := r.rows[[2]uuid.UUID{bookID, branchID}]; ok {
		return &e, nil
	}
	return nil, nil
}

func (r *fakeRepo) FilterByBranch(context.Context, exemplar.BranchFilter) ([]*exemplar.Exemplar, error) {
	return nil, nil
}

type fakeBooks struct {
	book.Repository
	ids map[uuid.UUID]bool
}

func (f fakeBooks) FindByID(_ context.Context, id uuid.UUID) (*book.Book, error) {
	if f.ids[id] {
		return &book.Book{ID: id}, nil
	}
	return nil, nil
}

type fakeBranches struct {
	branch.Repository
	ids map[uuid.UUID]bool
}

func (f fakeBranches) FindByID(_ context.Context, id uuid.UUID) (*branch.Branch, error) {
	if f.ids[id] {
		return &branch.Branch{ID: id}, nil
	}
	return nil, nil
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestCommandUseCase_UpsertReusesNaturalKey(t *testing.T) {
	bookID, branchID := uuid.New(), uuid.New()
	repo := newFakeRepo()
	pub := &commandtest.Publisher{}
	uc := NewCommandUseCase(repo,
		fakeBooks{ids: map[uuid.UUID]bool{bookID: true}},
		fakeBranches{ids: map[uuid.UUID]bool{branchID: true}},
		pub)
	uc.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	req := UpsertRequest{BookID: bookID, BranchID: branchID, Available: true, Room: 1, Floor: 2, Bookshelf: 3, Actor: "alice"}
	first, err := uc.Upsert(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	existingID := uuid.New()
	repo.rows[[2]uuid.UUID{bookID, branchID}] = exemplar.Exemplar{
		ID: existingID, BookID: bookID, BranchID: branchID, Room: 1, Floor: 1, Bookshelf: 1,
		Metadata: shared.Metadata{Version: 4, CreatedAt: fixedNow.Add(-time.Hour), CreatedBy: "carol", UpdatedBy: "carol"},
	}

	req.Actor = "bob"
	second, err := uc.Upsert(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, existingID, second.ID)
	assert.Equal(t, 5, second.Version)
	assert.Equal(t, "carol", second.CreatedBy)

	req.Version = 3
	_, err = uc.Upsert(ctx, req)
	assert.True(t, apperrors.IsOptimisticLock(err))

	assert.Equal(t, []string{"physical_exemplar.upsert", "physical_exemplar.upsert"}, pub.RoutingKeys())
}

func TestCommandUseCase_UpsertRequiresBookAndBranch(t *testing.T) {
	bookID, branchID := uuid.New(), uuid.New()
	uc := NewCommandUseCase(newFakeRepo(),
		fakeBooks{ids: map[uuid.UUID]bool{bookID: true}},
		fakeBranches{ids: map[uuid.UUID]bool{}},
		&commandtest.Publisher{})

	_, err := uc.Upsert(context.Background(), UpsertRequest{BookID: uuid.New(), BranchID: branchID, Room: 1, Floor: 1, Bookshelf: 1, Actor: "a"})
	assert.ErrorIs(t, err, book.ErrBookNotFound)

	_, err = uc.Upsert(context.Background(), UpsertRequest{BookID: bookID, BranchID: branchID, Room: 1, Floor: 1, Bookshelf: 1, Actor: "a"})
	assert.ErrorIs(t, err, branch.ErrBranchNotFound)
}

func TestWriteUseCase_PartitionPrecondition(t *testing.T) {
	repo := newFakeRepo()
	pub := &commandtest.Publisher{}
	uc := NewWriteUseCase(repo, pub, zap.NewNop())
	ctx := context.Background()

	e := &exemplar.Exemplar{
		ID: uuid.New(), Available: true, Room: 1, Floor: 1, Bookshelf: 1,
		BookID: uuid.New(), BranchID: uuid.New(),
		Metadata: shared.NewMetadata("alice", fixedNow),
	}
	err := uc.Upsert(ctx, e)
	assert.True(t, apperrors.IsReferentialIntegrity(err))
	assert.Empty(t, pub.NotifiedKeys())

	repo.partitions[e.BranchID] = true
	require.NoError(t, uc.Upsert(ctx, e))
	assert.Equal(t, []string{"external.physical_exemplar.upsert"}, pub.NotifiedKeys())
}

func TestWriteUseCase_NaturalKeyKeepsIdentity(t *testing.T) {
	repo := newFakeRepo()
	uc := NewWriteUseCase(repo, &commandtest.Publisher{}, zap.NewNop())
	ctx := context.Background()

	bookID, branchID := uuid.New(), uuid.New()
	repo.partitions[branchID] = true

	first := &exemplar.Exemplar{
		ID: uuid.New(), Available: true, Room: 1, Floor: 1, Bookshelf: 1,
		BookID: bookID, BranchID: branchID, Metadata: shared.NewMetadata("alice", fixedNow),
	}
	require.NoError(t, uc.Upsert(ctx, first))

	// 另一个生产者用新id提交同一(book, branch)
	second := &exemplar.Exemplar{
		ID: uuid.New(), Available: false, Room: 2, Floor: 1, Bookshelf: 1,
		BookID: bookID, BranchID: branchID,
		Metadata: shared.NextVersion(first.Metadata, "bob", fixedNow.Add(time.Minute)),
	}
	require.NoError(t, uc.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.rows, 1)

	stored := repo.rows[[2]uuid.UUID{bookID, branchID}]
	assert.False(t, stored.Available)
	assert.Equal(t, 2, stored.Room)
	assert.Equal(t, "alice", stored.CreatedBy)

	q := NewQueryUseCase(repo)
	got, err := q.GetByBookAndBranch(ctx, bookID, branchID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	require.NoError(t, uc.Delete(ctx, first.ID))
	_, err = q.Get(ctx, first.ID)
	assert.ErrorIs(t, err, exemplar.ErrExemplarNotFound)
}
