package branch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/internal/application/command/commandtest"
	"github.com/xiebiao/bookcatalog/internal/domain/branch"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// fakeTx 快照仓储状态，fn失败时还原
type fakeTx struct {
	repo  *fakeRepo
	parts *fakePartitions
	calls int
}

func (t *fakeTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	rows := map[uuid.UUID]branch.Branch{}
	for k, v := range t.repo.rows {
		rows[k] = v
	}
	parts := map[uuid.UUID]bool{}
	for k, v := range t.parts.created {
		parts[k] = v
	}
	if err := fn(ctx); err != nil {
		t.repo.rows, t.parts.created = rows, parts
		return err
	}
	return nil
}

type fakeRepo struct {
	rows map[uuid.UUID]branch.Branch
}

func (r *fakeRepo) Upsert(_ context.Context, b *branch.Branch) error {
	if cur, ok := r.rows[b.ID]; ok && cur.Version != b.Version-1 {
		return apperrors.ErrOptimisticLock
	}
	r.rows[b.ID] = *b
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.rows, id)
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*branch.Branch, error) {
	if b, ok := r.rows[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (r *fakeRepo) FilterByName(context.Context, string, int, int) ([]*branch.Branch, error) {
	return nil, nil
}

type fakePartitions struct {
	created map[uuid.UUID]bool
	err     error
}

func (p *fakePartitions) EnsurePartition(_ context.Context, id uuid.UUID) error {
	if p.err != nil {
		return p.err
	}
	p.created[id] = true
	return nil
}

func (p *fakePartitions) DropPartition(_ context.Context, id uuid.UUID) error {
	delete(p.created, id)
	return nil
}

func newWriteFixture() (*WriteUseCase, *fakeRepo, *fakePartitions, *commandtest.Publisher) {
	repo := &fakeRepo{rows: map[uuid.UUID]branch.Branch{}}
	parts := &fakePartitions{created: map[uuid.UUID]bool{}}
	pub := &commandtest.Publisher{}
	uc := NewWriteUseCase(&fakeTx{repo: repo, parts: parts}, repo, parts, pub, zap.NewNop())
	return uc, repo, parts, pub
}

func newBranch() *branch.Branch {
	return &branch.Branch{
		ID:       uuid.New(),
		Name:     "Central Library",
		Metadata: shared.NewMetadata("alice", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
	}
}

func TestWriteUseCase_UpsertCreatesPartition(t *testing.T) {
	uc, repo, parts, pub := newWriteFixture()
	b := newBranch()

	require.NoError(t, uc.Upsert(context.Background(), b))
	assert.Contains(t, repo.rows, b.ID)
	assert.True(t, parts.created[b.ID])
	assert.Equal(t, []string{"external.branch.upsert"}, pub.NotifiedKeys())

	// 分区已存在时再次写入（新版本）仍然成功
	next := *b
	next.Metadata = shared.NextVersion(b.Metadata, "bob", time.Now())
	require.NoError(t, uc.Upsert(context.Background(), &next))
	assert.Equal(t, 2, repo.rows[b.ID].Version)
}

func TestWriteUseCase_PartitionFailureRollsBack(t *testing.T) {
	uc, repo, parts, pub := newWriteFixture()
	parts.err = errors.New("ddl failed")
	b := newBranch()

	err := uc.Upsert(context.Background(), b)
	require.Error(t, err)
	assert.NotContains(t, repo.rows, b.ID)
	assert.Empty(t, pub.NotifiedKeys())
}

func TestWriteUseCase_DeleteDropsPartition(t *testing.T) {
	uc, repo, parts, pub := newWriteFixture()
	b := newBranch()
	require.NoError(t, uc.Upsert(context.Background(), b))

	require.NoError(t, uc.Delete(context.Background(), b.ID))
	assert.NotContains(t, repo.rows, b.ID)
	assert.False(t, parts.created[b.ID])
	assert.Equal(t, []string{"external.branch.upsert", "external.branch.deletion"}, pub.NotifiedKeys())
}

func TestCommandUseCase(t *testing.T) {
	repo := &fakeRepo{rows: map[uuid.UUID]branch.Branch{}}
	pub := &commandtest.Publisher{}
	uc := NewCommandUseCase(repo, pub)
	ctx := context.Background()

	b, err := uc.Create(ctx, CreateRequest{Name: "East Branch", Actor: "alice"})
	require.NoError(t, err)
	repo.rows[b.ID] = *b

	_, err = uc.Update(ctx, UpdateRequest{ID: b.ID, Name: "", Version: 1, Actor: "alice"})
	assert.ErrorIs(t, err, branch.ErrInvalidName)

	updated, err := uc.Update(ctx, UpdateRequest{ID: b.ID, Name: "East", Version: 1, Actor: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	require.NoError(t, uc.Delete(ctx, b.ID))
	assert.Equal(t, []string{"branch.upsert", "branch.upsert", "branch.deletion"}, pub.RoutingKeys())

	q := NewQueryUseCase(repo)
	_, err = q.Get(ctx, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}
