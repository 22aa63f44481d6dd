package author

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/internal/application/command"
	"github.com/xiebiao/bookcatalog/internal/application/command/commandtest"
	"github.com/xiebiao/bookcatalog/internal/domain/author"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// fakeRepo 内存仓储，Upsert遵循版本CAS
type fakeRepo struct {
	rows map[uuid.UUID]author.Author
	err  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[uuid.UUID]author.Author{}}
}

func (r *fakeRepo) Upsert(_ context.Context, a *author.Author) error {
	if r.err != nil {
		return r.err
	}
	if cur, ok := r.rows[a.ID]; ok {
		if cur.Version != a.Version-1 {
			return apperrors.ErrOptimisticLock
		}
		a.PreserveCreation(cur.CreatedAt, cur.CreatedBy)
	}
	r.rows[a.ID] = *a
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.rows, id)
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*author.Author, error) {
	if a, ok := r.rows[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (r *fakeRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*author.Author, error) {
	out := []*author.Author{}
	for _, id := range ids {
		if a, _ := r.FindByID(ctx, id); a != nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepo) FilterByName(context.Context, string, int, int) ([]*author.Author, error) {
	return nil, nil
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestCommandUseCase_Create(t *testing.T) {
	pub := &commandtest.Publisher{}
	uc := NewCommandUseCase(newFakeRepo(), pub)
	uc.now = func() time.Time { return fixedNow }

	a, err := uc.Create(context.Background(), CreateRequest{Name: "Octavia E. Butler", Actor: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 1, a.Version)
	assert.Equal(t, byte(7), a.ID[6]>>4, "UUIDv7")
	assert.Equal(t, []string{"author.upsert"}, pub.RoutingKeys())

	var sent author.Author
	require.NoError(t, pub.Last(&sent))
	assert.Equal(t, a.ID, sent.ID)
	assert.Equal(t, "alice", sent.CreatedBy)
}

func TestCommandUseCase_CreateRejectsEmptyName(t *testing.T) {
	pub := &commandtest.Publisher{}
	uc := NewCommandUseCase(newFakeRepo(), pub)

	_, err := uc.Create(context.Background(), CreateRequest{Name: " ", Actor: "alice"})
	assert.ErrorIs(t, err, author.ErrInvalidName)
	assert.Empty(t, pub.RoutingKeys())
}

func TestCommandUseCase_Update(t *testing.T) {
	repo := newFakeRepo()
	id := uuid.New()
	repo.rows[id] = author.Author{ID: id, Name: "N. K. Jemisin", Metadata: shared.NewMetadata("alice", fixedNow)}

	pub := &commandtest.Publisher{}
	uc := NewCommandUseCase(repo, pub)

	a, err := uc.Update(context.Background(), UpdateRequest{ID: id, Name: "N.K. Jemisin", Version: 1, Actor: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 2, a.Version)
	assert.Equal(t, "alice", a.CreatedBy)
	assert.Equal(t, "bob", a.UpdatedBy)

	_, err = uc.Update(context.Background(), UpdateRequest{ID: id, Name: "x", Version: 5, Actor: "bob"})
	assert.True(t, apperrors.IsOptimisticLock(err))

	_, err = uc.Update(context.Background(), UpdateRequest{ID: uuid.New(), Name: "x", Version: 1, Actor: "bob"})
	assert.True(t, apperrors.IsNotFound(err))

	assert.Equal(t, []string{"author.upsert"}, pub.RoutingKeys())
}

func TestCommandUseCase_Delete(t *testing.T) {
	pub := &commandtest.Publisher{}
	uc := NewCommandUseCase(newFakeRepo(), pub)
	id := uuid.New()

	require.NoError(t, uc.Delete(context.Background(), id))
	assert.Equal(t, []string{"author.deletion"}, pub.RoutingKeys())

	var d shared.Deletion
	require.NoError(t, pub.Last(&d))
	assert.Equal(t, id, d.ID)
}

func TestWriteUseCase_UpsertAndCAS(t *testing.T) {
	repo := newFakeRepo()
	pub := &commandtest.Publisher{}
	uc := NewWriteUseCase(repo, pub, zap.NewNop())
	ctx := context.Background()

	a := &author.Author{ID: uuid.New(), Name: "Ted Chiang", Metadata: shared.NewMetadata("alice", fixedNow)}
	require.NoError(t, uc.Upsert(ctx, a))

	// 重复投递同一版本被CAS拒绝
	dup := *a
	err := uc.Upsert(ctx, &dup)
	assert.True(t, apperrors.IsOptimisticLock(err))

	next := *a
	next.Name = "Ted Chiang Jr."
	next.Metadata = shared.NextVersion(a.Metadata, "bob", fixedNow.Add(time.Hour))
	require.NoError(t, uc.Upsert(ctx, &next))
	assert.Equal(t, 2, repo.rows[a.ID].Version)

	assert.Equal(t, []string{"external.author.upsert", "external.author.upsert"}, pub.NotifiedKeys())
}

func TestWriteUseCase_NotifyFailureDoesNotFailWrite(t *testing.T) {
	repo := newFakeRepo()
	pub := &commandtest.Publisher{NotifyErr: errors.New("broker down")}
	uc := NewWriteUseCase(repo, pub, zap.NewNop())

	a := &author.Author{ID: uuid.New(), Name: "Ted Chiang", Metadata: shared.NewMetadata("alice", fixedNow)}
	require.NoError(t, uc.Upsert(context.Background(), a))
	assert.Contains(t, repo.rows, a.ID)
}

func TestWriteUseCase_Handlers(t *testing.T) {
	repo := newFakeRepo()
	pub := &commandtest.Publisher{}
	uc := NewWriteUseCase(repo, pub, zap.NewNop())

	registry, err := command.NewRegistry(uc.Handlers()...)
	require.NoError(t, err)
	assert.Equal(t, []string{"author.upsert", "author.deletion"}, registry.RoutingKeys())

	id := uuid.New()
	h, _ := registry.Lookup(command.AuthorUpsert)
	payload := `{"id":"` + id.String() + `","name":"Ursula","version":1,"created_by":"a","updated_by":"a"}`
	require.NoError(t, h.Handle(context.Background(), []byte(payload)))
	assert.Contains(t, repo.rows, id)

	h, _ = registry.Lookup(command.AuthorDeletion)
	require.NoError(t, h.Handle(context.Background(), []byte(`"`+id.String()+`"`)))
	require.NoError(t, h.Handle(context.Background(), []byte(`"`+id.String()+`"`)), "删除不存在的作者不报错")
	assert.NotContains(t, repo.rows, id)
	assert.Equal(t, []string{"external.author.upsert", "external.author.deletion", "external.author.deletion"}, pub.NotifiedKeys())
}

func TestQueryUseCase_Get(t *testing.T) {
	repo := newFakeRepo()
	id := uuid.New()
	repo.rows[id] = author.Author{ID: id, Name: "Ursula", Metadata: shared.NewMetadata("alice", fixedNow)}
	uc := NewQueryUseCase(repo)

	a, err := uc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ursula", a.Name)

	_, err = uc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, author.ErrAuthorNotFound)
}
