package book

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookcatalog/internal/application/command/commandtest"
	"github.com/xiebiao/bookcatalog/internal/domain/author"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/persistence/postgres"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/search"
)

// 需要真实的PostgreSQL和Elasticsearch
//
//	CATALOG_TEST_DATABASE_DSN="host=localhost user=postgres password=postgres dbname=catalog_test sslmode=disable" \
//	CATALOG_TEST_ES_URL=http://localhost:9200 go test ./internal/application/book/...

type dualStore struct {
	index   *search.BookIndex
	authors author.Repository
	books   book.Repository
}

func openDualStore(t *testing.T) *dualStore {
	t.Helper()
	dsn := os.Getenv("CATALOG_TEST_DATABASE_DSN")
	esURL := os.Getenv("CATALOG_TEST_ES_URL")
	if dsn == "" || esURL == "" {
		t.Skip("CATALOG_TEST_DATABASE_DSN或CATALOG_TEST_ES_URL未设置，跳过集成测试")
	}
	ctx := context.Background()

	g, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(ctx, g))
	db := &postgres.DB{Primary: g, Replica: g}

	// 每个测试独占一个索引
	name := "books-test-" + uuid.NewString()
	client, err := search.NewClient(ctx, config.ElasticsearchConfig{
		Addresses: []string{esURL},
		Index:     name,
		Timeout:   5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	index := search.NewBookIndex(client, name, zap.NewNop())
	require.NoError(t, index.EnsureIndex(ctx))
	t.Cleanup(func() {
		if res, err := client.Indices.Delete([]string{name}); err == nil {
			res.Body.Close()
		}
	})

	return &dualStore{
		index:   index,
		authors: postgres.NewAuthorRepository(db),
		books:   postgres.NewBookRepository(db),
	}
}

func TestIntegration_ProjectionConverges(t *testing.T) {
	s := openDualStore(t)
	ctx := context.Background()
	pub := &commandtest.Publisher{}
	uc := NewProjectionUseCase(s.books, s.index, nil, pub, zap.NewNop())

	now := time.Now().Truncate(time.Millisecond)
	a := &author.Author{ID: uuid.New(), Name: "Ursula K. Le Guin", Metadata: shared.NewMetadata("tester", now)}
	require.NoError(t, s.authors.Upsert(ctx, a))

	summary := "Genly Ai on Gethen"
	b := &book.Book{
		ID:          uuid.New(),
		ISBNCode:    "978-" + uuid.NewString(),
		Editor:      "Ace",
		Edition:     1,
		Type:        book.TypePhysical,
		PublishDate: shared.NewDate(time.Date(1969, 3, 1, 0, 0, 0, 0, time.UTC)),
		AuthorIDs:   []uuid.UUID{a.ID},
		Data:        []book.Data{{Title: "The Left Hand of Darkness", Summary: &summary, Language: "en"}},
		Metadata:    shared.NewMetadata("tester", now),
	}
	require.NoError(t, b.FillData())
	require.NoError(t, uc.Upsert(ctx, b))

	requireConverged(t, s, b.ID, b.ISBNCode)

	// 第二个版本覆盖第一个版本的文档
	current, err := s.books.FindCurrent(ctx, b.ID)
	require.NoError(t, err)
	next := *current
	next.Metadata = shared.NextVersion(current.Metadata, "editor", now.Add(time.Minute))
	next.Editor = "Harper & Row"
	next.Data = []book.Data{{Title: "La mano izquierda de la oscuridad", Language: "es"}}
	require.NoError(t, next.FillData())
	require.NoError(t, uc.Upsert(ctx, &next))

	requireConverged(t, s, b.ID, b.ISBNCode)

	require.NoError(t, uc.Delete(ctx, b.ID))
	f := book.Filter{ISBNCode: b.ISBNCode}
	require.NoError(t, f.Normalize())
	hits, err := s.index.Search(ctx, f)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Equal(t, []string{"external.book.upsert", "external.book.upsert", "external.book.deletion"}, pub.NotifiedKeys())
}

// requireConverged 按ISBN检索恰好命中一条，且与主库当前状态一致
func requireConverged(t *testing.T, s *dualStore, id uuid.UUID, isbn string) {
	t.Helper()
	ctx := context.Background()

	want, err := s.books.FindCurrent(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, want)

	f := book.Filter{ISBNCode: isbn}
	require.NoError(t, f.Normalize())
	hits, err := s.index.Search(ctx, f)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	got := hits[0]

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.ISBNCode, got.ISBNCode)
	assert.Equal(t, want.Editor, got.Editor)
	assert.Equal(t, want.Edition, got.Edition)
	assert.Equal(t, want.Type, got.Type)
	assert.Equal(t, want.PublishDate.String(), got.PublishDate.String())
	assert.ElementsMatch(t, want.AuthorIDs, got.AuthorIDs)
	assert.ElementsMatch(t, want.CategoryIDs, got.CategoryIDs)
	assertMetadata(t, want.Metadata, got.Metadata)

	require.Len(t, got.Authors, len(want.Authors))
	for i := range want.Authors {
		assert.Equal(t, want.Authors[i].ID, got.Authors[i].ID)
		assert.Equal(t, want.Authors[i].Name, got.Authors[i].Name)
	}
	require.Len(t, got.Data, len(want.Data))
	for i := range want.Data {
		assert.Equal(t, want.Data[i].ID, got.Data[i].ID)
		assert.Equal(t, want.Data[i].Title, got.Data[i].Title)
		assert.Equal(t, want.Data[i].Summary, got.Data[i].Summary)
		assert.Equal(t, want.Data[i].Language, got.Data[i].Language)
	}
}

func assertMetadata(t *testing.T, want, got shared.Metadata) {
	t.Helper()
	assert.Equal(t, want.Version, got.Version)
	assert.Equal(t, want.CreatedBy, got.CreatedBy)
	assert.Equal(t, want.UpdatedBy, got.UpdatedBy)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at: %s != %s", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at: %s != %s", want.UpdatedAt, got.UpdatedAt)
}
