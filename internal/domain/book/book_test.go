package book

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

func validBook() *Book {
	return &Book{
		ID:          uuid.New(),
		ISBNCode:    "978-0-441-47812-5",
		Editor:      "Ace",
		Edition:     1,
		Type:        TypePhysical,
		PublishDate: shared.NewDate(time.Date(1969, 3, 1, 0, 0, 0, 0, time.UTC)),
		AuthorIDs:   []uuid.UUID{uuid.New()},
		Data:        []Data{{Title: "The Left Hand of Darkness", Language: "en"}},
		Metadata:    shared.NewMetadata("alice", time.Now()),
	}
}

func TestBook_Validate(t *testing.T) {
	require.NoError(t, validBook().Validate())

	cases := []struct {
		name   string
		mutate func(b *Book)
		want   error
	}{
		{"缺少ISBN", func(b *Book) { b.ISBNCode = "" }, ErrInvalidISBN},
		{"未知形态", func(b *Book) { b.Type = "scroll" }, ErrInvalidType},
		{"版次为0", func(b *Book) { b.Edition = 0 }, ErrInvalidEdition},
		{"没有作者", func(b *Book) { b.AuthorIDs = nil }, ErrNoAuthors},
		{"数据缺少语言", func(b *Book) { b.Data[0].Language = "" }, ErrInvalidData},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := validBook()
			tc.mutate(b)
			err := b.Validate()
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, apperrors.IsInvalidData(err))
		})
	}
}

func TestBook_FillData(t *testing.T) {
	b := validBook()
	existing := uuid.New()
	b.Data = append(b.Data, Data{ID: existing, Title: "La mano izquierda", Language: "es"})

	require.NoError(t, b.FillData())

	assert.NotEqual(t, uuid.Nil, b.Data[0].ID)
	assert.Equal(t, existing, b.Data[1].ID)
	assert.Equal(t, b.Metadata, b.Data[0].Metadata)
	assert.Equal(t, []string{"en", "es"}, b.Languages())
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{}
	require.NoError(t, f.Normalize())
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPageSize, f.Size)
	assert.Equal(t, 0, f.Offset())

	f = Filter{Size: 1000, SortOrder: "DESC", SortBy: "publish_date"}
	require.NoError(t, f.Normalize())
	assert.Equal(t, MaxPageSize, f.Size)
	assert.Equal(t, "desc", f.SortOrder)

	f = Filter{SortOrder: "sideways"}
	assert.True(t, apperrors.IsInvalidData(f.Normalize()))

	f = Filter{SortBy: "password"}
	assert.True(t, apperrors.IsInvalidData(f.Normalize()))

	from, _ := shared.ParseDate("2020-01-01")
	to, _ := shared.ParseDate("2019-01-01")
	f = Filter{PublishDateFrom: &from, PublishDateTo: &to}
	assert.True(t, apperrors.IsInvalidData(f.Normalize()))
}

func TestFilter_NormalizeSortDefaults(t *testing.T) {
	f := Filter{}
	require.NoError(t, f.Normalize())
	assert.Equal(t, DefaultSortBy, f.SortBy)
	assert.Equal(t, DefaultSortOrder, f.SortOrder)

	// 只指定排序字段时方向取默认值
	f = Filter{SortBy: "edition"}
	require.NoError(t, f.Normalize())
	assert.Equal(t, "edition", f.SortBy)
	assert.Equal(t, DefaultSortOrder, f.SortOrder)

	f = Filter{SortBy: "edition", SortOrder: "Asc"}
	require.NoError(t, f.Normalize())
	assert.Equal(t, "asc", f.SortOrder)
}

func TestFilter_NormalizeRejectsDeepPages(t *testing.T) {
	f := Filter{Page: 1000000, Size: 100}
	assert.True(t, apperrors.IsInvalidData(f.Normalize()))

	// 窗口恰好等于上限时允许
	f = Filter{Page: MaxResultWindow / MaxPageSize, Size: MaxPageSize}
	require.NoError(t, f.Normalize())
	assert.Equal(t, MaxResultWindow, f.Offset()+f.Size)

	f = Filter{Page: MaxResultWindow/MaxPageSize + 1, Size: MaxPageSize}
	assert.True(t, apperrors.IsInvalidData(f.Normalize()))
}

// 分页偏移量满足 offset = (page-1)*size，且相邻页不重叠
func TestFilter_OffsetProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := Filter{
			Page: rapid.IntRange(-5, 10000).Draw(t, "page"),
			Size: rapid.IntRange(-5, 500).Draw(t, "size"),
		}
		err := f.Normalize()
		if err != nil {
			if !apperrors.IsInvalidData(err) || f.Offset()+f.Size <= MaxResultWindow {
				t.Fatalf("unexpected error: %v", err)
			}
			return
		}
		if f.Offset()+f.Size > MaxResultWindow {
			t.Fatalf("window %d exceeds limit", f.Offset()+f.Size)
		}
		if f.Page < 1 || f.Size < 1 || f.Size > MaxPageSize {
			t.Fatalf("normalize produced page=%d size=%d", f.Page, f.Size)
		}
		if f.Offset() != (f.Page-1)*f.Size {
			t.Fatalf("offset=%d page=%d size=%d", f.Offset(), f.Page, f.Size)
		}
		next := f
		next.Page++
		if next.Offset()-f.Offset() != f.Size {
			t.Fatalf("pages overlap")
		}
	})
}
