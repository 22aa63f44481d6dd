package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/domain/exemplar"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/search"
)

// dryRunDB 只生成SQL，不连接数据库
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=catalog dbname=catalog sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	require.NoError(t, err)
	return db
}

func TestBuildBookFilterQuery(t *testing.T) {
	db := dryRunDB(t)
	edition := 2
	from := shared.NewDate(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))

	f := book.Filter{
		ISBNCode:        "978-3-16",
		Editor:          "Penguin",
		Edition:         &edition,
		Type:            book.TypePhysical,
		PublishDateFrom: &from,
		AuthorName:      "Tolkien",
		CategoryTitle:   "Fantasy",
		TextQuery:       "ignored on the relational path",
		Page:            2,
		Size:            10,
		SortBy:          "publish_date",
		SortOrder:       "asc",
	}
	require.NoError(t, f.Normalize())

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return buildBookFilterQuery(tx, f).Find(&[]BookModel{})
	})

	assert.Contains(t, sql, `FROM "book"`)
	assert.Contains(t, sql, "lower(book.isbn_code) = lower('978-3-16')")
	assert.Contains(t, sql, "book.editor ILIKE '%Penguin%'")
	assert.Contains(t, sql, "book.edition = 2")
	assert.Contains(t, sql, "book.type = 'physical'")
	assert.Contains(t, sql, "book.publish_date >=")
	assert.NotContains(t, sql, "book.publish_date <=")
	assert.Contains(t, sql, "a.name ILIKE '%Tolkien%'")
	assert.Contains(t, sql, "similarity(c.title, 'Fantasy')")
	assert.Contains(t, sql, "ORDER BY book.publish_date ASC,book.id")
	assert.Contains(t, sql, "LIMIT 10")
	assert.Contains(t, sql, "OFFSET 10")
	assert.NotContains(t, sql, "ignored")
}

func TestBuildBookFilterQuery_Defaults(t *testing.T) {
	db := dryRunDB(t)
	f := book.Filter{}
	require.NoError(t, f.Normalize())

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return buildBookFilterQuery(tx, f).Find(&[]BookModel{})
	})

	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, "ORDER BY book.created_at DESC,book.id")
	assert.Contains(t, sql, "LIMIT 10")
	assert.NotContains(t, sql, "OFFSET")
}

// 同一个Filter在检索路径和降级路径上的排序必须一致
func TestBuildBookFilterQuery_SortMatchesSearchBody(t *testing.T) {
	db := dryRunDB(t)
	cases := []book.Filter{
		{},
		{SortBy: "edition"},
		{SortBy: "edition", SortOrder: "asc"},
		{SortBy: "publish_date", SortOrder: "DESC"},
		{SortOrder: "asc"},
	}
	for _, f := range cases {
		require.NoError(t, f.Normalize())

		sorts, ok := search.BuildSearchBody(f)["sort"].([]search.Query)
		require.True(t, ok)
		require.Len(t, sorts, 1)
		clause, ok := sorts[0][f.SortBy].(search.Query)
		require.True(t, ok, "sort field %s", f.SortBy)
		order := clause["order"].(string)

		sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			return buildBookFilterQuery(tx, f).Find(&[]BookModel{})
		})
		assert.Contains(t, sql, "ORDER BY book."+f.SortBy+" "+strings.ToUpper(order)+",book.id", "filter %+v", f)
	}
}

func TestBuildExemplarFilterQuery(t *testing.T) {
	db := dryRunDB(t)
	branchID := uuid.MustParse("0190f0a2-0000-7000-8000-000000000001")
	available := true

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return buildExemplarFilterQuery(tx, exemplar.BranchFilter{
			BranchID:  branchID,
			Available: &available,
			Type:      book.TypeBoth,
		}).Find(&[]ExemplarModel{})
	})

	assert.Contains(t, sql, "JOIN book ON book.id = physical_exemplar.book_id")
	assert.Contains(t, sql, "physical_exemplar.branch_id = '"+branchID.String()+"'")
	assert.Contains(t, sql, "physical_exemplar.available = true")
	assert.Contains(t, sql, "book.type = 'both'")
	assert.NotContains(t, sql, "ILIKE")
}

func TestPartitionName(t *testing.T) {
	id := uuid.MustParse("0190f0a2-1b2c-7d3e-8f40-123456789abc")
	assert.Equal(t, "physical_exemplar_branch_0190f0a2_1b2c_7d3e_8f40_123456789abc", PartitionName(id))
}

func TestContainsPattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\% off\_sale%`, containsPattern("50% off_sale"))
}
