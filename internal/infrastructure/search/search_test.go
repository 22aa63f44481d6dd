package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/internal/domain/author"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// fakeTransport 记录请求并按顺序返回预设响应
type fakeTransport struct {
	mu        sync.Mutex
	requests  []*http.Request
	bodies    []string
	responses []fakeResponse
	err       error
}

type fakeResponse struct {
	status int
	body   string
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body := ""
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		body = string(data)
	}
	f.requests = append(f.requests, req)
	f.bodies = append(f.bodies, body)

	if f.err != nil {
		return nil, f.err
	}

	resp := fakeResponse{status: http.StatusOK, body: `{}`}
	if len(f.responses) > 0 {
		resp, f.responses = f.responses[0], f.responses[1:]
	}
	header := http.Header{}
	header.Set("X-Elastic-Product", "Elasticsearch")
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: resp.status,
		Status:     http.StatusText(resp.status),
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(resp.body)),
		Request:    req,
	}, nil
}

func (f *fakeTransport) last() (*http.Request, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1], f.bodies[len(f.bodies)-1]
}

func newTestIndex(t *testing.T, transport *fakeTransport) *BookIndex {
	t.Helper()
	client, err := newClient(context.Background(), config.ElasticsearchConfig{
		Addresses: []string{"http://es.local:9200"},
	}, transport, zap.NewNop())
	require.NoError(t, err)
	return NewBookIndex(client, "books", zap.NewNop())
}

func sampleBook() *book.Book {
	meta := shared.NewMetadata("tester", time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	authorID := uuid.MustParse("0190f0a2-0000-7000-8000-00000000000a")
	return &book.Book{
		ID:          uuid.MustParse("0190f0a2-0000-7000-8000-000000000001"),
		ISBNCode:    "978-0-441-47812-5",
		Editor:      "Ace",
		Edition:     1,
		Type:        book.TypePhysical,
		PublishDate: shared.NewDate(time.Date(1969, 3, 1, 0, 0, 0, 0, time.UTC)),
		AuthorIDs:   []uuid.UUID{authorID},
		Authors:     []*author.Author{{ID: authorID, Name: "Ursula K. Le Guin", Metadata: meta}},
		Data:        []book.Data{{ID: uuid.New(), Title: "The Left Hand of Darkness", Language: "en", Metadata: meta}},
		Metadata:    meta,
	}
}

func TestBookIndex_IndexWaitsForRefresh(t *testing.T) {
	transport := &fakeTransport{}
	idx := newTestIndex(t, transport)

	transport.responses = []fakeResponse{{status: http.StatusCreated, body: `{"result":"created"}`}}
	b := sampleBook()
	require.NoError(t, idx.Index(context.Background(), b))

	req, body := transport.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/books/_doc/"+b.ID.String(), req.URL.Path)
	assert.Equal(t, "wait_for", req.URL.Query().Get("refresh"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Equal(t, "978-0-441-47812-5", doc["isbn_code"])
	assert.Equal(t, "1969-03-01", doc["publish_date"])
	assert.Equal(t, float64(1), doc["version"])
	authors := doc["authors"].([]any)
	require.Len(t, authors, 1)
	assert.Equal(t, "Ursula K. Le Guin", authors[0].(map[string]any)["name"])
}

func TestBookIndex_IndexError(t *testing.T) {
	transport := &fakeTransport{}
	idx := newTestIndex(t, transport)

	transport.responses = []fakeResponse{{status: http.StatusBadRequest, body: `{"error":"mapper_parsing_exception"}`}}
	err := idx.Index(context.Background(), sampleBook())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSearchError, apperrors.GetAppError(err).Code)
}

func TestBookIndex_DeleteIgnoresMissing(t *testing.T) {
	transport := &fakeTransport{}
	idx := newTestIndex(t, transport)

	transport.responses = []fakeResponse{{status: http.StatusNotFound, body: `{"result":"not_found"}`}}
	require.NoError(t, idx.Delete(context.Background(), uuid.New()))

	req, _ := transport.last()
	assert.Equal(t, http.MethodDelete, req.Method)
}

func TestBookIndex_Search(t *testing.T) {
	transport := &fakeTransport{}
	idx := newTestIndex(t, transport)

	doc, err := json.Marshal(NewBookDocument(sampleBook()))
	require.NoError(t, err)
	transport.responses = []fakeResponse{{
		status: http.StatusOK,
		body:   `{"hits":{"total":{"value":1},"hits":[{"_id":"x","_source":` + string(doc) + `}]}}`,
	}}

	books, err := idx.Search(context.Background(), book.Filter{ISBNCode: "978-0-441-47812-5"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, sampleBook().ID, books[0].ID)
	assert.Equal(t, "1969-03-01", books[0].PublishDate.String())
	require.Len(t, books[0].Authors, 1)
	assert.Equal(t, books[0].AuthorIDs, []uuid.UUID{books[0].Authors[0].ID})

	req, body := transport.last()
	assert.Equal(t, "/books/_search", req.URL.Path)
	assert.Contains(t, body, `"match_phrase":{"isbn_code":"978-0-441-47812-5"}`)
}

func TestBookIndex_SearchTransportError(t *testing.T) {
	transport := &fakeTransport{}
	idx := newTestIndex(t, transport)

	transport.err = errors.New("connection refused")
	_, err := idx.Search(context.Background(), book.Filter{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSearchError, apperrors.GetAppError(err).Code)
}

func TestBuildBookQuery_MatchAll(t *testing.T) {
	q := BuildBookQuery(book.Filter{})
	assert.Equal(t, Query{"match_all": Query{}}, q)
}

func TestBuildBookQuery_Clauses(t *testing.T) {
	edition := 3
	from := shared.NewDate(time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC))
	to := shared.NewDate(time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC))

	q := BuildBookQuery(book.Filter{
		Edition:         &edition,
		Type:            book.TypeEbook,
		ISBNCode:        "978",
		PublishDateFrom: &from,
		PublishDateTo:   &to,
		AuthorName:      "tolkin",
		Languages:       []string{"en", "pt"},
		FuzzySearch:     true,
	})

	data, err := json.Marshal(q)
	require.NoError(t, err)
	s := string(data)

	assert.Contains(t, s, `{"term":{"edition":3}}`)
	assert.Contains(t, s, `{"term":{"type":"ebook"}}`)
	assert.Contains(t, s, `{"range":{"publish_date":{"gte":"2001-01-01","lte":"2010-12-31"}}}`)
	assert.Contains(t, s, `{"match_phrase":{"isbn_code":"978"}}`)
	assert.Contains(t, s, `"path":"authors"`)
	assert.Contains(t, s, `"fuzziness":"AUTO"`)
	assert.Contains(t, s, `{"terms":{"book_data.language":["en","pt"]}}`)

	must := q["bool"].(Query)["must"].([]Query)
	assert.Len(t, must, 6)
}

func TestBuildBookQuery_TextQueryIsNestedShould(t *testing.T) {
	q := BuildBookQuery(book.Filter{TextQuery: "darkness"})
	data, err := json.Marshal(q)
	require.NoError(t, err)
	s := string(data)

	assert.Contains(t, s, `"minimum_should_match":1`)
	assert.Contains(t, s, `"book_data.title^2"`)
	assert.Contains(t, s, `"fuzziness":"0"`)
	assert.Contains(t, s, `"path":"book_categories"`)
}

func TestBuildSearchBody_PagingSortHighlight(t *testing.T) {
	f := book.Filter{Page: 3, Size: 20, SortBy: "isbn_code", SortOrder: "desc", HighlightFields: []string{"book_data.title"}}
	require.NoError(t, f.Normalize())

	body := BuildSearchBody(f)
	assert.Equal(t, 40, body["from"])
	assert.Equal(t, 20, body["size"])
	assert.Equal(t, []Query{{"isbn_code.raw": Query{"order": "desc"}}}, body["sort"])
	assert.Equal(t, Query{"fields": Query{"book_data.title": Query{}}}, body["highlight"])

	def := book.Filter{}
	require.NoError(t, def.Normalize())
	body = BuildSearchBody(def)
	assert.Equal(t, []Query{{"created_at": Query{"order": "desc"}}}, body["sort"])
	assert.Equal(t, 0, body["from"])
	assert.NotContains(t, body, "highlight")
}
