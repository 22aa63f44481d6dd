package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
	"github.com/xiebiao/bookcatalog/pkg/logger"
)

// DefaultIndex 默认索引名
const DefaultIndex = "books"

// bookMapping 索引映射（生产环境由运维预先创建，这里用于本地开发和集成测试）
const bookMapping = `{
  "mappings": {
    "properties": {
      "id":           {"type": "keyword"},
      "isbn_code":    {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "editor":       {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "edition":      {"type": "integer"},
      "type":         {"type": "keyword"},
      "publish_date": {"type": "date", "format": "yyyy-MM-dd"},
      "author_ids":   {"type": "keyword"},
      "category_ids": {"type": "keyword"},
      "version":      {"type": "integer"},
      "created_at":   {"type": "date"},
      "updated_at":   {"type": "date"},
      "created_by":   {"type": "keyword"},
      "updated_by":   {"type": "keyword"},
      "authors": {
        "type": "nested",
        "properties": {"id": {"type": "keyword"}, "name": {"type": "text"}}
      },
      "book_categories": {
        "type": "nested",
        "properties": {"id": {"type": "keyword"}, "title": {"type": "text"}, "description": {"type": "text"}}
      },
      "book_data": {
        "type": "nested",
        "properties": {
          "id": {"type": "keyword"},
          "title": {"type": "text"},
          "summary": {"type": "text"},
          "language": {"type": "keyword"}
        }
      }
    }
  }
}`

// BookIndex 图书检索索引
type BookIndex struct {
	client *elasticsearch.Client
	index  string
	logger *zap.Logger
}

// NewBookIndex 创建图书索引
func NewBookIndex(client *elasticsearch.Client, index string, logger *zap.Logger) *BookIndex {
	if index == "" {
		index = DefaultIndex
	}
	return &BookIndex{client: client, index: index, logger: logger}
}

// EnsureIndex 索引不存在时按映射创建
func (i *BookIndex) EnsureIndex(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.index}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return searchError(err, "检查索引失败")
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = i.client.Indices.Create(i.index,
		i.client.Indices.Create.WithContext(ctx),
		i.client.Indices.Create.WithBody(strings.NewReader(bookMapping)),
	)
	if err != nil {
		return searchError(err, "创建索引失败")
	}
	defer res.Body.Close()
	if res.IsError() && !strings.Contains(readBody(res), "resource_already_exists_exception") {
		return searchError(fmt.Errorf("%s", res.Status()), "创建索引失败")
	}
	i.logger.Info("检索索引已创建", zap.String("index", i.index))
	return nil
}

// Index 写入文档，refresh=wait_for保证下一次检索可见
func (i *BookIndex) Index(ctx context.Context, b *book.Book) error {
	body, err := json.Marshal(NewBookDocument(b))
	if err != nil {
		return apperrors.Wrap(err, "序列化检索文档失败")
	}

	res, err := i.client.Index(i.index, bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(b.ID.String()),
		i.client.Index.WithRefresh("wait_for"),
	)
	if err != nil {
		return searchError(err, "写入检索文档失败")
	}
	defer res.Body.Close()
	if res.IsError() {
		return searchError(fmt.Errorf("%s: %s", res.Status(), readBody(res)), "写入检索文档失败")
	}

	logger.WithContext(ctx, i.logger).Debug("检索文档已写入",
		zap.String("index", i.index), zap.String("book_id", b.ID.String()), zap.Int("version", b.Version))
	return nil
}

// Delete 删除文档，不存在时不报错
func (i *BookIndex) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := i.client.Delete(i.index, id.String(),
		i.client.Delete.WithContext(ctx),
		i.client.Delete.WithRefresh("wait_for"),
	)
	if err != nil {
		return searchError(err, "删除检索文档失败")
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return searchError(fmt.Errorf("%s: %s", res.Status(), readBody(res)), "删除检索文档失败")
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string       `json:"_id"`
			Source BookDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search 按过滤条件检索
func (i *BookIndex) Search(ctx context.Context, f book.Filter) ([]*book.Book, error) {
	if err := f.Normalize(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(BuildSearchBody(f))
	if err != nil {
		return nil, apperrors.Wrap(err, "序列化检索请求失败")
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, searchError(err, "检索失败")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, searchError(fmt.Errorf("%s: %s", res.Status(), readBody(res)), "检索失败")
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, searchError(err, "解析检索结果失败")
	}

	books := make([]*book.Book, 0, len(sr.Hits.Hits))
	for _, hit := range sr.Hits.Hits {
		books = append(books, hit.Source.Book())
	}
	return books, nil
}

func searchError(err error, message string) error {
	return apperrors.WithCode(apperrors.ErrCodeSearchError, err, message)
}

func readBody(res *esapi.Response) string {
	data, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return string(data)
}
