package search

import (
	"github.com/xiebiao/bookcatalog/internal/domain/book"
)

// Query Elasticsearch查询DSL
type Query = map[string]any

// BuildBookQuery 把过滤条件转换为布尔查询
// 1. 精确条件（版次、形态）→ term
// 2. 编码类字符串（ISBN、出版社）→ match_phrase
// 3. 出版日期区间 → range
// 4. 作者、分类、本地化数据 → nested模糊匹配
// 5. 没有任何条件时 → match_all
func BuildBookQuery(f book.Filter) Query {
	must := make([]Query, 0, 8)

	if f.Edition != nil {
		must = append(must, Query{"term": Query{"edition": *f.Edition}})
	}
	if f.Type != "" {
		must = append(must, Query{"term": Query{"type": string(f.Type)}})
	}

	if f.PublishDateFrom != nil || f.PublishDateTo != nil {
		r := Query{}
		if f.PublishDateFrom != nil {
			r["gte"] = f.PublishDateFrom.String()
		}
		if f.PublishDateTo != nil {
			r["lte"] = f.PublishDateTo.String()
		}
		must = append(must, Query{"range": Query{"publish_date": r}})
	}

	if f.ISBNCode != "" {
		must = append(must, Query{"match_phrase": Query{"isbn_code": f.ISBNCode}})
	}
	if f.Editor != "" {
		must = append(must, Query{"match_phrase": Query{"editor": f.Editor}})
	}

	fuzziness := "0"
	if f.FuzzySearch {
		fuzziness = "AUTO"
	}

	// 全文检索：任意一个nested路径命中即可
	if f.TextQuery != "" {
		must = append(must, Query{"bool": Query{
			"should": []Query{
				nested("book_data", Query{"multi_match": Query{
					"query":     f.TextQuery,
					"fields":    []string{"book_data.title^2", "book_data.summary"},
					"type":      "best_fields",
					"fuzziness": fuzziness,
				}}),
				nestedMatch("authors", "authors.name", f.TextQuery, fuzziness),
				nestedMatch("book_categories", "book_categories.title", f.TextQuery, fuzziness),
			},
			"minimum_should_match": 1,
		}})
	}

	if f.TitleQuery != "" {
		must = append(must, nestedMatch("book_data", "book_data.title", f.TitleQuery, fuzziness))
	}
	if f.SummaryQuery != "" {
		must = append(must, nestedMatch("book_data", "book_data.summary", f.SummaryQuery, fuzziness))
	}
	if f.AuthorName != "" {
		must = append(must, nestedMatch("authors", "authors.name", f.AuthorName, fuzziness))
	}
	if f.CategoryTitle != "" {
		must = append(must, nestedMatch("book_categories", "book_categories.title", f.CategoryTitle, fuzziness))
	}
	if len(f.Languages) > 0 {
		must = append(must, nested("book_data", Query{"terms": Query{"book_data.language": f.Languages}}))
	}

	if len(must) == 0 {
		return Query{"match_all": Query{}}
	}
	return Query{"bool": Query{"must": must}}
}

// BuildSearchBody 完整的检索请求体：查询、分页、排序、高亮
// f必须已经Normalize
func BuildSearchBody(f book.Filter) Query {
	sortBy := f.SortBy
	if sortBy == "isbn_code" {
		sortBy = "isbn_code.raw" // text字段不能排序
	}
	order := f.SortOrder

	body := Query{
		"query": BuildBookQuery(f),
		"from":  f.Offset(),
		"size":  f.Size,
		"sort":  []Query{{sortBy: Query{"order": order}}},
	}

	if len(f.HighlightFields) > 0 {
		fields := Query{}
		for _, field := range f.HighlightFields {
			fields[field] = Query{}
		}
		body["highlight"] = Query{"fields": fields}
	}
	return body
}

func nested(path string, query Query) Query {
	return Query{"nested": Query{"path": path, "query": query}}
}

func nestedMatch(path, field, text, fuzziness string) Query {
	return nested(path, Query{"match": Query{field: Query{
		"query":     text,
		"fuzziness": fuzziness,
	}}})
}
