package dto

import (
	"github.com/google/uuid"

	appbook "github.com/xiebiao/bookcatalog/internal/application/book"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/domain/shared"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// BookRequest 图书的可修改字段
// validator tag说明:
// - author_ids至少一个，作者和分类必须已存在（发布前校验）
// - publish_date格式为YYYY-MM-DD
// - book_data每种语言一条，没有id的条目由服务端生成
type BookRequest struct {
	ISBNCode    string            `json:"isbn_code" binding:"required,max=32" example:"978-0-441-47812-5"`
	Editor      string            `json:"editor" binding:"max=255" example:"Ace Books"`
	Edition     int               `json:"edition" binding:"required,min=1" example:"1"`
	Type        string            `json:"type" binding:"required,oneof=physical ebook both" example:"physical"`
	PublishDate shared.Date       `json:"publish_date" swaggertype:"string" example:"1969-03-01"`
	AuthorIDs   []uuid.UUID       `json:"author_ids" binding:"required,min=1" swaggertype:"array,string"`
	CategoryIDs []uuid.UUID       `json:"category_ids" swaggertype:"array,string"`
	Data        []BookDataRequest `json:"book_data" binding:"omitempty,dive"`
}

// BookDataRequest 本地化的标题与简介
type BookDataRequest struct {
	Title    string  `json:"title" binding:"required,max=500" example:"The Left Hand of Darkness"`
	Summary  *string `json:"summary" binding:"omitempty,max=10000"`
	Language string  `json:"language" binding:"required,max=16" example:"en"`
}

// UpdateBookRequest 修改图书，version为最后一次读到的版本
type UpdateBookRequest struct {
	BookRequest
	Version int `json:"version" binding:"required,min=1" example:"1"`
}

// Fields 转换为应用层字段
func (r BookRequest) Fields() appbook.Fields {
	data := make([]appbook.DataInput, 0, len(r.Data))
	for _, d := range r.Data {
		data = append(data, appbook.DataInput{Title: d.Title, Summary: d.Summary, Language: d.Language})
	}
	return appbook.Fields{
		ISBNCode:    r.ISBNCode,
		Editor:      r.Editor,
		Edition:     r.Edition,
		Type:        book.Type(r.Type),
		PublishDate: r.PublishDate,
		AuthorIDs:   r.AuthorIDs,
		CategoryIDs: r.CategoryIDs,
		Data:        data,
	}
}

// BookFilterQuery 图书检索参数
// 检索服务不可用时降级到数据库，此时只有精确条件、作者名、分类标题和分页生效
type BookFilterQuery struct {
	Edition         *int     `form:"edition" binding:"omitempty,min=1" example:"1"`
	Type            string   `form:"type" binding:"omitempty,oneof=physical ebook both" example:"physical"`
	ISBNCode        string   `form:"isbn_code" binding:"omitempty,max=32"`
	Editor          string   `form:"editor" binding:"omitempty,max=255"`
	PublishDateFrom string   `form:"publish_date_from" example:"1960-01-01"`
	PublishDateTo   string   `form:"publish_date_to" example:"1979-12-31"`
	TextQuery       string   `form:"text" binding:"omitempty,max=255" example:"darkness"`
	TitleQuery      string   `form:"title" binding:"omitempty,max=255"`
	SummaryQuery    string   `form:"summary" binding:"omitempty,max=255"`
	AuthorName      string   `form:"author_name" binding:"omitempty,max=255"`
	CategoryTitle   string   `form:"category_title" binding:"omitempty,max=255"`
	Languages       []string `form:"languages"`
	FuzzySearch     bool     `form:"fuzzy"`
	SortBy          string   `form:"sort_by" example:"publish_date"`
	SortOrder       string   `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC" example:"desc"`
	Highlight       []string `form:"highlight"`
	PageQuery
}

// Filter 转换为领域检索条件
func (q BookFilterQuery) Filter() (book.Filter, error) {
	f := book.Filter{
		Edition:         q.Edition,
		Type:            book.Type(q.Type),
		ISBNCode:        q.ISBNCode,
		Editor:          q.Editor,
		TextQuery:       q.TextQuery,
		TitleQuery:      q.TitleQuery,
		SummaryQuery:    q.SummaryQuery,
		AuthorName:      q.AuthorName,
		CategoryTitle:   q.CategoryTitle,
		Languages:       q.Languages,
		FuzzySearch:     q.FuzzySearch,
		Page:            q.Page,
		Size:            q.Size,
		SortBy:          q.SortBy,
		SortOrder:       q.SortOrder,
		HighlightFields: q.Highlight,
	}

	var err error
	if f.PublishDateFrom, err = parseDateParam(q.PublishDateFrom, "publish_date_from"); err != nil {
		return book.Filter{}, err
	}
	if f.PublishDateTo, err = parseDateParam(q.PublishDateTo, "publish_date_to"); err != nil {
		return book.Filter{}, err
	}
	return f, nil
}

func parseDateParam(s, name string) (*shared.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := shared.ParseDate(s)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, name+"格式应为YYYY-MM-DD")
	}
	return &d, nil
}

// BookDataResponse 本地化数据
type BookDataResponse struct {
	ID       uuid.UUID `json:"id" swaggertype:"string"`
	Title    string    `json:"title" example:"The Left Hand of Darkness"`
	Summary  *string   `json:"summary,omitempty"`
	Language string    `json:"language" example:"en"`
}

// BookResponse 图书
type BookResponse struct {
	ID          uuid.UUID          `json:"id" swaggertype:"string"`
	ISBNCode    string             `json:"isbn_code" example:"978-0-441-47812-5"`
	Editor      string             `json:"editor" example:"Ace Books"`
	Edition     int                `json:"edition" example:"1"`
	Type        string             `json:"type" example:"physical"`
	PublishDate shared.Date        `json:"publish_date" swaggertype:"string" example:"1969-03-01"`
	AuthorIDs   []uuid.UUID        `json:"author_ids" swaggertype:"array,string"`
	CategoryIDs []uuid.UUID        `json:"category_ids" swaggertype:"array,string"`
	Authors     []AuthorResponse   `json:"authors"`
	Categories  []CategoryResponse `json:"book_categories"`
	Data        []BookDataResponse `json:"book_data"`
	MetadataResponse
}

// NewBookResponse 转换图书
func NewBookResponse(b *book.Book) BookResponse {
	resp := BookResponse{
		ID:               b.ID,
		ISBNCode:         b.ISBNCode,
		Editor:           b.Editor,
		Edition:          b.Edition,
		Type:             string(b.Type),
		PublishDate:      b.PublishDate,
		AuthorIDs:        nonNilIDs(b.AuthorIDs),
		CategoryIDs:      nonNilIDs(b.CategoryIDs),
		Authors:          NewAuthorList(b.Authors),
		Categories:       NewCategoryList(b.Categories),
		Data:             make([]BookDataResponse, 0, len(b.Data)),
		MetadataResponse: NewMetadataResponse(b.Metadata),
	}
	for _, d := range b.Data {
		resp.Data = append(resp.Data, BookDataResponse{ID: d.ID, Title: d.Title, Summary: d.Summary, Language: d.Language})
	}
	return resp
}

// BookListResponse 检索结果，source表示结果来自search还是database
type BookListResponse struct {
	ListResponse[BookResponse]
	Source string `json:"source" example:"search"`
}

// NewBookListResponse 转换检索结果
func NewBookListResponse(r *appbook.FilterResult) BookListResponse {
	return BookListResponse{
		ListResponse: NewListResponse(mapList(r.Books, NewBookResponse), r.Page, r.Size),
		Source:       r.Source,
	}
}

func nonNilIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
