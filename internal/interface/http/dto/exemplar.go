package dto

import (
	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/domain/exemplar"
)

// UpsertExemplarRequest 登记或修改馆藏
// (book_id, branch_id)已有记录时修改该记录；version为0表示不校验版本
type UpsertExemplarRequest struct {
	BookID    uuid.UUID `json:"book_id" binding:"required" swaggertype:"string"`
	BranchID  uuid.UUID `json:"branch_id" binding:"required" swaggertype:"string"`
	Available bool      `json:"available" example:"true"`
	Room      int       `json:"room" binding:"required,min=1" example:"2"`
	Floor     int       `json:"floor" binding:"required,min=1" example:"1"`
	Bookshelf int       `json:"bookshelf" binding:"required,min=1" example:"14"`
	Version   int       `json:"version" binding:"omitempty,min=0" example:"0"`
}

// ExemplarQuery 按自然键查询馆藏
type ExemplarQuery struct {
	BookID   string `form:"book_id" binding:"required,uuid"`
	BranchID string `form:"branch_id" binding:"required,uuid"`
}

// BranchExemplarQuery 某分馆的馆藏，按所属图书属性过滤
type BranchExemplarQuery struct {
	Available  *bool  `form:"available" example:"true"`
	ISBNCode   string `form:"isbn_code" binding:"omitempty,max=32"`
	Editor     string `form:"editor" binding:"omitempty,max=255"`
	Edition    *int   `form:"edition" binding:"omitempty,min=1"`
	Type       string `form:"type" binding:"omitempty,oneof=physical ebook both"`
	AuthorName string `form:"author_name" binding:"omitempty,max=255"`
	PageQuery
}

// Filter 转换为领域查询条件
func (q BranchExemplarQuery) Filter(branchID uuid.UUID) exemplar.BranchFilter {
	return exemplar.BranchFilter{
		BranchID:   branchID,
		Available:  q.Available,
		ISBNCode:   q.ISBNCode,
		Editor:     q.Editor,
		Edition:    q.Edition,
		Type:       book.Type(q.Type),
		AuthorName: q.AuthorName,
		Page:       q.Page,
		Size:       q.Size,
	}
}

// ExemplarResponse 馆藏
type ExemplarResponse struct {
	ID        uuid.UUID `json:"id" swaggertype:"string"`
	BookID    uuid.UUID `json:"book_id" swaggertype:"string"`
	BranchID  uuid.UUID `json:"branch_id" swaggertype:"string"`
	Available bool      `json:"available" example:"true"`
	Room      int       `json:"room" example:"2"`
	Floor     int       `json:"floor" example:"1"`
	Bookshelf int       `json:"bookshelf" example:"14"`
	MetadataResponse
}

// NewExemplarResponse 转换馆藏
func NewExemplarResponse(e *exemplar.Exemplar) ExemplarResponse {
	return ExemplarResponse{
		ID:               e.ID,
		BookID:           e.BookID,
		BranchID:         e.BranchID,
		Available:        e.Available,
		Room:             e.Room,
		Floor:            e.Floor,
		Bookshelf:        e.Bookshelf,
		MetadataResponse: NewMetadataResponse(e.Metadata),
	}
}

// NewExemplarList 转换馆藏列表
func NewExemplarList(exemplars []*exemplar.Exemplar) []ExemplarResponse {
	return mapList(exemplars, NewExemplarResponse)
}
