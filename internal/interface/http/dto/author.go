package dto

import (
	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/domain/author"
)

// CreateAuthorRequest 新建作者
type CreateAuthorRequest struct {
	Name string `json:"name" binding:"required,max=255" example:"Ursula K. Le Guin"`
}

// UpdateAuthorRequest 修改作者，version为最后一次读到的版本
type UpdateAuthorRequest struct {
	Name    string `json:"name" binding:"required,max=255" example:"Ursula K. Le Guin"`
	Version int    `json:"version" binding:"required,min=1" example:"1"`
}

// AuthorListQuery 按姓名相似度查询作者
type AuthorListQuery struct {
	Name string `form:"name" binding:"required,max=255" example:"le guin"`
	PageQuery
}

// AuthorResponse 作者
type AuthorResponse struct {
	ID   uuid.UUID `json:"id" swaggertype:"string" example:"0190f0a2-0000-7000-8000-00000000000a"`
	Name string    `json:"name" example:"Ursula K. Le Guin"`
	MetadataResponse
}

// NewAuthorResponse 转换作者
func NewAuthorResponse(a *author.Author) AuthorResponse {
	return AuthorResponse{ID: a.ID, Name: a.Name, MetadataResponse: NewMetadataResponse(a.Metadata)}
}

// NewAuthorList 转换作者列表
func NewAuthorList(authors []*author.Author) []AuthorResponse {
	return mapList(authors, NewAuthorResponse)
}
