package dto

import (
	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/domain/branch"
)

// CreateBranchRequest 新建分馆
type CreateBranchRequest struct {
	Name string `json:"name" binding:"required,max=255" example:"Central Library"`
}

// UpdateBranchRequest 修改分馆
type UpdateBranchRequest struct {
	Name    string `json:"name" binding:"required,max=255" example:"Central Library"`
	Version int    `json:"version" binding:"required,min=1" example:"1"`
}

// BranchListQuery 按名称查询分馆
type BranchListQuery struct {
	Name string `form:"name" binding:"omitempty,max=255" example:"central"`
	PageQuery
}

// BranchResponse 分馆
type BranchResponse struct {
	ID   uuid.UUID `json:"id" swaggertype:"string"`
	Name string    `json:"name" example:"Central Library"`
	MetadataResponse
}

// NewBranchResponse 转换分馆
func NewBranchResponse(b *branch.Branch) BranchResponse {
	return BranchResponse{ID: b.ID, Name: b.Name, MetadataResponse: NewMetadataResponse(b.Metadata)}
}

// NewBranchList 转换分馆列表
func NewBranchList(branches []*branch.Branch) []BranchResponse {
	return mapList(branches, NewBranchResponse)
}
