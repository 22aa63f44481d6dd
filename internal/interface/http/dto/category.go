package dto

import (
	"github.com/google/uuid"

	"github.com/xiebiao/bookcatalog/internal/domain/category"
)

// CreateCategoryRequest 新建分类
// 标题已存在时覆盖同名分类
type CreateCategoryRequest struct {
	Title       string  `json:"title" binding:"required,max=255" example:"Science Fiction"`
	Description *string `json:"description" binding:"omitempty,max=5000" example:"Speculative fiction about science and technology"`
}

// UpdateCategoryRequest 修改分类
type UpdateCategoryRequest struct {
	Title       string  `json:"title" binding:"required,max=255" example:"Science Fiction"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	Version     int     `json:"version" binding:"required,min=1" example:"1"`
}

// CategoryFilterQuery 分类查询条件
// title按相似度匹配；description按空格拆词后依次模糊匹配
type CategoryFilterQuery struct {
	Title       string `form:"title" binding:"omitempty,max=255" example:"fiction"`
	Description string `form:"description" binding:"omitempty,max=255" example:"science technology"`
	PageQuery
}

// Filter 转换为领域查询条件
func (q CategoryFilterQuery) Filter() category.Filter {
	return category.Filter{Title: q.Title, Description: q.Description, Page: q.Page, Size: q.Size}
}

// CategoryResponse 分类
type CategoryResponse struct {
	ID          uuid.UUID `json:"id" swaggertype:"string"`
	Title       string    `json:"title" example:"Science Fiction"`
	Description *string   `json:"description,omitempty"`
	MetadataResponse
}

// NewCategoryResponse 转换分类
func NewCategoryResponse(c *category.Category) CategoryResponse {
	return CategoryResponse{
		ID:               c.ID,
		Title:            c.Title,
		Description:      c.Description,
		MetadataResponse: NewMetadataResponse(c.Metadata),
	}
}

// NewCategoryList 转换分类列表
func NewCategoryList(categories []*category.Category) []CategoryResponse {
	return mapList(categories, NewCategoryResponse)
}
