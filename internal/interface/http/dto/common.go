package dto

import (
	"time"

	"github.com/xiebiao/bookcatalog/internal/domain/shared"
)

// MetadataResponse 审计字段与版本号
// 修改请求需要回传version
type MetadataResponse struct {
	Version   int       `json:"version" example:"1"`
	CreatedAt time.Time `json:"created_at" example:"2024-05-01T08:00:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-05-01T08:00:00Z"`
	CreatedBy string    `json:"created_by" example:"librarian-01"`
	UpdatedBy string    `json:"updated_by" example:"librarian-01"`
}

// NewMetadataResponse 转换审计字段
func NewMetadataResponse(m shared.Metadata) MetadataResponse {
	return MetadataResponse{
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		CreatedBy: m.CreatedBy,
		UpdatedBy: m.UpdatedBy,
	}
}

// PageQuery 通用分页参数
type PageQuery struct {
	Page int `form:"page" binding:"omitempty,min=1" example:"1"`
	Size int `form:"size" binding:"omitempty,min=1,max=100" example:"10"`
}

// ListResponse 列表响应
type ListResponse[T any] struct {
	List []T `json:"list"`
	Page int `json:"page" example:"1"`
	Size int `json:"size" example:"10"`
}

// NewListResponse 空列表返回[]而不是null
func NewListResponse[T any](list []T, page, size int) ListResponse[T] {
	if list == nil {
		list = []T{}
	}
	return ListResponse[T]{List: list, Page: page, Size: size}
}

func mapList[S any, T any](in []S, fn func(S) T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
