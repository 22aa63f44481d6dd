package handler

import (
	"github.com/gin-gonic/gin"

	appcategory "github.com/xiebiao/bookcatalog/internal/application/category"
	"github.com/xiebiao/bookcatalog/internal/interface/http/dto"
	"github.com/xiebiao/bookcatalog/internal/interface/http/middleware"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// CategoryHandler 图书分类HTTP处理器
type CategoryHandler struct {
	commands *appcategory.CommandUseCase
	queries  *appcategory.QueryUseCase
}

// NewCategoryHandler 创建分类处理器
func NewCategoryHandler(commands *appcategory.CommandUseCase, queries *appcategory.QueryUseCase) *CategoryHandler {
	return &CategoryHandler{commands: commands, queries: queries}
}

// Create 新建分类
// @Summary      新建分类
// @Description  标题已存在时覆盖同名分类（沿用id，版本+1）
// @Tags         图书分类
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateCategoryRequest true "分类信息"
// @Success      202 {object} map[string]interface{} "Task is processing"
// @Router       /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	cat, err := h.commands.Create(c.Request.Context(), appcategory.CreateRequest{
		Title:       req.Title,
		Description: req.Description,
		Actor:       middleware.MustGetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "category", dto.NewCategoryResponse(cat))
}

// Update 修改分类
// @Summary      修改分类
// @Tags         图书分类
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "分类id"
// @Param        request body dto.UpdateCategoryRequest true "分类信息"
// @Success      202 {object} map[string]interface{} "Task is processing"
// @Failure      409 {object} response.Response "版本冲突"
// @Router       /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	cat, err := h.commands.Update(c.Request.Context(), appcategory.UpdateRequest{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Version:     req.Version,
		Actor:       middleware.MustGetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "category", dto.NewCategoryResponse(cat))
}

// Delete 删除分类
// @Summary      删除分类
// @Tags         图书分类
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "分类id"
// @Success      202 {object} map[string]interface{} "Task is processing"
// @Router       /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.commands.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "id", id)
}

// Get 分类详情
// @Summary      分类详情
// @Tags         图书分类
// @Produce      json
// @Param        id path string true "分类id"
// @Success      200 {object} response.Response{data=dto.CategoryResponse}
// @Router       /api/v1/categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cat, err := h.queries.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewCategoryResponse(cat))
}

// List 查询分类
// @Summary      查询分类
// @Tags         图书分类
// @Produce      json
// @Param        query query dto.CategoryFilterQuery false "查询条件"
// @Success      200 {object} response.Response{data=dto.ListResponse[dto.CategoryResponse]}
// @Router       /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	var q dto.CategoryFilterQuery
	if !bindQuery(c, &q) {
		return
	}
	categories, err := h.queries.Filter(c.Request.Context(), q.Filter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewListResponse(dto.NewCategoryList(categories), q.Page, q.Size))
}
