package handler

import (
	"github.com/gin-gonic/gin"

	appauthor "github.com/xiebiao/bookcatalog/internal/application/author"
	"github.com/xiebiao/bookcatalog/internal/interface/http/dto"
	"github.com/xiebiao/bookcatalog/internal/interface/http/middleware"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// AuthorHandler 作者HTTP处理器
type AuthorHandler struct {
	commands *appauthor.CommandUseCase
	queries  *appauthor.QueryUseCase
}

// NewAuthorHandler 创建作者处理器
func NewAuthorHandler(commands *appauthor.CommandUseCase, queries *appauthor.QueryUseCase) *AuthorHandler {
	return &AuthorHandler{commands: commands, queries: queries}
}

// Create 新建作者
// @Summary      新建作者
// @Tags         作者
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateAuthorRequest true "作者信息"
// @Success      202 {object} map[string]interface{} "Task is processing"
// @Failure      400 {object} response.Response "参数错误"
// @Router       /api/v1/authors [post]
func (h *AuthorHandler) Create(c *gin.Context) {
	var req dto.CreateAuthorRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.commands.Create(c.Request.Context(), appauthor.CreateRequest{
		Name:  req.Name,
		Actor: middleware.MustGetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "author", dto.NewAuthorResponse(a))
}

// Update 修改作者
// @Summary      修改作者
// @Tags         作者
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "作者id"
// @Param        request body dto.UpdateAuthorRequest true "作者信息"
// @Success      202 {object} map[string]interface{} "Task is processing"
// @Failure      404 {object} response.Response "作者不存在"
// @Failure      409 {object} response.Response "版本冲突"
// @Router       /api/v1/authors/{id} [put]
func (h *AuthorHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateAuthorRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.commands.Update(c.Request.Context(), appauthor.UpdateRequest{
		ID:      id,
		Name:    req.Name,
		Version: req.Version,
		Actor:   middleware.MustGetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "author", dto.NewAuthorResponse(a))
}

// Delete 删除作者
// @Summary      删除作者
// @Tags         作者
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "作者id"
// @Success      202 {object} map[string]interface{} "Task is processing"
// @Router       /api/v1/authors/{id} [delete]
func (h *AuthorHandler) Delete(c *gin.Context) {
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

// Get 作者详情
// @Summary      作者详情
// @Tags         作者
// @Produce      json
// @Param        id path string true "作者id"
// @Success      200 {object} response.Response{data=dto.AuthorResponse}
// @Failure      404 {object} response.Response "作者不存在"
// @Router       /api/v1/authors/{id} [get]
func (h *AuthorHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.queries.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewAuthorResponse(a))
}

// List 按姓名查询作者
// @Summary      按姓名查询作者
// @Description  姓名相似度大于0.2的作者
// @Tags         作者
// @Produce      json
// @Param        query query dto.AuthorListQuery true "查询条件"
// @Success      200 {object} response.Response{data=dto.ListResponse[dto.AuthorResponse]}
// @Router       /api/v1/authors [get]
func (h *AuthorHandler) List(c *gin.Context) {
	var q dto.AuthorListQuery
	if !bindQuery(c, &q) {
		return
	}
	authors, err := h.queries.FilterByName(c.Request.Context(), q.Name, q.Page, q.Size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewListResponse(dto.NewAuthorList(authors), q.Page, q.Size))
}
