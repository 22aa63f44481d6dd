package handler

import (
	"github.com/gin-gonic/gin"

	appbranch "github.com/xiebiao/bookcatalog/internal/application/branch"
	appexemplar "github.com/xiebiao/bookcatalog/internal/application/exemplar"
	"github.com/xiebiao/bookcatalog/internal/interface/http/dto"
	"github.com/xiebiao/bookcatalog/internal/interface/http/middleware"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// BranchHandler 分馆HTTP处理器
// 新建分馆时消费者会同时创建该分馆的馆藏分区
type BranchHandler struct {
	commands  *appbranch.CommandUseCase
	queries   *appbranch.QueryUseCase
	exemplars *appexemplar.QueryUseCase
}

// NewBranchHandler 创建分馆处理器
func NewBranchHandler(
	commands *appbranch.CommandUseCase,
	queries *appbranch.QueryUseCase,
	exemplars *appexemplar.QueryUseCase,
) *BranchHandler {
	return &BranchHandler{commands: commands, queries: queries, exemplars: exemplars}
}

// Create 新建分馆
// @Summary      新建分馆
// @Tags         分馆
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateBranchRequest true "分馆信息"
// @Success      202 {object} map[string]interface{} "Task is processing"
// @Router       /api/v1/branches [post]
func (h *BranchHandler) Create(c *gin.Context) {
	var req dto.CreateBranchRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.commands.Create(c.Request.Context(), appbranch.CreateRequest{
		Name:  req.Name,
		Actor: middleware.MustGetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "branch", dto.NewBranchResponse(b))
}

// Update 修改分馆
// @Summary      修改分馆
// @Tags         分馆
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "分馆id"
// @Param        request body dto.UpdateBranchRequest true "分馆信息"
// @Success      202 {object} map[string]interface{} "Task is processing"
// @Failure      409 {object} response.Response "版本冲突"
// @Router       /api/v1/branches/{id} [put]
func (h *BranchHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBranchRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.commands.Update(c.Request.Context(), appbranch.UpdateRequest{
		ID:      id,
		Name:    req.Name,
		Version: req.Version,
		Actor:   middleware.MustGetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "branch", dto.NewBranchResponse(b))
}

// Delete 删除分馆（连同馆藏分区）
// @Summary      删除分馆
// @Tags         分馆
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "分馆id"
// @Success      202 {object} map[string]interface{} "Task is processing"
// @Router       /api/v1/branches/{id} [delete]
func (h *BranchHandler) Delete(c *gin.Context) {
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

// Get 分馆详情
// @Summary      分馆详情
// @Tags         分馆
// @Produce      json
// @Param        id path string true "分馆id"
// @Success      200 {object} response.Response{data=dto.BranchResponse}
// @Router       /api/v1/branches/{id} [get]
func (h *BranchHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.queries.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewBranchResponse(b))
}

// List 按名称查询分馆
// @Summary      按名称查询分馆
// @Tags         分馆
// @Produce      json
// @Param        query query dto.BranchListQuery false "查询条件"
// @Success      200 {object} response.Response{data=dto.ListResponse[dto.BranchResponse]}
// @Router       /api/v1/branches [get]
func (h *BranchHandler) List(c *gin.Context) {
	var q dto.BranchListQuery
	if !bindQuery(c, &q) {
		return
	}
	branches, err := h.queries.FilterByName(c.Request.Context(), q.Name, q.Page, q.Size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewListResponse(dto.NewBranchList(branches), q.Page, q.Size))
}

// Exemplars 分馆的馆藏
// @Summary      分馆的馆藏
// @Description  按所属图书的属性过滤
// @Tags         分馆
// @Produce      json
// @Param        id path string true "分馆id"
// @Param        query query dto.BranchExemplarQuery false "查询条件"
// @Success      200 {object} response.Response{data=dto.ListResponse[dto.ExemplarResponse]}
// @Router       /api/v1/branches/{id}/exemplars [get]
func (h *BranchHandler) Exemplars(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var q dto.BranchExemplarQuery
	if !bindQuery(c, &q) {
		return
	}
	exemplars, err := h.exemplars.FilterByBranch(c.Request.Context(), q.Filter(id))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewListResponse(dto.NewExemplarList(exemplars), q.Page, q.Size))
}
