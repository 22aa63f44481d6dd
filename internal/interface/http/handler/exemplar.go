package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appexemplar "github.com/xiebiao/bookcatalog/internal/application/exemplar"
	"github.com/xiebiao/bookcatalog/internal/interface/http/dto"
	"github.com/xiebiao/bookcatalog/internal/interface/http/middleware"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// ExemplarHandler 馆藏HTTP处理器
type ExemplarHandler struct {
	commands *appexemplar.CommandUseCase
	queries  *appexemplar.QueryUseCase
}

// NewExemplarHandler 创建馆藏处理器
func NewExemplarHandler(commands *appexemplar.CommandUseCase, queries *appexemplar.QueryUseCase) *ExemplarHandler {
	return &ExemplarHandler{commands: commands, queries: queries}
}

// Upsert 登记或修改馆藏
// @Summary      登记或修改馆藏
// @Description  按(book_id, branch_id)写入；图书和分馆必须存在
// @Tags         馆藏
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.UpsertExemplarRequest true "馆藏信息"
// @Success      202 {object} map[string]interface{} "Task is processing"
// @Failure      404 {object} response.Response "图书或分馆不存在"
// @Failure      409 {object} response.Response "版本冲突"
// @Router       /api/v1/exemplars [put]
func (h *ExemplarHandler) Upsert(c *gin.Context) {
	var req dto.UpsertExemplarRequest
	if !bindJSON(c, &req) {
		return
	}

	e, err := h.commands.Upsert(c.Request.Context(), appexemplar.UpsertRequest{
		BookID:    req.BookID,
		BranchID:  req.BranchID,
		Available: req.Available,
		Room:      req.Room,
		Floor:     req.Floor,
		Bookshelf: req.Bookshelf,
		Version:   req.Version,
		Actor:     middleware.MustGetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "exemplar", dto.NewExemplarResponse(e))
}

// Delete 删除馆藏
// @Summary      删除馆藏
// @Tags         馆藏
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "馆藏id"
// @Success      202 {object} map[string]interface{} "Task is processing"
// @Router       /api/v1/exemplars/{id} [delete]
func (h *ExemplarHandler) Delete(c *gin.Context) {
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

// Get 馆藏详情
// @Summary      馆藏详情
// @Tags         馆藏
// @Produce      json
// @Param        id path string true "馆藏id"
// @Success      200 {object} response.Response{data=dto.ExemplarResponse}
// @Router       /api/v1/exemplars/{id} [get]
func (h *ExemplarHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	e, err := h.queries.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewExemplarResponse(e))
}

// Find 按(book_id, branch_id)查询馆藏
// @Summary      按图书和分馆查询馆藏
// @Tags         馆藏
// @Produce      json
// @Param        query query dto.ExemplarQuery true "查询条件"
// @Success      200 {object} response.Response{data=dto.ExemplarResponse}
// @Failure      404 {object} response.Response "馆藏不存在"
// @Router       /api/v1/exemplars [get]
func (h *ExemplarHandler) Find(c *gin.Context) {
	var q dto.ExemplarQuery
	if !bindQuery(c, &q) {
		return
	}
	// binding已经校验过uuid格式
	e, err := h.queries.GetByBookAndBranch(c.Request.Context(), uuid.MustParse(q.BookID), uuid.MustParse(q.BranchID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewExemplarResponse(e))
}
