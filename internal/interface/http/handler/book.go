package handler

import (
	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookcatalog/internal/application/book"
	"github.com/xiebiao/bookcatalog/internal/interface/http/dto"
	"github.com/xiebiao/bookcatalog/internal/interface/http/middleware"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// BookHandler 图书HTTP处理器
// 写接口只发布命令并返回202，由消费者异步写入数据库和检索索引
type BookHandler struct {
	commands *appbook.CommandUseCase
	queries  *appbook.QueryUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(commands *appbook.CommandUseCase, queries *appbook.QueryUseCase) *BookHandler {
	return &BookHandler{commands: commands, queries: queries}
}

// Create 新建图书
// @Summary      新建图书
// @Description  校验作者和分类后发布book.upsert命令，异步写入
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.BookRequest true "图书信息"
// @Success      202 {object} map[string]interface{} "Task is processing"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      401 {object} response.Response "未登录"
// @Failure      404 {object} response.Response "作者或分类不存在"
// @Failure      503 {object} response.Response "消息队列不可用"
// @Router       /api/v1/books [post]
func (h *BookHandler) Create(c *gin.Context) {
	// 1. 参数绑定与验证
	var req dto.BookRequest
	if !bindJSON(c, &req) {
		return
	}

	// 2. 发布命令
	b, err := h.commands.Create(c.Request.Context(), appbook.CreateRequest{
		Fields: req.Fields(),
		Actor:  middleware.MustGetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// 3. 202，返回待写入的图书（含生成的id）
	response.Accepted(c, "book", dto.NewBookResponse(b))
}

// Update 修改图书
// @Summary      修改图书
// @Description  version必须等于当前版本，否则返回409
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "图书id"
// @Param        request body dto.UpdateBookRequest true "图书信息"
// @Success      202 {object} map[string]interface{} "Task is processing"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      404 {object} response.Response "图书不存在"
// @Failure      409 {object} response.Response "版本冲突"
// @Router       /api/v1/books/{id} [put]
func (h *BookHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBookRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.commands.Update(c.Request.Context(), appbook.UpdateRequest{
		ID:      id,
		Fields:  req.Fields(),
		Version: req.Version,
		Actor:   middleware.MustGetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "book", dto.NewBookResponse(b))
}

// Delete 删除图书
// @Summary      删除图书
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "图书id"
// @Success      202 {object} map[string]interface{} "Task is processing"
// @Router       /api/v1/books/{id} [delete]
func (h *BookHandler) Delete(c *gin.Context) {
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

// Get 图书详情
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Param        id path string true "图书id"
// @Success      200 {object} response.Response{data=dto.BookResponse}
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.queries.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewBookResponse(b))
}

// Filter 检索图书
// @Summary      检索图书
// @Description  优先使用Elasticsearch，不可用时降级到数据库（source=database）
// @Tags         图书
// @Produce      json
// @Param        query query dto.BookFilterQuery false "检索条件"
// @Success      200 {object} response.Response{data=dto.BookListResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Router       /api/v1/books [get]
func (h *BookHandler) Filter(c *gin.Context) {
	var q dto.BookFilterQuery
	if !bindQuery(c, &q) {
		return
	}
	f, err := q.Filter()
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.queries.Filter(c.Request.Context(), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewBookListResponse(result))
}
