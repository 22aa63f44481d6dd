package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// pathID 解析路径中的uuid参数，失败时直接写入错误响应
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "无效的"+name+": "+c.Param(name))
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON 绑定请求体，失败时直接写入错误响应
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return false
	}
	return true
}

// bindQuery 绑定查询参数，失败时直接写入错误响应
func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return false
	}
	return true
}
