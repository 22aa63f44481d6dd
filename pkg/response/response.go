package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// Response 统一响应结构
// 设计说明：
// 1. Code是业务错误码，HTTP状态码由Code推导
// 2. Message是用户友好的提示信息
// 3. Data是业务数据，成功时返回，失败时为null
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// TaskMessage 异步写入的固定提示
const TaskMessage = "Task is processing"

// Success 成功响应（Code=0表示成功）
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Accepted 写命令已发布，返回202
// 响应体：{"message": "Task is processing", "<key>": dto}
func Accepted(c *gin.Context, key string, data interface{}) {
	body := gin.H{"message": TaskMessage}
	if key != "" && data != nil {
		body[key] = data
	}
	c.JSON(http.StatusAccepted, body)
}

// Error 错误响应（自动处理AppError）
// 内部错误通过c.Error挂到上下文，由日志中间件统一记录
func Error(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	_ = c.Error(err)

	c.JSON(HTTPStatus(appErr.Code), Response{
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

// ErrorWithCode 自定义错误码和消息
func ErrorWithCode(c *gin.Context, code int, message string) {
	c.JSON(HTTPStatus(code), Response{
		Code:    code,
		Message: message,
	})
}

// HTTPStatus 业务错误码到HTTP状态码
func HTTPStatus(code int) int {
	switch code {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeInvalidParams, apperrors.ErrCodeBindError:
		return http.StatusBadRequest
	case apperrors.ErrCodeOptimisticLock, apperrors.ErrCodeReferentialIntegrity:
		return http.StatusConflict
	case apperrors.ErrCodeUnauthorized, apperrors.ErrCodeInvalidToken, apperrors.ErrCodeTokenExpired:
		return http.StatusUnauthorized
	case apperrors.ErrCodeBrokerError, apperrors.ErrCodeSearchError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
