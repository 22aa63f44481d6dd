package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于区分错误类型，HTTP层和消费者都只看Code
// 2. Message是用户友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码匹配
// errors.Is(err, ErrOptimisticLock) 对任何Code相同的AppError都成立
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// WithCode 以指定错误码包装底层错误
func WithCode(code int, err error, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 客户端错误（参数错误、并发冲突、引用不存在）
// - 5xxxx: 服务端错误（数据库、消息队列、搜索引擎异常）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误
	ErrCodeBrokerError   = 50003 // 消息队列错误
	ErrCodeSearchError   = 50004 // 搜索引擎错误

	// 认证授权错误（40100-40199）
	ErrCodeUnauthorized = 40100 // 未登录
	ErrCodeInvalidToken = 40101 // Token无效
	ErrCodeTokenExpired = 40102 // Token过期

	// 资源错误（40400-40499）
	ErrCodeNotFound = 40400 // 资源不存在

	// 参数与并发错误（40900-40999）
	ErrCodeInvalidParams        = 40900 // 参数错误（InvalidData）
	ErrCodeOptimisticLock       = 40901 // 版本冲突（乐观锁失败）
	ErrCodeReferentialIntegrity = 40902 // 引用完整性错误（外键/分区不存在）
	ErrCodeBindError            = 40903 // 参数绑定失败
)

// =========================================
// 预定义错误
// =========================================

var (
	ErrInternal      = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError    = New(ErrCodeRedisError, "缓存服务错误")
	ErrBrokerError   = New(ErrCodeBrokerError, "消息队列错误")
	ErrSearchError   = New(ErrCodeSearchError, "搜索服务错误")

	ErrUnauthorized = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired = New(ErrCodeTokenExpired, "Token已过期")

	ErrNotFound             = New(ErrCodeNotFound, "资源不存在")
	ErrInvalidData          = New(ErrCodeInvalidParams, "参数错误")
	ErrOptimisticLock       = New(ErrCodeOptimisticLock, "数据已被修改，版本冲突")
	ErrReferentialIntegrity = New(ErrCodeReferentialIntegrity, "引用的数据不存在")
	ErrBindError            = New(ErrCodeBindError, "参数格式错误")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// IsNotFound 是否为资源不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsOptimisticLock 是否为版本冲突
func IsOptimisticLock(err error) bool {
	return errors.Is(err, ErrOptimisticLock)
}

// IsReferentialIntegrity 是否为引用完整性错误
func IsReferentialIntegrity(err error) bool {
	return errors.Is(err, ErrReferentialIntegrity)
}

// IsInvalidData 是否为参数错误
func IsInvalidData(err error) bool {
	return errors.Is(err, ErrInvalidData)
}
