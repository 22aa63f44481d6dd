package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookcatalog/pkg/jwt"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

const (
	actorKey     = "actor"
	actorNameKey = "actor_name"
	tokenKey     = "access_token"
)

// Blacklist Token黑名单（已吊销的Token）
type Blacklist interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware JWT认证中间件
// 设计说明：
// 1. 从Header提取Token
// 2. 检查Token黑名单
// 3. 验证Token有效性
// 4. 把操作人（Token的subject）注入Context，写命令用它填充created_by/updated_by
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	blacklist  Blacklist
}

// NewAuthMiddleware 创建认证中间件
// blacklist为nil时不检查吊销
func NewAuthMiddleware(jwtManager *jwt.Manager, blacklist Blacklist) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		blacklist:  blacklist,
	}
}

// RequireAuth 要求登录
// 使用方式：
//
//	writes := v1.Group("")
//	writes.Use(authMiddleware.RequireAuth())
//	writes.POST("/books", bookHandler.Create)
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从Header提取Token
		// 格式：Authorization: Bearer <token>
		tokenString, ok := bearerToken(c)
		if !ok {
			if c.GetHeader("Authorization") == "" {
				response.ErrorWithCode(c, 40100, "请先登录")
			} else {
				response.ErrorWithCode(c, 40101, "Token格式错误")
			}
			c.Abort()
			return
		}

		// 2. 检查Token是否已被吊销
		if m.blacklist != nil {
			revoked, err := m.blacklist.IsRevoked(c.Request.Context(), tokenString)
			if err != nil {
				response.Error(c, err)
				c.Abort()
				return
			}
			if revoked {
				response.ErrorWithCode(c, 40102, "Token已失效，请重新登录")
				c.Abort()
				return
			}
		}

		// 3. 验证Token并解析Claims
		claims, err := m.jwtManager.ParseToken(tokenString)
		if err != nil {
			response.Error(c, err) // 自动处理ErrTokenExpired、ErrInvalidToken
			c.Abort()
			return
		}

		// 4. 注入操作人
		setActor(c, claims)
		c.Set(tokenKey, tokenString)

		c.Next()
	}
}

// OptionalAuth 可选登录
// 有合法Token时注入操作人，否则作为匿名请求继续
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if claims, err := m.jwtManager.ParseToken(tokenString); err == nil {
				setActor(c, claims)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setActor(c *gin.Context, claims *jwt.Claims) {
	c.Set(actorKey, claims.Subject)
	c.Set(actorNameKey, claims.Name)
}

// =========================================
// Context辅助函数（供Handler使用）
// =========================================

// GetActor 从Context获取当前操作人，未登录返回空字符串
func GetActor(c *gin.Context) string {
	return c.GetString(actorKey)
}

// GetActorName 当前操作人的显示名
func GetActorName(c *gin.Context) string {
	return c.GetString(actorNameKey)
}

// GetToken RequireAuth校验通过的原始Token
func GetToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// MustGetActor 从Context获取操作人（如果不存在则panic）
// 说明：用于已经通过RequireAuth中间件的Handler
func MustGetActor(c *gin.Context) string {
	actor := GetActor(c)
	if actor == "" {
		panic("actor not found in context")
	}
	return actor
}
