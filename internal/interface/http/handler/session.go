package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookcatalog/internal/interface/http/middleware"
	"github.com/xiebiao/bookcatalog/pkg/jwt"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// Revoker 吊销Token
type Revoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

// SessionHandler 当前操作人与Token吊销
// 设计说明：
// 1. Token由运维通过catalogctl token签发，服务本身不保存账号
// 2. 登出把Token写入黑名单，TTL等于剩余有效期
type SessionHandler struct {
	jwtManager *jwt.Manager
	revoker    Revoker
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(jwtManager *jwt.Manager, revoker Revoker) *SessionHandler {
	return &SessionHandler{jwtManager: jwtManager, revoker: revoker}
}

// SessionResponse 当前操作人
type SessionResponse struct {
	Actor string `json:"actor" example:"librarian-01"`
	Name  string `json:"name,omitempty" example:"Front desk"`
}

// Me 当前操作人
// @Summary      当前操作人
// @Tags         认证
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=handler.SessionResponse}
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/auth/me [get]
func (h *SessionHandler) Me(c *gin.Context) {
	response.Success(c, SessionResponse{
		Actor: middleware.MustGetActor(c),
		Name:  middleware.GetActorName(c),
	})
}

// Logout 吊销当前Token
// @Summary      吊销当前Token
// @Tags         认证
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/auth/logout [post]
func (h *SessionHandler) Logout(c *gin.Context) {
	// 1. 取出已通过校验的Token
	token := middleware.GetToken(c)
	claims, err := h.jwtManager.ParseToken(token)
	if err != nil {
		response.Error(c, err)
		return
	}

	// 2. 按剩余有效期写入黑名单
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := h.revoker.Revoke(c.Request.Context(), token, ttl); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"actor": claims.Subject})
}
