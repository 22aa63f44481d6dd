// Package jwt 签发与校验访问令牌
//
// 令牌的Subject是操作人标识，写命令会把它记为created_by/updated_by。
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// Manager JWT管理器
type Manager struct {
	secret            []byte
	issuer            string
	accessTokenExpire time.Duration
}

// NewManager 创建JWT管理器
func NewManager(secret, issuer string, accessTokenExpire time.Duration) *Manager {
	return &Manager{
		secret:            []byte(secret),
		issuer:            issuer,
		accessTokenExpire: accessTokenExpire,
	}
}

// Claims 自定义声明
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Token 签发结果
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"` // 秒
}

// GenerateToken 为操作人签发Access Token
func (m *Manager) GenerateToken(subject, name string) (*Token, error) {
	if subject == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "subject不能为空")
	}

	now := time.Now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenExpire)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return nil, apperrors.Wrap(err, "生成Access Token失败")
	}

	return &Token{
		AccessToken: signed,
		ExpiresIn:   int64(m.accessTokenExpire.Seconds()),
	}, nil
}

// ParseToken 校验并解析Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非法的签名算法: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
