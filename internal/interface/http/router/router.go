// Package router 组装gin引擎：全局中间件、公开查询接口、需要认证的写接口
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/interface/http/handler"
	"github.com/xiebiao/bookcatalog/internal/interface/http/middleware"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	Book     *handler.BookHandler
	Author   *handler.AuthorHandler
	Category *handler.CategoryHandler
	Branch   *handler.BranchHandler
	Exemplar *handler.ExemplarHandler
	Session  *handler.SessionHandler
}

// Options 引擎配置
type Options struct {
	Logger  *zap.Logger
	Auth    *middleware.AuthMiddleware
	CORS    config.CORSConfig
	Swagger bool // 是否挂载/swagger
}

// New 创建gin引擎并注册路由
// 中间件执行顺序：Logger → Recovery → Metrics → CORS → 路由匹配 → Auth（写接口） → Handler
func New(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger(opts.Logger))
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(opts.CORS))

	// 健康检查与运维接口
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	auth := opts.Auth.RequireAuth()

	// 认证
	session := v1.Group("/auth", auth)
	{
		session.GET("/me", h.Session.Me)
		session.POST("/logout", h.Session.Logout)
	}

	// 图书
	books := v1.Group("/books")
	{
		books.GET("", h.Book.Filter)
		books.GET("/:id", h.Book.Get)
		books.POST("", auth, h.Book.Create)
		books.PUT("/:id", auth, h.Book.Update)
		books.DELETE("/:id", auth, h.Book.Delete)
	}

	// 作者
	authors := v1.Group("/authors")
	{
		authors.GET("", h.Author.List)
		authors.GET("/:id", h.Author.Get)
		authors.POST("", auth, h.Author.Create)
		authors.PUT("/:id", auth, h.Author.Update)
		authors.DELETE("/:id", auth, h.Author.Delete)
	}

	// 图书分类
	categories := v1.Group("/categories")
	{
		categories.GET("", h.Category.List)
		categories.GET("/:id", h.Category.Get)
		categories.POST("", auth, h.Category.Create)
		categories.PUT("/:id", auth, h.Category.Update)
		categories.DELETE("/:id", auth, h.Category.Delete)
	}

	// 分馆
	branches := v1.Group("/branches")
	{
		branches.GET("", h.Branch.List)
		branches.GET("/:id", h.Branch.Get)
		branches.GET("/:id/exemplars", h.Branch.Exemplars)
		branches.POST("", auth, h.Branch.Create)
		branches.PUT("/:id", auth, h.Branch.Update)
		branches.DELETE("/:id", auth, h.Branch.Delete)
	}

	// 馆藏
	exemplars := v1.Group("/exemplars")
	{
		exemplars.GET("", h.Exemplar.Find)
		exemplars.GET("/:id", h.Exemplar.Get)
		exemplars.PUT("", auth, h.Exemplar.Upsert)
		exemplars.DELETE("/:id", auth, h.Exemplar.Delete)
	}

	return r
}
