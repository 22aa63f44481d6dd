//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 说明：
// 1. main.go中的buildEngine是手动组装版本，这里是等价的Wire声明
// 2. 运行 `wire gen ./cmd/api` 生成wire_gen.go 后即可用InitializeApp替换手动组装
//
// 依赖链：
// *gin.Engine 需要 → router.Handlers
// *handler.BookHandler 需要 → *appbook.CommandUseCase、*appbook.QueryUseCase
// *appbook.CommandUseCase 需要 → book.Repository、command.Publisher
// book.Repository 需要 → *postgres.DB（来自bootstrap.Infra）

package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appauthor "github.com/xiebiao/bookcatalog/internal/application/author"
	appbook "github.com/xiebiao/bookcatalog/internal/application/book"
	appbranch "github.com/xiebiao/bookcatalog/internal/application/branch"
	appcategory "github.com/xiebiao/bookcatalog/internal/application/category"
	"github.com/xiebiao/bookcatalog/internal/application/command"
	appexemplar "github.com/xiebiao/bookcatalog/internal/application/exemplar"
	"github.com/xiebiao/bookcatalog/internal/bootstrap"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/messaging"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/persistence/postgres"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookcatalog/internal/interface/http/handler"
	"github.com/xiebiao/bookcatalog/internal/interface/http/middleware"
	"github.com/xiebiao/bookcatalog/internal/interface/http/router"
	"github.com/xiebiao/bookcatalog/pkg/circuitbreaker"
	"github.com/xiebiao/bookcatalog/pkg/jwt"
)

// ========================================
// Wire Provider Sets (依赖分组)
// ========================================

// infrastructureSet 外部连接以及从Infra中取出的字段
var infrastructureSet = wire.NewSet(
	provideInfra,
	wire.FieldsOf(new(*bootstrap.Infra), "DB", "Redis", "Producer"),
	wire.Bind(new(goredis.UniversalClient), new(*goredis.Client)),
	wire.Bind(new(command.Publisher), new(*messaging.Producer)),
	provideSearchIndex,
	provideBookCache,
)

// repositorySet 仓储层
var repositorySet = wire.NewSet(
	postgres.NewBookRepository,
	postgres.NewAuthorRepository,
	postgres.NewCategoryRepository,
	postgres.NewBranchRepository,
	postgres.NewExemplarRepository,
)

// applicationSet 应用层：写命令与查询用例
var applicationSet = wire.NewSet(
	appbook.NewCommandUseCase,
	provideBookQueries,
	appauthor.NewCommandUseCase,
	appauthor.NewQueryUseCase,
	appcategory.NewCommandUseCase,
	appcategory.NewQueryUseCase,
	appbranch.NewCommandUseCase,
	appbranch.NewQueryUseCase,
	appexemplar.NewCommandUseCase,
	appexemplar.NewQueryUseCase,
)

// middlewareSet JWT、Token黑名单、认证中间件
var middlewareSet = wire.NewSet(
	provideJWTManager,
	redis.NewTokenBlacklist,
	wire.Bind(new(middleware.Blacklist), new(*redis.TokenBlacklist)),
	wire.Bind(new(handler.Revoker), new(*redis.TokenBlacklist)),
	middleware.NewAuthMiddleware,
)

// handlerSet HTTP处理器
var handlerSet = wire.NewSet(
	handler.NewBookHandler,
	handler.NewAuthorHandler,
	handler.NewCategoryHandler,
	handler.NewBranchHandler,
	handler.NewExemplarHandler,
	handler.NewSessionHandler,
	wire.Struct(new(router.Handlers), "*"),
)

// ========================================
// Custom Providers (自定义Provider)
// ========================================

// provideInfra 建立外部连接，cleanup负责关闭
func provideInfra(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*bootstrap.Infra, func(), error) {
	infra, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return infra, infra.Close, nil
}

func provideSearchIndex(infra *bootstrap.Infra) book.SearchIndex {
	return infra.SearchIndex()
}

func provideBookCache(infra *bootstrap.Infra) book.Cache {
	return infra.BookCache()
}

// provideBookQueries 缓存时间来自配置，Wire无法直接注入time.Duration
func provideBookQueries(
	cfg *config.Config,
	books book.Repository,
	index book.SearchIndex,
	cache book.Cache,
	logger *zap.Logger,
) *appbook.QueryUseCase {
	breaker := circuitbreaker.New("elasticsearch", circuitbreaker.DefaultConfig())
	return appbook.NewQueryUseCase(books, index, cache, breaker, cfg.Cache.BookTTL, logger)
}

// provideJWTManager 从配置创建JWT管理器
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenExpire)
}

// provideRouter 创建gin引擎
func provideRouter(
	cfg *config.Config,
	logger *zap.Logger,
	auth *middleware.AuthMiddleware,
	handlers router.Handlers,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	return router.New(handlers, router.Options{
		Logger:  logger,
		Auth:    auth,
		CORS:    cfg.CORS,
		Swagger: cfg.Server.Mode != "release",
	})
}

// ========================================
// Wire Injector (依赖注入器)
// ========================================

// InitializeApp 初始化API进程
// 返回的cleanup按逆序关闭数据库、Redis、RabbitMQ连接
func InitializeApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gin.Engine, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		applicationSet,
		middlewareSet,
		handlerSet,
		provideRouter,
	)
	return nil, nil, nil
}
