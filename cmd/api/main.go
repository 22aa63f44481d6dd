package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/xiebiao/bookcatalog/docs"
	appauthor "github.com/xiebiao/bookcatalog/internal/application/author"
	appbook "github.com/xiebiao/bookcatalog/internal/application/book"
	appbranch "github.com/xiebiao/bookcatalog/internal/application/branch"
	appcategory "github.com/xiebiao/bookcatalog/internal/application/category"
	appexemplar "github.com/xiebiao/bookcatalog/internal/application/exemplar"
	"github.com/xiebiao/bookcatalog/internal/bootstrap"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookcatalog/internal/interface/http/handler"
	"github.com/xiebiao/bookcatalog/internal/interface/http/middleware"
	"github.com/xiebiao/bookcatalog/internal/interface/http/router"
	"github.com/xiebiao/bookcatalog/pkg/circuitbreaker"
	"github.com/xiebiao/bookcatalog/pkg/jwt"
	"github.com/xiebiao/bookcatalog/pkg/tracing"
)

// @title           图书目录服务 API
// @version         1.0
// @description     写接口发布命令后立即返回202，由消费者异步写入PostgreSQL与Elasticsearch
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization

// main API进程入口
// 说明：手动依赖注入，wire.go提供等价的Wire注入器
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 日志与链路追踪
	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(cfg.Server.Name, cfg.Tracing.Endpoint)
		if err != nil {
			logger.Fatal("初始化链路追踪失败", zap.Error(err))
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	// 3. 外部连接
	ctx := context.Background()
	infra, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("初始化基础设施失败", zap.Error(err))
	}
	defer infra.Close()
	logger.Info("基础设施就绪", zap.Stringer("infra", infra))

	// 4. 依赖注入（手动组装）
	// Repository ← UseCase ← Handler
	engine := buildEngine(infra)

	// 5. 启动HTTP服务
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("HTTP服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP服务启动失败", zap.Error(err))
		}
	}()

	// 6. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("正在关闭HTTP服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP服务强制关闭", zap.Error(err))
	}
}

// buildEngine 组装用例、处理器和路由
func buildEngine(infra *bootstrap.Infra) *gin.Engine {
	cfg := infra.Config
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 基础设施层
	repos := bootstrap.NewRepositories(infra.DB)
	blacklist := redis.NewTokenBlacklist(infra.Redis)
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenExpire)
	breaker := circuitbreaker.New("elasticsearch", circuitbreaker.DefaultConfig())

	// 应用层：写命令只依赖生产者，查询走从库、缓存和检索索引
	h := router.Handlers{
		Book: handler.NewBookHandler(
			appbook.NewCommandUseCase(repos.Books, repos.Authors, repos.Categories, infra.Producer),
			appbook.NewQueryUseCase(repos.Books, infra.SearchIndex(), infra.BookCache(), breaker, cfg.Cache.BookTTL, infra.Logger),
		),
		Author: handler.NewAuthorHandler(
			appauthor.NewCommandUseCase(repos.Authors, infra.Producer),
			appauthor.NewQueryUseCase(repos.Authors),
		),
		Category: handler.NewCategoryHandler(
			appcategory.NewCommandUseCase(repos.Categories, infra.Producer),
			appcategory.NewQueryUseCase(repos.Categories),
		),
		Branch: handler.NewBranchHandler(
			appbranch.NewCommandUseCase(repos.Branches, infra.Producer),
			appbranch.NewQueryUseCase(repos.Branches),
			appexemplar.NewQueryUseCase(repos.Exemplars),
		),
		Exemplar: handler.NewExemplarHandler(
			appexemplar.NewCommandUseCase(repos.Exemplars, repos.Books, repos.Branches, infra.Producer),
			appexemplar.NewQueryUseCase(repos.Exemplars),
		),
		Session: handler.NewSessionHandler(jwtManager, blacklist),
	}

	// 接口层
	return router.New(h, router.Options{
		Logger:  infra.Logger,
		Auth:    middleware.NewAuthMiddleware(jwtManager, blacklist),
		CORS:    cfg.CORS,
		Swagger: cfg.Server.Mode != "release",
	})
}
