package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appauthor "github.com/xiebiao/bookcatalog/internal/application/author"
	appbook "github.com/xiebiao/bookcatalog/internal/application/book"
	appbranch "github.com/xiebiao/bookcatalog/internal/application/branch"
	appcategory "github.com/xiebiao/bookcatalog/internal/application/category"
	"github.com/xiebiao/bookcatalog/internal/application/command"
	appexemplar "github.com/xiebiao/bookcatalog/internal/application/exemplar"
	"github.com/xiebiao/bookcatalog/internal/bootstrap"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/persistence/postgres"
	"github.com/xiebiao/bookcatalog/internal/interface/consumer"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
	"github.com/xiebiao/bookcatalog/pkg/mq"
	"github.com/xiebiao/bookcatalog/pkg/tracing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "持续消费写命令",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConsumer(cmd.Context(), func(ctx context.Context, w *worker) error {
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			var wg sync.WaitGroup
			if cfg.Metrics.Port > 0 {
				metrics.StartServer(ctx, &wg, metrics.ServerOptions{
					Addr: fmt.Sprintf(":%d", cfg.Metrics.Port),
				}, w.logger)
			}

			w.logger.Info("开始消费",
				zap.String("queue", w.source.Queue()),
				zap.Strings("routing_keys", w.dispatcher.RoutingKeys()),
			)
			err := w.dispatcher.Run(ctx, w.source)
			cancel()
			wg.Wait()
			return err
		})
	},
}

var drainCmd = &cobra.Command{
	Use:   "drain <routing-key>",
	Short: "只处理一条匹配路由键的消息（测试用）",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConsumer(cmd.Context(), func(ctx context.Context, w *worker) error {
			w.logger.Info("等待一条消息", zap.String("routing_key", args[0]))
			return w.dispatcher.DrainOne(ctx, w.source, args[0])
		})
	},
}

// worker 一个消费者进程的运行时组件
type worker struct {
	logger     *zap.Logger
	dispatcher *consumer.Dispatcher
	source     *mq.Consumer
}

// withConsumer 组装消费者进程并在信号到来时取消ctx
// 1. 日志与链路追踪
// 2. 外部连接，确保检索索引存在
// 3. 注册全部写入/投影处理器
// 4. 声明队列并按注册的路由键绑定
func withConsumer(parent context.Context, fn func(ctx context.Context, w *worker) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. 日志与链路追踪
	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("role", "consumer"))

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(cfg.Server.Name+"-consumer", cfg.Tracing.Endpoint)
		if err != nil {
			return fmt.Errorf("初始化链路追踪失败: %w", err)
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	// 2. 外部连接
	infra, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	if infra.Index != nil {
		if err := infra.Index.EnsureIndex(ctx); err != nil {
			return err
		}
	}

	// 3. 处理器注册表
	registry, err := newRegistry(infra)
	if err != nil {
		return err
	}
	dispatcher := consumer.NewDispatcher(registry, logger)

	// 4. 队列绑定
	source, err := mq.NewConsumer(infra.AMQP, mq.ConsumerConfig{
		ExchangeConfig: bootstrap.ExchangeConfig(cfg),
		RoutingKeys:    dispatcher.RoutingKeys(),
		Prefetch:       cfg.RabbitMQ.Prefetch,
		RetryRate:      cfg.RabbitMQ.RetryRate,
	}, logger)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	err = fn(ctx, &worker{logger: logger, dispatcher: dispatcher, source: source})
	if ctx.Err() != nil {
		logger.Info("消费者已停止")
		return nil
	}
	return err
}

// newRegistry 每个路由键对应一个处理器
func newRegistry(infra *bootstrap.Infra) (*command.Registry, error) {
	repos := bootstrap.NewRepositories(infra.DB)
	log := infra.Logger

	var handlers []command.Handler
	handlers = append(handlers, appauthor.NewWriteUseCase(repos.Authors, infra.Producer, log).Handlers()...)
	handlers = append(handlers, appcategory.NewWriteUseCase(repos.Categories, infra.Producer, log).Handlers()...)
	handlers = append(handlers, appbranch.NewWriteUseCase(
		postgres.NewTxManager(infra.DB),
		repos.Branches,
		infra.PartitionManager(),
		infra.Producer,
		log,
	).Handlers()...)
	handlers = append(handlers, appexemplar.NewWriteUseCase(repos.Exemplars, infra.Producer, log).Handlers()...)
	handlers = append(handlers, appbook.NewProjectionUseCase(
		repos.Books,
		infra.SearchIndex(),
		infra.BookCache(),
		infra.Producer,
		log,
	).Handlers()...)

	return command.NewRegistry(handlers...)
}
