// Package bootstrap API进程和消费者进程共用的基础设施装配
//
// 依赖注入链：
//
//	Config → Logger → Infra(DB, Redis, Elasticsearch, RabbitMQ) → Repositories → UseCase → Handler
package bootstrap

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/internal/domain/author"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/domain/branch"
	"github.com/xiebiao/bookcatalog/internal/domain/category"
	"github.com/xiebiao/bookcatalog/internal/domain/exemplar"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/messaging"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/persistence/postgres"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/search"
	"github.com/xiebiao/bookcatalog/pkg/logger"
	"github.com/xiebiao/bookcatalog/pkg/mq"
)

// NewLogger 按配置创建zap Logger
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	l, err := logger.New(logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		return nil, err
	}
	return l.With(zap.String("service", cfg.Server.Name)), nil
}

// Infra 外部连接
type Infra struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *postgres.DB
	Redis     *goredis.Client
	Index     *search.BookIndex // 未配置Elasticsearch时为nil
	AMQP      *amqp.Connection
	Publisher *mq.Publisher
	Producer  *messaging.Producer

	closers []func() error
}

// Open 依次建立数据库、Redis、Elasticsearch、RabbitMQ连接
// 任意一步失败都会关闭已经建立的连接
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (infra *Infra, err error) {
	infra = &Infra{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			infra.Close()
			infra = nil
		}
	}()

	// 1. PostgreSQL主从
	if infra.DB, err = postgres.NewDB(cfg, log); err != nil {
		return nil, err
	}
	infra.closers = append(infra.closers, infra.DB.Close)

	// 2. Redis（缓存、分区锁、Token黑名单）
	if infra.Redis, err = redis.NewClient(ctx, cfg.Redis, log); err != nil {
		return nil, err
	}
	infra.closers = append(infra.closers, infra.Redis.Close)

	// 3. Elasticsearch（可选）
	if len(cfg.Elasticsearch.Addresses) > 0 {
		client, err := search.NewClient(ctx, cfg.Elasticsearch, log)
		if err != nil {
			return nil, err
		}
		infra.Index = search.NewBookIndex(client, cfg.Elasticsearch.Index, log)
	} else {
		log.Warn("未配置Elasticsearch，检索只使用PostgreSQL")
	}

	// 4. RabbitMQ（带重试）
	if infra.AMQP, err = mq.Dial(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.ConnectTries, cfg.RabbitMQ.ConnectDelay, log); err != nil {
		return nil, err
	}
	infra.closers = append(infra.closers, infra.AMQP.Close)

	if infra.Publisher, err = mq.NewPublisher(infra.AMQP, ExchangeConfig(cfg)); err != nil {
		return nil, err
	}
	infra.closers = append(infra.closers, infra.Publisher.Close)
	infra.Producer = messaging.NewProducer(infra.Publisher, log)

	return infra, nil
}

// ExchangeConfig 交换机与共享队列
func ExchangeConfig(cfg *config.Config) mq.ExchangeConfig {
	return mq.ExchangeConfig{
		Exchange:     cfg.RabbitMQ.Exchange,
		ExchangeType: cfg.RabbitMQ.ExchangeType,
		Queue:        cfg.RabbitMQ.Queue,
	}
}

// SearchIndex 检索索引，未配置时返回nil接口
func (i *Infra) SearchIndex() book.SearchIndex {
	if i.Index == nil {
		return nil
	}
	return i.Index
}

// Close 按建立顺序的逆序关闭连接
func (i *Infra) Close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		if err := i.closers[j](); err != nil {
			i.Logger.Warn("关闭连接失败", zap.Error(err))
		}
	}
	i.closers = nil
}

// Repositories 所有仓储
type Repositories struct {
	Books      book.Repository
	Authors    author.Repository
	Categories category.Repository
	Branches   branch.Repository
	Exemplars  exemplar.Repository
}

// NewRepositories 基于主从连接池创建仓储
func NewRepositories(db *postgres.DB) Repositories {
	return Repositories{
		Books:      postgres.NewBookRepository(db),
		Authors:    postgres.NewAuthorRepository(db),
		Categories: postgres.NewCategoryRepository(db),
		Branches:   postgres.NewBranchRepository(db),
		Exemplars:  postgres.NewExemplarRepository(db),
	}
}

// BookCache 图书详情缓存
func (i *Infra) BookCache() book.Cache {
	return redis.NewBookCache(i.Redis)
}

// PartitionManager 分区管理器，DDL由Redis锁串行化
func (i *Infra) PartitionManager() *postgres.PartitionManager {
	lock := redis.NewPartitionLock(i.Redis, i.Config.Cache.PartitionTTL)
	return postgres.NewPartitionManager(i.DB, lock, i.Logger)
}

// String 连接摘要，用于启动日志
func (i *Infra) String() string {
	return fmt.Sprintf("postgres=%s redis=%s elasticsearch=%v rabbitmq=%s",
		i.Config.Database.Primary.Host, i.Config.Redis.Addr(), i.Index != nil, i.Config.RabbitMQ.Exchange)
}
