// Package postgres 关系型写入存储（PostgreSQL + GORM）
//
// 写入统一走主库，查询走从库（未配置从库时退回主库）。
// 所有写入都带版本CAS：UPDATE ... WHERE id = ? AND version = ?-1，影响0行即版本冲突。
package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
)

// DB 主从连接池
type DB struct {
	Primary *gorm.DB
	Replica *gorm.DB
}

// NewDB 连接主库与从库，并按配置执行迁移
func NewDB(cfg *config.Config, log *zap.Logger) (*DB, error) {
	primary, err := Open(cfg.Database.Primary, cfg.Database, cfg.Server.Mode)
	if err != nil {
		return nil, fmt.Errorf("连接主库失败: %w", err)
	}
	log.Info("主库连接成功", zap.String("host", cfg.Database.Primary.Host))

	replica := primary
	if cfg.Database.Replica.Enabled() {
		replica, err = Open(cfg.Database.Replica, cfg.Database, cfg.Server.Mode)
		if err != nil {
			return nil, fmt.Errorf("连接从库失败: %w", err)
		}
		log.Info("从库连接成功", zap.String("host", cfg.Database.Replica.Host))
	}

	db := &DB{Primary: primary, Replica: replica}

	if cfg.Database.AutoMigrate {
		if err := Migrate(context.Background(), primary); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
		log.Info("数据库迁移完成")
	}

	return db, nil
}

// Open 打开单个连接池
func Open(pc config.PostgresConfig, dc config.DatabaseConfig, mode string) (*gorm.DB, error) {
	logLevel := logger.Silent
	if mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	db, err := gorm.Open(postgres.Open(pc.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	if dc.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dc.MaxOpenConns)
	}
	if dc.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dc.MaxIdleConns)
	}
	if dc.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(dc.ConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}
	return db, nil
}

// Writer 写入连接：优先使用context中的事务
func (d *DB) Writer(ctx context.Context) *gorm.DB {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return d.Primary.WithContext(ctx)
}

// Reader 查询连接：事务内读事务连接，否则读从库
func (d *DB) Reader(ctx context.Context) *gorm.DB {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return d.Replica.WithContext(ctx)
}

// Close 关闭连接池
func (d *DB) Close() error {
	var firstErr error
	closeOne := func(g *gorm.DB) {
		sqlDB, err := g.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	closeOne(d.Primary)
	if d.Replica != d.Primary {
		closeOne(d.Replica)
	}
	return firstErr
}
