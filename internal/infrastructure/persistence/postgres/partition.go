package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/pkg/metrics"
)

// Locker 跨进程互斥锁（Redis实现见persistence/redis.PartitionLock）
type Locker interface {
	// Acquire 获取锁，返回释放函数；ctx结束前拿不到锁时返回错误
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

// PartitionManager 馆藏分区管理
// 设计说明:
// 1. 每个分馆对应physical_exemplar的一个LIST分区，分区名由分馆id确定
// 2. DDL本身是幂等的（IF NOT EXISTS），并发建表产生的重复对象错误视为成功
// 3. 同一分馆的DDL通过Locker串行化，避免多个消费者进程同时执行
// 4. 调用方在分馆写入的事务中调用，分馆与分区一起提交或回滚
type PartitionManager struct {
	db     *DB
	locker Locker
	logger *zap.Logger
}

// NewPartitionManager 创建分区管理器，locker为nil时不加锁
func NewPartitionManager(db *DB, locker Locker, logger *zap.Logger) *PartitionManager {
	if locker == nil {
		locker = noopLocker{}
	}
	metrics.InitMetrics()
	return &PartitionManager{db: db, locker: locker, logger: logger}
}

// PartitionName 分馆对应的分区表名
func PartitionName(branchID uuid.UUID) string {
	return "physical_exemplar_branch_" + strings.ReplaceAll(branchID.String(), "-", "_")
}

// EnsurePartition 创建分馆对应的分区，已存在视为成功
func (m *PartitionManager) EnsurePartition(ctx context.Context, branchID uuid.UUID) error {
	if branchID == uuid.Nil {
		return fmt.Errorf("分馆id不能为空")
	}
	name := PartitionName(branchID)

	release, err := m.locker.Acquire(ctx, "partition:"+name)
	if err != nil {
		return fmt.Errorf("获取分区锁失败: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			m.logger.Warn("释放分区锁失败", zap.String("partition", name), zap.Error(err))
		}
	}()

	db := m.db.Writer(ctx)

	exists, err := m.exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	// 分区名和值都来自uuid格式化结果，不存在注入风险
	ddl := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s PARTITION OF physical_exemplar FOR VALUES IN ('%s')",
		name, branchID.String(),
	)
	if err := db.Exec(ddl).Error; err != nil {
		if isDuplicateObject(err) {
			return nil
		}
		return classify(err, "创建馆藏分区失败")
	}

	metrics.IncCounter(metrics.PartitionsCreatedTotal)
	m.logger.Info("馆藏分区已创建", zap.String("partition", name), zap.String("branch_id", branchID.String()))
	return nil
}

// DropPartition 删除分馆对应的分区，不存在时不报错
func (m *PartitionManager) DropPartition(ctx context.Context, branchID uuid.UUID) error {
	name := PartitionName(branchID)
	if err := m.db.Writer(ctx).Exec("DROP TABLE IF EXISTS " + name).Error; err != nil {
		return classify(err, "删除馆藏分区失败")
	}
	m.logger.Info("馆藏分区已删除", zap.String("partition", name))
	return nil
}

// Exists 分区是否存在
func (m *PartitionManager) Exists(ctx context.Context, branchID uuid.UUID) (bool, error) {
	return m.exists(ctx, PartitionName(branchID))
}

func (m *PartitionManager) exists(ctx context.Context, name string) (bool, error) {
	var found bool
	err := m.db.Writer(ctx).Raw("SELECT to_regclass(?) IS NOT NULL", name).Scan(&found).Error
	if err != nil {
		return false, classify(err, "查询馆藏分区失败")
	}
	return found, nil
}
