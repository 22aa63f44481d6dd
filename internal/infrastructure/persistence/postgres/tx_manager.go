package postgres

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// TxManager 事务管理器
// 设计说明:
// 1. 事务对象放在context中传递，仓储通过Writer/Reader取出
// 2. 分馆写入与分区DDL在同一事务中提交（PostgreSQL的DDL是事务性的）
// 3. 嵌套调用Transaction时GORM使用SAVEPOINT
type TxManager struct {
	db *DB
}

// NewTxManager 创建事务管理器
func NewTxManager(db *DB) *TxManager {
	return &TxManager{db: db}
}

// Transaction 在主库事务中执行fn，fn返回错误时回滚
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.Writer(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func txFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok
}
