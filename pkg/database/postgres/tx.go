package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Tx 事务接口
type Tx interface {
	// QueryOne 查询单条记录，无结果时返回 ErrNoRows
	QueryOne(ctx context.Context, dest any, sql string, args ...any) error
	// QueryAll 查询多条记录，dest 为结构体指针切片的指针
	QueryAll(ctx context.Context, dest any, sql string, args ...any) error
	// Exec 执行写操作，返回受影响行数
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	// Exists 执行 SELECT EXISTS(...) 类查询
	Exists(ctx context.Context, sql string, args ...any) (bool, error)
	// AdvisoryXactLock 获取事务级 advisory lock，事务结束时自动释放
	AdvisoryXactLock(ctx context.Context, key int64) error
}

// txWrapper 事务包装器
type txWrapper struct {
	tx pgx.Tx
}

func (t *txWrapper) QueryOne(ctx context.Context, dest any, sql string, args ...any) error {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		return ErrNoRows
	}

	return scanStruct(rows, dest)
}

func (t *txWrapper) QueryAll(ctx context.Context, dest any, sql string, args ...any) error {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return scanRowsToSlice(rows, dest)
}

func (t *txWrapper) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	result, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	return result.RowsAffected(), nil
}

func (t *txWrapper) Exists(ctx context.Context, sql string, args ...any) (bool, error) {
	var exists bool
	if err := t.tx.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists query failed: %w", err)
	}
	return exists, nil
}

func (t *txWrapper) AdvisoryXactLock(ctx context.Context, key int64) error {
	if _, err := t.tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", key); err != nil {
		return fmt.Errorf("advisory lock %d failed: %w", key, err)
	}
	return nil
}

// TxIsolationLevel 事务隔离级别
type TxIsolationLevel string

const (
	TxIsolationLevelDefault        TxIsolationLevel = ""
	TxIsolationLevelReadCommitted  TxIsolationLevel = "read committed"
	TxIsolationLevelRepeatableRead TxIsolationLevel = "repeatable read"
	TxIsolationLevelSerializable   TxIsolationLevel = "serializable"
)

// TxAccessMode 事务访问模式
type TxAccessMode string

const (
	TxAccessModeDefault   TxAccessMode = ""
	TxAccessModeReadWrite TxAccessMode = "read write"
	TxAccessModeReadOnly  TxAccessMode = "read only"
)

// TxOptions 事务选项
type TxOptions struct {
	IsoLevel   TxIsolationLevel
	AccessMode TxAccessMode
}

// WithTx 在默认选项的事务中执行函数
func (c *Client) WithTx(ctx context.Context, fn func(Tx) error) error {
	return c.WithTxOptions(ctx, TxOptions{}, fn)
}

// WithTxOptions 在事务中执行函数，fn 返回错误或 panic 时回滚
func (c *Client) WithTxOptions(ctx context.Context, opts TxOptions, fn func(Tx) error) error {
	tx, err := c.getMaster().BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.TxIsoLevel(opts.IsoLevel),
		AccessMode: pgx.TxAccessMode(opts.AccessMode),
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(&txWrapper{tx: tx}); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
