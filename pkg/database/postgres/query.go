package postgres

import (
	"context"
	"fmt"
)

// applyQueryTimeout 应用查询超时到 context
func (c *Client) applyQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.QueryTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.QueryTimeout)
	}
	return ctx, func() {}
}

// QueryOne 在从库查询单条记录
func QueryOne[T any](c *Client, ctx context.Context, sql string, args ...any) (*T, error) {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	rows, err := c.getSlave().Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return scanOne[T](rows)
}

// QueryAll 在从库查询多条记录
func QueryAll[T any](c *Client, ctx context.Context, sql string, args ...any) ([]*T, error) {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	rows, err := c.getSlave().Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return scanAll[T](rows)
}

// Exec 在主库执行写操作（INSERT/UPDATE/DELETE/DDL）
func (c *Client) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	result, err := c.getMaster().Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}

	return result.RowsAffected(), nil
}

// Exists 在从库执行 SELECT EXISTS(...) 类查询
func (c *Client) Exists(ctx context.Context, sql string, args ...any) (bool, error) {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	var exists bool
	if err := c.getSlave().QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists query failed: %w", err)
	}

	return exists, nil
}
