package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("postgres: invalid config")

	// ErrNoRows 没有查询到数据
	ErrNoRows = errors.New("postgres: no rows in result set")
)

// uniqueViolation PostgreSQL 唯一约束冲突的 SQLSTATE
const uniqueViolation = "23505"

// IsUniqueViolation 判断是否为唯一约束冲突
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
