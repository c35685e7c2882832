package logger

import (
	"context"

	"go.uber.org/zap"
)

// ContextFieldExtractor 从 context 提取字段的函数类型
type ContextFieldExtractor func(ctx context.Context) []zap.Field

// DefaultContextExtractor 默认的 context 提取器（不提取任何字段）
func DefaultContextExtractor(ctx context.Context) []zap.Field {
	return nil
}

type userIDKey struct{}

// ContextWithUserID 将调用方的用户 ID 写入 context
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext 读取 context 中的用户 ID
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey{}).(int64)
	return userID, ok
}

// UserContextExtractor 提取 user_id 字段
func UserContextExtractor(ctx context.Context) []zap.Field {
	if userID, ok := UserIDFromContext(ctx); ok {
		return []zap.Field{zap.Int64("user_id", userID)}
	}
	return nil
}
