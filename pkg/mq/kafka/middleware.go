package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

// ProducerLoggingMiddleware 生产者日志中间件
func ProducerLoggingMiddleware(log logger.Logger) ProducerMiddleware {
	return func(ctx context.Context, msg *Message, next PublishFunc) error {
		start := time.Now()

		err := next(ctx, msg)

		duration := time.Since(start)
		if err != nil {
			log.ErrorContext(ctx, "message publish failed",
				"topic", msg.Topic,
				"key", string(msg.Key),
				"duration", duration,
				"error", err,
			)
		} else {
			log.DebugContext(ctx, "message published",
				"topic", msg.Topic,
				"key", string(msg.Key),
				"duration", duration,
			)
		}

		return err
	}
}

// ProducerRecoveryMiddleware 生产者恢复中间件（捕获 panic）
func ProducerRecoveryMiddleware(log logger.Logger) ProducerMiddleware {
	return func(ctx context.Context, msg *Message, next PublishFunc) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("producer panic recovered",
					"topic", msg.Topic,
					"panic", r,
				)
				err = fmt.Errorf("%w: %v", ErrProducerPanic, r)
			}
		}()
		return next(ctx, msg)
	}
}

// ProducerHeaderMiddleware 为每条消息追加固定 header（不覆盖已有值）
func ProducerHeaderMiddleware(headers map[string]string) ProducerMiddleware {
	return func(ctx context.Context, msg *Message, next PublishFunc) error {
		if len(headers) > 0 {
			if msg.Headers == nil {
				msg.Headers = make(map[string]string, len(headers))
			}
			for k, v := range headers {
				if _, ok := msg.Headers[k]; !ok {
					msg.Headers[k] = v
				}
			}
		}
		return next(ctx, msg)
	}
}
