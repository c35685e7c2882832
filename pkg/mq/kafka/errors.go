package kafka

import "errors"

var (
	// ErrNoBrokers 无 broker 地址
	ErrNoBrokers = errors.New("kafka: no brokers configured")

	// ErrEmptyTopic 空主题
	ErrEmptyTopic = errors.New("kafka: empty topic")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("kafka: invalid config")

	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("kafka: client is closed")

	// ErrProducerClosed 生产者已关闭
	ErrProducerClosed = errors.New("kafka: producer is closed")

	// ErrProducerPanic 生产者 panic
	ErrProducerPanic = errors.New("kafka: producer panic")
)
