package kafka

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter kafka.Writer 的最小抽象
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer Kafka 生产者（单 topic）
type Producer struct {
	client *Client
	topic  string
	writer messageWriter

	produced  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64

	mu       sync.RWMutex
	lastSent time.Time

	closed atomic.Bool
}

// newWriter 根据配置创建 kafka.Writer
func newWriter(cfg *Config, topic string) (messageWriter, error) {
	pc := cfg.Producer

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              pc.BatchSize,
		BatchTimeout:           pc.BatchTimeout,
		MaxAttempts:            pc.MaxRetries + 1,
		WriteTimeout:           pc.WriteTimeout,
		ReadTimeout:            pc.ReadTimeout,
		RequiredAcks:           kafka.RequiredAcks(pc.RequiredAcks),
		Async:                  pc.Async,
		Compression:            parseCompression(pc.Compression),
		AllowAutoTopicCreation: pc.AllowAutoTopicCreation,
	}

	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	if transport != nil {
		writer.Transport = transport
	}

	return writer, nil
}

// Publish 发布单条消息，经过客户端注册的中间件链
func (p *Producer) Publish(ctx context.Context, msg *Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	p.produced.Add(1)
	msg.Topic = p.topic

	publish := PublishFunc(p.write)
	for i := len(p.client.middlewares) - 1; i >= 0; i-- {
		mw := p.client.middlewares[i]
		next := publish
		publish = func(ctx context.Context, msg *Message) error {
			return mw(ctx, msg, next)
		}
	}

	if err := publish(ctx, msg); err != nil {
		p.failed.Add(1)
		return err
	}

	p.succeeded.Add(1)
	p.mu.Lock()
	p.lastSent = time.Now()
	p.mu.Unlock()
	return nil
}

// PublishJSON 发布 JSON 消息
func (p *Producer) PublishJSON(ctx context.Context, key string, value []byte, headers map[string]string) error {
	merged := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		merged[k] = v
	}
	merged["content-type"] = "application/json"

	return p.Publish(ctx, &Message{
		Key:     []byte(key),
		Value:   value,
		Headers: merged,
	})
}

func (p *Producer) write(ctx context.Context, msg *Message) error {
	return p.writer.WriteMessages(ctx, toKafkaMessage(msg))
}

// toKafkaMessage 转换为 kafka-go 消息，header 按 key 排序保证输出稳定
func toKafkaMessage(msg *Message) kafka.Message {
	km := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Time:  msg.Timestamp,
	}

	if len(msg.Headers) > 0 {
		keys := make([]string, 0, len(msg.Headers))
		for k := range msg.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		km.Headers = make([]kafka.Header, 0, len(keys))
		for _, k := range keys {
			km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(msg.Headers[k])})
		}
	}

	return km
}

// Topic 返回 topic 名称
func (p *Producer) Topic() string {
	return p.topic
}

// Stats 返回统计信息
func (p *Producer) Stats() ProducerStats {
	p.mu.RLock()
	last := p.lastSent
	p.mu.RUnlock()

	return ProducerStats{
		MessagesProduced:  p.produced.Load(),
		MessagesSucceeded: p.succeeded.Load(),
		MessagesFailed:    p.failed.Load(),
		LastMessageTime:   last,
	}
}

// Close 关闭生产者
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}

	p.client.logger.Debug("producer closing", "topic", p.topic)

	return p.writer.Close()
}

// IsClosed 是否已关闭
func (p *Producer) IsClosed() bool {
	return p.closed.Load()
}

// parseCompression 解析压缩算法
func parseCompression(s string) kafka.Compression {
	switch s {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return 0
	}
}
