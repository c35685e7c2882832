package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/lk2023060901/xdooria-pet/pkg/config"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

// writerFactory 按 topic 创建底层 writer
type writerFactory func(cfg *Config, topic string) (messageWriter, error)

// Client Kafka 客户端（仅生产端）
type Client struct {
	config *Config
	logger logger.Logger

	// 生产者（按 topic 缓存）
	producers  map[string]*Producer
	producerMu sync.Mutex

	middlewares []ProducerMiddleware
	newWriter   writerFactory

	closed atomic.Bool
}

// ClientOption 客户端选项
type ClientOption func(*Client)

// WithLogger 设置日志
func WithLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l.Named("kafka")
		}
	}
}

// WithProducerMiddleware 添加生产者中间件
func WithProducerMiddleware(mw ...ProducerMiddleware) ClientOption {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, mw...)
	}
}

// New 创建 Kafka 客户端
func New(cfg *Config, opts ...ClientOption) (*Client, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}

	// MergeConfig 不会用零值覆盖默认值，显式传入的 Async=false 需要保留
	if cfg != nil && !cfg.Producer.Async {
		newCfg.Producer.Async = false
	}

	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:    newCfg,
		logger:    logger.NewNoop(),
		producers: make(map[string]*Producer),
		newWriter: newWriter,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Producer 获取或创建指定 topic 的生产者
func (c *Client) Producer(topic string) (*Producer, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	c.producerMu.Lock()
	defer c.producerMu.Unlock()

	if p, ok := c.producers[topic]; ok {
		return p, nil
	}

	w, err := c.newWriter(c.config, topic)
	if err != nil {
		return nil, err
	}

	p := &Producer{client: c, topic: topic, writer: w}
	c.producers[topic] = p

	c.logger.Debug("producer created", "topic", topic)

	return p, nil
}

// Publish 发布消息（便捷方法）
func (c *Client) Publish(ctx context.Context, topic string, msg *Message) error {
	p, err := c.Producer(topic)
	if err != nil {
		return err
	}
	return p.Publish(ctx, msg)
}

// HealthCheck 连接第一个可用 broker 检查连通性
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	dialer, err := newDialer(c.config)
	if err != nil {
		return err
	}

	var errs []error
	for _, broker := range c.config.Brokers {
		conn, err := dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return conn.Close()
	}
	return errors.Join(errs...)
}

// Config 返回配置
func (c *Client) Config() *Config {
	return c.config
}

// Close 关闭客户端及其所有生产者
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	c.producerMu.Lock()
	defer c.producerMu.Unlock()

	var errs []error
	for topic, p := range c.producers {
		if err := p.Close(); err != nil {
			c.logger.Error("failed to close producer", "topic", topic, "error", err)
			errs = append(errs, err)
		}
	}
	c.producers = make(map[string]*Producer)

	c.logger.Info("kafka client closed")

	return errors.Join(errs...)
}
