package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/lk2023060901/xdooria-pet/pkg/config"
)

// Config 指标配置
type Config struct {
	// Namespace 指标命名空间
	Namespace string `mapstructure:"namespace" json:"namespace" yaml:"namespace"`
	// PushGateway 命令执行完成后推送指标的 Pushgateway 地址，为空时不推送
	PushGateway string `mapstructure:"push_gateway" json:"push_gateway" yaml:"push_gateway"`
	// Job Pushgateway 上的 job 名
	Job string `mapstructure:"job" json:"job" yaml:"job"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Namespace: "pet",
		Job:       "petctl",
	}
}

// PetMetrics 宠物服务指标
type PetMetrics struct {
	config *Config

	// 业务操作指标
	OperationTotal    *prometheus.CounterVec   // 操作总数（按操作、结果）
	OperationDuration *prometheus.HistogramVec // 操作延迟

	// 材料与成长
	MaterialConsumed *prometheus.CounterVec // 材料消耗数量（按材料）
	MaterialCredited *prometheus.CounterVec // 材料发放数量（按材料）
	LevelUps         *prometheus.CounterVec // 升级次数（按对象：pet/mount）

	// 数据库指标
	DBQueryTotal    *prometheus.CounterVec   // 数据库查询总数（按操作、结果）
	DBQueryDuration *prometheus.HistogramVec // 数据库查询延迟

	// 缓存指标
	CacheHitTotal  *prometheus.CounterVec // 缓存命中（按缓存类型）
	CacheMissTotal *prometheus.CounterVec // 缓存未命中（按缓存类型）

	// 事件指标
	EventsPublished *prometheus.CounterVec // 事件发布（按事件类型、结果）
}

// New 创建宠物服务指标
func New(cfg *Config) (*PetMetrics, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge metrics config: %w", err)
	}

	ns := newCfg.Namespace
	return &PetMetrics{
		config: newCfg,

		OperationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "operations_total",
				Help:      "业务操作总数",
			},
			[]string{"operation", "result"}, // result: success / 业务错误码 / error
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "operation_duration_seconds",
				Help:      "业务操作延迟（秒）",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
			},
			[]string{"operation"},
		),

		MaterialConsumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "material_consumed_total",
				Help:      "材料消耗数量",
			},
			[]string{"material"},
		),
		MaterialCredited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "material_credited_total",
				Help:      "材料发放数量",
			},
			[]string{"material"},
		),
		LevelUps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "level_ups_total",
				Help:      "升级次数",
			},
			[]string{"target"}, // target: pet/mount
		),

		DBQueryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "db_queries_total",
				Help:      "数据库查询总数",
			},
			[]string{"operation", "result"}, // operation: select/insert/update/lock
		),
		DBQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "db_query_duration_seconds",
				Help:      "数据库查询延迟（秒）",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),

		CacheHitTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "cache_hits_total",
				Help:      "缓存命中总数",
			},
			[]string{"cache_type"},
		),
		CacheMissTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "cache_misses_total",
				Help:      "缓存未命中总数",
			},
			[]string{"cache_type"},
		),

		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "events_published_total",
				Help:      "事件发布总数",
			},
			[]string{"event_type", "result"},
		),
	}, nil
}

func (m *PetMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.OperationTotal,
		m.OperationDuration,
		m.MaterialConsumed,
		m.MaterialCredited,
		m.LevelUps,
		m.DBQueryTotal,
		m.DBQueryDuration,
		m.CacheHitTotal,
		m.CacheMissTotal,
		m.EventsPublished,
	}
}

// Register 注册指标到 Prometheus Registry
func (m *PetMetrics) Register(registerer prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Push 推送到 Pushgateway，未配置地址时直接返回
func (m *PetMetrics) Push() error {
	if m.config.PushGateway == "" {
		return nil
	}
	pusher := push.New(m.config.PushGateway, m.config.Job)
	for _, c := range m.collectors() {
		pusher = pusher.Collector(c)
	}
	if err := pusher.Push(); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}

// RecordOperation 记录业务操作，result 为 success、业务错误码或 error
func (m *PetMetrics) RecordOperation(operation, result string, duration float64) {
	m.OperationTotal.WithLabelValues(operation, result).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordMaterialConsumed 记录材料消耗
func (m *PetMetrics) RecordMaterialConsumed(material string, quantity int64) {
	m.MaterialConsumed.WithLabelValues(material).Add(float64(quantity))
}

// RecordMaterialCredited 记录材料发放
func (m *PetMetrics) RecordMaterialCredited(material string, quantity int64) {
	m.MaterialCredited.WithLabelValues(material).Add(float64(quantity))
}

// RecordLevelUp 记录升级
func (m *PetMetrics) RecordLevelUp(target string, levels int32) {
	if levels > 0 {
		m.LevelUps.WithLabelValues(target).Add(float64(levels))
	}
}

// RecordDBQuery 记录数据库查询
func (m *PetMetrics) RecordDBQuery(operation string, success bool, duration float64) {
	result := "success"
	if !success {
		result = "failed"
	}
	m.DBQueryTotal.WithLabelValues(operation, result).Inc()
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// RecordCacheHit 记录缓存命中
func (m *PetMetrics) RecordCacheHit(cacheType string) {
	m.CacheHitTotal.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (m *PetMetrics) RecordCacheMiss(cacheType string) {
	m.CacheMissTotal.WithLabelValues(cacheType).Inc()
}

// RecordEvent 记录事件发布
func (m *PetMetrics) RecordEvent(eventType string, success bool) {
	result := "success"
	if !success {
		result = "failed"
	}
	m.EventsPublished.WithLabelValues(eventType, result).Inc()
}

// GetConfig 获取配置
func (m *PetMetrics) GetConfig() *Config {
	return m.config
}
