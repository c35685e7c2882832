package event

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/metrics"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

// Producer Kafka 生产者的最小抽象，*kafka.Producer 满足该接口
type Producer interface {
	PublishJSON(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// Envelope 写入 Kafka 的消息体
type Envelope struct {
	EventID     string    `json:"event_id"`
	Type        Type      `json:"type"`
	UserID      int64     `json:"user_id"`
	OwnershipID int64     `json:"ownership_id,omitempty"`
	Payload     any       `json:"payload,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// KafkaPublisher 以用户 ID 为消息键发布事件，同一用户的事件落在同一分区
type KafkaPublisher struct {
	producer Producer
	logger   logger.Logger
	metrics  *metrics.PetMetrics
}

// NewKafkaPublisher 创建 Kafka 事件发布者
func NewKafkaPublisher(p Producer, l logger.Logger, m *metrics.PetMetrics) *KafkaPublisher {
	return &KafkaPublisher{
		producer: p,
		logger:   l.Named("event.kafka"),
		metrics:  m,
	}
}

// Publish 序列化并发送事件
func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}

	env := Envelope{
		EventID:     uuid.NewString(),
		Type:        evt.Type,
		UserID:      evt.UserID,
		OwnershipID: evt.OwnershipID,
		Payload:     evt.Payload,
		OccurredAt:  evt.OccurredAt.UTC(),
	}

	data, err := json.Marshal(env)
	if err != nil {
		p.metrics.RecordEvent(string(evt.Type), false)
		return errors.Wrapf(err, "marshal event %s", evt.Type)
	}

	headers := map[string]string{
		"event_type": string(evt.Type),
		"event_id":   env.EventID,
	}
	if err := p.producer.PublishJSON(ctx, strconv.FormatInt(evt.UserID, 10), data, headers); err != nil {
		p.metrics.RecordEvent(string(evt.Type), false)
		p.logger.WarnContext(ctx, "failed to publish event",
			"event_type", evt.Type,
			"event_id", env.EventID,
			"error", err,
		)
		return errors.Wrapf(err, "publish event %s", evt.Type)
	}

	p.metrics.RecordEvent(string(evt.Type), true)
	return nil
}
