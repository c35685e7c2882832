// Package event 宠物状态变更事件（事务提交后发布，尽力而为）
package event

import (
	"context"
	"sync"
	"time"
)

// Type 事件类型
type Type string

const (
	TypePetHatched    Type = "pet.hatched"
	TypePetFed        Type = "pet.fed"
	TypePetLeveledUp  Type = "pet.leveled_up"
	TypeMountTamed    Type = "mount.tamed"
	TypeMountUpgraded Type = "mount.upgraded"
)

// Event 领域事件
type Event struct {
	Type        Type
	UserID      int64
	OwnershipID int64
	Payload     any
	OccurredAt  time.Time
}

// Publisher 事件发布者
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// NoopPublisher 丢弃所有事件，未配置 Kafka 时使用
type NoopPublisher struct{}

// Publish 直接返回
func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// Recorder 记录发布的事件，测试用
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish 追加事件
func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
	return nil
}

// Events 已记录的事件
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types 已记录事件的类型序列
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]Type, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}
