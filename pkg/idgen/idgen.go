// Package idgen 分布式 ID 生成
package idgen

import "sync/atomic"

// Generator ID生成器接口
type Generator interface {
	// NextID 生成下一个唯一ID
	NextID() (int64, error)
}

// Sequence 进程内自增 ID，单机工具与测试使用
type Sequence struct {
	last atomic.Int64
}

// NewSequence 创建从 start+1 开始递增的生成器
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.last.Store(start)
	return s
}

// NextID 返回下一个 ID
func (s *Sequence) NextID() (int64, error) {
	return s.last.Add(1), nil
}
