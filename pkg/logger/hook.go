package logger

import (
	"go.uber.org/zap/zapcore"
)

// RedactedValue 脱敏后的字段值
const RedactedValue = "***REDACTED***"

// Hook 写入前回调，返回 false 丢弃该条日志
type Hook interface {
	OnWrite(entry zapcore.Entry, fields []zapcore.Field) bool
}

// HookFunc 函数式 Hook
type HookFunc func(entry zapcore.Entry, fields []zapcore.Field) bool

func (f HookFunc) OnWrite(entry zapcore.Entry, fields []zapcore.Field) bool {
	return f(entry, fields)
}

type hookedCore struct {
	zapcore.Core
	hooks []Hook
}

func newHookedCore(core zapcore.Core, hooks []Hook) zapcore.Core {
	return &hookedCore{Core: core, hooks: hooks}
}

func (h *hookedCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if h.Enabled(entry.Level) {
		return ce.AddCore(entry, h)
	}
	return ce
}

func (h *hookedCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	for _, hook := range h.hooks {
		if !hook.OnWrite(entry, fields) {
			return nil
		}
	}
	return h.Core.Write(entry, fields)
}

// With 固化的字段同样脱敏
func (h *hookedCore) With(fields []zapcore.Field) zapcore.Core {
	redactFields(fields, h.hooks)
	return &hookedCore{Core: h.Core.With(fields), hooks: h.hooks}
}

func redactFields(fields []zapcore.Field, hooks []Hook) {
	for _, hook := range hooks {
		if r, ok := hook.(*redactHook); ok {
			r.redact(fields)
		}
	}
}

type redactHook struct {
	keys map[string]struct{}
}

// SensitiveDataHook 将指定键的字段值替换为 RedactedValue
// 配置项 redact_keys 非空时由 New 自动挂载
func SensitiveDataHook(keys []string) Hook {
	h := &redactHook{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		h.keys[k] = struct{}{}
	}
	return h
}

func (h *redactHook) OnWrite(_ zapcore.Entry, fields []zapcore.Field) bool {
	h.redact(fields)
	return true
}

func (h *redactHook) redact(fields []zapcore.Field) {
	for i := range fields {
		if _, ok := h.keys[fields[i].Key]; ok {
			fields[i] = zapcore.Field{Key: fields[i].Key, Type: zapcore.StringType, String: RedactedValue}
		}
	}
}
