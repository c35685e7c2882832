package logger

import "sync"

var (
	defaultLogger Logger = NewNoop()
	defaultMu     sync.RWMutex
)

// SetDefault 设置全局 logger，命令行工具在初始化完成后调用
func SetDefault(l Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// Default 返回全局 logger，未设置时为 NoopLogger
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}
