package logger

import "go.uber.org/zap/zapcore"

// Option 配置选项
type Option func(*BaseLogger)

// WithName 设置 logger 名称
func WithName(name string) Option {
	return func(l *BaseLogger) {
		l.name = name
	}
}

// WithGlobalFields 添加全局字段，参数为 key-value 对
func WithGlobalFields(fields ...interface{}) Option {
	return func(l *BaseLogger) {
		if len(fields)%2 != 0 {
			return
		}
		for i := 0; i < len(fields); i += 2 {
			key, ok := fields[i].(string)
			if !ok {
				continue
			}
			l.globalFields[key] = fields[i+1]
		}
	}
}

// WithHooks 添加钩子
func WithHooks(hooks ...Hook) Option {
	return func(l *BaseLogger) {
		l.hooks = append(l.hooks, hooks...)
	}
}

// WithLevel 设置日志等级
func WithLevel(level Level) Option {
	return func(l *BaseLogger) {
		l.config.Level = level
	}
}

// WithContextExtractor 替换 context 字段提取器
func WithContextExtractor(extractor ContextFieldExtractor) Option {
	return func(l *BaseLogger) {
		if extractor != nil {
			l.contextExtractor = extractor
		}
	}
}

// WithWriter 额外输出到指定 writer（测试中用于捕获日志）
func WithWriter(w zapcore.WriteSyncer) Option {
	return func(l *BaseLogger) {
		l.extraWriters = append(l.extraWriters, w)
	}
}
