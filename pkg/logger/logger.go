// pkg/logger/logger.go
package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lk2023060901/xdooria-pet/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 确保 BaseLogger 实现了 Logger 接口
var _ Logger = (*BaseLogger)(nil)

// BaseLogger 基于 zap 的日志记录器实现
type BaseLogger struct {
	*zap.Logger
	config           *Config
	name             string
	globalFields     map[string]interface{}
	hooks            []Hook
	extraWriters     []zapcore.WriteSyncer
	contextExtractor ContextFieldExtractor
}

// New 创建新的 BaseLogger
// cfg 可以只包含部分字段，其余字段使用 DefaultConfig 的值
func New(cfg *Config, opts ...Option) (*BaseLogger, error) {
	mergedConfig, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	if err := mergedConfig.Validate(); err != nil {
		return nil, err
	}

	l := &BaseLogger{
		config:           mergedConfig,
		globalFields:     make(map[string]interface{}),
		contextExtractor: mergedConfig.ContextExtractor,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.contextExtractor == nil {
		l.contextExtractor = DefaultContextExtractor
	}

	for k, v := range mergedConfig.GlobalFields {
		if _, exists := l.globalFields[k]; !exists {
			l.globalFields[k] = v
		}
	}

	zapLogger, err := l.build()
	if err != nil {
		return nil, err
	}
	l.Logger = zapLogger

	return l, nil
}

func (l *BaseLogger) build() (*zap.Logger, error) {
	encoderConfig := l.buildEncoderConfig()

	var encoder zapcore.Encoder
	if l.config.Format == ConsoleFormat {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	writers := make([]zapcore.WriteSyncer, 0, 2+len(l.extraWriters))
	if l.config.EnableConsole {
		if l.config.ConsoleStderr {
			writers = append(writers, zapcore.AddSync(os.Stderr))
		} else {
			writers = append(writers, zapcore.AddSync(os.Stdout))
		}
	}
	if l.config.EnableFile {
		fileWriter, err := NewRotationWriter(&l.config.Rotation, l.config.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create rotation writer: %w", err)
		}
		writers = append(writers, zapcore.AddSync(fileWriter))
	}
	writers = append(writers, l.extraWriters...)

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(writers...), parseLevel(l.config.Level))

	hooks := append([]Hook(nil), l.hooks...)
	if len(l.config.RedactKeys) > 0 {
		hooks = append(hooks, SensitiveDataHook(l.config.RedactKeys))
	}
	if len(hooks) > 0 {
		core = newHookedCore(core, hooks)
	}

	if l.config.EnableSampling {
		core = zapcore.NewSamplerWithOptions(core, time.Second, l.config.SamplingInitial, l.config.SamplingThereafter)
	}

	options := []zap.Option{
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	}
	if l.config.EnableStacktrace {
		options = append(options, zap.AddStacktrace(parseLevel(l.config.StacktraceLevel)))
	}
	if l.config.Development {
		options = append(options, zap.Development())
	}

	zapLogger := zap.New(core, options...)

	if len(l.globalFields) > 0 {
		fields := make([]zap.Field, 0, len(l.globalFields))
		for k, v := range l.globalFields {
			fields = append(fields, zap.Any(k, v))
		}
		zapLogger = zapLogger.With(fields...)
	}

	if l.name != "" {
		zapLogger = zapLogger.Named(l.name)
	}

	return zapLogger, nil
}

func (l *BaseLogger) buildEncoderConfig() zapcore.EncoderConfig {
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
	}

	if l.config.TimeFormat != "" {
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(l.config.TimeFormat)
	}

	// 开发模式下控制台彩色输出
	if l.config.Development && l.config.Format == ConsoleFormat {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return encoderConfig
}

func parseLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case PanicLevel:
		return zapcore.PanicLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *BaseLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, toZapFields(keysAndValues)...)
}

func (l *BaseLogger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, toZapFields(keysAndValues)...)
}

func (l *BaseLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, toZapFields(keysAndValues)...)
}

func (l *BaseLogger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, toZapFields(keysAndValues)...)
}

func (l *BaseLogger) DebugContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, l.contextFields(ctx, keysAndValues)...)
}

func (l *BaseLogger) InfoContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, l.contextFields(ctx, keysAndValues)...)
}

func (l *BaseLogger) WarnContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, l.contextFields(ctx, keysAndValues)...)
}

func (l *BaseLogger) ErrorContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, l.contextFields(ctx, keysAndValues)...)
}

// Named 创建具名 logger，例如 service.pet / dao.material
func (l *BaseLogger) Named(name string) Logger {
	return l.derive(l.Logger.Named(name), name)
}

// WithFields 添加字段
func (l *BaseLogger) WithFields(keysAndValues ...interface{}) Logger {
	fields := toZapFields(keysAndValues)
	if len(fields) == 0 {
		return l
	}
	return l.derive(l.Logger.With(fields...), l.name)
}

// Sync 同步日志
func (l *BaseLogger) Sync() error {
	return l.Logger.Sync()
}

func (l *BaseLogger) derive(z *zap.Logger, name string) *BaseLogger {
	return &BaseLogger{
		Logger:           z,
		config:           l.config,
		name:             name,
		globalFields:     l.globalFields,
		hooks:            l.hooks,
		extraWriters:     l.extraWriters,
		contextExtractor: l.contextExtractor,
	}
}

func (l *BaseLogger) contextFields(ctx context.Context, keysAndValues []interface{}) []zap.Field {
	var fields []zap.Field
	if ctx != nil {
		fields = l.contextExtractor(ctx)
	}
	return append(fields, toZapFields(keysAndValues)...)
}

// toZapFields 将 key-value 对转换为 zap.Field
// 也接受直接传入的 zap.Field；奇数个参数时最后一个 key 记为 !BADKEY
func toZapFields(keysAndValues []interface{}) []zap.Field {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(keysAndValues)/2+1)
	for i := 0; i < len(keysAndValues); i++ {
		if f, ok := keysAndValues[i].(zap.Field); ok {
			fields = append(fields, f)
			continue
		}
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		if i+1 >= len(keysAndValues) {
			fields = append(fields, zap.Any("!BADKEY", key))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		i++
	}
	return fields
}
