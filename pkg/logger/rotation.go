package logger

import (
	"io"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewRotationWriter 按配置创建文件 writer
// size 使用 lumberjack，time 使用 file-rotatelogs 并在 outputPath 维护指向当前文件的软链接
func NewRotationWriter(cfg *RotationConfig, outputPath string) (io.Writer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Type == RotationByTime {
		pattern := cfg.Pattern
		if pattern == "" {
			pattern = ".%Y%m%d%H"
		}
		return rotatelogs.New(
			outputPath+pattern,
			rotatelogs.WithLinkName(outputPath),
			rotatelogs.WithRotationTime(cfg.Interval),
			rotatelogs.WithMaxAge(cfg.Retention),
		)
	}
	return &lumberjack.Logger{
		Filename:   outputPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}, nil
}
