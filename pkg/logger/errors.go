package logger

import "errors"

var (
	ErrInvalidOutputPath = errors.New("output path is required when file output is enabled")
	ErrNoOutputEnabled   = errors.New("at least one output (console or file) must be enabled")
	ErrInvalidFormat     = errors.New("log format must be json or console")
	ErrInvalidRotation   = errors.New("invalid log rotation config")
)
