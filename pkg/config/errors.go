package config

import "errors"

var (
	// ErrValidationFailed 配置验证失败
	ErrValidationFailed = errors.New("config validation failed")

	// ErrNilConfig 配置为 nil
	ErrNilConfig = errors.New("config cannot be nil")

	// ErrBothNil 合并时 dst 与 src 同时为 nil
	ErrBothNil = errors.New("both dst and src cannot be nil")
)
