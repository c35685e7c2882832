// pkg/config/loader.go
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultEnvPrefix 默认环境变量前缀，XDOORIA_DATABASE_MASTER_HOST 覆盖 database.master.host
const DefaultEnvPrefix = "XDOORIA"

// Option 加载器选项
type Option func(*Loader)

// WithEnvPrefix 设置环境变量前缀，传空字符串关闭环境变量覆盖
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigType 显式指定配置格式（yaml、json、toml），默认按扩展名推断
func WithConfigType(configType string) Option {
	return func(l *Loader) {
		l.v.SetConfigType(configType)
	}
}

// WithDefaults 设置默认值
func WithDefaults(defaults map[string]any) Option {
	return func(l *Loader) {
		for key, value := range defaults {
			l.v.SetDefault(key, value)
		}
	}
}

// WithOverrides 设置最高优先级的值，覆盖配置文件与环境变量
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		for key, value := range values {
			l.v.Set(key, value)
		}
	}
}

// Loader 配置加载器
type Loader struct {
	v         *viper.Viper
	envPrefix string
}

// NewLoader 创建配置加载器
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		v:         viper.New(),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.envPrefix != "" {
		l.v.SetEnvPrefix(l.envPrefix)
		l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		l.v.AutomaticEnv()
	}
	return l
}

// LoadFile 读取配置文件
func (l *Loader) LoadFile(path string) error {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// Unmarshal 解析整个配置到结构体
func (l *Loader) Unmarshal(target any) error {
	if err := l.v.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// UnmarshalKey 解析配置中的某个 key 到结构体
func (l *Loader) UnmarshalKey(key string, target any) error {
	if err := l.v.UnmarshalKey(key, target); err != nil {
		return fmt.Errorf("failed to unmarshal key %s: %w", key, err)
	}
	return nil
}

// IsSet 检查配置项是否存在（包括环境变量）
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// GetString 获取字符串配置
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// Load 读取 path 并解析为 T，随后执行 validate tag 校验
func Load[T any](path string, opts ...Option) (*T, error) {
	loader := NewLoader(opts...)
	if err := loader.LoadFile(path); err != nil {
		return nil, err
	}

	var cfg T
	if err := loader.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := NewValidator().Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
