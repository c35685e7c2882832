package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/lk2023060901/xdooria-pet/pkg/config"
)

// ConfigEnv 未显式指定 -c 时读取的环境变量
const ConfigEnv = "XDOORIA_CONFIG"

// ConfigFlags 配置文件与日志路径参数
// 优先级：1. 命令行显式参数 > 2. 环境变量 > 3. 配置文件 > 4. 默认值
type ConfigFlags struct {
	fs         *pflag.FlagSet
	configPath string
	logPath    string
}

// BindConfigFlags 在 fs 上注册 -c/--config 与 --log.path
func BindConfigFlags(fs *pflag.FlagSet) *ConfigFlags {
	execDir, err := GetExecDir()
	if err != nil {
		execDir = "."
	}

	f := &ConfigFlags{fs: fs}
	fs.StringVarP(&f.configPath, "config", "c", filepath.Join(execDir, "config.yaml"), "path to config file")
	fs.StringVar(&f.logPath, "log.path", filepath.Join(execDir, "logs", AppName+".log"), "output path for logs")
	return f
}

// ConfigPath 最终使用的配置文件路径
func (f *ConfigFlags) ConfigPath() string {
	if !f.fs.Changed("config") {
		if env := os.Getenv(ConfigEnv); env != "" {
			return env
		}
	}
	return f.configPath
}

// Load 读取配置文件并解析到 target，extra 追加在内置选项之后
func (f *ConfigFlags) Load(target any, extra ...config.Option) error {
	path := f.ConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config file not found at %s", path)
	}

	opts := []config.Option{
		config.WithDefaults(map[string]any{"log.output_path": f.logPath}),
	}
	// 显式指定 --log.path 时覆盖所有来源
	if f.fs.Changed("log.path") {
		opts = append(opts, config.WithOverrides(map[string]any{"log.output_path": f.logPath}))
	}
	opts = append(opts, extra...)

	loader := config.NewLoader(opts...)
	if err := loader.LoadFile(path); err != nil {
		return err
	}
	if err := loader.Unmarshal(target); err != nil {
		return err
	}

	if logPath := loader.GetString("log.output_path"); logPath != "" {
		_ = os.MkdirAll(filepath.Dir(logPath), 0o755)
	}
	return nil
}

// GetExecDir 获取可执行文件所在目录（处理符号链接）
func GetExecDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return filepath.Dir(execPath), nil
	}
	return filepath.Dir(realPath), nil
}
