package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Log struct {
		Level      string `mapstructure:"level"`
		OutputPath string `mapstructure:"output_path"`
	} `mapstructure:"log"`
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n  output_path: /var/log/pet/file.log\n"), 0o644))
	return path
}

func TestConfigFlags_Precedence(t *testing.T) {
	dir := t.TempDir()
	fromFlag := writeConfig(t, dir)
	envDir := t.TempDir()
	fromEnv := writeConfig(t, envDir)

	t.Setenv(ConfigEnv, fromEnv)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := BindConfigFlags(fs)
	require.NoError(t, fs.Parse(nil))
	assert.Equal(t, fromEnv, f.ConfigPath(), "env wins over the default path")

	fs = pflag.NewFlagSet("test", pflag.ContinueOnError)
	f = BindConfigFlags(fs)
	require.NoError(t, fs.Parse([]string{"-c", fromFlag}))
	assert.Equal(t, fromFlag, f.ConfigPath(), "explicit flag wins over env")
}

func TestConfigFlags_Load(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir)
	logPath := filepath.Join(dir, "logs", "cli.log")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := BindConfigFlags(fs)
	require.NoError(t, fs.Parse([]string{"-c", path, "--log.path", logPath}))

	var cfg testConfig
	require.NoError(t, f.Load(&cfg))
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, logPath, cfg.Log.OutputPath)

	_, err := os.Stat(filepath.Dir(logPath))
	assert.NoError(t, err)
}

func TestConfigFlags_MissingFile(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := BindConfigFlags(fs)
	require.NoError(t, fs.Parse([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")}))

	var cfg testConfig
	assert.Error(t, f.Load(&cfg))
}

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.NotEmpty(t, info.AppName)
	assert.Contains(t, info.String(), info.Version)
}
