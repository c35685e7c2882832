package idgen

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sony/sonyflake"
)

// Config Sonyflake 配置
type Config struct {
	// MachineID 机器ID (0-65535)，同一集群内唯一
	MachineID uint16 `mapstructure:"machine_id" json:"machine_id" yaml:"machine_id"`
	// StartTime 纪元起点，为零时使用 2025-01-01 UTC
	StartTime time.Time `mapstructure:"start_time" json:"start_time" yaml:"start_time"`
}

var defaultStartTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type sonyflakeGenerator struct {
	sf *sonyflake.Sonyflake
}

// NewSonyflake 创建基于 Sonyflake 的ID生成器
func NewSonyflake(cfg *Config) (Generator, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	start := cfg.StartTime
	if start.IsZero() {
		start = defaultStartTime
	}
	if start.After(time.Now()) {
		return nil, errors.Newf("sonyflake start time %s is in the future", start.Format(time.RFC3339))
	}

	machineID := cfg.MachineID
	settings := sonyflake.Settings{
		StartTime: start,
		MachineID: func() (uint16, error) {
			return machineID, nil
		},
	}

	sf := sonyflake.NewSonyflake(settings)
	if sf == nil {
		return nil, errors.New("failed to create sonyflake generator")
	}

	return &sonyflakeGenerator{sf: sf}, nil
}

func (g *sonyflakeGenerator) NextID() (int64, error) {
	id, err := g.sf.NextID()
	if err != nil {
		return 0, errors.Wrap(err, "failed to generate id")
	}
	return int64(id), nil
}
