// Package catalog 生物配置表
// 启动时从数据目录加载 creature.json，加载后只读
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/model"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

// TableName 配置表文件名（不含扩展名）
const TableName = "creature"

// ErrInvalidDefinition 配置校验失败
var ErrInvalidDefinition = errors.New("catalog: invalid creature definition")

// Config 配置表位置
type Config struct {
	DataDir string `mapstructure:"data_dir" validate:"required"`
}

// Registry 生物配置查询
type Registry interface {
	Get(id int32) (*model.CreatureDefinition, bool)
	GetByKey(key string) (*model.CreatureDefinition, bool)
	All() []*model.CreatureDefinition
}

type registry struct {
	byID  map[int32]*model.CreatureDefinition
	byKey map[string]*model.CreatureDefinition
	list  []*model.CreatureDefinition
}

// Load 从 cfg.DataDir/creature.json 加载配置表
func Load(cfg *Config, l logger.Logger) (Registry, error) {
	if cfg == nil || cfg.DataDir == "" {
		return nil, errors.New("catalog: data_dir is required")
	}

	path := filepath.Join(cfg.DataDir, TableName+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read catalog file %s", path)
	}

	var defs []*model.CreatureDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal catalog file %s", path)
	}

	r, err := New(defs)
	if err != nil {
		return nil, err
	}

	l.Info("creature catalog loaded", "path", path, "count", len(defs))
	return r, nil
}

// New 使用内存中的定义构建配置表，定义在校验后被复制
func New(defs []*model.CreatureDefinition) (Registry, error) {
	r := &registry{
		byID:  make(map[int32]*model.CreatureDefinition, len(defs)),
		byKey: make(map[string]*model.CreatureDefinition, len(defs)),
		list:  make([]*model.CreatureDefinition, 0, len(defs)),
	}

	for i, d := range defs {
		if d == nil {
			return nil, errors.Wrapf(ErrInvalidDefinition, "entry %d is null", i)
		}
		if err := validate(d); err != nil {
			return nil, err
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, errors.Wrapf(ErrInvalidDefinition, "duplicate id %d", d.ID)
		}
		if _, dup := r.byKey[d.Key]; dup {
			return nil, errors.Wrapf(ErrInvalidDefinition, "duplicate key %q", d.Key)
		}

		c := *d
		c.BaseStats = d.CopyBaseStats()
		r.byID[c.ID] = &c
		r.byKey[c.Key] = &c
		r.list = append(r.list, &c)
	}

	sort.Slice(r.list, func(i, j int) bool { return r.list[i].ID < r.list[j].ID })
	return r, nil
}

func validate(d *model.CreatureDefinition) error {
	fail := func(format string, args ...any) error {
		return errors.Wrapf(ErrInvalidDefinition, "creature %d (%s): %s", d.ID, d.Key, fmt.Sprintf(format, args...))
	}

	if d.ID <= 0 {
		return fail("id must be positive")
	}
	if d.Key == "" {
		return fail("key is required")
	}
	if !d.Type.Valid() {
		return fail("unknown type %q", d.Type)
	}
	if !d.Rarity.Valid() {
		return fail("unknown rarity %q", d.Rarity)
	}
	if d.MaxLevel <= 0 {
		return fail("max_level must be positive")
	}
	if d.MountSpeedBase < 0 {
		return fail("mount_speed_base must not be negative")
	}
	for k, v := range d.BaseStats {
		if _, ok := model.AllowedStatKeys[k]; !ok {
			return fail("unknown stat key %q", k)
		}
		if v < 0 {
			return fail("stat %q must not be negative", k)
		}
	}
	return nil
}

// Get 按 ID 查询，返回值只读
func (r *registry) Get(id int32) (*model.CreatureDefinition, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// GetByKey 按自然键查询
func (r *registry) GetByKey(key string) (*model.CreatureDefinition, bool) {
	d, ok := r.byKey[key]
	return d, ok
}

// All 按 ID 升序返回全部定义
func (r *registry) All() []*model.CreatureDefinition {
	out := make([]*model.CreatureDefinition, len(r.list))
	copy(out, r.list)
	return out
}
