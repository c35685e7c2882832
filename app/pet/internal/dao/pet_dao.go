package dao

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/metrics"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/model"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/store"
	"github.com/lk2023060901/xdooria-pet/pkg/database/postgres"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

const petTable = "player_pet"

var petColumns = []string{
	"id", "user_id", "creature_id", "is_owned", "level", "experience", "is_active", "stats", "last_fed_at",
	"is_tamed", "mount_level", "mount_experience", "mount_equipped", "mount_speed_bonus", "mount_stamina", "mount_skills",
	"created_at", "updated_at",
}

// petRow player_pet 表的一行
type petRow struct {
	ID              int64      `db:"id"`
	UserID          int64      `db:"user_id"`
	CreatureID      int32      `db:"creature_id"`
	IsOwned         bool       `db:"is_owned"`
	Level           int32      `db:"level"`
	Experience      int64      `db:"experience"`
	IsActive        bool       `db:"is_active"`
	Stats           []byte     `db:"stats"`
	LastFedAt       *time.Time `db:"last_fed_at"`
	IsTamed         bool       `db:"is_tamed"`
	MountLevel      int32      `db:"mount_level"`
	MountExperience int64      `db:"mount_experience"`
	MountEquipped   bool       `db:"mount_equipped"`
	MountSpeedBonus float64    `db:"mount_speed_bonus"`
	MountStamina    int32      `db:"mount_stamina"`
	MountSkills     []string   `db:"mount_skills"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

type idRow struct {
	ID int64 `db:"id"`
}

func newPetRow(rec *model.Ownership) (*petRow, error) {
	stats := rec.Stats
	if stats == nil {
		stats = map[string]int64{}
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return nil, errors.Wrap(err, "marshal stats")
	}

	row := &petRow{
		ID:          rec.ID,
		UserID:      rec.UserID,
		CreatureID:  rec.CreatureID,
		IsOwned:     rec.IsOwned,
		Level:       rec.Level,
		Experience:  rec.Experience,
		IsActive:    rec.IsActive,
		Stats:       data,
		LastFedAt:   rec.LastFedAt,
		MountSkills: []string{},
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if t, ok := rec.TamedMount(); ok {
		row.IsTamed = true
		row.MountLevel = t.Level
		row.MountExperience = t.Experience
		row.MountEquipped = t.Equipped
		row.MountSpeedBonus = t.SpeedBonus
		row.MountStamina = t.Stamina
		row.MountSkills = t.SkillList()
	}
	return row, nil
}

func (r *petRow) toModel() (*model.Ownership, error) {
	rec := &model.Ownership{
		ID:         r.ID,
		UserID:     r.UserID,
		CreatureID: r.CreatureID,
		IsOwned:    r.IsOwned,
		Level:      r.Level,
		Experience: r.Experience,
		IsActive:   r.IsActive,
		LastFedAt:  r.LastFedAt,
		Mount:      model.Untamed{},
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if len(r.Stats) > 0 {
		if err := json.Unmarshal(r.Stats, &rec.Stats); err != nil {
			return nil, errors.Wrapf(err, "unmarshal stats of ownership %d", r.ID)
		}
	}
	if r.IsTamed {
		t := &model.Tamed{
			Level:      r.MountLevel,
			Experience: r.MountExperience,
			Equipped:   r.MountEquipped,
			SpeedBonus: r.MountSpeedBonus,
			Stamina:    r.MountStamina,
		}
		for _, s := range r.MountSkills {
			t.UnlockSkill(s)
		}
		rec.Mount = t
	}
	return rec, nil
}

// PetDAO 持有记录数据访问对象，所有方法在调用方的事务中执行
type PetDAO struct {
	logger  logger.Logger
	metrics *metrics.PetMetrics
}

// NewPetDAO 创建持有记录 DAO
func NewPetDAO(l logger.Logger, m *metrics.PetMetrics) *PetDAO {
	return &PetDAO{
		logger:  l.Named("dao.pet"),
		metrics: m,
	}
}

func (d *PetDAO) record(op string, start time.Time, err error) {
	d.metrics.RecordDBQuery(op, err == nil || errors.Is(err, store.ErrNoRecord), time.Since(start).Seconds())
}

func (d *PetDAO) getOne(ctx context.Context, tx postgres.Tx, where squirrel.Eq, lock bool) (rec *model.Ownership, err error) {
	defer func(start time.Time) { d.record("select", start, err) }(time.Now())

	builder := squirrel.
		Select(petColumns...).
		From(petTable).
		Where(where).
		PlaceholderFormat(squirrel.Dollar)
	if lock {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	var row petRow
	if err := tx.QueryOne(ctx, &row, query, args...); err != nil {
		if errors.Is(err, postgres.ErrNoRows) {
			return nil, store.ErrNoRecord
		}
		d.logger.ErrorContext(ctx, "failed to get ownership", "where", where, "error", err)
		return nil, errors.Wrap(err, "failed to get ownership")
	}

	return row.toModel()
}

// GetByCreature 按 (userID, creatureID) 查询
func (d *PetDAO) GetByCreature(ctx context.Context, tx postgres.Tx, userID int64, creatureID int32, lock bool) (*model.Ownership, error) {
	return d.getOne(ctx, tx, squirrel.Eq{"user_id": userID, "creature_id": creatureID}, lock)
}

// GetByID 按 ID 查询，user_id 不匹配视为不存在
func (d *PetDAO) GetByID(ctx context.Context, tx postgres.Tx, userID, ownershipID int64, lock bool) (*model.Ownership, error) {
	return d.getOne(ctx, tx, squirrel.Eq{"id": ownershipID, "user_id": userID}, lock)
}

// Create 插入持有记录
func (d *PetDAO) Create(ctx context.Context, tx postgres.Tx, rec *model.Ownership) (err error) {
	defer func(start time.Time) { d.record("insert", start, err) }(time.Now())

	row, err := newPetRow(rec)
	if err != nil {
		return err
	}

	query, args, err := squirrel.
		Insert(petTable).
		Columns(petColumns...).
		Values(
			row.ID, row.UserID, row.CreatureID, row.IsOwned, row.Level, row.Experience, row.IsActive,
			string(row.Stats), row.LastFedAt,
			row.IsTamed, row.MountLevel, row.MountExperience, row.MountEquipped, row.MountSpeedBonus,
			row.MountStamina, row.MountSkills,
			row.CreatedAt, row.UpdatedAt,
		).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build query")
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return store.ErrDuplicate
		}
		d.logger.ErrorContext(ctx, "failed to create ownership",
			"creature_id", rec.CreatureID,
			"error", err,
		)
		return errors.Wrap(err, "failed to create ownership")
	}

	return nil
}

// Save 覆盖持有记录
func (d *PetDAO) Save(ctx context.Context, tx postgres.Tx, rec *model.Ownership) (err error) {
	defer func(start time.Time) { d.record("update", start, err) }(time.Now())

	row, err := newPetRow(rec)
	if err != nil {
		return err
	}

	query, args, err := squirrel.
		Update(petTable).
		SetMap(map[string]any{
			"is_owned":          row.IsOwned,
			"level":             row.Level,
			"experience":        row.Experience,
			"is_active":         row.IsActive,
			"stats":             string(row.Stats),
			"last_fed_at":       row.LastFedAt,
			"is_tamed":          row.IsTamed,
			"mount_level":       row.MountLevel,
			"mount_experience":  row.MountExperience,
			"mount_equipped":    row.MountEquipped,
			"mount_speed_bonus": row.MountSpeedBonus,
			"mount_stamina":     row.MountStamina,
			"mount_skills":      row.MountSkills,
			"updated_at":        row.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": row.ID, "user_id": row.UserID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build query")
	}

	affected, err := tx.Exec(ctx, query, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return store.ErrDuplicate
		}
		d.logger.ErrorContext(ctx, "failed to save ownership",
			"ownership_id", rec.ID,
			"error", err,
		)
		return errors.Wrap(err, "failed to save ownership")
	}
	if affected == 0 {
		return store.ErrNoRecord
	}

	return nil
}

// clearFlag 清除该用户除 exceptID 以外记录上的布尔标记，返回被修改的 ID
func (d *PetDAO) clearFlag(ctx context.Context, tx postgres.Tx, column string, userID, exceptID int64) (ids []int64, err error) {
	defer func(start time.Time) { d.record("update", start, err) }(time.Now())

	query, args, err := squirrel.
		Update(petTable).
		Set(column, false).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"user_id": userID, column: true}).
		Where(squirrel.NotEq{"id": exceptID}).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	var rows []*idRow
	if err := tx.QueryAll(ctx, &rows, query, args...); err != nil {
		d.logger.ErrorContext(ctx, "failed to clear flag",
			"column", column,
			"error", err,
		)
		return nil, errors.Wrapf(err, "failed to clear %s", column)
	}

	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	slices.Sort(ids)
	return ids, nil
}

// ClearActive 取消其他宠物的出战状态
func (d *PetDAO) ClearActive(ctx context.Context, tx postgres.Tx, userID, exceptID int64) ([]int64, error) {
	return d.clearFlag(ctx, tx, "is_active", userID, exceptID)
}

// ClearMountEquipped 卸下其他坐骑
func (d *PetDAO) ClearMountEquipped(ctx context.Context, tx postgres.Tx, userID, exceptID int64) ([]int64, error) {
	return d.clearFlag(ctx, tx, "mount_equipped", userID, exceptID)
}
