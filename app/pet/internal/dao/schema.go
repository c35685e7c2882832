package dao

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-pet/pkg/database/postgres"
)

// schemaStatements 表结构，逐条执行，可重复执行
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS player_pet (
		id                BIGINT PRIMARY KEY,
		user_id           BIGINT NOT NULL,
		creature_id       INTEGER NOT NULL,
		is_owned          BOOLEAN NOT NULL DEFAULT FALSE,
		level             INTEGER NOT NULL DEFAULT 1,
		experience        BIGINT NOT NULL DEFAULT 0,
		is_active         BOOLEAN NOT NULL DEFAULT FALSE,
		stats             JSONB NOT NULL DEFAULT '{}',
		last_fed_at       TIMESTAMPTZ,
		is_tamed          BOOLEAN NOT NULL DEFAULT FALSE,
		mount_level       INTEGER NOT NULL DEFAULT 0,
		mount_experience  BIGINT NOT NULL DEFAULT 0,
		mount_equipped    BOOLEAN NOT NULL DEFAULT FALSE,
		mount_speed_bonus DOUBLE PRECISION NOT NULL DEFAULT 0,
		mount_stamina     INTEGER NOT NULL DEFAULT 0,
		mount_skills      TEXT[] NOT NULL DEFAULT '{}',
		created_at        TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL,
		CONSTRAINT uk_player_pet_creature UNIQUE (user_id, creature_id)
	)`,
	// 每个用户最多一只出战宠物、一只装备中的坐骑
	`CREATE UNIQUE INDEX IF NOT EXISTS uk_player_pet_active ON player_pet (user_id) WHERE is_active`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uk_player_pet_mount_equipped ON player_pet (user_id) WHERE mount_equipped`,
	`CREATE TABLE IF NOT EXISTS player_material (
		user_id    BIGINT NOT NULL,
		material   VARCHAR(64) NOT NULL,
		quantity   BIGINT NOT NULL CHECK (quantity >= 0),
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, material)
	)`,
}

// EnsureSchema 创建宠物系统所需的表
func EnsureSchema(ctx context.Context, db *postgres.Client) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to ensure schema")
		}
	}
	return nil
}
