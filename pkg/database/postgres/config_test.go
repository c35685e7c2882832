package postgres

import (
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	valid := func() *DBConfig {
		return &DBConfig{Host: "localhost", Port: 5432, User: "pet", DBName: "pet"}
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:   "standalone",
			config: &Config{Standalone: valid(), Pool: PoolConfig{MaxConns: 5}},
		},
		{
			name:   "master slave",
			config: &Config{Master: valid(), Slaves: []DBConfig{*valid()}, Pool: PoolConfig{MaxConns: 5}},
		},
		{
			name:    "both modes",
			config:  &Config{Standalone: valid(), Master: valid(), Pool: PoolConfig{MaxConns: 5}},
			wantErr: true,
		},
		{
			name:    "no mode",
			config:  &Config{Pool: PoolConfig{MaxConns: 5}},
			wantErr: true,
		},
		{
			name:    "bad port",
			config:  &Config{Standalone: &DBConfig{Host: "h", Port: 70000, User: "u", DBName: "d"}, Pool: PoolConfig{MaxConns: 5}},
			wantErr: true,
		},
		{
			name:    "empty slave host",
			config:  &Config{Master: valid(), Slaves: []DBConfig{{Port: 5432, User: "u", DBName: "d"}}, Pool: PoolConfig{MaxConns: 5}},
			wantErr: true,
		},
		{
			name:    "min greater than max",
			config:  &Config{Standalone: valid(), Pool: PoolConfig{MaxConns: 2, MinConns: 3}},
			wantErr: true,
		},
		{
			name:    "unknown balance",
			config:  &Config{Standalone: valid(), Pool: PoolConfig{MaxConns: 2}, SlaveLoadBalance: "least_conn"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg, err := mergeWithDefaults(nil)
	require.NoError(t, err)
	assert.True(t, cfg.IsStandaloneMode())
	assert.Equal(t, "xdooria_pet", cfg.Standalone.DBName)
	assert.NoError(t, cfg.Validate())

	cfg, err = mergeWithDefaults(&Config{
		Master: &DBConfig{Host: "pg-master", Port: 5432, User: "pet", DBName: "pet"},
	})
	require.NoError(t, err)
	assert.False(t, cfg.IsStandaloneMode())
	assert.True(t, cfg.IsMasterSlaveMode())
	assert.Equal(t, int32(25), cfg.Pool.MaxConns)
	assert.NoError(t, cfg.Validate())

	cfg, err = mergeWithDefaults(&Config{Standalone: &DBConfig{Host: "pg"}})
	require.NoError(t, err)
	assert.Equal(t, "pg", cfg.Standalone.Host)
	assert.Equal(t, 5432, cfg.Standalone.Port)
}

func TestDBConfig_ConnString(t *testing.T) {
	d := &DBConfig{Host: "pg", Port: 6543, User: "pet", Password: "secret", DBName: "pets"}
	got := d.connString(5 * time.Second)
	assert.Equal(t, "host=pg port=6543 user=pet password=secret dbname=pets sslmode=disable connect_timeout=5", got)
}

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("exec failed: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, IsUniqueViolation(dup))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(ErrNoRows))
}
