package db

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campusmesh/internal/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Database.Host = "db.internal"
	cfg.Database.Port = "5433"
	cfg.Database.User = "mesh"
	cfg.Database.Password = "secret"
	cfg.Database.DBName = "campusmesh"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxOpenConns = 12
	cfg.Database.MaxIdleConns = 3
	cfg.Database.ConnMaxLifetime = "30m"
	return cfg
}

func TestPoolConfig(t *testing.T) {
	pc, err := PoolConfig(testConfig(), zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, int32(12), pc.MaxConns)
	assert.Equal(t, int32(3), pc.MinConns)
	assert.Equal(t, 30*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, "db.internal", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, "campusmesh", pc.ConnConfig.Database)
	assert.Equal(t, "campusmesh", pc.ConnConfig.RuntimeParams["application_name"])
	assert.NotNil(t, pc.BeforeAcquire)
}

func TestPoolConfigBadLifetime(t *testing.T) {
	cfg := testConfig()
	cfg.Database.ConnMaxLifetime = "forever"

	_, err := PoolConfig(cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conn_max_lifetime")
}
