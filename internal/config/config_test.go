package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kass/go-geo-dominance/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	grid, err := cfg.GridSpec()
	require.NoError(t, err)
	assert.Equal(t, 200, grid.Rows)
	assert.Equal(t, 200, grid.Cols)

	cat, err := cfg.Catalog()
	require.NoError(t, err)
	assert.Equal(t, 10, cat.Len())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
grid:
  center_lat: 52.52
  center_lon: 13.405
  size_km: 10
  cell_size_meters: 250
radius_km: 2.5
store:
  driver: postgres
  postgres:
    host: db
    port: 5433
cache:
  driver: redis
  redis_addr: cache:6379
  ttl: 90s
log:
  level: debug
  console: true
categories:
  - id: berliner
    name: Berliner Kindl
    color: "#FF0000"
  - id: schultheiss
    name: Schultheiss
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 52.52, cfg.Grid.CenterLat)
	assert.Equal(t, 250.0, cfg.Grid.CellSizeMeters)
	assert.Equal(t, 2.5, cfg.RadiusKm)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "db", cfg.Store.Postgres.Host)
	assert.Equal(t, 5433, cfg.Store.Postgres.Port)
	assert.Equal(t, "postgres", cfg.Store.Postgres.User, "unset keys keep defaults")
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Console)

	cat, err := cfg.Catalog()
	require.NoError(t, err)
	assert.Equal(t, []string{"berliner", "schultheiss"}, cat.IDs())

	grid, err := cfg.GridSpec()
	require.NoError(t, err)
	assert.Equal(t, 40, grid.Rows)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", "radius_km: 3\n")
	t.Setenv("DOMINANCE_RADIUS_KM", "7.5")
	t.Setenv("DOMINANCE_CACHE_DRIVER", "none")
	t.Setenv("DOMINANCE_CACHE_TTL", "1m")
	t.Setenv("DOMINANCE_PG_PORT", "not-a-number")
	t.Setenv("DOMINANCE_LOG_CONSOLE", "yes")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7.5, cfg.RadiusKm)
	assert.Equal(t, "none", cfg.Cache.Driver)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 5432, cfg.Store.Postgres.Port, "unparsable values are ignored")
	assert.True(t, cfg.Log.Console)
}

func TestLoadDotEnv(t *testing.T) {
	envFile := writeFile(t, ".env", "DOMINANCE_STORE_PATH=/tmp/brewmap-votes.gob\n")
	t.Setenv("DOMINANCE_STORE_PATH", "")
	t.Cleanup(func() { os.Unsetenv("DOMINANCE_STORE_PATH") })
	os.Unsetenv("DOMINANCE_STORE_PATH")

	cfg, err := Load("", envFile, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/brewmap-votes.gob", cfg.Store.Path)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	bad := writeFile(t, "bad.yaml", "grid: [unclosed\n")
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"grid size", func(c *Config) { c.Grid.SizeKm = 0 }, "grid.size_km"},
		{"cell size", func(c *Config) { c.Grid.CellSizeMeters = -1 }, "grid.cell_size_meters"},
		{"latitude", func(c *Config) { c.Grid.CenterLat = 91 }, "grid.center_lat"},
		{"longitude", func(c *Config) { c.Grid.CenterLon = -181 }, "grid.center_lon"},
		{"radius", func(c *Config) { c.RadiusKm = 0 }, "radius_km"},
		{"store driver", func(c *Config) { c.Store.Driver = "sqlite" }, "store.driver"},
		{"store path", func(c *Config) { c.Store.Path = "" }, "store.path"},
		{"cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, "cache.driver"},
		{"lru size", func(c *Config) { c.Cache.Size = 0 }, "cache.size"},
		{"redis addr", func(c *Config) { c.Cache.Driver = "redis"; c.Cache.RedisAddr = "" }, "cache.redis_addr"},
		{"categories", func(c *Config) { c.Categories = nil }, "categories"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, models.ErrInvalidConfig)
			var cfgErr *models.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}

	assert.NoError(t, Default().Validate())
}
