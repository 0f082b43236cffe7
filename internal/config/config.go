// Package config loads brewmap settings from defaults, an optional YAML file and
// DOMINANCE_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kass/go-geo-dominance/internal/logger"
	"github.com/kass/go-geo-dominance/pkg/catalog"
	"github.com/kass/go-geo-dominance/pkg/geo"
	"github.com/kass/go-geo-dominance/pkg/models"
	"github.com/kass/go-geo-dominance/pkg/votestore"
	"gopkg.in/yaml.v3"
)

const envPrefix = "DOMINANCE_"

type GridConfig struct {
	CenterLat      float64 `yaml:"center_lat"`
	CenterLon      float64 `yaml:"center_lon"`
	SizeKm         float64 `yaml:"size_km"`
	CellSizeMeters float64 `yaml:"cell_size_meters"`
}

type StoreConfig struct {
	Driver   string                   `yaml:"driver"`
	Path     string                   `yaml:"path"`
	Postgres votestore.PostgresConfig `yaml:"postgres"`
}

type CacheConfig struct {
	Driver    string        `yaml:"driver"`
	Size      int           `yaml:"size"`
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type Config struct {
	Grid       GridConfig         `yaml:"grid"`
	RadiusKm   float64            `yaml:"radius_km"`
	Store      StoreConfig        `yaml:"store"`
	Cache      CacheConfig        `yaml:"cache"`
	Log        logger.Config      `yaml:"log"`
	Metrics    MetricsConfig      `yaml:"metrics"`
	Categories []catalog.Category `yaml:"categories"`
}

// Default returns the Munich setup: a 100 km grid of 500 m cells and a 20 km vote radius
func Default() Config {
	return Config{
		Grid: GridConfig{
			CenterLat:      48.1351,
			CenterLon:      11.582,
			SizeKm:         100,
			CellSizeMeters: 500,
		},
		RadiusKm: 20,
		Store: StoreConfig{
			Driver: "file",
			Path:   "votes.gob",
			Postgres: votestore.PostgresConfig{
				Host:   "localhost",
				Port:   5432,
				User:   "postgres",
				DBName: "geodb",
			},
		},
		Cache: CacheConfig{
			Driver:    "lru",
			Size:      16,
			RedisAddr: "localhost:6379",
			TTL:       10 * time.Minute,
		},
		Log:        logger.Config{Level: "info"},
		Metrics:    MetricsConfig{Addr: ":9090"},
		Categories: catalog.DefaultCategories(),
	}
}

// Load reads envFiles into the process environment (missing files are skipped),
// then applies path over the defaults and finally the environment overrides.
// An empty path skips the YAML step.
func Load(path string, envFiles ...string) (Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Grid.CenterLat = getfloat("CENTER_LAT", c.Grid.CenterLat)
	c.Grid.CenterLon = getfloat("CENTER_LON", c.Grid.CenterLon)
	c.Grid.SizeKm = getfloat("GRID_SIZE_KM", c.Grid.SizeKm)
	c.Grid.CellSizeMeters = getfloat("CELL_SIZE_M", c.Grid.CellSizeMeters)
	c.RadiusKm = getfloat("RADIUS_KM", c.RadiusKm)

	c.Store.Driver = getenv("STORE_DRIVER", c.Store.Driver)
	c.Store.Path = getenv("STORE_PATH", c.Store.Path)
	c.Store.Postgres.Host = getenv("PG_HOST", c.Store.Postgres.Host)
	c.Store.Postgres.Port = getint("PG_PORT", c.Store.Postgres.Port)
	c.Store.Postgres.User = getenv("PG_USER", c.Store.Postgres.User)
	c.Store.Postgres.Password = getenv("PG_PASSWORD", c.Store.Postgres.Password)
	c.Store.Postgres.DBName = getenv("PG_DBNAME", c.Store.Postgres.DBName)
	c.Store.Postgres.SSLMode = getenv("PG_SSLMODE", c.Store.Postgres.SSLMode)

	c.Cache.Driver = getenv("CACHE_DRIVER", c.Cache.Driver)
	c.Cache.Size = getint("CACHE_SIZE", c.Cache.Size)
	c.Cache.RedisAddr = getenv("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.TTL = getduration("CACHE_TTL", c.Cache.TTL)

	c.Log.Level = getenv("LOG_LEVEL", c.Log.Level)
	c.Log.Console = getbool("LOG_CONSOLE", c.Log.Console)
	c.Metrics.Addr = getenv("METRICS_ADDR", c.Metrics.Addr)
}

func (c Config) Validate() error {
	switch {
	case !(c.Grid.SizeKm > 0):
		return &models.ConfigError{Field: "grid.size_km", Reason: "must be positive"}
	case !(c.Grid.CellSizeMeters > 0):
		return &models.ConfigError{Field: "grid.cell_size_meters", Reason: "must be positive"}
	case c.Grid.CenterLat < -90 || c.Grid.CenterLat > 90:
		return &models.ConfigError{Field: "grid.center_lat", Reason: "must be within [-90, 90]"}
	case c.Grid.CenterLon < -180 || c.Grid.CenterLon > 180:
		return &models.ConfigError{Field: "grid.center_lon", Reason: "must be within [-180, 180]"}
	case !(c.RadiusKm > 0):
		return &models.ConfigError{Field: "radius_km", Reason: "must be positive"}
	}

	switch c.Store.Driver {
	case "file":
		if c.Store.Path == "" {
			return &models.ConfigError{Field: "store.path", Reason: "is required for the file store"}
		}
	case "postgres":
	default:
		return &models.ConfigError{Field: "store.driver", Reason: fmt.Sprintf("unknown driver %q", c.Store.Driver)}
	}

	switch c.Cache.Driver {
	case "none":
	case "lru":
		if c.Cache.Size <= 0 {
			return &models.ConfigError{Field: "cache.size", Reason: "must be positive"}
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			return &models.ConfigError{Field: "cache.redis_addr", Reason: "is required for the redis cache"}
		}
	default:
		return &models.ConfigError{Field: "cache.driver", Reason: fmt.Sprintf("unknown driver %q", c.Cache.Driver)}
	}

	_, err := catalog.New(c.Categories)
	return err
}

// GridSpec derives the lattice from the grid section
func (c Config) GridSpec() (models.GridSpec, error) {
	return geo.NewGridSpec(c.Grid.CenterLat, c.Grid.CenterLon, c.Grid.SizeKm, c.Grid.CellSizeMeters)
}

func (c Config) Catalog() (*catalog.Catalog, error) {
	return catalog.New(c.Categories)
}

func getenv(k, def string) string {
	if v := os.Getenv(envPrefix + k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(envPrefix + k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(envPrefix + k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(envPrefix + k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(envPrefix + k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
