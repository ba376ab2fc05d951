package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Env     string  `mapstructure:"env"`
	Server  Server  `mapstructure:"server"`
	Storage Storage `mapstructure:"storage"`
	Catalog Catalog `mapstructure:"catalog"`
	Log     Log     `mapstructure:"log"`
}

type Server struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type Storage struct {
	Driver string `mapstructure:"driver"` // sqlite, redis, postgres or memory

	SQLitePath string `mapstructure:"sqlite_path"`

	RedisAddr      string `mapstructure:"redis_addr"`
	RedisPassword  string `mapstructure:"redis_password"`
	RedisDB        int    `mapstructure:"redis_db"`
	RedisNamespace string `mapstructure:"redis_namespace"`

	PostgresURL             string        `mapstructure:"postgres_url"`
	PostgresMaxConns        int32         `mapstructure:"postgres_max_conns"`
	PostgresMaxConnLifetime time.Duration `mapstructure:"postgres_max_conn_lifetime"`
}

type Catalog struct {
	Path string `mapstructure:"path"` // empty means the bundled courses
}

type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // optional rotating log file
}

// Load reads configuration from defaults, an optional config/config.yaml and
// the environment. A .env file in the working directory is loaded first.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("env", "local")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "quizrunner.db")
	v.SetDefault("storage.redis_addr", "")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.redis_namespace", "quizrunner:")
	v.SetDefault("storage.postgres_url", "")
	v.SetDefault("storage.postgres_max_conns", 4)
	v.SetDefault("storage.postgres_max_conn_lifetime", "30m")
	v.SetDefault("catalog.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("server.address", "SERVER_ADDRESS")
	_ = v.BindEnv("server.shutdown_timeout", "SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("storage.postgres_url", "DATABASE_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.Wrap(ErrInvalidConfig, "STORAGE_SQLITE_PATH is empty")
		}
	case DriverRedis:
		if c.Storage.RedisAddr == "" {
			return errors.Wrap(ErrInvalidConfig, "STORAGE_REDIS_ADDR is required for the redis driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresURL == "" {
			return errors.Wrap(ErrInvalidConfig, "DATABASE_URL is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return errors.Wrap(ErrInvalidConfig, fmt.Sprintf("unknown storage driver %q", c.Storage.Driver))
	}

	if c.Server.ShutdownTimeout <= 0 {
		return errors.Wrap(ErrInvalidConfig, "SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}
