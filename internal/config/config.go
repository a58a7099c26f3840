package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// APIConfig points at the SchoolOS REST API. A zero Timeout leaves calls
// unbounded.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type StorageConfig struct {
	Driver   string
	FilePath string
	Prefix   string
}

type SessionConfig struct {
	CookieName    string
	CookieSecure  bool
	Lifetime      time.Duration
	SweepSchedule string
}

// MockAPIConfig configures the development stand-in for the REST API.
type MockAPIConfig struct {
	Host          string
	Port          int
	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	API              APIConfig
	Storage          StorageConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Session          SessionConfig
	MockAPI          MockAPIConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	return load(v)
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*AppConfig, error) {
	v.SetEnvPrefix("SCHOOLOS")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageFile, StorageRedis, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == StoragePostgres && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required for the postgres storage driver")
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.baseurl is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("api.baseurl", "http://localhost:5000/api")
	v.SetDefault("api.timeout", "0s")

	v.SetDefault("storage.driver", StorageMemory)
	v.SetDefault("storage.filepath", "./data/sessions.json")
	v.SetDefault("storage.prefix", "portal:")

	v.SetDefault("postgres.maxopen", 10)
	v.SetDefault("postgres.maxidle", 2)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.cookiename", "schoolos_sid")
	v.SetDefault("session.cookiesecure", false)
	v.SetDefault("session.lifetime", "12h")
	v.SetDefault("session.sweepschedule", "0 */15 * * * *") // every 15 minutes

	v.SetDefault("mockapi.host", "127.0.0.1")
	v.SetDefault("mockapi.port", 5000)
	v.SetDefault("mockapi.jwtsecret", "dev-secret-change-me")
	v.SetDefault("mockapi.tokenttl", "1h")
	v.SetDefault("mockapi.adminemail", "root@schoolos.io")
	v.SetDefault("mockapi.adminpassword", "changeme")
}
