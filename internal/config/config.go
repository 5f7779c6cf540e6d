package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

type Config struct {
	App struct {
		Env      string
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"app"`

	HTTP struct {
		Addr           string
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"http"`

	GRPC struct {
		Addr string
	} `mapstructure:"grpc"`

	Storage struct {
		Driver string
	} `mapstructure:"storage"`

	MySQL struct {
		DSN             string
		MaxOpenConns    int           `mapstructure:"max_open_conns"`
		MaxIdleConns    int           `mapstructure:"max_idle_conns"`
		ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
		Migrate         bool
	} `mapstructure:"mysql"`

	Redis struct {
		Addr     string
		Password string
		DB       int
		PoolSize int `mapstructure:"pool_size"`
	} `mapstructure:"redis"`

	Cache struct {
		TTL time.Duration
	} `mapstructure:"cache"`

	Lock struct {
		TTL     time.Duration
		Backoff time.Duration
		Retries int
	} `mapstructure:"lock"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("grpc.addr", ":50051")
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("mysql.dsn", "root:root@tcp(localhost:3306)/inventory?parseTime=true")
	v.SetDefault("mysql.max_open_conns", 50)
	v.SetDefault("mysql.max_idle_conns", 25)
	v.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("mysql.migrate", true)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 100)
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("lock.ttl", 10*time.Second)
	v.SetDefault("lock.backoff", 50*time.Millisecond)
	v.SetDefault("lock.retries", 100)
	v.SetDefault("metrics.enabled", true)
}

// Load reads path (optional) and LEDGER_* environment overrides, e.g.
// LEDGER_MYSQL_DSN or LEDGER_STORAGE_DRIVER. A .env file is loaded first.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, c.validate()
}

func (c Config) validate() error {
	switch c.Storage.Driver {
	case DriverMySQL:
		if c.MySQL.DSN == "" {
			return errors.New("mysql.dsn is required for the mysql driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}
	return nil
}
