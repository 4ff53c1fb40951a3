package config

import (
	"fmt"
	"strings"
	"time"

	"retail-ops/internal/core"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process configuration. Values come from, in increasing priority:
// defaults, an optional YAML file (CONFIG_FILE), .env, and the environment.
type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	Server struct {
		Port           string
		AllowedOrigins string        `mapstructure:"allowed_origins"`
		ReadTimeout    time.Duration `mapstructure:"read_timeout"`
		WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"server"`

	Store struct {
		Driver string // "postgres" or "memory"
	} `mapstructure:"store"`

	Database struct {
		URL string
	} `mapstructure:"database"`

	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
	} `mapstructure:"auth"`

	Stock struct {
		LowStockThreshold int64 `mapstructure:"low_stock_threshold"`
	} `mapstructure:"stock"`

	Orders struct {
		ReserveStock bool `mapstructure:"reserve_stock"`
	} `mapstructure:"orders"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

// envBindings maps config keys to the flat environment variable names used in .env files.
var envBindings = map[string]string{
	"app.env":                   "APP_ENV",
	"server.port":               "SERVER_PORT",
	"server.allowed_origins":    "ALLOWED_ORIGINS",
	"server.read_timeout":       "SERVER_READ_TIMEOUT",
	"server.write_timeout":      "SERVER_WRITE_TIMEOUT",
	"store.driver":              "STORE_DRIVER",
	"database.url":              "DATABASE_URL",
	"auth.jwt_secret":           "JWT_SECRET",
	"stock.low_stock_threshold": "LOW_STOCK_THRESHOLD",
	"orders.reserve_stock":      "RESERVE_STOCK",
	"metrics.enabled":           "METRICS_ENABLED",
}

// Load reads .env (if present), the optional YAML file at CONFIG_FILE and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("config_file", "CONFIG_FILE"); err != nil {
		return Config{}, err
	}
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("failed to decode config: %w", err)
	}
	return c, c.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", "")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("stock.low_stock_threshold", core.DefaultLowStockThreshold)
	v.SetDefault("orders.reserve_stock", true)
	v.SetDefault("metrics.enabled", true)
}

// Validate rejects configurations the services cannot run with.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want postgres or memory)", c.Store.Driver)
	}
	if c.Stock.LowStockThreshold < 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD must not be negative, got %d", c.Stock.LowStockThreshold)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT must not be empty")
	}
	return nil
}
