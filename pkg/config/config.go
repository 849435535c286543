package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	JWT       JWTConfig
	Client    ClientConfig
	API       APIConfig
	Scheduler SchedulerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver is the database/sql driver name: "sqlite" (modernc) or
	// "sqlite3" (ncruces).
	Driver          string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	BusyTimeout     time.Duration
	// MigrationsPath points at a directory of goose SQL files. Empty means
	// the migrations embedded in the binary.
	MigrationsPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string
	Port              int
	CORSAllowOrigins  string
	RateLimitMax      int
	RateLimitDuration time.Duration
}

// JWTConfig holds bearer token settings for the /v1 API.
type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// ClientConfig tunes the data client.
type ClientConfig struct {
	LogQueries         bool
	TransactionTimeout time.Duration
}

// APIConfig toggles optional parts of the HTTP surface.
type APIConfig struct {
	AllowRaw bool
}

// SchedulerConfig drives the background dispatcher that turns due
// schedules into tasks.
type SchedulerConfig struct {
	Enabled bool
	// Interval is a robfig/cron spec such as "@every 1m".
	Interval string
}

// LoadConfig loads configuration from environment variables and defaults.
// A .env file in the working directory is read first when present; real
// environment variables win over it.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	setDefaults(v)
	bindEnv(v)
	v.AutomaticEnv()

	if err := validateRequired(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("db_driver")),
			Path:            v.GetString("db_path"),
			MaxOpenConns:    v.GetInt("db_max_open_conns"),
			MaxIdleConns:    v.GetInt("db_max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("db_conn_max_idle_time"),
			BusyTimeout:     v.GetDuration("db_busy_timeout"),
			MigrationsPath:  v.GetString("db_migrations_path"),
		},
		Server: ServerConfig{
			Host:              v.GetString("server_host"),
			Port:              v.GetInt("server_port"),
			CORSAllowOrigins:  v.GetString("server_cors_allow_origins"),
			RateLimitMax:      v.GetInt("server_rate_limit_max"),
			RateLimitDuration: v.GetDuration("server_rate_limit_duration"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt_secret"),
			Issuer:     v.GetString("jwt_issuer"),
			Expiration: v.GetDuration("jwt_expiration"),
		},
		Client: ClientConfig{
			LogQueries:         v.GetBool("client_log_queries"),
			TransactionTimeout: v.GetDuration("client_tx_timeout"),
		},
		API: APIConfig{
			AllowRaw: v.GetBool("api_allow_raw"),
		},
		Scheduler: SchedulerConfig{
			Enabled:  v.GetBool("scheduler_enabled"),
			Interval: v.GetString("scheduler_interval"),
		},
	}

	if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "sqlite3" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or sqlite3)", cfg.Database.Driver)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_path", "./data.db")
	v.SetDefault("db_max_open_conns", 5)
	v.SetDefault("db_max_idle_conns", 2)
	v.SetDefault("db_conn_max_lifetime", 5*time.Minute)
	v.SetDefault("db_conn_max_idle_time", 2*time.Minute)
	v.SetDefault("db_busy_timeout", 5*time.Second)
	v.SetDefault("db_migrations_path", "")

	// Server defaults
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8080)
	v.SetDefault("server_cors_allow_origins", "*")
	v.SetDefault("server_rate_limit_max", 300)
	v.SetDefault("server_rate_limit_duration", time.Minute)

	// JWT defaults
	v.SetDefault("jwt_issuer", "nxwebui")
	v.SetDefault("jwt_expiration", 24*time.Hour)

	// Client defaults
	v.SetDefault("client_log_queries", false)
	v.SetDefault("client_tx_timeout", 5*time.Second)

	v.SetDefault("api_allow_raw", false)

	v.SetDefault("scheduler_enabled", true)
	v.SetDefault("scheduler_interval", "@every 1m")
}

func bindEnv(v *viper.Viper) {
	// Database
	_ = v.BindEnv("db_driver", "DB_DRIVER")
	_ = v.BindEnv("db_path", "DB_PATH")
	_ = v.BindEnv("db_max_open_conns", "DB_MAX_OPEN_CONNS")
	_ = v.BindEnv("db_max_idle_conns", "DB_MAX_IDLE_CONNS")
	_ = v.BindEnv("db_conn_max_lifetime", "DB_CONN_MAX_LIFETIME")
	_ = v.BindEnv("db_conn_max_idle_time", "DB_CONN_MAX_IDLE_TIME")
	_ = v.BindEnv("db_busy_timeout", "DB_BUSY_TIMEOUT")
	_ = v.BindEnv("db_migrations_path", "DB_MIGRATIONS_PATH")

	// Server
	_ = v.BindEnv("server_host", "SERVER_HOST")
	_ = v.BindEnv("server_port", "SERVER_PORT")
	_ = v.BindEnv("server_cors_allow_origins", "SERVER_CORS_ALLOW_ORIGINS")
	_ = v.BindEnv("server_rate_limit_max", "SERVER_RATE_LIMIT_MAX")
	_ = v.BindEnv("server_rate_limit_duration", "SERVER_RATE_LIMIT_DURATION")

	// JWT
	_ = v.BindEnv("jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("jwt_issuer", "JWT_ISSUER")
	_ = v.BindEnv("jwt_expiration", "JWT_EXPIRATION")

	// Client
	_ = v.BindEnv("client_log_queries", "CLIENT_LOG_QUERIES")
	_ = v.BindEnv("client_tx_timeout", "CLIENT_TX_TIMEOUT")

	_ = v.BindEnv("api_allow_raw", "API_ALLOW_RAW")

	_ = v.BindEnv("scheduler_enabled", "SCHEDULER_ENABLED")
	_ = v.BindEnv("scheduler_interval", "SCHEDULER_INTERVAL")
}

func validateRequired(v *viper.Viper) error {
	if v.GetString("jwt_secret") == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	return nil
}
