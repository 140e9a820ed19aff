package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Search   SearchConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"SERVER_HOST"`
	Port         int           `mapstructure:"SERVER_PORT"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `mapstructure:"SERVER_IDLE_TIMEOUT"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"POSTGRES_HOST"`
	Port     int    `mapstructure:"POSTGRES_PORT"`
	User     string `mapstructure:"POSTGRES_USER"`
	Password string `mapstructure:"POSTGRES_PASSWORD"`
	DBName   string `mapstructure:"POSTGRES_DB"`
	SSLMode  string `mapstructure:"POSTGRES_SSLMODE"`
	MaxConns int32  `mapstructure:"POSTGRES_MAX_CONNS"`
	MinConns int32  `mapstructure:"POSTGRES_MIN_CONNS"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     int    `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	PoolSize int    `mapstructure:"REDIS_POOL_SIZE"`
}

// SearchConfig holds the branch-and-bound search engine's tunables and the
// transfer synthesizer's pricing model overrides.
type SearchConfig struct {
	MaxExpansions    int     `mapstructure:"SEARCH_MAX_EXPANSIONS"`
	TimeoutMs        int     `mapstructure:"SEARCH_TIMEOUT_MS"`
	TimeValuePerHour float64 `mapstructure:"SEARCH_TIME_VALUE_PER_HOUR"`
	TransferPenalty  float64 `mapstructure:"SEARCH_TRANSFER_PENALTY"`
	MaxDetourFactor  float64 `mapstructure:"SEARCH_MAX_DETOUR_FACTOR"`
	RiskPenalty      float64 `mapstructure:"SEARCH_RISK_PENALTY"`
	TransferRadiusKm float64 `mapstructure:"SEARCH_TRANSFER_RADIUS_KM"`

	RideshareBaseFare    float64 `mapstructure:"RIDESHARE_BASE_FARE"`
	RidesharePerKm       float64 `mapstructure:"RIDESHARE_PER_KM"`
	RidesharePerMin      float64 `mapstructure:"RIDESHARE_PER_MIN"`
	RideshareAvgSpeedKmh float64 `mapstructure:"RIDESHARE_AVG_SPEED_KMH"`
	RideshareSurgeCoeff  float64 `mapstructure:"RIDESHARE_SURGE_COEFF"`
}

// DSN returns the PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// Addr returns the Redis address in host:port format.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerAddr returns the HTTP listen address in host:port format.
func (s *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// ── Defaults ────────────────────────────────────────
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("SERVER_READ_TIMEOUT", "5s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "interline")
	viper.SetDefault("POSTGRES_PASSWORD", "interline_secret")
	viper.SetDefault("POSTGRES_DB", "interline_db")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("POSTGRES_MAX_CONNS", 50)
	viper.SetDefault("POSTGRES_MIN_CONNS", 10)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_POOL_SIZE", 100)

	viper.SetDefault("SEARCH_MAX_EXPANSIONS", 100_000)
	viper.SetDefault("SEARCH_TIMEOUT_MS", 5_000)
	viper.SetDefault("SEARCH_TIME_VALUE_PER_HOUR", 20.0)
	viper.SetDefault("SEARCH_TRANSFER_PENALTY", 6.0)
	viper.SetDefault("SEARCH_MAX_DETOUR_FACTOR", 2.2)
	viper.SetDefault("SEARCH_RISK_PENALTY", 0.0)
	viper.SetDefault("SEARCH_TRANSFER_RADIUS_KM", 3.0)

	viper.SetDefault("RIDESHARE_BASE_FARE", 3.00)
	viper.SetDefault("RIDESHARE_PER_KM", 1.25)
	viper.SetDefault("RIDESHARE_PER_MIN", 0.25)
	viper.SetDefault("RIDESHARE_AVG_SPEED_KMH", 35.0)
	viper.SetDefault("RIDESHARE_SURGE_COEFF", 1.0)

	// Try to read .env file. If it doesn't exist (e.g., inside Docker),
	// env vars injected by docker-compose env_file are used instead.
	_ = viper.ReadInConfig()

	cfg := &Config{}

	// ── Server ──────────────────────────────────────────
	cfg.Server = ServerConfig{
		Host:         viper.GetString("SERVER_HOST"),
		Port:         viper.GetInt("SERVER_PORT"),
		ReadTimeout:  viper.GetDuration("SERVER_READ_TIMEOUT"),
		WriteTimeout: viper.GetDuration("SERVER_WRITE_TIMEOUT"),
		IdleTimeout:  viper.GetDuration("SERVER_IDLE_TIMEOUT"),
	}

	// ── Postgres ────────────────────────────────────────
	cfg.Postgres = PostgresConfig{
		Host:     viper.GetString("POSTGRES_HOST"),
		Port:     viper.GetInt("POSTGRES_PORT"),
		User:     viper.GetString("POSTGRES_USER"),
		Password: viper.GetString("POSTGRES_PASSWORD"),
		DBName:   viper.GetString("POSTGRES_DB"),
		SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		MaxConns: viper.GetInt32("POSTGRES_MAX_CONNS"),
		MinConns: viper.GetInt32("POSTGRES_MIN_CONNS"),
	}

	// ── Redis ───────────────────────────────────────────
	cfg.Redis = RedisConfig{
		Host:     viper.GetString("REDIS_HOST"),
		Port:     viper.GetInt("REDIS_PORT"),
		Password: viper.GetString("REDIS_PASSWORD"),
		DB:       viper.GetInt("REDIS_DB"),
		PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
	}

	// ── Search ──────────────────────────────────────────
	cfg.Search = SearchConfig{
		MaxExpansions:        viper.GetInt("SEARCH_MAX_EXPANSIONS"),
		TimeoutMs:            viper.GetInt("SEARCH_TIMEOUT_MS"),
		TimeValuePerHour:     viper.GetFloat64("SEARCH_TIME_VALUE_PER_HOUR"),
		TransferPenalty:      viper.GetFloat64("SEARCH_TRANSFER_PENALTY"),
		MaxDetourFactor:      viper.GetFloat64("SEARCH_MAX_DETOUR_FACTOR"),
		RiskPenalty:          viper.GetFloat64("SEARCH_RISK_PENALTY"),
		TransferRadiusKm:     viper.GetFloat64("SEARCH_TRANSFER_RADIUS_KM"),
		RideshareBaseFare:    viper.GetFloat64("RIDESHARE_BASE_FARE"),
		RidesharePerKm:       viper.GetFloat64("RIDESHARE_PER_KM"),
		RidesharePerMin:      viper.GetFloat64("RIDESHARE_PER_MIN"),
		RideshareAvgSpeedKmh: viper.GetFloat64("RIDESHARE_AVG_SPEED_KMH"),
		RideshareSurgeCoeff:  viper.GetFloat64("RIDESHARE_SURGE_COEFF"),
	}

	return cfg, nil
}
