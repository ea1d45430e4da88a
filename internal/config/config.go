package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config конфигурация сервиса
type Config struct {
	Server         ServerConfig         `toml:"server"`
	Database       DatabaseConfig       `toml:"database"`
	Logs           LogsConfig           `toml:"logs"`
	Metrics        MetricsConfig        `toml:"metrics"`
	Redis          RedisConfig          `toml:"redis"`
	Auth           AuthConfig           `toml:"auth"`
	RateLimit      RateLimitConfig      `toml:"rate_limit"`
	CatalogService CatalogServiceConfig `toml:"catalog_service"`
	Generation     GenerationConfig     `toml:"generation"`
}

// ServerConfig HTTP сервер (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig подключение к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
	TxMaxRetries    int    `toml:"tx_max_retries"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig логирование
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// RedisConfig redis для блокировок генерации и кэша каталога
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Address  string `toml:"address"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// AuthConfig проверка JWT
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	Issuer    string `toml:"issuer"`
}

// RateLimitConfig ограничение частоты создания бронирований на клиента
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// CatalogServiceConfig сервис каталога услуг
type CatalogServiceConfig struct {
	URL      string `toml:"url"`
	Timeout  int    `toml:"timeout"`   // секунды
	CacheTTL int    `toml:"cache_ttl"` // секунды, 0 - без кэша
}

// GenerationConfig генерация слотов
type GenerationConfig struct {
	SlotDurationMinutes     int    `toml:"slot_duration_minutes"` // 0 - слот на весь рабочий интервал
	HorizonDays             int    `toml:"horizon_days"`
	MinBookingNoticeMinutes int    `toml:"min_booking_notice_minutes"`
	JobEnabled              bool   `toml:"job_enabled"`
	Cron                    string `toml:"cron"`
	CronTimeZone            string `toml:"cron_timezone"`
	LockTTL                 int    `toml:"lock_ttl"`             // секунды
	RegenerateOnEdit        bool   `toml:"regenerate_on_edit"`
}

// LockTTLDuration время жизни блокировки генерации
func (g GenerationConfig) LockTTLDuration() time.Duration {
	return time.Duration(g.LockTTL) * time.Second
}

// Load читает .env (если есть), TOML файл и переопределения из окружения
func Load(path string) (*Config, error) {
	// .env не обязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := defaults()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет обязательные значения
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 {
		errs = append(errs, "server.http_port must be positive")
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		errs = append(errs, "database.host and database.dbname are required")
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, "auth.jwt_secret is required")
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		errs = append(errs, "redis.address is required when redis is enabled")
	}
	if c.Generation.HorizonDays <= 0 {
		errs = append(errs, "generation.horizon_days must be positive")
	}
	if c.Generation.SlotDurationMinutes < 0 {
		errs = append(errs, "generation.slot_duration_minutes must not be negative")
	}
	if c.Generation.JobEnabled && strings.TrimSpace(c.Generation.Cron) == "" {
		errs = append(errs, "generation.cron is required when the job is enabled")
	}
	if c.Generation.CronTimeZone != "" {
		if _, err := time.LoadLocation(c.Generation.CronTimeZone); err != nil {
			errs = append(errs, fmt.Sprintf("generation.cron_timezone: %v", err))
		}
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, "rate_limit.requests_per_second must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
		},
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			TxMaxRetries:    3,
		},
		Logs: LogsConfig{Level: "info"},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "scheduling_service",
		},
		Auth: AuthConfig{Issuer: "smc-auth"},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             5,
		},
		CatalogService: CatalogServiceConfig{Timeout: 5, CacheTTL: 60},
		Generation: GenerationConfig{
			HorizonDays:      28,
			Cron:             "0 3 * * *",
			LockTTL:          30,
			RegenerateOnEdit: true,
		},
	}
}

// applyEnv секреты и адреса можно передать через окружение
func applyEnv(cfg *Config) {
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Redis.Address = getEnv("REDIS_ADDRESS", cfg.Redis.Address)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.CatalogService.URL = getEnv("CATALOG_SERVICE_URL", cfg.CatalogService.URL)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
