package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Selection SelectionConfig `mapstructure:"selection"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Admin     AdminConfig     `mapstructure:"admin"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port               string   `mapstructure:"port"`
	ReadTimeout        int      `mapstructure:"read_timeout"`  // секунды
	WriteTimeout       int      `mapstructure:"write_timeout"` // секунды
	ShutdownTimeoutSec int      `mapstructure:"shutdown_timeout_sec"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	MigrationsPath     string   `mapstructure:"migrations_path"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	LogLevel string `mapstructure:"log_level"` // silent, error, warn, info
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Для 'single' используется первый адрес.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Адрес для режима 'single', если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс
}

// LogConfig содержит настройки логирования
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SelectionConfig содержит настройки движка выборки
type SelectionConfig struct {
	HistoryAttempts          int    `mapstructure:"history_attempts"`
	RecorderTimeoutMs        int    `mapstructure:"recorder_timeout_ms"`
	CatalogCacheTTLSec       int    `mapstructure:"catalog_cache_ttl_sec"` // 0 выключает кеш каталога
	HistoryBreakerFailures   int    `mapstructure:"history_breaker_failures"`
	HistoryBreakerTimeoutSec int    `mapstructure:"history_breaker_timeout_sec"`
	DefaultAlgorithm         string `mapstructure:"default_algorithm"`
	DefaultOverlapPercentage int    `mapstructure:"default_overlap_percentage"`
}

// RecorderTimeout возвращает таймаут записи использования
func (s SelectionConfig) RecorderTimeout() time.Duration {
	return time.Duration(s.RecorderTimeoutMs) * time.Millisecond
}

// CatalogCacheTTL возвращает время жизни снимка каталога
func (s SelectionConfig) CatalogCacheTTL() time.Duration {
	return time.Duration(s.CatalogCacheTTLSec) * time.Second
}

// HistoryBreakerTimeout возвращает время, на которое размыкается предохранитель истории
func (s SelectionConfig) HistoryBreakerTimeout() time.Duration {
	return time.Duration(s.HistoryBreakerTimeoutSec) * time.Second
}

// RateLimitConfig содержит настройки ограничения частоты запросов
type RateLimitConfig struct {
	AttemptsPerMinute int `mapstructure:"attempts_per_minute"`
}

// AdminConfig содержит настройки административных маршрутов
type AdminConfig struct {
	// Token: значение заголовка X-Admin-Token. Пустой токен закрывает маршруты.
	Token string `mapstructure:"token"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL формирует URL подключения (lib/pq, golang-migrate)
func (d *DatabaseConfig) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 30)
	vip.SetDefault("server.shutdown_timeout_sec", 15)
	vip.SetDefault("server.allowed_origins", []string{"*"})
	vip.SetDefault("server.migrations_path", "migrations")

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.log_level", "warn")

	vip.SetDefault("redis.mode", "single")

	vip.SetDefault("log.level", "info")
	vip.SetDefault("log.format", "json")

	vip.SetDefault("selection.history_attempts", 10)
	vip.SetDefault("selection.recorder_timeout_ms", 5000)
	vip.SetDefault("selection.catalog_cache_ttl_sec", 30)
	vip.SetDefault("selection.history_breaker_failures", 5)
	vip.SetDefault("selection.history_breaker_timeout_sec", 30)
	vip.SetDefault("selection.default_algorithm", "weighted_random")
	vip.SetDefault("selection.default_overlap_percentage", 10)

	vip.SetDefault("rate_limit.attempts_per_minute", 10)
}

func bindEnv(vip *viper.Viper) {
	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("server.migrations_path", "MIGRATIONS_PATH")

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("log.level", "LOG_LEVEL")
	vip.BindEnv("log.format", "LOG_FORMAT")

	vip.BindEnv("selection.history_attempts", "SELECTION_HISTORY_ATTEMPTS")
	vip.BindEnv("selection.recorder_timeout_ms", "SELECTION_RECORDER_TIMEOUT_MS")
	vip.BindEnv("selection.catalog_cache_ttl_sec", "SELECTION_CATALOG_CACHE_TTL_SEC")
	vip.BindEnv("selection.history_breaker_failures", "SELECTION_HISTORY_BREAKER_FAILURES")
	vip.BindEnv("selection.history_breaker_timeout_sec", "SELECTION_HISTORY_BREAKER_TIMEOUT_SEC")
	vip.BindEnv("selection.default_algorithm", "SELECTION_DEFAULT_ALGORITHM")
	vip.BindEnv("selection.default_overlap_percentage", "SELECTION_DEFAULT_OVERLAP_PERCENTAGE")

	vip.BindEnv("rate_limit.attempts_per_minute", "RATE_LIMIT_ATTEMPTS_PER_MINUTE")
	vip.BindEnv("admin.token", "ADMIN_TOKEN")
}

// Load загружает конфигурацию из файла и переменных окружения.
// Переменные окружения имеют приоритет над файлом.
func Load(configPath string) (*Config, error) {
	cfg, err := read(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase загружает только настройки PostgreSQL (для cmd/migrate)
func LoadDatabase(configPath string) (*DatabaseConfig, error) {
	cfg, err := read(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Database.validate(); err != nil {
		return nil, err
	}
	return &cfg.Database, nil
}

func read(configPath string) (*Config, error) {
	vip := viper.New()

	setDefaults(vip)
	bindEnv(vip)

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				log.Warn().Str("path", configPath).Msg("Config file not found, using env and defaults")
			} else {
				log.Warn().Err(err).Str("path", configPath).Msg("Failed to read config file")
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func (d *DatabaseConfig) validate() error {
	if d.Host == "" || d.DBName == "" || d.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	return nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if err := c.Database.validate(); err != nil {
		return err
	}
	if len(c.Redis.Addrs) == 0 && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required (check REDIS_ADDR or REDIS_ADDRS env vars)")
	}
	s := c.Selection
	if s.HistoryAttempts <= 0 {
		return fmt.Errorf("selection.history_attempts must be positive, got %d", s.HistoryAttempts)
	}
	if s.RecorderTimeoutMs <= 0 {
		return fmt.Errorf("selection.recorder_timeout_ms must be positive, got %d", s.RecorderTimeoutMs)
	}
	if s.CatalogCacheTTLSec < 0 {
		return fmt.Errorf("selection.catalog_cache_ttl_sec must not be negative, got %d", s.CatalogCacheTTLSec)
	}
	if s.DefaultOverlapPercentage < 0 || s.DefaultOverlapPercentage > 100 {
		return fmt.Errorf("selection.default_overlap_percentage must be within 0..100, got %d", s.DefaultOverlapPercentage)
	}
	return nil
}
