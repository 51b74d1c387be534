package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Auth      AuthConfig
	History   HistoryConfig
	Cache     CacheConfig
	Scheduler SchedulerConfig
	NATS      NATSConfig
	Export    ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host        string
	Port        int
	Password    string
	DB          int
	DialTimeout time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AuthConfig gates bearer token checks on the timetable API.
type AuthConfig struct {
	Enabled bool
}

// HistoryConfig toggles persistence of scheduling runs in Postgres.
type HistoryConfig struct {
	Enabled bool
}

// CacheConfig governs Redis caching of deterministic scheduling results.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// SchedulerConfig sizes the worker pool that isolates scheduling runs.
type SchedulerConfig struct {
	Workers        int
	QueueSize      int
	RunTimeout     time.Duration
	StrictSubjects bool
	MaxScenarios   int
}

// NATSConfig configures the request/reply transport.
type NATSConfig struct {
	Enabled        bool
	URL            string
	Subject        string
	QueueGroup     string
	RequestTimeout time.Duration
}

// ExportConfig selects the CSV dialect used for timetable downloads.
type ExportConfig struct {
	CSVDelimiter     string
	CSVUseCRLF       bool
	CSVByteOrderMark bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:        v.GetString("REDIS_HOST"),
		Port:        v.GetInt("REDIS_PORT"),
		Password:    v.GetString("REDIS_PASSWORD"),
		DB:          v.GetInt("REDIS_DB"),
		DialTimeout: parseDuration(v.GetString("REDIS_DIAL_TIMEOUT"), 5*time.Second),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Auth = AuthConfig{Enabled: v.GetBool("ENABLE_AUTH")}
	cfg.History = HistoryConfig{Enabled: v.GetBool("ENABLE_RUN_HISTORY")}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("TIMETABLE_CACHE_TTL"), 15*time.Minute),
	}

	workers := v.GetInt("SCHEDULER_WORKERS")
	if workers <= 0 {
		workers = 2
	}
	maxScenarios := v.GetInt("SCHEDULER_MAX_SCENARIOS")
	if maxScenarios <= 0 {
		maxScenarios = 8
	}
	cfg.Scheduler = SchedulerConfig{
		Workers:        workers,
		QueueSize:      v.GetInt("SCHEDULER_QUEUE_SIZE"),
		RunTimeout:     parseDuration(v.GetString("SCHEDULER_RUN_TIMEOUT"), 30*time.Second),
		StrictSubjects: v.GetBool("SCHEDULER_STRICT_SUBJECTS"),
		MaxScenarios:   maxScenarios,
	}

	cfg.NATS = NATSConfig{
		Enabled:        v.GetBool("ENABLE_NATS"),
		URL:            v.GetString("NATS_URL"),
		Subject:        v.GetString("NATS_SUBJECT"),
		QueueGroup:     v.GetString("NATS_QUEUE_GROUP"),
		RequestTimeout: parseDuration(v.GetString("NATS_REQUEST_TIMEOUT"), 30*time.Second),
	}

	cfg.Export = ExportConfig{
		CSVDelimiter:     v.GetString("EXPORT_CSV_DELIMITER"),
		CSVUseCRLF:       v.GetBool("EXPORT_CSV_CRLF"),
		CSVByteOrderMark: v.GetBool("EXPORT_CSV_BOM"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sma_timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_AUTH", false)
	v.SetDefault("ENABLE_RUN_HISTORY", false)
	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("TIMETABLE_CACHE_TTL", "15m")

	v.SetDefault("SCHEDULER_WORKERS", 2)
	v.SetDefault("SCHEDULER_QUEUE_SIZE", 16)
	v.SetDefault("SCHEDULER_RUN_TIMEOUT", "30s")
	v.SetDefault("SCHEDULER_STRICT_SUBJECTS", false)
	v.SetDefault("SCHEDULER_MAX_SCENARIOS", 8)

	v.SetDefault("ENABLE_NATS", false)
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("NATS_SUBJECT", "timetable.generate")
	v.SetDefault("NATS_QUEUE_GROUP", "timetable-workers")
	v.SetDefault("NATS_REQUEST_TIMEOUT", "30s")

	v.SetDefault("EXPORT_CSV_DELIMITER", ",")
	v.SetDefault("EXPORT_CSV_CRLF", false)
	v.SetDefault("EXPORT_CSV_BOM", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
