package config

import (
	"errors"
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

	Database       DatabaseConfig
	LegacyDatabase DatabaseConfig
	Redis          RedisConfig
	JWT            JWTConfig
	CORS           CORSConfig
	Log            LogConfig
	Transcripts    TranscriptConfig
	Progression    ProgressionConfig
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
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the shared secret used to validate externally issued tokens.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TranscriptConfig tunes grade aggregation and transcript caching.
type TranscriptConfig struct {
	SourceTimeout time.Duration
	CacheTTL      time.Duration
}

// ProgressionConfig governs the level progression scheduler.
type ProgressionConfig struct {
	Enabled          bool
	TriggerInterval  time.Duration
	AuditHistorySize int
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

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
	}

	cfg.LegacyDatabase = DatabaseConfig{
		Host:         v.GetString("LEGACY_DB_HOST"),
		Port:         v.GetInt("LEGACY_DB_PORT"),
		User:         v.GetString("LEGACY_DB_USER"),
		Password:     v.GetString("LEGACY_DB_PASSWORD"),
		Name:         v.GetString("LEGACY_DB_NAME"),
		SSLMode:      v.GetString("LEGACY_DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("LEGACY_DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("LEGACY_DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Transcripts = TranscriptConfig{
		SourceTimeout: parseDuration(v.GetString("GRADE_SOURCE_TIMEOUT"), 5*time.Second),
		CacheTTL:      parseDuration(v.GetString("TRANSCRIPT_CACHE_TTL"), 10*time.Minute),
	}

	auditSize := v.GetInt("PROGRESSION_AUDIT_HISTORY")
	if auditSize <= 0 {
		auditSize = 50
	}
	cfg.Progression = ProgressionConfig{
		Enabled:          v.GetBool("ENABLE_PROGRESSION_SCHEDULER"),
		TriggerInterval:  parseDuration(v.GetString("PROGRESSION_TRIGGER_INTERVAL"), 6*time.Hour),
		AuditHistorySize: auditSize,
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "ucaes_academic")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("LEGACY_DB_HOST", "localhost")
	v.SetDefault("LEGACY_DB_PORT", 5432)
	v.SetDefault("LEGACY_DB_USER", "postgres")
	v.SetDefault("LEGACY_DB_PASSWORD", "postgres")
	v.SetDefault("LEGACY_DB_NAME", "ucaes_legacy")
	v.SetDefault("LEGACY_DB_SSL_MODE", "disable")
	v.SetDefault("LEGACY_DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("LEGACY_DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GRADE_SOURCE_TIMEOUT", "5s")
	v.SetDefault("TRANSCRIPT_CACHE_TTL", "10m")

	v.SetDefault("ENABLE_PROGRESSION_SCHEDULER", false)
	v.SetDefault("PROGRESSION_TRIGGER_INTERVAL", "6h")
	v.SetDefault("PROGRESSION_AUDIT_HISTORY", 50)
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
