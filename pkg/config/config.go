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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Cache    CacheConfig
	Import   ImportConfig
	Template TemplateConfig
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
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig tunes cached student reports.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ImportConfig governs document conversion and the background import queue.
type ImportConfig struct {
	PdftotextPath  string
	ConvertTimeout time.Duration
	Workers        int
	Retries        int
	RetryDelay     time.Duration
	JobTimeout     time.Duration
	InboxDir       string
	ArchiveDir     string
	MaxUploadBytes int64
}

// TemplateConfig carries the fixed line offsets of the scheme and result pages.
type TemplateConfig struct {
	SubjectSemesterLine int
	SubjectStartLine    int
	SubjectStride       int
	ResultHeaderLine    int
	NameOffset          int
	MarksOffset         int
	TotalsOffset        int
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
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 10*time.Minute),
	}

	maxUpload := v.GetInt64("IMPORT_MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = 20 * 1024 * 1024
	}
	cfg.Import = ImportConfig{
		PdftotextPath:  v.GetString("PDFTOTEXT_PATH"),
		ConvertTimeout: parseDuration(v.GetString("PDFTOTEXT_TIMEOUT"), time.Minute),
		Workers:        v.GetInt("IMPORT_WORKERS"),
		Retries:        v.GetInt("IMPORT_RETRIES"),
		RetryDelay:     parseDuration(v.GetString("IMPORT_RETRY_DELAY"), 2*time.Second),
		JobTimeout:     parseDuration(v.GetString("IMPORT_JOB_TIMEOUT"), 5*time.Minute),
		InboxDir:       v.GetString("IMPORT_INBOX_DIR"),
		ArchiveDir:     v.GetString("IMPORT_ARCHIVE_DIR"),
		MaxUploadBytes: maxUpload,
	}

	cfg.Template = TemplateConfig{
		SubjectSemesterLine: v.GetInt("TEMPLATE_SUBJECT_SEMESTER_LINE"),
		SubjectStartLine:    v.GetInt("TEMPLATE_SUBJECT_START_LINE"),
		SubjectStride:       v.GetInt("TEMPLATE_SUBJECT_STRIDE"),
		ResultHeaderLine:    v.GetInt("TEMPLATE_RESULT_HEADER_LINE"),
		NameOffset:          v.GetInt("TEMPLATE_NAME_OFFSET"),
		MarksOffset:         v.GetInt("TEMPLATE_MARKS_OFFSET"),
		TotalsOffset:        v.GetInt("TEMPLATE_TOTALS_OFFSET"),
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
	v.SetDefault("DB_NAME", "ipu_results")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "ipu-result-api")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "10m")

	v.SetDefault("PDFTOTEXT_PATH", "pdftotext")
	v.SetDefault("PDFTOTEXT_TIMEOUT", "1m")
	v.SetDefault("IMPORT_WORKERS", 2)
	v.SetDefault("IMPORT_RETRIES", 2)
	v.SetDefault("IMPORT_RETRY_DELAY", "2s")
	v.SetDefault("IMPORT_JOB_TIMEOUT", "5m")
	v.SetDefault("IMPORT_INBOX_DIR", "")
	v.SetDefault("IMPORT_ARCHIVE_DIR", "./data/uploads")
	v.SetDefault("IMPORT_MAX_UPLOAD_BYTES", 20*1024*1024)

	v.SetDefault("TEMPLATE_SUBJECT_SEMESTER_LINE", 10)
	v.SetDefault("TEMPLATE_SUBJECT_START_LINE", 16)
	v.SetDefault("TEMPLATE_SUBJECT_STRIDE", 2)
	v.SetDefault("TEMPLATE_RESULT_HEADER_LINE", 17)
	v.SetDefault("TEMPLATE_NAME_OFFSET", 1)
	v.SetDefault("TEMPLATE_MARKS_OFFSET", 2)
	v.SetDefault("TEMPLATE_TOTALS_OFFSET", 4)
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
