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

// Notifier drivers.
const (
	NotifierLog  = "log"
	NotifierSMTP = "smtp"
	NotifierSES  = "ses"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Uploads       UploadsConfig
	Recruitment   RecruitmentConfig
	Notifier      NotifierConfig
	Notifications NotificationQueueConfig
	Analytics     AnalyticsConfig
	RateLimit     RateLimitConfig
	Admin         AdminSeedConfig
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

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UploadsConfig sets where applicant files live and the per-field byte limits.
type UploadsConfig struct {
	Dir             string
	MaxPhotoBytes   int64
	MaxSignBytes    int64
	MaxPDFBytes     int64
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// RecruitmentConfig holds the recruitment-cycle parameters.
type RecruitmentConfig struct {
	ClosingDate           string
	FeeAmount             int
	AdminEmail            string
	RulesFile             string
	OneActivePerPost      bool
	DashboardListLimit    int
	BulkBodyPreviewLength int
}

// NotifierConfig selects and configures the outbound notification channel.
type NotifierConfig struct {
	Driver        string
	FromEmail     string
	FromName      string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPUseTLS    bool
	AWSRegion     string
	AdminTopicARN string
	Timeout       time.Duration
}

// NotificationQueueConfig sizes the asynchronous notification worker pool.
type NotificationQueueConfig struct {
	Workers    int
	BufferSize int
}

// AnalyticsConfig governs cache behaviour for analytics endpoints.
type AnalyticsConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// RateLimitConfig throttles submissions per principal.
type RateLimitConfig struct {
	SubmitPerSecond float64
	SubmitBurst     int
}

// AdminSeedConfig provisions the first staff account.
type AdminSeedConfig struct {
	Email    string
	Password string
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
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Uploads = UploadsConfig{
		Dir:             v.GetString("UPLOAD_FOLDER"),
		MaxPhotoBytes:   v.GetInt64("MAX_PHOTO_SIZE"),
		MaxSignBytes:    v.GetInt64("MAX_SIGN_SIZE"),
		MaxPDFBytes:     v.GetInt64("MAX_PDF_SIZE"),
		SignedURLSecret: v.GetString("UPLOAD_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("UPLOAD_SIGNED_URL_TTL"), 15*time.Minute),
	}

	cfg.Recruitment = RecruitmentConfig{
		ClosingDate:           v.GetString("CLOSING_DATE"),
		FeeAmount:             v.GetInt("APPLICATION_FEE"),
		AdminEmail:            v.GetString("ADMIN_NOTIFY_EMAIL"),
		RulesFile:             v.GetString("ELIGIBILITY_RULES_FILE"),
		OneActivePerPost:      v.GetBool("ONE_ACTIVE_APPLICATION_PER_POST"),
		DashboardListLimit:    v.GetInt("DASHBOARD_LIST_LIMIT"),
		BulkBodyPreviewLength: v.GetInt("BULK_BODY_PREVIEW_LENGTH"),
	}

	cfg.Notifier = NotifierConfig{
		Driver:        strings.ToLower(v.GetString("NOTIFIER_DRIVER")),
		FromEmail:     v.GetString("FROM_EMAIL"),
		FromName:      v.GetString("FROM_NAME"),
		SMTPHost:      v.GetString("SMTP_HOST"),
		SMTPPort:      v.GetInt("SMTP_PORT"),
		SMTPUsername:  v.GetString("SMTP_USER"),
		SMTPPassword:  v.GetString("SMTP_PASS"),
		SMTPUseTLS:    v.GetBool("SMTP_USE_TLS"),
		AWSRegion:     v.GetString("AWS_REGION"),
		AdminTopicARN: v.GetString("ADMIN_SNS_TOPIC_ARN"),
		Timeout:       parseDuration(v.GetString("NOTIFIER_TIMEOUT"), 10*time.Second),
	}

	cfg.Notifications = NotificationQueueConfig{
		Workers:    v.GetInt("NOTIFICATION_WORKERS"),
		BufferSize: v.GetInt("NOTIFICATION_BUFFER"),
	}

	cfg.Analytics = AnalyticsConfig{
		Enabled:  v.GetBool("ENABLE_ANALYTICS_CACHE"),
		CacheTTL: parseDuration(v.GetString("ANALYTICS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.RateLimit = RateLimitConfig{
		SubmitPerSecond: v.GetFloat64("SUBMIT_RATE_PER_SECOND"),
		SubmitBurst:     v.GetInt("SUBMIT_RATE_BURST"),
	}

	cfg.Admin = AdminSeedConfig{
		Email:    v.GetString("ADMIN_EMAIL"),
		Password: v.GetString("ADMIN_PASSWORD"),
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
	v.SetDefault("DB_NAME", "serc_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "serc-portal")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPLOAD_FOLDER", "./uploads")
	v.SetDefault("MAX_PHOTO_SIZE", 102400)
	v.SetDefault("MAX_SIGN_SIZE", 51200)
	v.SetDefault("MAX_PDF_SIZE", 5242880)
	v.SetDefault("UPLOAD_SIGNED_URL_SECRET", "dev_uploads_secret")
	v.SetDefault("UPLOAD_SIGNED_URL_TTL", "15m")

	v.SetDefault("CLOSING_DATE", "2025-12-22")
	v.SetDefault("APPLICATION_FEE", 500)
	v.SetDefault("ADMIN_NOTIFY_EMAIL", "admin@serc.res.in")
	v.SetDefault("ELIGIBILITY_RULES_FILE", "")
	v.SetDefault("ONE_ACTIVE_APPLICATION_PER_POST", true)
	v.SetDefault("DASHBOARD_LIST_LIMIT", 500)
	v.SetDefault("BULK_BODY_PREVIEW_LENGTH", 500)

	v.SetDefault("NOTIFIER_DRIVER", NotifierLog)
	v.SetDefault("FROM_EMAIL", "no-reply@serc.res.in")
	v.SetDefault("FROM_NAME", "CSIR-SERC")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USE_TLS", true)
	v.SetDefault("AWS_REGION", "ap-south-1")
	v.SetDefault("ADMIN_SNS_TOPIC_ARN", "")
	v.SetDefault("NOTIFIER_TIMEOUT", "10s")

	v.SetDefault("NOTIFICATION_WORKERS", 2)
	v.SetDefault("NOTIFICATION_BUFFER", 64)

	v.SetDefault("ENABLE_ANALYTICS_CACHE", true)
	v.SetDefault("ANALYTICS_CACHE_TTL", "5m")

	v.SetDefault("SUBMIT_RATE_PER_SECOND", 0.2)
	v.SetDefault("SUBMIT_RATE_BURST", 3)

	v.SetDefault("ADMIN_EMAIL", "admin@serc.res.in")
	v.SetDefault("ADMIN_PASSWORD", "Admin@123")
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
