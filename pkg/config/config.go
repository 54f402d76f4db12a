package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Service names accepted by Load.
const (
	ServiceAuth    = "auth-service"
	ServiceCourse  = "course-service"
	ServicePayment = "payment-service"
)

type Config struct {
	Env         string
	Port        int
	ServiceName string
	APIPrefix   string
	FrontendURL string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Google    GoogleConfig
	Admin     AdminConfig
	AuthAPI   AuthAPIConfig
	Stripe    StripeConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Events    EventsConfig
	CORS      CORSConfig
	Log       LogConfig
}

type DatabaseConfig struct {
	URL          string
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

// DSN returns the connection URL, building one from discrete settings when DATABASE_URL is unset.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// GoogleConfig holds the OAuth client registration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	StateTTL     time.Duration
}

// AdminConfig lists emails that become admins on first login.
type AdminConfig struct {
	SeedEmails []string
}

// AuthAPIConfig points downstream services at the auth service.
type AuthAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// StripeConfig carries payment processor credentials and plan price identifiers.
type StripeConfig struct {
	SecretKey         string
	WebhookSecret     string
	BasicPriceID      string
	PremiumPriceID    string
	EnterprisePriceID string
	TrialDays         int64
}

// StorageConfig configures the S3 compatible object store.
type StorageConfig struct {
	Driver         string
	LocalDir       string
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string
	Bucket         string
	PublicBase     string
	MaxUploadBytes int64
}

type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

// EventsConfig tunes the asynchronous event publisher.
type EventsConfig struct {
	Channel    string
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration for the named service.
func Load(service string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v, service)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.ServiceName = v.GetString("SERVICE_NAME")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.FrontendURL = strings.TrimRight(v.GetString("FRONTEND_URL"), "/")

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
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
		URL:      v.GetString("REDIS_URL"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		CacheTTL: parseDuration(v.GetString("CACHE_TTL"), time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Google = GoogleConfig{
		ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		CallbackURL:  v.GetString("GOOGLE_CALLBACK_URL"),
		StateTTL:     parseDuration(v.GetString("OAUTH_STATE_TTL"), 10*time.Minute),
	}

	cfg.Admin = AdminConfig{SeedEmails: splitAndTrim(strings.ToLower(v.GetString("ADMIN_SEED_EMAILS")))}

	cfg.AuthAPI = AuthAPIConfig{
		BaseURL: strings.TrimRight(v.GetString("AUTH_SERVICE_URL"), "/"),
		Timeout: parseDuration(v.GetString("AUTH_SERVICE_TIMEOUT"), 5*time.Second),
	}

	cfg.Stripe = StripeConfig{
		SecretKey:         v.GetString("STRIPE_SECRET_KEY"),
		WebhookSecret:     v.GetString("STRIPE_WEBHOOK_SECRET"),
		BasicPriceID:      v.GetString("STRIPE_BASIC_PRICE_ID"),
		PremiumPriceID:    v.GetString("STRIPE_PREMIUM_PRICE_ID"),
		EnterprisePriceID: v.GetString("STRIPE_ENTERPRISE_PRICE_ID"),
		TrialDays:         v.GetInt64("SUBSCRIPTION_TRIAL_DAYS"),
	}

	cfg.Storage = StorageConfig{
		Driver:         strings.ToLower(v.GetString("STORAGE_DRIVER")),
		LocalDir:       v.GetString("UPLOAD_DIR"),
		Endpoint:       strings.TrimRight(v.GetString("S3_ENDPOINT"), "/"),
		Region:         v.GetString("S3_REGION"),
		AccessKey:      v.GetString("S3_ACCESS_KEY"),
		SecretKey:      v.GetString("S3_SECRET_KEY"),
		Bucket:         v.GetString("S3_BUCKET"),
		PublicBase:     strings.TrimRight(v.GetString("S3_PUBLIC_BASE"), "/"),
		MaxUploadBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
	}

	cfg.RateLimit = RateLimitConfig{
		Window:      parseDuration(v.GetString("RATE_LIMIT_WINDOW"), 15*time.Minute),
		MaxRequests: v.GetInt("RATE_LIMIT_MAX"),
	}

	cfg.Events = EventsConfig{
		Channel:    v.GetString("EVENTS_CHANNEL"),
		Workers:    v.GetInt("EVENTS_WORKERS"),
		BufferSize: v.GetInt("EVENTS_BUFFER_SIZE"),
		MaxRetries: v.GetInt("EVENTS_RETRIES"),
		RetryDelay: parseDuration(v.GetString("EVENTS_RETRY_DELAY"), time.Second),
	}

	origins := splitAndTrim(v.GetString("ALLOWED_ORIGINS"))
	if len(origins) == 0 && cfg.FrontendURL != "" {
		origins = []string{cfg.FrontendURL}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: origins}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("SERVICE_NAME", service)
	v.SetDefault("API_PREFIX", "")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")

	switch service {
	case ServiceAuth:
		v.SetDefault("PORT", 3001)
		v.SetDefault("RATE_LIMIT_MAX", 100)
	case ServiceCourse:
		v.SetDefault("PORT", 3002)
		v.SetDefault("RATE_LIMIT_MAX", 200)
	case ServicePayment:
		v.SetDefault("PORT", 3003)
		v.SetDefault("RATE_LIMIT_MAX", 100)
	default:
		v.SetDefault("PORT", 8080)
		v.SetDefault("RATE_LIMIT_MAX", 100)
	}
	v.SetDefault("RATE_LIMIT_WINDOW", "15m")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "edustream")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "1m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "edustream-auth")

	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_CALLBACK_URL", "http://localhost:3001/google/callback")
	v.SetDefault("OAUTH_STATE_TTL", "10m")
	v.SetDefault("ADMIN_SEED_EMAILS", "")

	v.SetDefault("AUTH_SERVICE_URL", "http://localhost:3001")
	v.SetDefault("AUTH_SERVICE_TIMEOUT", "5s")

	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	v.SetDefault("STRIPE_BASIC_PRICE_ID", "")
	v.SetDefault("STRIPE_PREMIUM_PRICE_ID", "")
	v.SetDefault("STRIPE_ENTERPRISE_PRICE_ID", "")
	v.SetDefault("SUBSCRIPTION_TRIAL_DAYS", 7)

	v.SetDefault("STORAGE_DRIVER", "s3")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("S3_ENDPOINT", "http://localhost:9000")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_BUCKET", "edustream")
	v.SetDefault("S3_PUBLIC_BASE", "")
	v.SetDefault("UPLOAD_MAX_BYTES", 100*1024*1024)

	v.SetDefault("EVENTS_CHANNEL", "events")
	v.SetDefault("EVENTS_WORKERS", 2)
	v.SetDefault("EVENTS_BUFFER_SIZE", 256)
	v.SetDefault("EVENTS_RETRIES", 3)
	v.SetDefault("EVENTS_RETRY_DELAY", "1s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
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
