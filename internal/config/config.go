package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	HTTPAddr         string
	AuthCookieSecure bool

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBAutoMigrate     bool

	Auth          AuthConfig
	Redis         RedisConfig
	RateLimit     RateLimitConfig
	Email         EmailConfig
	Observability ObservabilityConfig
}

// AuthConfig carries token, hashing and invitation settings.
type AuthConfig struct {
	PasswordHashAlgorithm string
	PasswordHashCost      int
	DummyPasswordHash     string

	AccessTokenSecret  string
	AccessTokenTTL     time.Duration
	RefreshTokenSecret string
	RefreshTokenTTL    time.Duration
	// RefreshTokenDaysValid drives both the stored session expiry and the cookie max age.
	RefreshTokenDaysValid int

	HMACSecretKey            string
	InvitationTokenDaysValid int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled    bool
	ConfigPath string
	AuthRate   float64
	AuthBurst  int
}

type EmailConfig struct {
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	SMTPFrom            string
	InvitationAcceptURL string
}

type ObservabilityConfig struct {
	LogLevel          string
	LogFormat         string
	OtelEnabled       bool
	OtelEndpoint      string
	OtelProtocol      string
	OtelSamplingRatio float64
}

// Module provides Config to the application graph.
var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Invoke(func(cfg Config) error { return cfg.Validate() }),
)

// Load loads configuration from environment variables, an optional .env file
// and an optional config file named by TASKFLOW_CONFIG_FILE.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path := strings.TrimSpace(v.GetString("TASKFLOW_CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_SERVICE", "taskflow")
	v.SetDefault("APP_VERSION", "0.1.0")
	v.SetDefault("ENVIRONMENT", EnvDevelopment)
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("AUTH_COOKIE_SECURE", false)

	v.SetDefault("DATABASE_TYPE", "postgres")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", "5432")
	v.SetDefault("DATABASE_NAME", "taskflow")
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_IDLE_CONN", 10)
	v.SetDefault("DATABASE_MAX_OPEN_CONN", 50)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", 1800)
	v.SetDefault("DATABASE_CONN_MAX_IDLE_TIME", 300)
	v.SetDefault("DATABASE_AUTO_MIGRATE", true)

	v.SetDefault("PASSWORD_HASH_ALGORITHM", "argon2id")
	v.SetDefault("PASSWORD_HASH_COST", 0)
	v.SetDefault("ACCESS_TOKEN_EXPIRES_IN", "15m")
	v.SetDefault("REFRESH_TOKEN_EXPIRES_IN", "7d")
	v.SetDefault("REFRESH_TOKEN_DAYS_VALID", 7)
	v.SetDefault("INVITATION_TOKEN_DAYS_VALID", 7)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_AUTH_RATE", 1.0)
	v.SetDefault("RATE_LIMIT_AUTH_BURST", 10)

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "no-reply@taskflow.local")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_PROTOCOL", "http")
	v.SetDefault("OTEL_SAMPLING_RATIO", 0.1)
}

func fromViper(v *viper.Viper) (Config, error) {
	environment := strings.ToLower(strings.TrimSpace(v.GetString("ENVIRONMENT")))
	authCookieSecure := environment == EnvProduction
	if !authCookieSecure {
		authCookieSecure = v.GetBool("AUTH_COOKIE_SECURE")
	}

	accessTTL, err := ParseDuration(v.GetString("ACCESS_TOKEN_EXPIRES_IN"))
	if err != nil {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_EXPIRES_IN: %w", err)
	}
	refreshTTL, err := ParseDuration(v.GetString("REFRESH_TOKEN_EXPIRES_IN"))
	if err != nil {
		return Config{}, fmt.Errorf("REFRESH_TOKEN_EXPIRES_IN: %w", err)
	}

	cfg := Config{
		AppName:          strings.TrimSpace(v.GetString("APP_SERVICE")),
		AppVersion:       strings.TrimSpace(v.GetString("APP_VERSION")),
		Environment:      environment,
		HTTPAddr:         strings.TrimSpace(v.GetString("HTTP_ADDR")),
		AuthCookieSecure: authCookieSecure,

		DBType:            strings.ToLower(strings.TrimSpace(v.GetString("DATABASE_TYPE"))),
		DBHost:            v.GetString("DATABASE_HOST"),
		DBPort:            v.GetString("DATABASE_PORT"),
		DBName:            v.GetString("DATABASE_NAME"),
		DBUser:            v.GetString("DATABASE_USER"),
		DBPassword:        v.GetString("DATABASE_PASSWORD"),
		DBSSLMode:         v.GetString("DATABASE_SSLMODE"),
		DBMaxIdleConn:     v.GetInt("DATABASE_MAX_IDLE_CONN"),
		DBMaxOpenConn:     v.GetInt("DATABASE_MAX_OPEN_CONN"),
		DBConnMaxLifetime: v.GetInt("DATABASE_CONN_MAX_LIFETIME"),
		DBConnMaxIdleTime: v.GetInt("DATABASE_CONN_MAX_IDLE_TIME"),
		DBAutoMigrate:     v.GetBool("DATABASE_AUTO_MIGRATE"),

		Auth: AuthConfig{
			PasswordHashAlgorithm:    strings.ToLower(strings.TrimSpace(v.GetString("PASSWORD_HASH_ALGORITHM"))),
			PasswordHashCost:         v.GetInt("PASSWORD_HASH_COST"),
			DummyPasswordHash:        strings.TrimSpace(v.GetString("DUMMY_PASSWORD_HASH")),
			AccessTokenSecret:        strings.TrimSpace(v.GetString("ACCESS_TOKEN_SECRET")),
			AccessTokenTTL:           accessTTL,
			RefreshTokenSecret:       strings.TrimSpace(v.GetString("REFRESH_TOKEN_SECRET")),
			RefreshTokenTTL:          refreshTTL,
			RefreshTokenDaysValid:    v.GetInt("REFRESH_TOKEN_DAYS_VALID"),
			HMACSecretKey:            strings.TrimSpace(v.GetString("HMAC_SECRET_KEY")),
			InvitationTokenDaysValid: v.GetInt("INVITATION_TOKEN_DAYS_VALID"),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:    v.GetBool("RATE_LIMIT_ENABLED"),
			ConfigPath: strings.TrimSpace(v.GetString("RATE_LIMIT_CONFIG_FILE")),
			AuthRate:   v.GetFloat64("RATE_LIMIT_AUTH_RATE"),
			AuthBurst:  v.GetInt("RATE_LIMIT_AUTH_BURST"),
		},
		Email: EmailConfig{
			SMTPHost:            strings.TrimSpace(v.GetString("SMTP_HOST")),
			SMTPPort:            v.GetInt("SMTP_PORT"),
			SMTPUsername:        strings.TrimSpace(v.GetString("SMTP_USERNAME")),
			SMTPPassword:        v.GetString("SMTP_PASSWORD"),
			SMTPFrom:            strings.TrimSpace(v.GetString("SMTP_FROM")),
			InvitationAcceptURL: strings.TrimSpace(v.GetString("INVITATION_ACCEPT_URL")),
		},
		Observability: ObservabilityConfig{
			LogLevel:          strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
			LogFormat:         strings.ToLower(strings.TrimSpace(v.GetString("LOG_FORMAT"))),
			OtelEnabled:       v.GetBool("OTEL_ENABLED"),
			OtelEndpoint:      strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")),
			OtelProtocol:      strings.ToLower(strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_PROTOCOL"))),
			OtelSamplingRatio: v.GetFloat64("OTEL_SAMPLING_RATIO"),
		},
	}

	return cfg, nil
}

// Validate rejects configurations missing a required secret or carrying
// nonsensical lifetimes.
func (c Config) Validate() error {
	var errs []error
	if c.Auth.AccessTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.Auth.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.Auth.HMACSecretKey == "" {
		errs = append(errs, errors.New("HMAC_SECRET_KEY is required"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRES_IN must be positive"))
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_EXPIRES_IN must be positive"))
	}
	if c.Auth.RefreshTokenDaysValid <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_DAYS_VALID must be positive"))
	}
	if c.Auth.InvitationTokenDaysValid <= 0 {
		errs = append(errs, errors.New("INVITATION_TOKEN_DAYS_VALID must be positive"))
	}
	switch c.Auth.PasswordHashAlgorithm {
	case "argon2id", "bcrypt":
	default:
		errs = append(errs, fmt.Errorf("unsupported PASSWORD_HASH_ALGORITHM %q", c.Auth.PasswordHashAlgorithm))
	}
	return errors.Join(errs...)
}

func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// ParseDuration accepts Go duration syntax plus a day suffix ("7d").
func ParseDuration(raw string) (time.Duration, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, errors.New("empty duration")
	}
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	return d, nil
}
