package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	OTPStoreRedis  = "redis"
	OTPStoreMemory = "memory"

	MailDriverSMTP = "smtp"
	MailDriverLog  = "log"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth   AuthConfig
	Cookie CookieConfig
	OTP    OTPConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Mail   MailConfig
}

type AuthConfig struct {
	AccessSecret  string        `env:"ACCESS_TOKEN_SECRET"`
	RefreshSecret string        `env:"REFRESH_TOKEN_SECRET"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_TTL,  default=15m"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_TTL, default=240h"`
}

type CookieConfig struct {
	Secure   bool   `env:"COOKIE_SECURE,   default=true"`
	SameSite string `env:"COOKIE_SAMESITE, default=lax"`
}

type OTPConfig struct {
	Store string        `env:"OTP_STORE, default=redis"`
	TTL   time.Duration `env:"OTP_TTL,   default=0s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=blog_platform"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type MailConfig struct {
	Driver   string `env:"MAIL_DRIVER,   default=log"`
	Host     string `env:"SMTP_HOST,     default=localhost"`
	Port     int    `env:"SMTP_PORT,     default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM,     default=no-reply@inkpost.local"`
	Workers  int    `env:"MAIL_WORKERS,  default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith resolves the configuration through the given lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot run safely with.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.AccessSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.Auth.RefreshSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.Auth.AccessSecret != "" && c.Auth.AccessSecret == c.Auth.RefreshSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.OTP.TTL < 0 {
		errs = append(errs, errors.New("OTP_TTL must not be negative"))
	}

	switch c.OTP.Store {
	case OTPStoreRedis, OTPStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown OTP_STORE %q", c.OTP.Store))
	}
	switch c.Mail.Driver {
	case MailDriverSMTP, MailDriverLog:
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_DRIVER %q", c.Mail.Driver))
	}
	if _, ok := parseSameSite(c.Cookie.SameSite); !ok {
		errs = append(errs, fmt.Errorf("unknown COOKIE_SAMESITE %q", c.Cookie.SameSite))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the server runs with developer conveniences
// such as pretty logs.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev" || c.Env == "local"
}

// SameSiteMode converts COOKIE_SAMESITE into its net/http value.
func (c CookieConfig) SameSiteMode() http.SameSite {
	mode, _ := parseSameSite(c.SameSite)
	return mode
}

func parseSameSite(s string) (http.SameSite, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lax", "":
		return http.SameSiteLaxMode, true
	case "strict":
		return http.SameSiteStrictMode, true
	case "none":
		return http.SameSiteNoneMode, true
	default:
		return http.SameSiteDefaultMode, false
	}
}
