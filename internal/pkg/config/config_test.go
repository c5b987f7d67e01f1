package config

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"ACCESS_TOKEN_SECRET":  "access",
		"REFRESH_TOKEN_SECRET": "refresh",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.Auth.AccessTTL != 15*time.Minute {
		t.Errorf("expected access ttl 15m, got %s", cfg.Auth.AccessTTL)
	}
	if cfg.Auth.RefreshTTL != 240*time.Hour {
		t.Errorf("expected refresh ttl 240h, got %s", cfg.Auth.RefreshTTL)
	}
	if !cfg.Cookie.Secure {
		t.Errorf("expected secure cookies by default")
	}
	if cfg.Cookie.SameSiteMode() != http.SameSiteLaxMode {
		t.Errorf("expected lax same-site, got %v", cfg.Cookie.SameSiteMode())
	}
	if cfg.OTP.Store != OTPStoreRedis || cfg.OTP.TTL != 0 {
		t.Errorf("unexpected otp config: %+v", cfg.OTP)
	}
	if cfg.Mail.Driver != MailDriverLog || cfg.Mail.Workers != 4 {
		t.Errorf("unexpected mail config: %+v", cfg.Mail)
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"ACCESS_TOKEN_SECRET":  "access",
		"REFRESH_TOKEN_SECRET": "refresh",
		"ACCESS_TOKEN_TTL":     "5m",
		"COOKIE_SECURE":        "false",
		"COOKIE_SAMESITE":      "strict",
		"OTP_STORE":            "memory",
		"OTP_TTL":              "10m",
		"MAIL_DRIVER":          "smtp",
		"SMTP_PORT":            "2525",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Auth.AccessTTL != 5*time.Minute {
		t.Errorf("expected 5m, got %s", cfg.Auth.AccessTTL)
	}
	if cfg.Cookie.Secure {
		t.Errorf("expected insecure cookies")
	}
	if cfg.Cookie.SameSiteMode() != http.SameSiteStrictMode {
		t.Errorf("expected strict same-site")
	}
	if cfg.OTP.Store != OTPStoreMemory || cfg.OTP.TTL != 10*time.Minute {
		t.Errorf("unexpected otp config: %+v", cfg.OTP)
	}
	if cfg.Mail.Driver != MailDriverSMTP || cfg.Mail.Port != 2525 {
		t.Errorf("unexpected mail config: %+v", cfg.Mail)
	}
}

func TestLoadWith_RejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secrets": {},
		"identical secrets": {
			"ACCESS_TOKEN_SECRET":  "same",
			"REFRESH_TOKEN_SECRET": "same",
		},
		"unknown otp store": {
			"ACCESS_TOKEN_SECRET":  "access",
			"REFRESH_TOKEN_SECRET": "refresh",
			"OTP_STORE":            "disk",
		},
		"unknown mail driver": {
			"ACCESS_TOKEN_SECRET":  "access",
			"REFRESH_TOKEN_SECRET": "refresh",
			"MAIL_DRIVER":          "pigeon",
		},
		"unknown same-site": {
			"ACCESS_TOKEN_SECRET":  "access",
			"REFRESH_TOKEN_SECRET": "refresh",
			"COOKIE_SAMESITE":      "sometimes",
		},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadWith(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
