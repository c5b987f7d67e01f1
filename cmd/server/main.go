// @title           Blog Platform Auth API
// @version         1.0
// @description     Account registration and two-step sign-in with email one-time codes and rotating session tokens.
// @BasePath        /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/inkpost/blog-platform/internal/api"
	"github.com/inkpost/blog-platform/internal/api/handler"
	"github.com/inkpost/blog-platform/internal/core/ports"
	"github.com/inkpost/blog-platform/internal/core/service"
	"github.com/inkpost/blog-platform/internal/infrastructure/db/memory"
	mongodb "github.com/inkpost/blog-platform/internal/infrastructure/db/mongo"
	redisdb "github.com/inkpost/blog-platform/internal/infrastructure/db/redis"
	"github.com/inkpost/blog-platform/internal/infrastructure/mail"
	"github.com/inkpost/blog-platform/internal/infrastructure/queue"
	"github.com/inkpost/blog-platform/internal/pkg/config"
	"github.com/inkpost/blog-platform/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "blog-auth",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Persistence ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "blog-auth",
	})
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	accounts := mongodb.NewAccountRepository(db)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		return err
	}
	checks := []handler.DependencyCheck{handler.MongoCheck(db)}

	// --- OTP store ---
	var otpStore ports.OTPStore
	switch cfg.OTP.Store {
	case config.OTPStoreRedis:
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer func(c *goredis.Client) { _ = c.Close() }(rdb)

		otpStore = redisdb.NewOTPStore(rdb, cfg.OTP.TTL)
		checks = append(checks, handler.RedisCheck(rdb))
	default:
		log.Warn().Msg("using in-memory OTP store; pending codes are lost on restart")
		otpStore = memory.NewOTPStore(cfg.OTP.TTL)
	}

	// --- Mail ---
	var mailer ports.Mailer
	switch cfg.Mail.Driver {
	case config.MailDriverSMTP:
		smtpMailer, err := mail.NewSMTPMailer(mail.SMTPConfig{
			Host:        cfg.Mail.Host,
			Port:        cfg.Mail.Port,
			Username:    cfg.Mail.Username,
			Password:    cfg.Mail.Password,
			From:        cfg.Mail.From,
			Connections: cfg.Mail.Workers,
		})
		if err != nil {
			return err
		}
		defer smtpMailer.Close()
		mailer = smtpMailer
	default:
		mailer = mail.NewLogMailer(log.With().Str("component", "mailer").Logger())
	}

	dispatcher := queue.NewDispatcher(cfg.Mail.Workers, mailer, log.With().Str("component", "mail_dispatcher").Logger())
	// Workers outlive the signal context so Shutdown can drain queued mail.
	dispatcher.Start(context.WithoutCancel(ctx))

	// --- Services ---
	tokens := service.NewTokenService(accounts, service.TokenConfig{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	})
	sessions := service.NewSessionService(
		service.NewCredentialVerifier(accounts),
		service.NewOTPService(otpStore, accounts, mailer, log),
		tokens,
		dispatcher,
		log,
	)
	accountService := service.NewAccountService(accounts, dispatcher, log)

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Sessions: sessions,
		Accounts: accountService,
		Tokens:   tokens,
		Cookies: handler.CookieOptions{
			Secure:     cfg.Cookie.Secure,
			SameSite:   cfg.Cookie.SameSiteMode(),
			AccessTTL:  cfg.Auth.AccessTTL,
			RefreshTTL: cfg.Auth.RefreshTTL,
		},
		Checks:   checks,
		Registry: prometheus.NewRegistry(),
		Log:      log,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := net.JoinHostPort("", cfg.Port)
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("mail queue not fully drained")
	}
	return nil
}
