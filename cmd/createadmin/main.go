// Command createadmin provisions an admin account. Public registration only
// creates regular users, so the first admin is created out of band:
//
//	MONGO_URI=mongodb://localhost:27017 createadmin -email root@inkpost.dev -username root -name "Site Admin"
//
// The password is read from ADMIN_PASSWORD.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/inkpost/blog-platform/internal/core/domain"
	"github.com/inkpost/blog-platform/internal/core/ports"
	"github.com/inkpost/blog-platform/internal/core/service"
	mongodb "github.com/inkpost/blog-platform/internal/infrastructure/db/mongo"
	"github.com/inkpost/blog-platform/internal/pkg/config"
	"github.com/inkpost/blog-platform/pkg/logger"
)

// skipMail drops the welcome mail; an operator-created admin needs none.
type skipMail struct {
	log zerolog.Logger
}

func (s skipMail) Enqueue(m ports.OutgoingMail) {
	s.log.Debug().Str("to", m.To).Str("subject", m.Subject).Msg("mail skipped")
}

func main() {
	email := flag.String("email", "", "admin email address")
	username := flag.String("username", "", "admin username")
	name := flag.String("name", "Administrator", "admin display name")
	flag.Parse()

	log := logger.Init(logger.Options{Level: os.Getenv("LOG_LEVEL"), Pretty: true, Service: "createadmin"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var mcfg config.MongoConfig
	if err := envconfig.Process(ctx, &mcfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load mongo configuration")
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: mcfg.URI, Database: mcfg.Database, AppName: "createadmin"})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongo")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	repo := mongodb.NewAccountRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure indexes")
	}

	accounts := service.NewAccountService(repo, skipMail{log: log}, log)
	account, err := accounts.Register(ctx, ports.RegisterInput{
		FullName: *name,
		Email:    *email,
		Username: *username,
		Password: os.Getenv("ADMIN_PASSWORD"),
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create admin")
	}

	log.Info().Str("account_id", account.ID).Str("username", account.Username).Msg("admin created")
}
