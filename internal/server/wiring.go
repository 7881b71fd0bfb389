package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/vitae/internal/logging"
	"github.com/dmitrijs2005/vitae/internal/server/auth"
	"github.com/dmitrijs2005/vitae/internal/server/config"
	"github.com/dmitrijs2005/vitae/internal/server/locks"
	"github.com/dmitrijs2005/vitae/internal/server/mailer"
	"github.com/dmitrijs2005/vitae/internal/server/password"
	"github.com/dmitrijs2005/vitae/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vitae/internal/server/services"
	"github.com/redis/go-redis/v9"
)

const lockTTL = 30 * time.Second

// Components are the long-lived resources behind the account engine.
type Components struct {
	DB       *sql.DB
	Redis    *redis.Client
	Accounts *services.AccountService
}

// Close releases the database and Redis connections.
func (c *Components) Close() error {
	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}

// Build connects to the store, applies migrations and assembles the engine.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Components, error) {
	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	c := &Components{DB: db}

	if strings.EqualFold(cfg.LockBackend, "redis") {
		c.Redis, err = locks.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	collab, err := newCollaborators(cfg, logger, c.Redis)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Accounts = services.NewAccountService(db, rm, collab, cfg.PublicURL)
	return c, nil
}

func newCollaborators(cfg *config.Config, logger logging.Logger, rdb *redis.Client) (services.Collaborators, error) {
	hasher, err := password.New(cfg.PasswordHashAlgorithm, cfg.BcryptCost)
	if err != nil {
		return services.Collaborators{}, err
	}

	signer, err := auth.NewSigner(cfg.TokenFormat, cfg.SecretKey, cfg.TokenValidityDuration)
	if err != nil {
		return services.Collaborators{}, err
	}

	var sender mailer.Sender
	if cfg.SMTPHost == "" {
		sender = mailer.NewLogSender(logger)
	} else {
		sender = mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom, logger)
	}

	var locker locks.Locker = locks.NewLocalLocker()
	if rdb != nil {
		locker = locks.NewRedisLocker(rdb, "vitae:lock:", lockTTL)
	}

	return services.Collaborators{
		Hasher: hasher,
		Signer: signer,
		Sender: sender,
		Locker: locker,
		Logger: logger,
	}, nil
}
