package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/repository"
	logs "github.com/iconic-inc/iconic-erp-sub003/internal/infra/log"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/persistence/postgres"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/persistence/redis"
	"github.com/iconic-inc/iconic-erp-sub003/internal/usecase"
	"github.com/iconic-inc/iconic-erp-sub003/internal/usecase/impl"
)

func runCleanup(ctx context.Context) error {
	return withSessions(ctx, func(ctx context.Context, sessions usecase.SessionUsecase) error {
		start := time.Now()
		deleted, err := sessions.CleanupExpiredSessions(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Deleted %d credential records in %s\n", deleted, formatTTL(time.Since(start)))

		return nil
	})
}

func runRevoke(ctx context.Context, rawPrincipal string) error {
	principalID, err := uuid.Parse(rawPrincipal)
	if err != nil {
		return errors.Wrap(err, "invalid principal ID")
	}

	return withSessions(ctx, func(ctx context.Context, sessions usecase.SessionUsecase) error {
		revoked, err := sessions.RevokeAllSessions(ctx, principalID)
		if err != nil {
			return err
		}

		fmt.Printf("Revoked %d sessions of %s\n", revoked, principalID)

		return nil
	})
}

// withSessions starts the storage stack, runs fn and stops it again.
func withSessions(ctx context.Context, fn func(ctx context.Context, sessions usecase.SessionUsecase) error) error {
	var sessions usecase.SessionUsecase
	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			config.New,
			logs.New,
			postgres.New,
			redis.NewClient,
			newCredentialRepository,
			impl.NewSessionService,
		),
		fx.Populate(&sessions),
	)

	if err := app.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start storage")
	}
	defer func() {
		if err := app.Stop(context.Background()); err != nil {
			slog.Error("Failed to stop storage", slog.Any("error", err))
		}
	}()

	return fn(ctx, sessions)
}

func newCredentialRepository(cfg *config.Config, db *gorm.DB, client goredis.UniversalClient) (repository.CredentialRepository, error) {
	switch cfg.CredentialStore.Driver {
	case config.CredentialStoreRedis:
		return redis.NewCredentialRepository(client, cfg.Redis.KeyPrefix, redis.WithRetention(cfg.CredentialStore.Retention)), nil
	case config.CredentialStoreMemory:
		return nil, errors.New("credentialStore.driver memory lives inside the API process, erpctl cannot reach it")
	default:
		return postgres.NewCredentialRepository(db), nil
	}
}
