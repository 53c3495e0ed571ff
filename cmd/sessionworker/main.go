package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/worker"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/worker/handler"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/repository"
	logs "github.com/iconic-inc/iconic-erp-sub003/internal/infra/log"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/metrics"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/persistence/postgres"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/persistence/redis"
	"github.com/iconic-inc/iconic-erp-sub003/internal/usecase/impl"
)

var errMemoryStore = errors.New("credentialStore.driver memory lives inside the API process, the worker cannot reach it")

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectUsecase(),
		injectHandler(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		metrics.New,
		postgres.New,
		redis.NewClient,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			newCredentialRepository,
		),
	)
}

// newCredentialRepository mirrors the API's driver choice. Redis keys outlive their record by the
// retention window, so the sweep deletes expired or revoked records kept for audit and prunes
// principal indexes whose members Redis already evicted.
func newCredentialRepository(cfg *config.Config, db *gorm.DB, client goredis.UniversalClient) (repository.CredentialRepository, error) {
	switch cfg.CredentialStore.Driver {
	case config.CredentialStoreRedis:
		return redis.NewCredentialRepository(client, cfg.Redis.KeyPrefix, redis.WithRetention(cfg.CredentialStore.Retention)), nil
	case config.CredentialStoreMemory:
		return nil, errMemoryStore
	default:
		return postgres.NewCredentialRepository(db), nil
	}
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewSessionService,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewCleanupHandler,
			handler.NewAuditHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				worker.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))

				// Trigger graceful shutdown to execute all OnStop hooks
				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}
