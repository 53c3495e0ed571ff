package main

import (
	"context"
	"log/slog"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/api"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/api/middleware"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/api/router/handler"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/lifecycle"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/repository"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/auth"
	logs "github.com/iconic-inc/iconic-erp-sub003/internal/infra/log"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/metrics"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/persistence/memory"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/persistence/postgres"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/persistence/redis"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/pubsub"
	"github.com/iconic-inc/iconic-erp-sub003/internal/usecase/impl"
)

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
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			verifyRoles,
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
		pubsub.NewEventPublisher,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewPrincipalRepository,
			postgres.NewRoleRepository,
			newCredentialRepository,
		),
	)
}

// newCredentialRepository picks the credential store named by credentialStore.driver.
func newCredentialRepository(cfg *config.Config, db *gorm.DB, client goredis.UniversalClient, logger *slog.Logger) repository.CredentialRepository {
	logger.Info("Credential store selected", slog.String("driver", cfg.CredentialStore.Driver))

	switch cfg.CredentialStore.Driver {
	case config.CredentialStoreRedis:
		return redis.NewCredentialRepository(client, cfg.Redis.KeyPrefix, redis.WithRetention(cfg.CredentialStore.Retention))
	case config.CredentialStoreMemory:
		// Single instance only: sessions do not survive a restart.
		return memory.NewCredentialRepository()
	default:
		return postgres.NewCredentialRepository(db)
	}
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			auth.NewCookieCarrier,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewAuthenticationGate,
			impl.NewSessionService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewRateLimitMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewSessionHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func verifyRoles(lc fx.Lifecycle, roles repository.RoleRepository, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			_, err := impl.VerifyRoleCatalog(ctx, roles, logger)

			return err
		},
	})
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
