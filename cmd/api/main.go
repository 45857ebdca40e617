package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/nile-labs/registration-service/internal/api/http"
	"github.com/nile-labs/registration-service/internal/api/http/handlers"
	"github.com/nile-labs/registration-service/internal/auth"
	"github.com/nile-labs/registration-service/internal/config"
	"github.com/nile-labs/registration-service/internal/events"
	"github.com/nile-labs/registration-service/internal/geocode"
	"github.com/nile-labs/registration-service/internal/observability"
	"github.com/nile-labs/registration-service/internal/persistence"
	"github.com/nile-labs/registration-service/internal/repository"
	"github.com/nile-labs/registration-service/internal/service"
	"github.com/nile-labs/registration-service/internal/worker"
	"github.com/nile-labs/registration-service/pkg/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	userRepo := repository.NewUserRepository(pg.PoolHandle(), cfg.Auth.BcryptCost)

	geocodeCache := geocode.NewCache(redis.ClientHandle(), cfg.Geocoding.CacheTTL(), logger)
	geocoder := geocode.NewOpenCageClient(cfg.Geocoding, geocodeCache, logger)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	registrationService := service.NewRegistrationService(userRepo, geocoder, dispatcher)
	authService := service.NewAuthService(cfg.Auth, userRepo)
	userService := service.NewUserService(userRepo)
	authMiddleware := auth.NewMiddleware(authService.TokenManager())

	validate := validation.New()
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(registrationService, userService, validate),
		Auth:           handlers.NewAuthHandler(authService, userService, validate),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
