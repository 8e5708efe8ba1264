package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/counsellor-desk/internal/api/http"
	"github.com/spec-kit/counsellor-desk/internal/api/http/handlers"
	"github.com/spec-kit/counsellor-desk/internal/auth"
	"github.com/spec-kit/counsellor-desk/internal/config"
	"github.com/spec-kit/counsellor-desk/internal/events"
	"github.com/spec-kit/counsellor-desk/internal/observability"
	"github.com/spec-kit/counsellor-desk/internal/persistence"
	"github.com/spec-kit/counsellor-desk/internal/repository"
	"github.com/spec-kit/counsellor-desk/internal/service"
	"github.com/spec-kit/counsellor-desk/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	broadcastRepo := repository.NewBroadcastRepository(pool)
	webhookRepo := repository.NewWebhookEventRepository(pool)
	counsellorRepo := repository.NewCounsellorRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	locks := service.NewTicketLocks()
	metrics := observability.NewMetrics()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		MessageRepo: messageRepo,
		UserRepo:    userRepo,
		Locks:       locks,
		Dispatcher:  dispatcher,
	})
	inboxService := service.NewInboxService(service.InboxDependencies{
		UserRepo:    userRepo,
		TicketRepo:  ticketRepo,
		MessageRepo: messageRepo,
		WebhookRepo: webhookRepo,
		Deduper:     persistence.NewWebhookDeduper(redis, cfg.Webhook.DedupeTTL()),
		Locks:       locks,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	queueService := service.NewQueueService(userRepo, logger)
	broadcastService := service.NewBroadcastService(broadcastRepo, dispatcher, logger)
	authService := service.NewAuthService(cfg.Auth, counsellorRepo)

	deliveryWorker := worker.NewDeliveryWorker(worker.NewLoggingTransport(logger), messageRepo, logger)
	deliveryWorker.Register(dispatcher)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), counsellorRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Queries:        handlers.NewQueriesHandler(queueService),
		Broadcasts:     handlers.NewBroadcastsHandler(broadcastService),
		Webhook:        handlers.NewWebhookHandler(inboxService),
		Counsellors:    handlers.NewCounsellorsHandler(authService),
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
