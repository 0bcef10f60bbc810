package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/dispatch-service/internal/api/http"
	"github.com/spec-kit/dispatch-service/internal/api/http/handlers"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/classifier"
	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/observability"
	"github.com/spec-kit/dispatch-service/internal/persistence"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
	"github.com/spec-kit/dispatch-service/internal/sheets"
	"github.com/spec-kit/dispatch-service/internal/worker"
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

	taxonomy, err := domain.LoadTaxonomy(cfg.Taxonomy.Path)
	if err != nil {
		logger.Fatal("failed to load taxonomy", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	sheetsClient := sheets.NewClient(cfg.Sheets, metrics, logger)
	ticketStore := repository.NewTicketStore(sheetsClient.Worksheet(cfg.Sheets.TicketsSheet), cfg.Sheets.CacheTTL())
	workerStore := repository.NewWorkerStore(sheetsClient.Worksheet(cfg.Sheets.WorkersSheet), cfg.Sheets.CacheTTL())

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	// signature baselines outlive the snapshot cache by a browsing session
	signatureStore := repository.NewRedisSignatureStore(redis.Client, cfg.Sheets.CacheTTL()*40)

	dispatcher := events.NewInMemoryDispatcher()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketStore: ticketStore,
		WorkerStore: workerStore,
		Taxonomy:    taxonomy,
		Dispatcher:  dispatcher,
	})
	payoutService := service.NewPayoutService(ticketStore, workerStore, cfg.Payout.MonthlyTarget)
	refreshService := service.NewRefreshService(ticketStore, signatureStore)
	authService := service.NewAuthService(*cfg, workerStore)
	notificationService := service.NewNotificationService(dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	classifierClient := classifier.NewClient(cfg.Classifier, taxonomy, logger)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), workerStore)

	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		BodyLimit:   8 * 1024 * 1024,
		ReadTimeout: cfg.App.RequestTimeout(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis, ticketStore),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, refreshService, classifierClient),
		Payouts:        handlers.NewPayoutsHandler(payoutService, ticketService),
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
