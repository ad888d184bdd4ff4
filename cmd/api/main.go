package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/soportek/helpdesk-api/internal/api/http"
	"github.com/soportek/helpdesk-api/internal/api/http/handlers"
	"github.com/soportek/helpdesk-api/internal/audit"
	"github.com/soportek/helpdesk-api/internal/auth"
	"github.com/soportek/helpdesk-api/internal/config"
	"github.com/soportek/helpdesk-api/internal/events"
	"github.com/soportek/helpdesk-api/internal/mail"
	"github.com/soportek/helpdesk-api/internal/observability"
	"github.com/soportek/helpdesk-api/internal/persistence"
	"github.com/soportek/helpdesk-api/internal/repository"
	"github.com/soportek/helpdesk-api/internal/service"
	"github.com/soportek/helpdesk-api/internal/storage"
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
	commentRepo := repository.NewCommentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	inventoryRepo := repository.NewInventoryRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)

	recorder := audit.NewRecorder(auditRepo)
	fileStore := storage.NewLocalStore(cfg.Storage.UploadDir)

	var mailer mail.Mailer
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTP)
	} else {
		logger.Warn("SMTP_HOST not set; outbound mail disabled")
	}

	dispatcher := events.NewInMemoryDispatcher()
	events.NewLivePublisher(redis.Client, logger).Register(dispatcher)
	service.NewNotificationService(cfg.Notification, mailer, logger).Register(dispatcher)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: userRepo,
		Mailer:   mailer,
		Logger:   logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		Recorder:       recorder,
		Dispatcher:     dispatcher,
		FileStore:      fileStore,
		Logger:         logger,
	})
	reportService := service.NewReportService(ticketRepo)
	inventoryService := service.NewInventoryService(inventoryRepo, recorder)
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:      userRepo,
		SettingsRepo:  settingsRepo,
		InventoryRepo: inventoryRepo,
		Recorder:      recorder,
	})
	auditService := service.NewAuditService(auditRepo)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Tickets:        handlers.NewTicketsHandler(ticketService, reportService),
		Inventory:      handlers.NewInventoryHandler(inventoryService),
		Audit:          handlers.NewAuditHandler(auditService),
		Metrics:        handlers.NewMetricsHandler(metrics),
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
