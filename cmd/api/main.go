package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/sla-engine/internal/api/http"
	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/config"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/persistence"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/service"
	"github.com/spec-kit/sla-engine/internal/worker"
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
	ruleRepo := repository.NewRuleRepository(pool)
	violationRepo := repository.NewViolationRepository(pool)
	escalationRepo := repository.NewEscalationRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	passLock := persistence.NewPassLock(redis, cfg.Scheduler.LockTTL(), logger)

	ruleService := service.NewRuleService(ruleRepo)
	notificationService := service.NewNotificationService(notificationRepo, dispatcher, logger)
	violationService := service.NewViolationService(service.ViolationDependencies{
		TicketRepo:    ticketRepo,
		RuleRepo:      ruleRepo,
		ViolationRepo: violationRepo,
		Dispatcher:    dispatcher,
		Lock:          passLock,
		Metrics:       metrics,
		Logger:        logger,
	})
	escalationService := service.NewEscalationService(service.EscalationDependencies{
		ViolationRepo:  violationRepo,
		EscalationRepo: escalationRepo,
		RuleRepo:       ruleRepo,
		StaffRepo:      staffRepo,
		Dispatcher:     dispatcher,
		Lock:           passLock,
		Metrics:        metrics,
		Logger:         logger,
	})
	reportService := service.NewReportService(ticketRepo, ruleRepo)

	worker.RegisterNotificationHandlers(notificationService)
	scheduler := worker.NewScheduler(violationService, escalationService, cfg.Scheduler, logger)
	scheduler.Start(ctx)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Rules:          handlers.NewRulesHandler(ruleService),
		Violations:     handlers.NewViolationsHandler(violationService),
		Escalations:    handlers.NewEscalationsHandler(escalationService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
