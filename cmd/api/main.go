package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/opsdeck/support-portal/internal/api/http"
	"github.com/opsdeck/support-portal/internal/api/http/handlers"
	"github.com/opsdeck/support-portal/internal/auth"
	"github.com/opsdeck/support-portal/internal/billing"
	"github.com/opsdeck/support-portal/internal/config"
	"github.com/opsdeck/support-portal/internal/drafting"
	"github.com/opsdeck/support-portal/internal/events"
	"github.com/opsdeck/support-portal/internal/notifier"
	"github.com/opsdeck/support-portal/internal/observability"
	"github.com/opsdeck/support-portal/internal/persistence"
	"github.com/opsdeck/support-portal/internal/repository"
	"github.com/opsdeck/support-portal/internal/service"
	"github.com/opsdeck/support-portal/internal/worker"
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

	redisStore := persistence.NewRedis(cfg.Redis, logger)
	defer redisStore.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	orgRepo := repository.NewOrganizationRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewTicketMessageRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	allocationRepo := repository.NewAllocationRepository(pool)
	timeLogRepo := repository.NewTimeLogRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	kbRepo := repository.NewKBRepository(pool)
	magicLinkRepo := repository.NewMagicLinkRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	mailer := notifier.NewFromConfig(cfg.Notifier, logger)
	drafter := drafting.NewFromConfig(cfg.Drafting, logger)
	billingClient := billing.NewFromConfig(cfg.Billing)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	limiter := auth.NewMagicLinkLimiter(auth.NewRedisCooldownStore(redisStore.Client), cfg.MagicLink)

	identityService := service.NewIdentityService(service.IdentityDependencies{
		UserRepo:   userRepo,
		RoleRepo:   roleRepo,
		OrgRepo:    orgRepo,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:      userRepo,
		RoleRepo:      roleRepo,
		OrgRepo:       orgRepo,
		MagicLinkRepo: magicLinkRepo,
		Tokens:        tokens,
		Limiter:       limiter,
		Notifier:      mailer,
		MagicLinkCfg:  cfg.MagicLink,
		AppURL:        cfg.App.PublicURL,
		Logger:        logger,
	})
	orgService := service.NewOrganizationService(orgRepo, userRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		MessageRepo:    messageRepo,
		AttachmentRepo: attachmentRepo,
		RoleRepo:       roleRepo,
		SLAConfig:      cfg.SLA,
		StorageConfig:  cfg.Storage,
		Dispatcher:     dispatcher,
	})
	allocationService := service.NewAllocationService(allocationRepo, orgRepo, cfg.Allocation)
	timeLogService := service.NewTimeLogService(timeLogRepo, ticketRepo)
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		TicketRepo:       ticketRepo,
		UserRepo:         userRepo,
		RoleRepo:         roleRepo,
		OrgRepo:          orgRepo,
		Notifier:         mailer,
		Logger:           logger,
	})
	notificationService.RegisterHandlers(dispatcher)
	kbService := service.NewKBService(kbRepo, ticketRepo, messageRepo, drafter)
	opsService := service.NewOpsService(orgRepo, ticketRepo, timeLogRepo, allocationService, billingClient)

	authMiddleware := auth.NewMiddleware(tokens, userRepo, roleRepo, orgRepo)
	metrics := observability.NewMetrics()

	sweeper := worker.NewSweeper(attachmentRepo, allocationRepo, magicLinkRepo, cfg.Storage, cfg.Worker, logger)
	go sweeper.Run(ctx)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pool, redisStore.Client, metrics, cfg.App.Version),
		Auth:           handlers.NewAuthHandler(authService, identityService),
		Tickets:        handlers.NewTicketsHandler(ticketService, timeLogService),
		Orgs:           handlers.NewOrgsHandler(orgService, identityService),
		Allocations:    handlers.NewAllocationsHandler(allocationService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		KB:             handlers.NewKBHandler(kbService),
		Ops:            handlers.NewOpsHandler(opsService),
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
