package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/case-service/internal/api/http"
	"github.com/spec-kit/case-service/internal/api/http/handlers"
	"github.com/spec-kit/case-service/internal/auth"
	"github.com/spec-kit/case-service/internal/config"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/observability"
	"github.com/spec-kit/case-service/internal/persistence"
	"github.com/spec-kit/case-service/internal/repository"
	"github.com/spec-kit/case-service/internal/service"
	"github.com/spec-kit/case-service/internal/worker"
	"github.com/spec-kit/case-service/internal/workflow"
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
	roleRepo := repository.NewRoleRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	caseRepo := repository.NewCaseRepository(pool)
	historyRepo := repository.NewWorkflowHistoryRepository(pool)
	directoryRepo := repository.NewDirectoryRepository(pool)
	evidenceRepo := repository.NewEvidenceRepository(pool)
	suspectRepo := repository.NewSuspectRepository(pool)
	rewardRepo := repository.NewRewardRepository(pool)

	if pool != nil {
		if err := persistence.SeedDefaults(ctx, roleRepo, logger); err != nil {
			logger.Fatal("failed to seed roles", zap.Error(err))
		}
	}

	dispatcher := events.NewInMemoryDispatcher()
	runner := repository.NewWorkflowRunner(pool)
	engine := workflow.NewEngine(runner, nil, logger)

	accountService := service.NewAccountService(*cfg, service.AccountDependencies{
		UserRepo:          userRepo,
		RoleRepo:          roleRepo,
		PasswordResetRepo: resetRepo,
	})
	caseService := service.NewCaseService(service.CaseDependencies{
		CaseRepo:      caseRepo,
		HistoryRepo:   historyRepo,
		DirectoryRepo: directoryRepo,
		Engine:        engine,
		Dispatcher:    dispatcher,
	})
	evidenceService := service.NewEvidenceService(service.EvidenceDependencies{
		EvidenceRepo: evidenceRepo,
		CaseRepo:     caseRepo,
		Dispatcher:   dispatcher,
	})
	suspectService := service.NewSuspectService(service.SuspectDependencies{
		SuspectRepo:   suspectRepo,
		CaseRepo:      caseRepo,
		DirectoryRepo: directoryRepo,
	})
	rewardService := service.NewRewardService(service.RewardDependencies{
		RewardRepo: rewardRepo,
		Dispatcher: dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification, redis.Client)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(accountService.TokenManager(), userRepo, roleRepo)

	app := fiber.New()
	metrics := observability.NewMetrics()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(accountService),
		Cases:          handlers.NewCasesHandler(caseService),
		Evidences:      handlers.NewEvidencesHandler(evidenceService),
		Suspects:       handlers.NewSuspectsHandler(suspectService),
		Rewards:        handlers.NewRewardsHandler(rewardService),
		Stats:          handlers.NewStatsHandler(caseService, accountService),
		AuthMiddleware: authMiddleware,
		Directory:      directoryRepo,
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
