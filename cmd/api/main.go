package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	ledgerUseCase "github.com/atelier-ko/commission-core/internal/domain/usecase/ledger"
	queueUseCase "github.com/atelier-ko/commission-core/internal/domain/usecase/queue"
	submissionUseCase "github.com/atelier-ko/commission-core/internal/domain/usecase/submission"
	voteUseCase "github.com/atelier-ko/commission-core/internal/domain/usecase/vote"

	"github.com/atelier-ko/commission-core/internal/infrastructure/adapter/api/handler"
	"github.com/atelier-ko/commission-core/internal/infrastructure/adapter/api/routes"
	"github.com/atelier-ko/commission-core/internal/infrastructure/adapter/database"
	"github.com/atelier-ko/commission-core/internal/infrastructure/adapter/logger"
	timeProvider "github.com/atelier-ko/commission-core/internal/infrastructure/adapter/time"
	"github.com/atelier-ko/commission-core/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(cfg.Environment == config.Production)
	defer func() { _ = appLogger.Flush() }()

	dbConfig := &database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            database.ParsePort(cfg.Database.Port),
		Username:        cfg.Database.Username,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		QueryTimeout:    cfg.Database.QueryTimeout,
		LogLevel:        cfg.Logger.Level,
		RetryAttempts:   cfg.Database.RetryAttempts,
		RetryDelay:      int(cfg.Database.RetryDelay.Seconds()),
	}

	tp := timeProvider.NewRealTimeProvider()

	dbManager := database.NewManager(dbConfig, appLogger, tp)
	if _, err := dbManager.Connect(); err != nil {
		appLogger.Error("Failed to connect to database", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer func() { _ = dbManager.Close() }()

	if err := dbManager.Migrate(); err != nil {
		appLogger.Error("Failed to run migrations", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	uow := dbManager.CreateUnitOfWork()
	policies := entity.DefaultPolicyTable()

	ledgerService := ledgerUseCase.NewService(uow, policies, tp, appLogger, cfg.Ledger.MaxRetries)
	scheduler := queueUseCase.NewScheduler(uow, tp, appLogger, cfg.Queue.AvgCompletionDays)
	submissionService := submissionUseCase.NewService(uow, ledgerService, scheduler, policies, tp, appLogger, cfg.Ledger.MaxRetries)
	voteService := voteUseCase.NewService(uow, scheduler, tp, appLogger, cfg.Voting.MonthlyVotes, cfg.Ledger.MaxRetries)

	submissionHandler := handler.NewSubmissionHandler(submissionService, appLogger)
	voteHandler := handler.NewVoteHandler(voteService, appLogger)
	queueHandler := handler.NewQueueHandler(scheduler, appLogger)
	creditHandler := handler.NewCreditHandler(ledgerService, appLogger)

	router := gin.New()
	routes.SetupMiddlewares(router, appLogger)
	routes.SetupRoutes(router, submissionHandler, voteHandler, queueHandler, creditHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		appLogger.Info("Starting server", map[string]any{
			"port": cfg.Server.Port,
			"env":  cfg.Environment,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Failed to start server", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	appLogger.Info("Server exited gracefully", nil)
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missing []string

	if cfg.Server.Port == 0 {
		missing = append(missing, "server.port")
	}
	if cfg.Database.Host == "" {
		missing = append(missing, "database.host")
	}
	if cfg.Database.Username == "" {
		missing = append(missing, "database.username")
	}
	if cfg.Database.Password == "" {
		missing = append(missing, "database.password")
	}
	if cfg.Database.Database == "" {
		missing = append(missing, "database.database")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
