package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hearth/internal/budget"
	"hearth/internal/config"
	"hearth/internal/database"
	"hearth/internal/lock"
	"hearth/internal/logger"
	"hearth/internal/metrics"
	"hearth/internal/router"
	"hearth/internal/services"
	"hearth/internal/validator"

	"github.com/gin-gonic/gin"
)

// @title           Hearth API
// @version         1.0
// @description     Hearth is a household budgeting service: monthly budgets, category allocations and spending actuals.

// @host      localhost:8080
// @BasePath  /api/v1

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.Register()

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	policy, err := budget.PolicyFor(appConfig.BudgetClosePolicy, appConfig.BudgetCloseGrace)
	if err != nil {
		return fmt.Errorf("invalid budget close policy: %w", err)
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if appConfig.RedisURL != "" {
		client, err := lock.NewRedisClient(appConfig.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := client.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("failed to reach redis: %w", err)
		}
		locker = lock.NewRedisLocker(client, appConfig.LockTTL)
		log.Infow("using redis budget locks", "ttl", appConfig.LockTTL)
	}

	engine := router.New(router.Options{
		DB:              dbManager.DB(),
		DefaultCurrency: appConfig.DefaultCurrency,
		PipelineAPIKey:  appConfig.PipelineAPIKey,
		Metrics:         metrics.NewRegistry(),
		Budget: services.BudgetOptions{
			Locker:   locker,
			Policy:   policy,
			Lookback: appConfig.EstimatorLookbackMonths,
		},
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Hearth server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
