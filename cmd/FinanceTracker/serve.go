package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sebuszqo/FinanceTracker/internal/auth"
	"github.com/sebuszqo/FinanceTracker/internal/config"
	database "github.com/sebuszqo/FinanceTracker/internal/db"
	"github.com/sebuszqo/FinanceTracker/internal/finance/application"
	"github.com/sebuszqo/FinanceTracker/internal/finance/infrastructure"
	"github.com/sebuszqo/FinanceTracker/internal/finance/interfaces"
	"github.com/sebuszqo/FinanceTracker/internal/logger"
	"github.com/sebuszqo/FinanceTracker/internal/metrics"
	"github.com/sebuszqo/FinanceTracker/internal/response"
	"github.com/sebuszqo/FinanceTracker/internal/server"
	"github.com/sebuszqo/FinanceTracker/internal/user"
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger.SetupDefault(os.Stdout, cfg.LogLevel)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply pending migrations on startup")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg config.Config) error {
	if !skipMigrations {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return err
		}
		slog.Info("database migrations applied")
	}

	dbService, err := database.NewDBService(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("could not initialize database: %w", err)
	}
	defer dbService.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		return err
	}
	verifier, err := auth.NewGoogleVerifier(ctx, cfg.GoogleClientID, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		return err
	}
	if cfg.GoogleClientID == "" {
		slog.Warn("GOOGLE_CLIENT_ID is not set, google sign-in is disabled")
	}

	userRepo := user.NewUserRepository(dbService.DB)
	hasher := user.NewBcryptHasher(cfg.BcryptCost)
	userService := user.NewUserService(userRepo, hasher)
	authService := auth.NewAuthService(userRepo, hasher, tokens, verifier)

	categoryRepo := infrastructure.NewCategoryRepository(dbService.DB)
	transactionRepo := infrastructure.NewTransactionRepository(dbService.DB)
	categoryService := application.NewCategoryService(categoryRepo)
	transactionService := application.NewTransactionService(transactionRepo, categoryService)

	recurrenceService := application.NewRecurrenceService(transactionRepo, collector)
	scheduler, err := application.StartRecurrenceScheduler(ctx, cfg.RecurrenceSchedule, recurrenceService)
	if err != nil {
		return fmt.Errorf("recurrence scheduler didn't start: %w", err)
	}
	defer func() { <-scheduler.Stop().Done() }()

	rateLimiter := server.NewRateLimiter(
		server.PerMinute(cfg.AuthRateLimitPerMinute, cfg.AuthRateLimitBurst), collector, response.Error)
	defer rateLimiter.Stop()

	router := server.NewRouter(&server.RouterDeps{
		Logger:             slog.Default(),
		Metrics:            collector,
		Gatherer:           reg,
		Health:             dbService,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        rateLimiter,
		AuthHandler:        auth.NewHandler(authService, collector, response.JSON, response.Error),
		UserHandler:        user.NewHandler(userService, collector, response.JSON, response.Error),
		CategoryHandler:    interfaces.NewCategoryHandler(categoryService, response.JSON, response.Error),
		TransactionHandler: interfaces.NewTransactionHandler(transactionService, response.JSON, response.Error),
	})

	return server.New(cfg.Port, router).Run(ctx)
}
