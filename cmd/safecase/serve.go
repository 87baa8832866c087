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

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/safecase-systems/safecase/internal/auth"
	"github.com/safecase-systems/safecase/internal/cache"
	"github.com/safecase-systems/safecase/internal/chat"
	"github.com/safecase-systems/safecase/internal/config"
	"github.com/safecase-systems/safecase/internal/events"
	"github.com/safecase-systems/safecase/internal/handlers"
	"github.com/safecase-systems/safecase/internal/llm"
	"github.com/safecase-systems/safecase/internal/logging"
	"github.com/safecase-systems/safecase/internal/middleware"
	"github.com/safecase-systems/safecase/internal/repository"
	"github.com/safecase-systems/safecase/internal/server"
	"github.com/safecase-systems/safecase/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the SafeCase API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)
	logger = logger.With(logging.Service("safecase"))

	connString := cfg.Database.Postgres.ConnString()

	if err := runMigrations(connString); err != nil {
		return err
	}
	logger.Info("database migrations completed")

	ctx := context.Background()
	repo, err := repository.NewPostgresRepository(ctx, connString)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer repo.Close()

	publisher, err := events.Connect(cfg.NATS, logger)
	if err != nil {
		return fmt.Errorf("connecting to nats: %w", err)
	}
	defer publisher.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parsing redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}
	statsCache := cache.NewStatsCache(redisClient, cfg.Redis.StatsTTL)

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("initializing llm client: %w", err)
	}
	logger.Info("chat relay ready",
		logging.Provider(llmClient.Provider()),
		logging.Model(llmClient.Model()))

	svc := service.New(repo, publisher, statsCache, logger)
	relay := chat.NewRelay(llmClient, cfg.LLM.PacingDelay, logger)
	handler := handlers.NewHandler(svc, relay, logger)

	router := server.NewRouter(server.RouterConfig{
		Handler:        handler,
		AuthMiddleware: auth.NewMiddleware(cfg.Auth.Secret, cfg.Auth.Issuer),
		CORS: middleware.CORSConfig{
			AllowedOrigins:   cfg.Server.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("safecase listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", logging.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func runMigrations(connString string) error {
	m, err := migrate.New("file://migrations", connString)
	if err != nil {
		return fmt.Errorf("initializing migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
