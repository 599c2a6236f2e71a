package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"commentfeed/internal/cache"
	"commentfeed/internal/config"
	"commentfeed/internal/database"
	"commentfeed/internal/events"
	"commentfeed/internal/realtime"
	"commentfeed/internal/repositories"
	"commentfeed/internal/response"
	"commentfeed/internal/router"
	"commentfeed/internal/services"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		panic("failed to load configuration: " + err.Error())
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	if cfg.IsDevelopment() {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.NewManager(&cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
		return err
	}

	// Cache
	cacheClient := cache.New(cfg.Cache.Provider, cfg.Cache.RedisURL, logger)
	defer cacheClient.Close()

	// Event bus
	bus := events.NewEventBus(events.DefaultEventBusConfig(), logger)
	if err := bus.Start(ctx); err != nil {
		return err
	}
	defer bus.Stop(context.Background())

	// Repositories
	commentRepo := repositories.NewCommentRepository(db, logger)
	userRepo := repositories.NewUserRepository(db, logger)

	// Services
	authService := services.NewAuthService(userRepo, logger, &services.AuthServiceConfig{
		JWTSecret:  cfg.Auth.JWTSecret,
		JWTExpiry:  cfg.Auth.JWTExpiry,
		BCryptCost: cfg.Auth.BCryptCost,
	})
	userService := services.NewUserService(userRepo, logger)
	commentService := services.NewCommentService(commentRepo, cacheClient, bus, logger, &services.CommentServiceConfig{
		CacheTTL: cfg.Cache.TTL,
	})

	// Real-time fan-out
	hub := realtime.NewHub(authService, logger)
	if err := hub.Subscribe(bus); err != nil {
		return err
	}
	go hub.Run(ctx)
	defer hub.Shutdown()

	// HTTP surface
	builder := response.NewBuilder(&response.Config{
		IncludeRequestID:   true,
		IncludeTimestamp:   true,
		PrettyJSON:         cfg.IsDevelopment(),
		MaskInternalErrors: !cfg.IsDevelopment(),
	}, logger)

	handler := router.New(&router.Dependencies{
		CommentService: commentService,
		AuthService:    authService,
		UserService:    userService,
		Hub:            hub,
		Builder:        builder,
		Logger:         logger,
		CORSOrigin:     cfg.Server.CORSOrigin,
		HealthCheck: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ReadTimeout)
			defer cancel()
			return db.Ping(pingCtx)
		},
	})

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", server.Addr),
			zap.String("environment", cfg.Server.Environment))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
