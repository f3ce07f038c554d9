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

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/travel-planner/internal/config"
	"github.com/iliyamo/travel-planner/internal/database"
	"github.com/iliyamo/travel-planner/internal/enrich"
	"github.com/iliyamo/travel-planner/internal/handler"
	"github.com/iliyamo/travel-planner/internal/logging"
	"github.com/iliyamo/travel-planner/internal/middleware"
	"github.com/iliyamo/travel-planner/internal/queue"
	"github.com/iliyamo/travel-planner/internal/repository"
	"github.com/iliyamo/travel-planner/internal/router"
	"github.com/iliyamo/travel-planner/internal/service"
	"github.com/iliyamo/travel-planner/internal/storage"
	"github.com/iliyamo/travel-planner/internal/validation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rdb := config.NewRedisClient(ctx, cfg.Redis)
	if rdb == nil {
		logger.Warn(ctx, "redis unavailable, response cache and rate limiting disabled", "addr", cfg.Redis.Addr)
	} else {
		defer rdb.Close()
	}

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.Events.RabbitURL != "" {
		events = queue.NewAMQPPublisher(cfg.Events.RabbitURL, logger)
	}

	var avatars handler.Avatars
	if cfg.Avatars.Enabled() {
		store, err := storage.NewAvatarStore(ctx, cfg.Avatars)
		if err != nil {
			return err
		}
		avatars = store
	}

	v := validation.New()
	accountRepo := repository.NewAccountRepo(db)
	authSvc := service.NewAuthService(accountRepo, service.AuthConfig{
		Secret:     cfg.JWTSecret,
		TTL:        cfg.JWTTTL,
		BcryptCost: cfg.BcryptCost,
	}, events, v)
	accountSvc := service.NewAccountService(accountRepo, events, v)
	tripSvc := service.NewTripService(repository.NewTripRepo(db), events, v)

	guards := router.Guards{
		Auth:    authSvc,
		Cache:   middleware.NewResponseCache(cfg.Cache, rdb),
		Limiter: middleware.NewRateLimiter(cfg.RateLimit, rdb, logger),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = v
	e.HTTPErrorHandler = handler.ErrorHandler(logger, cfg.Env != "production")
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			args := []any{"method", v.Method, "uri", v.URI, "status", v.Status,
				"latency", v.Latency.String(), "request_id", v.RequestID}
			if v.Error != nil {
				args = append(args, "error", v.Error)
			}
			logger.Info(c.Request().Context(), "request", args...)
			return nil
		},
	}))
	e.Use(echomw.CORS())
	e.Use(echomw.BodyLimit("1M"))

	router.RegisterHealth(e, handler.Health(db))
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), guards)
	router.RegisterTrips(e, handler.NewTripHandler(tripSvc, enrich.New(cfg.Enrich, logger), guards.Cache, logger), guards)
	router.RegisterUsers(e, handler.NewAccountHandler(accountSvc, authSvc, avatars, logger), guards, avatars != nil)

	var consumerDone <-chan struct{}
	if cfg.Events.ConsumerEnabled && cfg.Events.RabbitURL != "" {
		consumerDone = queue.StartAuditConsumer(ctx, cfg.Events.RabbitURL, cfg.Events.AuditLogPath, logger)
	}

	srvErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info(ctx, "listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case err := <-srvErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	stop()
	if consumerDone != nil {
		<-consumerDone
	}
	return nil
}
