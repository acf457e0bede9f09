package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spdeepak/crm-session-guard/api"
	"github.com/spdeepak/crm-session-guard/config"
	"github.com/spdeepak/crm-session-guard/internal/backend"
	"github.com/spdeepak/crm-session-guard/internal/claims"
	"github.com/spdeepak/crm-session-guard/internal/guard"
	"github.com/spdeepak/crm-session-guard/internal/logging"
	"github.com/spdeepak/crm-session-guard/internal/session"
)

func main() {
	logging.Setup()
	zerolog.DefaultContextLogger = &log.Logger
	cfg := config.NewConfiguration()

	policy, err := guard.ParsePolicy(cfg.Permissions.Unconfigured)
	if err != nil {
		slog.Error("Invalid permission policy", slog.Any("error", err))
		os.Exit(1)
	}
	permissions := guard.NewPermissions(cfg.PermissionTable(), policy)
	cfg.Watch(func(updated *config.AppConfig) {
		updatedPolicy, err := guard.ParsePolicy(updated.Permissions.Unconfigured)
		if err != nil {
			slog.Error("Ignoring reloaded permissions", slog.Any("error", err))
			return
		}
		permissions.Replace(updated.PermissionTable(), updatedPolicy)
		slog.Info("Permission table reloaded", slog.Int("routes", len(updated.Permissions.Routes)))
	})

	evaluator := guard.NewEvaluator(
		guard.NewRoutes(cfg.Routes.Login, cfg.Routes.Landing, cfg.Routes.Public),
		claims.NewInterpreter(cfg.Claims),
	)

	settings := Settings{
		Cookie: session.CookieConfig{
			Name:     cfg.Session.CookieName,
			Domain:   cfg.Session.CookieDomain,
			Insecure: cfg.Session.InsecureCookie,
		},
		PollInterval:     cfg.Session.PollInterval,
		ReminderInterval: cfg.Session.ReminderInterval,
	}

	var registry session.Registry
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = session.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Error("Failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		registry = session.RedisRegistry(redisClient)
		settings.Ready = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		slog.Warn("No redis address configured, watch sessions are kept in memory")
		registry = session.MemoryRegistry()
	}

	server := NewServer(backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout), evaluator, permissions, registry, settings)

	swagger, err := api.GetSwagger()
	if err != nil {
		slog.Error("Error loading openapi document", slog.Any("error", err))
		os.Exit(1)
	}
	swagger.Servers = nil

	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(server, swagger)

	// Cancelled on shutdown so open watch streams end instead of holding Shutdown.
	baseCtx, stopStreams := context.WithCancel(context.Background())
	defer stopStreams()
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	chanErrors := make(chan error, 1)
	go func() {
		slog.Info(fmt.Sprintf("Starting server on %s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			chanErrors <- err
		}
	}()

	chanSignals := make(chan os.Signal, 1)
	signal.Notify(chanSignals, os.Interrupt, syscall.SIGTERM)

	select {
	case err = <-chanErrors:
		slog.Error(fmt.Sprintf("Unable to run server. Error: %s", err))
		os.Exit(1)
	case s := <-chanSignals:
		slog.Warn(fmt.Sprintf("Warning: Received %s signal, aborting in 5 seconds...", s))
		stopStreams()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err = srv.Shutdown(ctx); err != nil {
			slog.Error(fmt.Sprintf("Server forced to shutdown. Error: %s", err))
			os.Exit(1)
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
		slog.Info("Server exiting gracefully")
	}
}
