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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"task-tracker/backend/config"
	"task-tracker/backend/handlers"
	"task-tracker/backend/logging"
	"task-tracker/backend/middleware"
	"task-tracker/backend/services"
	"task-tracker/backend/telemetry"
	"task-tracker/backend/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting task tracker...")
	if cfg.JWT.Secret == "" {
		return errors.New("JWT_SECRET must be set to serve the API")
	}

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry, cfg.Log.SystemName, Version, nil)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logging.Logger.Warnf("Event ID: TELEMETRY_SHUTDOWN_FAILED, Description: %v", err)
		}
	}()

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	var blackList map[string]bool
	if cfg.PasswordBlacklist != "" {
		if blackList, err = utils.LoadBlackList(cfg.PasswordBlacklist); err != nil {
			return fmt.Errorf("load password blacklist: %w", err)
		}
		logging.Logger.Infof("Event ID: BLACKLIST_LOADED, Description: Loaded %d blacklisted passwords", len(blackList))
	}

	var notifier services.Notifier = services.NopNotifier{}
	if cfg.Notifications.URL != "" {
		notifier = services.NewHTTPNotifier(cfg.Notifications.URL, cfg.Notifications.Timeout)
		logging.Logger.Infof("Event ID: NOTIFIER_ENABLED, Description: Assignment notifications go to %s", cfg.Notifications.URL)
	}

	users := services.NewUserService(store, blackList)
	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	router := handlers.NewRouter(handlers.Deps{
		Auth:         services.NewAuthService(store, users, tokens),
		Users:        users,
		Projects:     services.NewProjectService(store),
		Tasks:        services.NewTaskService(store, notifier),
		Comments:     services.NewCommentService(store),
		Lookups:      services.NewLookupService(store),
		Health:       store,
		TokenLimiter: middleware.NewRateLimiter(cfg.RateLimit.TokenRPS, cfg.RateLimit.TokenBurst),
		CORSOrigin:   cfg.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Errorf("Event ID: SERVER_FATAL_ERROR, Description: Server failed: %v", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Logger.Info("Event ID: SERVER_SHUTDOWN, Description: Shutting down server...")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
