package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/tecnico-console/internal/api/http"
	"github.com/spec-kit/tecnico-console/internal/api/http/handlers"
	"github.com/spec-kit/tecnico-console/internal/auth"
	"github.com/spec-kit/tecnico-console/internal/service"
	"github.com/spec-kit/tecnico-console/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the console as a local JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := bootstrap(ctx, "", logToStdout)
		if err != nil {
			return err
		}
		defer a.close()
		cfg := a.cfg
		logger := a.logger

		tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
		authService := service.NewAuthService(cfg.Auth, tokens, a.console, logger)
		var authMiddleware *auth.AuthMiddleware
		if cfg.Auth.AuthEnabled() {
			authMiddleware = auth.NewAuthMiddleware(tokens)
		} else {
			logger.Warn("console API running without authentication")
		}

		app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
		httptransport.RegisterMiddlewares(app, logger, a.metrics, cfg.App.RequestTimeout())
		httptransport.RegisterRoutes(app, httptransport.RouteConfig{
			Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, a.redis, a.sessions),
			Auth:           handlers.NewAuthHandler(authService),
			Console:        handlers.NewConsoleHandler(a.console, a.inbox),
			Assignment:     handlers.NewAssignmentHandler(a.console),
			Resolution:     handlers.NewResolutionHandler(a.console, logger),
			AuthMiddleware: authMiddleware,
			Metrics:        a.metrics,
		})

		go worker.RunCounterRefresh(ctx, a.console, cfg.Counters.RefreshInterval(), logger)

		go func() {
			logger.Info("console API listening",
				zap.String("addr", cfg.App.Addr()),
				zap.String("scope", string(a.console.Scope())))
			if err := app.Listen(cfg.App.Addr()); err != nil {
				logger.Fatal("fiber listen", zap.Error(err))
			}
		}()

		waitForShutdown(logger)

		return app.Shutdown()
	},
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
