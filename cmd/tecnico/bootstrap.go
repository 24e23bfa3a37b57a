package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tecnico-console/internal/config"
	"github.com/spec-kit/tecnico-console/internal/domain"
	"github.com/spec-kit/tecnico-console/internal/events"
	"github.com/spec-kit/tecnico-console/internal/observability"
	"github.com/spec-kit/tecnico-console/internal/persistence"
	"github.com/spec-kit/tecnico-console/internal/repository"
	"github.com/spec-kit/tecnico-console/internal/service"
	"github.com/spec-kit/tecnico-console/internal/worker"
)

// countSnapshotTTL bounds how long an idle technician's counters are kept.
const countSnapshotTTL = 7 * 24 * time.Hour

type loggerKind int

const (
	logToStdout loggerKind = iota
	logToFile
)

// app is the dependency graph shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *observability.Metrics
	redis    *persistence.Redis
	sessions repository.SessionRepository
	console  *service.Console
	inbox    *service.Inbox
}

// resolveScope picks the --scope flag over the configured scope.
func resolveScope(cfg *config.Config) (domain.Scope, error) {
	if scopeFlag == "" {
		return cfg.Helpdesk.Scope, nil
	}
	scope, err := domain.ParseScope(scopeFlag)
	if err != nil {
		return "", fmt.Errorf("invalid --scope: %w", err)
	}
	return scope, nil
}

// bootstrap loads configuration, opens the helpdesk session and starts a
// console over scope. An empty scope uses --scope or CONSOLE_SCOPE.
func bootstrap(ctx context.Context, scope domain.Scope, logs loggerKind) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if scope == "" {
		if scope, err = resolveScope(cfg); err != nil {
			return nil, err
		}
	}

	var logger *zap.Logger
	if logs == logToFile {
		logger, err = observability.NewFileLogger(cfg.Logger)
	} else {
		logger, err = observability.NewLogger(cfg.Logger)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	metrics := observability.NewMetrics()
	client, err := repository.NewClient(cfg.Helpdesk, logger, metrics)
	if err != nil {
		return nil, err
	}
	sessions := repository.NewSessionRepository(client)
	if cfg.Helpdesk.Username != "" {
		if err := sessions.Login(ctx, cfg.Helpdesk.Username, cfg.Helpdesk.Password); err != nil {
			return nil, err
		}
		logger.Info("helpdesk login succeeded", zap.String("username", cfg.Helpdesk.Username))
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	var counts persistence.CountStore = persistence.NewMemoryCountStore()
	if redis != nil {
		counts = persistence.NewRedisCountStore(redis, countSnapshotTTL)
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartActivityWorker(service.NewActivityService(dispatcher, logger, cfg.Activity))

	inbox := service.NewInbox(service.DefaultInboxSize)
	console := service.NewConsole(service.ConsoleDependencies{
		Tickets:     repository.NewTicketRepository(client),
		Technicians: repository.NewTechnicianRepository(client),
		Sessions:    sessions,
		Counts:      counts,
		Dispatcher:  dispatcher,
		Notifier:    inbox,
		Logger:      logger,
		Metrics:     metrics,
		OnUnauthenticated: func(err error) {
			logger.Warn("helpdesk session rejected; log in again", zap.Error(err))
		},
	}, scope)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		redis:    redis,
		sessions: sessions,
		console:  console,
		inbox:    inbox,
	}
	if err := console.Start(ctx); err != nil {
		// Without an identity nothing works; a failed first list is retried by reload.
		if console.Identity() == nil {
			a.close()
			return nil, err
		}
		logger.Warn("initial ticket load failed", zap.Error(err))
	}
	return a, nil
}

func (a *app) close() {
	a.redis.Close()
	_ = a.logger.Sync()
}
