package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/tecnico-console/internal/config"
)

const (
	keyNamespace = "tecnico"
	dialTimeout  = 3 * time.Second
)

// Redis holds the optional snapshot store connection. Every key the console
// writes lives under the "tecnico:" namespace.
type Redis struct {
	Client *redis.Client
}

// NewRedis returns nil when no address is configured; counters then stay in
// memory. An unreachable server is only logged: snapshots are best effort and
// readiness reports the failure.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("counter snapshots unavailable", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("counter snapshots in redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}
	return &Redis{Client: client}
}

// Key joins parts under the console namespace, e.g. Key("counts", 7) is
// "tecnico:counts:7".
func Key(parts ...any) string {
	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, keyNamespace)
	for _, p := range parts {
		segments = append(segments, fmt.Sprint(p))
	}
	return strings.Join(segments, ":")
}

func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping is the readiness probe for the snapshot store.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
