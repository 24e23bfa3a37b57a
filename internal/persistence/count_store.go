package persistence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/tecnico-console/internal/domain"
)

// CountSnapshot is the last known ticket count of one scope.
type CountSnapshot struct {
	Scope     domain.Scope `json:"scope"`
	Count     int          `json:"count"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// CountStore keeps counter snapshots per technician across console restarts.
type CountStore interface {
	Load(ctx context.Context, technicianID int) (map[domain.Scope]CountSnapshot, error)
	Save(ctx context.Context, technicianID int, snapshot CountSnapshot) error
}

type memoryCountStore struct {
	mu   sync.RWMutex
	data map[int]map[domain.Scope]CountSnapshot
}

// NewMemoryCountStore keeps snapshots for the life of the process.
func NewMemoryCountStore() CountStore {
	return &memoryCountStore{data: make(map[int]map[domain.Scope]CountSnapshot)}
}

func (s *memoryCountStore) Load(_ context.Context, technicianID int) (map[domain.Scope]CountSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.Scope]CountSnapshot, len(s.data[technicianID]))
	for scope, snap := range s.data[technicianID] {
		out[scope] = snap
	}
	return out, nil
}

func (s *memoryCountStore) Save(_ context.Context, technicianID int, snapshot CountSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[technicianID] == nil {
		s.data[technicianID] = make(map[domain.Scope]CountSnapshot)
	}
	s.data[technicianID][snapshot.Scope] = snapshot
	return nil
}

type redisCountStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCountStore stores one hash per technician, one field per scope.
func NewRedisCountStore(r *Redis, ttl time.Duration) CountStore {
	return &redisCountStore{client: r.Client, ttl: ttl}
}

func countKey(technicianID int) string {
	return Key("counts", technicianID)
}

func (s *redisCountStore) Load(ctx context.Context, technicianID int) (map[domain.Scope]CountSnapshot, error) {
	fields, err := s.client.HGetAll(ctx, countKey(technicianID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Scope]CountSnapshot, len(fields))
	for field, raw := range fields {
		scope, err := domain.ParseScope(field)
		if err != nil {
			continue
		}
		var snap CountSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			continue
		}
		snap.Scope = scope
		out[scope] = snap
	}
	return out, nil
}

func (s *redisCountStore) Save(ctx context.Context, technicianID int, snapshot CountSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	key := countKey(technicianID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, string(snapshot.Scope), payload)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}
