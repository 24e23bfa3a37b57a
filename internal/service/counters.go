package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/tecnico-console/internal/domain"
	"github.com/spec-kit/tecnico-console/internal/persistence"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

// Counter is the displayed ticket count of one scope.
type Counter struct {
	Scope domain.Scope `json:"scope"`
	Count int          `json:"count"`
	// Known is false until a count has ever been obtained.
	Known bool `json:"known"`
	// Stale marks a count that the latest refresh could not confirm.
	Stale     bool      `json:"stale"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Counters returns the counters in display order.
func (c *Console) Counters() []Counter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countersLocked()
}

func (c *Console) countersLocked() []Counter {
	out := make([]Counter, 0, len(domain.Scopes()))
	for _, scope := range domain.Scopes() {
		counter, ok := c.counters[scope]
		if !ok {
			counter = Counter{Scope: scope}
		}
		out = append(out, counter)
	}
	return out
}

// RefreshCounts lists every scope concurrently and updates each counter on
// its own. A scope that fails keeps its previous count, flagged stale. A
// refresh that finishes after a newer one has already applied a scope
// leaves that scope alone. The returned error joins the per-scope failures.
func (c *Console) RefreshCounts(ctx context.Context) ([]Counter, error) {
	c.mu.Lock()
	c.countGen++
	gen := c.countGen
	technicianID := 0
	if c.identity != nil {
		technicianID = c.identity.ID
	}
	c.mu.Unlock()

	var (
		g        errgroup.Group
		failedMu sync.Mutex
		failed   []string
		errs     []error
	)
	for _, scope := range domain.Scopes() {
		g.Go(func() error {
			tickets, err := c.tickets.List(ctx, scope)
			if err != nil {
				c.applyCountFailure(gen, scope, err)
				failedMu.Lock()
				failed = append(failed, string(scope))
				errs = append(errs, fmt.Errorf("%s: %w", scope, err))
				failedMu.Unlock()
				return nil
			}
			if snap, applied := c.applyCount(gen, scope, len(tickets)); applied {
				if err := c.counts.Save(ctx, technicianID, snap); err != nil {
					c.logger.Warn("unable to store counter snapshot", zap.String("scope", string(scope)), zap.Error(err))
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	if err != nil {
		domainErr := apperrors.ToDomainError(errs[0])
		n := newNotification(LevelError, "Counts unavailable for "+strings.Join(failed, ", ")+": "+domainErr.Message, 0)
		n.Code = domainErr.Code
		c.notify(n)
		if domainErr.Code == apperrors.CodeUnauthenticated && c.onUnauth != nil {
			c.onUnauth(errs[0])
		}
	}
	return c.Counters(), err
}

func (c *Console) applyCount(gen uint64, scope domain.Scope, count int) (persistence.CountSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen < c.countApplied[scope] {
		return persistence.CountSnapshot{}, false
	}
	c.countApplied[scope] = gen
	now := time.Now().UTC()
	c.counters[scope] = Counter{Scope: scope, Count: count, Known: true, UpdatedAt: now}
	c.metrics.SetScopeCount(string(scope), count)
	return persistence.CountSnapshot{Scope: scope, Count: count, UpdatedAt: now}, true
}

func (c *Console) applyCountFailure(gen uint64, scope domain.Scope, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen < c.countApplied[scope] {
		return
	}
	c.countApplied[scope] = gen
	counter := c.counters[scope]
	counter.Scope = scope
	counter.Stale = true
	counter.Error = apperrors.KindOf(err)
	c.counters[scope] = counter
}

// restoreCounters shows the last stored counts, flagged stale until refreshed.
func (c *Console) restoreCounters(ctx context.Context, technicianID int) {
	stored, err := c.counts.Load(ctx, technicianID)
	if err != nil {
		c.logger.Warn("unable to load counter snapshots", zap.Error(err))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for scope, snap := range stored {
		if _, ok := c.counters[scope]; ok {
			continue
		}
		c.counters[scope] = Counter{
			Scope:     scope,
			Count:     snap.Count,
			Known:     true,
			Stale:     true,
			UpdatedAt: snap.UpdatedAt,
		}
	}
}
