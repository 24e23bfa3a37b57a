package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tecnico-console/internal/domain"
)

// ApplyFilter keeps the tickets whose subject or requester name contains
// query, case-insensitively. An empty query returns tickets as given.
func ApplyFilter(tickets []domain.Ticket, query string) []domain.Ticket {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return tickets
	}
	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if strings.Contains(strings.ToLower(t.Subject), q) || strings.Contains(strings.ToLower(t.RequesterName), q) {
			out = append(out, t)
		}
	}
	return out
}

// Reload replaces the cache with the helpdesk's current list for the
// console's scope. On failure the previous cache stays in place.
func (c *Console) Reload(ctx context.Context) error {
	c.mu.Lock()
	c.reloadGen++
	gen := c.reloadGen
	c.mu.Unlock()

	tickets, err := c.tickets.List(ctx, c.scope)
	if err != nil {
		return c.raise(err, 0)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen < c.reloadApplied {
		c.logger.Debug("discarding stale ticket list", zap.Uint64("generation", gen))
		return nil
	}
	c.reloadApplied = gen
	c.cache = tickets
	c.loadedAt = time.Now().UTC()
	return nil
}

// SetQuery stores the filter text and returns the visible list.
func (c *Console) SetQuery(query string) []domain.Ticket {
	c.mu.Lock()
	c.query = query
	c.mu.Unlock()
	return c.Visible()
}

// Query returns the current filter text.
func (c *Console) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Visible returns the filtered view of the cache.
func (c *Console) Visible() []domain.Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ApplyFilter(append([]domain.Ticket(nil), c.cache...), c.query)
}

// Tickets returns the unfiltered cache and when it was loaded.
func (c *Console) Tickets() ([]domain.Ticket, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Ticket(nil), c.cache...), c.loadedAt
}

func (c *Console) cachedTicket(id int) (domain.Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.cache {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Ticket{}, false
}
