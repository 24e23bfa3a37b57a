package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/tecnico-console/internal/domain"
	"github.com/spec-kit/tecnico-console/internal/events"
	"github.com/spec-kit/tecnico-console/internal/observability"
	"github.com/spec-kit/tecnico-console/internal/persistence"
	"github.com/spec-kit/tecnico-console/internal/repository"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

var (
	// ErrAssignmentInFlight is returned when a confirmation is already outstanding.
	ErrAssignmentInFlight = apperrors.NewConflict("an assignment is already being confirmed", nil)
	// ErrTicketBusy is returned when another mutating step for the same ticket is outstanding.
	ErrTicketBusy = apperrors.NewConflict("another change to this ticket is still in flight", nil)
	// ErrSuperseded is returned when a dialog was closed or replaced before its response arrived.
	ErrSuperseded = errors.New("dialog superseded")
)

// ConsoleDependencies bundles the collaborators of a Console.
type ConsoleDependencies struct {
	Tickets     repository.TicketRepository
	Technicians repository.TechnicianRepository
	Sessions    repository.SessionRepository
	Counts      persistence.CountStore
	Dispatcher  events.Dispatcher
	Notifier    Notifier
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	// OnUnauthenticated is told when the helpdesk session is gone.
	OnUnauthenticated func(error)
}

// Console holds the working state of one technician session over one scope.
// Its methods are safe for concurrent use; no remote call is made while the
// state lock is held.
type Console struct {
	scope       domain.Scope
	tickets     repository.TicketRepository
	technicians repository.TechnicianRepository
	sessions    repository.SessionRepository
	counts      persistence.CountStore
	dispatcher  events.Dispatcher
	notifier    Notifier
	logger      *zap.Logger
	metrics     *observability.Metrics
	onUnauth    func(error)

	mu       sync.Mutex
	identity *domain.Identity
	roster   []domain.Technician

	cache         []domain.Ticket
	query         string
	loadedAt      time.Time
	reloadGen     uint64
	reloadApplied uint64

	dialogSeq    uint64
	detail       *detailDialog
	detailLoad   uint64
	detailLoadID int
	assignment   *assignmentDialog
	assigning    bool
	busyTickets  map[int]bool

	counters     map[domain.Scope]Counter
	countGen     uint64
	countApplied map[domain.Scope]uint64
}

// NewConsole creates a console for the given scope.
func NewConsole(deps ConsoleDependencies, scope domain.Scope) *Console {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	counts := deps.Counts
	if counts == nil {
		counts = persistence.NewMemoryCountStore()
	}
	return &Console{
		scope:        scope,
		tickets:      deps.Tickets,
		technicians:  deps.Technicians,
		sessions:     deps.Sessions,
		counts:       counts,
		dispatcher:   deps.Dispatcher,
		notifier:     deps.Notifier,
		logger:       logger,
		metrics:      deps.Metrics,
		onUnauth:     deps.OnUnauthenticated,
		busyTickets:  make(map[int]bool),
		counters:     make(map[domain.Scope]Counter),
		countApplied: make(map[domain.Scope]uint64),
	}
}

// Start loads the session identity, the technician roster, the last known
// counters, and then the ticket list and fresh counts.
func (c *Console) Start(ctx context.Context) error {
	identity, err := c.sessions.Identity(ctx)
	if err != nil {
		return c.raise(err, 0)
	}
	c.mu.Lock()
	c.identity = identity
	c.mu.Unlock()
	c.logger.Info("technician session loaded",
		zap.Int("technician_id", identity.ID),
		zap.String("username", identity.Username),
		zap.String("scope", string(c.scope)))

	roster, err := c.technicians.List(ctx)
	if err != nil {
		// Without a roster only solo claims are possible.
		c.logger.Warn("technician roster unavailable", zap.Error(err))
		c.raise(err, 0)
	} else {
		c.mu.Lock()
		c.roster = roster
		c.mu.Unlock()
	}

	c.restoreCounters(ctx, identity.ID)

	var g errgroup.Group
	g.Go(func() error { return c.Reload(ctx) })
	g.Go(func() error {
		_, _ = c.RefreshCounts(ctx)
		return nil
	})
	return g.Wait()
}

// Scope returns the fixed scope of the console.
func (c *Console) Scope() domain.Scope {
	return c.scope
}

// Identity returns the acting technician, or nil before Start.
func (c *Console) Identity() *domain.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return nil
	}
	identity := *c.identity
	return &identity
}

// Roster returns the technician roster loaded at start.
func (c *Console) Roster() []domain.Technician {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Technician(nil), c.roster...)
}

// refresh reloads the cache and the counters in parallel after a mutation.
// Failures are already surfaced as notifications.
func (c *Console) refresh(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error { return c.Reload(ctx) })
	g.Go(func() error {
		_, err := c.RefreshCounts(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		c.logger.Debug("post-mutation refresh incomplete", zap.Error(err))
	}
}

func (c *Console) notify(n Notification) {
	if c.notifier != nil {
		c.notifier.Notify(n)
	}
}

func (c *Console) success(message string, ticketID int) {
	c.notify(newNotification(LevelSuccess, message, ticketID))
}

// raise surfaces err as an error notification and returns it unchanged.
func (c *Console) raise(err error, ticketID int) error {
	if err == nil || errors.Is(err, ErrSuperseded) {
		return err
	}
	domainErr := apperrors.ToDomainError(err)
	n := newNotification(LevelError, domainErr.Message, ticketID)
	n.Code = domainErr.Code
	n.Step, _ = apperrors.FailedStep(err)
	c.notify(n)

	c.logger.Warn("console operation failed",
		zap.String("code", domainErr.Code),
		zap.String("step", n.Step),
		zap.Int("ticket_id", ticketID),
		zap.Error(err))

	if domainErr.Code == apperrors.CodeUnauthenticated && c.onUnauth != nil {
		c.onUnauth(err)
	}
	return err
}

func (c *Console) actor() events.Actor {
	c.mu.Lock()
	defer c.mu.Unlock()
	actor := events.Actor{Type: domain.SubjectTypeTechnician}
	if c.identity != nil {
		actor.ID = c.identity.ID
		actor.Username = c.identity.Username
	}
	return actor
}

func (c *Console) publish(ctx context.Context, eventType events.EventType, ticketID int, payload interface{}) {
	if c.dispatcher == nil {
		return
	}
	event := events.New(eventType, ticketID, c.actor(), payload)
	if err := c.dispatcher.Publish(ctx, event); err != nil {
		c.logger.Warn("activity handler failed",
			zap.String("event_type", string(eventType)),
			zap.Int("ticket_id", ticketID),
			zap.Error(err))
	}
}

// acquireTicket marks ticketID as having a mutating step in flight.
func (c *Console) acquireTicket(ticketID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busyTickets[ticketID] {
		return ErrTicketBusy
	}
	c.busyTickets[ticketID] = true
	return nil
}

func (c *Console) releaseTicket(ticketID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.busyTickets, ticketID)
}

func (c *Console) requireScope(scope domain.Scope, action string) error {
	if c.scope != scope {
		return apperrors.NewValidationError(action+" is only offered in scope "+string(scope), map[string]any{"scope": string(c.scope)})
	}
	return nil
}
