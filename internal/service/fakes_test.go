package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tecnico-console/internal/domain"
	"github.com/spec-kit/tecnico-console/internal/events"
	"github.com/spec-kit/tecnico-console/internal/persistence"
	"github.com/spec-kit/tecnico-console/internal/repository"
)

// callLog records helpdesk calls in the order they were issued.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// mutations drops the read calls, whose interleaving is not deterministic.
func (l *callLog) mutations() []string {
	var out []string
	for _, c := range l.all() {
		if strings.HasPrefix(c, "list:") || strings.HasPrefix(c, "get:") ||
			strings.HasPrefix(c, "identity") || strings.HasPrefix(c, "roster") {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (l *callLog) count(prefix string) int {
	n := 0
	for _, c := range l.all() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// gate blocks one operation until released.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	select {
	case <-g.release:
	case <-ctx.Done():
	}
}

func (g *gate) awaitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("operation never started")
	}
}

type fakeTickets struct {
	log *callLog

	mu      sync.Mutex
	lists   map[domain.Scope][]domain.Ticket
	details map[int]*domain.TicketDetail
	errs    map[string]error
	gates   map[string]*gate
	// onSetState lets a test move tickets between scopes like the server would.
	onSetState func(id int, state domain.TicketState)
}

func newFakeTickets(log *callLog) *fakeTickets {
	return &fakeTickets{
		log:     log,
		lists:   make(map[domain.Scope][]domain.Ticket),
		details: make(map[int]*domain.TicketDetail),
		errs:    make(map[string]error),
		gates:   make(map[string]*gate),
	}
}

func (f *fakeTickets) failWith(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

func (f *fakeTickets) gateOn(op string) *gate {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := newGate()
	f.gates[op] = g
	return g
}

func (f *fakeTickets) setList(scope domain.Scope, tickets ...domain.Ticket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[scope] = tickets
}

func (f *fakeTickets) before(ctx context.Context, op string) error {
	f.mu.Lock()
	g := f.gates[op]
	err := f.errs[op]
	f.mu.Unlock()
	if g != nil {
		g.wait(ctx)
	}
	return err
}

func (f *fakeTickets) List(ctx context.Context, scope domain.Scope) ([]domain.Ticket, error) {
	f.log.add("list:%s", scope)
	if err := f.before(ctx, "list:"+string(scope)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Ticket(nil), f.lists[scope]...), nil
}

func (f *fakeTickets) Get(ctx context.Context, id int) (*domain.TicketDetail, error) {
	f.log.add("get:%d", id)
	if err := f.before(ctx, fmt.Sprintf("get:%d", id)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	detail, ok := f.details[id]
	if !ok {
		return nil, fmt.Errorf("fake has no detail for %d", id)
	}
	cp := *detail
	return &cp, nil
}

func (f *fakeTickets) Claim(ctx context.Context, id int) error {
	f.log.add("claim:%d", id)
	return f.before(ctx, "claim")
}

func (f *fakeTickets) AssignTeam(ctx context.Context, id int, ids []int) error {
	f.log.add("assign_team:%d:%v", id, ids)
	return f.before(ctx, "assign_team")
}

func (f *fakeTickets) SetState(ctx context.Context, id int, state domain.TicketState, note string) error {
	f.log.add("set_state:%d:%s:%s", id, state, note)
	if err := f.before(ctx, "set_state"); err != nil {
		return err
	}
	if f.onSetState != nil {
		f.onSetState(id, state)
	}
	return nil
}

func (f *fakeTickets) UploadEvidence(ctx context.Context, id int, files []domain.EvidenceFile) (repository.EvidenceReceipt, error) {
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.Name)
	}
	f.log.add("upload:%d:%s", id, strings.Join(names, ","))
	if err := f.before(ctx, "upload"); err != nil {
		return repository.EvidenceReceipt{}, err
	}
	return repository.EvidenceReceipt{Count: len(files)}, nil
}

func (f *fakeTickets) AddNote(ctx context.Context, id int, text string) error {
	f.log.add("note:%d:%s", id, text)
	return f.before(ctx, "note")
}

type fakeRoster struct {
	log    *callLog
	roster []domain.Technician
	err    error
}

func (f *fakeRoster) List(context.Context) ([]domain.Technician, error) {
	f.log.add("roster")
	return f.roster, f.err
}

type fakeSessions struct {
	log      *callLog
	identity *domain.Identity
	err      error
}

func (f *fakeSessions) Login(context.Context, string, string) error {
	f.log.add("login")
	return nil
}

func (f *fakeSessions) Identity(context.Context) (*domain.Identity, error) {
	f.log.add("identity")
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

var (
	ana  = domain.Technician{ID: 7, Username: "ana", Role: "TECNICO", Area: "Soporte"}
	luis = domain.Technician{ID: 8, Username: "luis", Role: "TECNICO", Area: "Soporte"}
	rosa = domain.Technician{ID: 9, Username: "rosa", Role: "TECNICO", Area: "Redes"}
)

type harness struct {
	console    *Console
	log        *callLog
	tickets    *fakeTickets
	roster     *fakeRoster
	sessions   *fakeSessions
	inbox      *Inbox
	store      persistence.CountStore
	dispatcher events.Dispatcher

	unauthMu sync.Mutex
	unauth   []error
}

func (h *harness) unauthenticated() int {
	h.unauthMu.Lock()
	defer h.unauthMu.Unlock()
	return len(h.unauth)
}

type harnessOption func(*harness)

func withRoster(techs ...domain.Technician) harnessOption {
	return func(h *harness) { h.roster.roster = techs }
}

func withStore(store persistence.CountStore) harnessOption {
	return func(h *harness) { h.store = store }
}

// newHarness builds a console for ana (id 7) without starting it.
func newHarness(t *testing.T, scope domain.Scope, opts ...harnessOption) *harness {
	t.Helper()
	log := &callLog{}
	h := &harness{
		log:        log,
		tickets:    newFakeTickets(log),
		roster:     &fakeRoster{log: log, roster: []domain.Technician{ana, luis, rosa}},
		sessions:   &fakeSessions{log: log, identity: &domain.Identity{ID: ana.ID, Username: ana.Username, Role: "TECNICO"}},
		inbox:      NewInbox(0),
		store:      persistence.NewMemoryCountStore(),
		dispatcher: events.NewInMemoryDispatcher(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.console = NewConsole(ConsoleDependencies{
		Tickets:     h.tickets,
		Technicians: h.roster,
		Sessions:    h.sessions,
		Counts:      h.store,
		Dispatcher:  h.dispatcher,
		Notifier:    h.inbox,
		OnUnauthenticated: func(err error) {
			h.unauthMu.Lock()
			h.unauth = append(h.unauth, err)
			h.unauthMu.Unlock()
		},
	}, scope)
	return h
}

// started builds a console and runs Start against the fakes.
func started(t *testing.T, scope domain.Scope, opts ...harnessOption) *harness {
	t.Helper()
	h := newHarness(t, scope, opts...)
	require.NoError(t, h.console.Start(context.Background()))
	h.inbox.Drain()
	return h
}

func ticket(id int, subject, requester string, state domain.TicketState) domain.Ticket {
	return domain.Ticket{ID: id, Subject: subject, RequesterName: requester, State: state}
}

func ids(tickets []domain.Ticket) []int {
	out := make([]int, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ID)
	}
	return out
}

func levels(ns []Notification) []Level {
	out := make([]Level, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Level)
	}
	return out
}
