package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/spec-kit/tecnico-console/internal/domain"
	"github.com/spec-kit/tecnico-console/internal/service"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

// Console is the part of service.Console the terminal UI drives.
type Console interface {
	Scope() domain.Scope
	Identity() *domain.Identity
	Visible() []domain.Ticket
	SetQuery(query string) []domain.Ticket
	Counters() []service.Counter
	Reload(ctx context.Context) error
	RefreshCounts(ctx context.Context) ([]service.Counter, error)
	OpenDetail(ctx context.Context, id int) (*service.DetailView, error)
	Detail() (*service.DetailView, bool)
	CloseDetail()
	BeginAssignment(ticketID int) (service.AssignmentState, error)
	Assignment() service.AssignmentState
	ChooseMode(mode service.AssignmentMode) (service.AssignmentState, error)
	ToggleCoAssignee(id int) (service.AssignmentState, error)
	CancelAssignment()
	ConfirmAssignment(ctx context.Context) (service.AssignmentResult, error)
	ChangeState(ctx context.Context, req service.StateChange) (service.StateChangeResult, error)
}

// Notifications yields the messages raised since the last call.
type Notifications interface {
	Drain() []service.Notification
}

type focus int

const (
	focusList focus = iota
	focusFilter
	focusDetail
	focusAssign
	focusState
)

type stateField int

const (
	fieldTarget stateField = iota
	fieldNote
	fieldEvidence
	fieldCount
)

type stateDialog struct {
	ticketID   int
	target     int
	field      stateField
	note       textinput.Model
	evidence   textinput.Model
	submitting bool
}

// Model is the bubbletea model of the technician console.
type Model struct {
	ctx     context.Context
	console Console
	inbox   Notifications
	keys    KeyMap
	theme   Theme

	focus    focus
	tickets  []domain.Ticket
	counters []service.Counter
	cursor   int
	filter   textinput.Model
	loading  bool

	detail *service.DetailView

	assign       service.AssignmentState
	assignCursor int
	confirming   bool

	state stateDialog

	toast *service.Notification
	width int
}

// NewModel builds the model over a started console.
func NewModel(ctx context.Context, console Console, inbox Notifications) Model {
	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "subject, requester or area"

	model := Model{
		ctx:     ctx,
		console: console,
		inbox:   inbox,
		keys:    DefaultKeyMap,
		theme:   DefaultTheme,
		filter:  filter,
	}
	model.sync()
	return model
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model. Keys are routed by the focused region; remote
// results arrive as messages from the commands started here.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		return model, nil

	case tea.KeyMsg:
		switch model.focus {
		case focusFilter:
			return model.handleFilterKeys(message)
		case focusAssign:
			return model.handleAssignKeys(message)
		case focusState:
			return model.handleStateKeys(message)
		case focusList, focusDetail:
		}
		return model.handleBrowseKeys(message)

	case refreshedMsg:
		model.loading = false
		model.sync()
		model.report(message.err)

	case detailLoadedMsg:
		model.loading = false
		if message.err == nil {
			model.detail = message.view
			model.focus = focusDetail
		}
		model.report(message.err)

	case assignmentDoneMsg:
		model.confirming = false
		model.assign = model.console.Assignment()
		if model.assign.Phase == service.PhaseClosed {
			model.leaveDialog()
		}
		model.sync()
		model.report(message.err)

	case stateChangedMsg:
		model.state.submitting = false
		if message.err == nil {
			model.leaveDialog()
		}
		model.sync()
		model.report(message.err)
	}
	return model, nil
}

// sync copies the console's list and counters into the model.
func (model *Model) sync() {
	model.tickets = model.console.Visible()
	model.counters = model.console.Counters()
	if model.cursor >= len(model.tickets) {
		model.cursor = len(model.tickets) - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
}

// report shows the newest inbox entry, or err when nothing was raised for it.
func (model *Model) report(err error) {
	var latest *service.Notification
	if model.inbox != nil {
		if drained := model.inbox.Drain(); len(drained) > 0 {
			latest = &drained[len(drained)-1]
		}
	}
	if latest == nil && err != nil && !errors.Is(err, service.ErrSuperseded) {
		latest = &service.Notification{
			Level:   service.LevelError,
			Message: err.Error(),
			Code:    apperrors.KindOf(err),
		}
	}
	if latest != nil {
		model.toast = latest
	}
}

// leaveDialog returns to the detail if the console still has one open.
func (model *Model) leaveDialog() {
	model.detail = nil
	model.focus = focusList
	if open, ok := model.console.Detail(); ok {
		model.detail = open
		model.focus = focusDetail
	}
}

func (model Model) selectedID() (int, bool) {
	if model.focus == focusDetail && model.detail != nil {
		return model.detail.ID, true
	}
	if model.cursor < len(model.tickets) {
		return model.tickets[model.cursor].ID, true
	}
	return 0, false
}

func (model Model) handleBrowseKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.Up):
		if model.focus == focusList && model.cursor > 0 {
			model.cursor--
		}

	case key.Matches(message, model.keys.Down):
		if model.focus == focusList && model.cursor < len(model.tickets)-1 {
			model.cursor++
		}

	case key.Matches(message, model.keys.Filter):
		model.focus = focusFilter
		cmd := model.filter.Focus()
		return model, cmd

	case key.Matches(message, model.keys.Open):
		if model.focus != focusList {
			break
		}
		if id, ok := model.selectedID(); ok {
			model.loading = true
			return model, openDetailCmd(model.ctx, model.console, id)
		}

	case key.Matches(message, model.keys.Back):
		if model.focus == focusDetail {
			model.console.CloseDetail()
			model.detail = nil
			model.focus = focusList
		}

	case key.Matches(message, model.keys.Reload):
		model.loading = true
		return model, refreshCmd(model.ctx, model.console)

	case key.Matches(message, model.keys.Assign):
		id, ok := model.selectedID()
		if !ok {
			break
		}
		state, err := model.console.BeginAssignment(id)
		if err != nil {
			model.report(err)
			break
		}
		model.assign = state
		model.assignCursor = 0
		model.focus = focusAssign

	case key.Matches(message, model.keys.ChangeState):
		id, ok := model.selectedID()
		if !ok {
			break
		}
		if model.console.Scope() != domain.ScopeAssigned {
			model.report(apperrors.NewValidationError("state changes apply to assigned tickets", nil))
			break
		}
		model.openStateDialog(id)
		cmd := model.state.note.Focus()
		return model, cmd
	}
	return model, nil
}

func (model Model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEsc:
		model.filter.SetValue("")
		model.filter.Blur()
		model.console.SetQuery("")
		model.focus = focusList
		model.sync()
		return model, nil
	case tea.KeyEnter:
		model.filter.Blur()
		model.focus = focusList
		return model, nil
	}
	var cmd tea.Cmd
	model.filter, cmd = model.filter.Update(message)
	model.console.SetQuery(model.filter.Value())
	model.sync()
	return model, cmd
}

func (model Model) handleAssignKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	var (
		state service.AssignmentState
		err   error
	)
	switch {
	case key.Matches(message, model.keys.Confirm):
		if model.confirming {
			return model, nil
		}
		model.confirming = true
		model.assign.Phase = service.PhaseConfirming
		return model, confirmAssignmentCmd(model.ctx, model.console)

	case model.confirming:
		return model, nil

	case key.Matches(message, model.keys.Back):
		model.console.CancelAssignment()
		model.assign = service.AssignmentState{Phase: service.PhaseClosed}
		model.leaveDialog()
		return model, nil

	case key.Matches(message, model.keys.Solo):
		state, err = model.console.ChooseMode(service.ModeSolo)

	case key.Matches(message, model.keys.Team):
		state, err = model.console.ChooseMode(service.ModeTeam)

	case key.Matches(message, model.keys.Up):
		if model.assignCursor > 0 {
			model.assignCursor--
		}
		return model, nil

	case key.Matches(message, model.keys.Down):
		if model.assignCursor < len(model.assign.Candidates)-1 {
			model.assignCursor++
		}
		return model, nil

	case key.Matches(message, model.keys.Toggle):
		if model.assignCursor >= len(model.assign.Candidates) {
			return model, nil
		}
		state, err = model.console.ToggleCoAssignee(model.assign.Candidates[model.assignCursor].ID)

	default:
		return model, nil
	}
	if err != nil {
		model.report(err)
		return model, nil
	}
	model.assign = state
	return model, nil
}

func (model *Model) openStateDialog(id int) {
	note := textinput.New()
	note.Prompt = "note: "
	note.Placeholder = "justification (required to resolve)"
	note.CharLimit = 1000
	evidence := textinput.New()
	evidence.Prompt = "evidence: "
	evidence.Placeholder = "image paths, comma separated (max 3)"
	evidence.CharLimit = 2000
	model.state = stateDialog{
		ticketID: id,
		field:    fieldNote,
		note:     note,
		evidence: evidence,
	}
	model.focus = focusState
}

func (model Model) stateTarget() domain.TicketState {
	targets := domain.TargetStates()
	return targets[model.state.target%len(targets)]
}

func (model Model) handleStateKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Back):
		model.state = stateDialog{}
		model.leaveDialog()
		return model, nil

	case key.Matches(message, model.keys.Confirm):
		if model.state.submitting {
			return model, nil
		}
		model.state.submitting = true
		req := service.StateChange{
			TicketID: model.state.ticketID,
			Target:   model.stateTarget(),
			Note:     model.state.note.Value(),
		}
		return model, changeStateCmd(model.ctx, model.console, req, splitPaths(model.state.evidence.Value()))

	case model.state.submitting:
		return model, nil

	case key.Matches(message, model.keys.NextField):
		model.state.field = (model.state.field + 1) % fieldCount
		model.state.note.Blur()
		model.state.evidence.Blur()
		var cmd tea.Cmd
		switch model.state.field {
		case fieldNote:
			cmd = model.state.note.Focus()
		case fieldEvidence:
			cmd = model.state.evidence.Focus()
		case fieldTarget, fieldCount:
		}
		return model, cmd
	}

	var cmd tea.Cmd
	switch model.state.field {
	case fieldTarget:
		n := len(domain.TargetStates())
		switch {
		case key.Matches(message, model.keys.NextTarget):
			model.state.target = (model.state.target + 1) % n
		case key.Matches(message, model.keys.PrevTarget):
			model.state.target = (model.state.target + n - 1) % n
		}
	case fieldNote:
		model.state.note, cmd = model.state.note.Update(message)
	case fieldEvidence:
		model.state.evidence, cmd = model.state.evidence.Update(message)
	case fieldCount:
	}
	return model, cmd
}
