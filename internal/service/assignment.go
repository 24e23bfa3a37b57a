package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/tecnico-console/internal/domain"
	"github.com/spec-kit/tecnico-console/internal/events"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

// AssignmentMode is the claim variant chosen in the assignment dialog.
type AssignmentMode string

const (
	ModeSolo AssignmentMode = "solo"
	ModeTeam AssignmentMode = "team"
)

// ParseAssignmentMode accepts "solo" or "team".
func ParseAssignmentMode(raw string) (AssignmentMode, error) {
	switch AssignmentMode(raw) {
	case ModeSolo, ModeTeam:
		return AssignmentMode(raw), nil
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("unknown assignment mode %q", raw), map[string]any{"field": "mode"})
}

// AssignmentPhase is the position of the dialog in its state machine.
type AssignmentPhase string

const (
	PhaseClosed       AssignmentPhase = "closed"
	PhaseChoosingMode AssignmentPhase = "choosing_mode"
	PhaseSolo         AssignmentPhase = "solo"
	PhaseTeam         AssignmentPhase = "team"
	PhaseConfirming   AssignmentPhase = "confirming"
)

// AssignmentState is a snapshot of the assignment dialog.
type AssignmentState struct {
	Phase       AssignmentPhase     `json:"phase"`
	TicketID    int                 `json:"ticket_id,omitempty"`
	Mode        AssignmentMode      `json:"mode,omitempty"`
	TeamEnabled bool                `json:"team_enabled"`
	Candidates  []domain.Technician `json:"candidates"`
	Selected    []int               `json:"selected"`
}

// AssignmentResult reports which steps of a confirmation went through.
type AssignmentResult struct {
	TicketID     int   `json:"ticket_id"`
	Claimed      bool  `json:"claimed"`
	TeamAssigned []int `json:"team_assigned,omitempty"`
}

type assignmentDialog struct {
	seq        uint64
	ticketID   int
	mode       AssignmentMode
	chosen     bool
	candidates []domain.Technician
	selected   []int
	confirming bool
}

func (d *assignmentDialog) phase() AssignmentPhase {
	switch {
	case d.confirming:
		return PhaseConfirming
	case !d.chosen:
		return PhaseChoosingMode
	case d.mode == ModeTeam:
		return PhaseTeam
	default:
		return PhaseSolo
	}
}

func (d *assignmentDialog) isCandidate(id int) bool {
	for _, t := range d.candidates {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (d *assignmentDialog) snapshot() AssignmentState {
	return AssignmentState{
		Phase:       d.phase(),
		TicketID:    d.ticketID,
		Mode:        d.mode,
		TeamEnabled: len(d.candidates) > 0,
		Candidates:  append([]domain.Technician(nil), d.candidates...),
		Selected:    append([]int(nil), d.selected...),
	}
}

// TeamCandidates returns the roster without the acting technician.
func TeamCandidates(roster []domain.Technician, self *domain.Identity) []domain.Technician {
	out := make([]domain.Technician, 0, len(roster))
	for _, t := range roster {
		if self != nil && t.ID == self.ID {
			continue
		}
		out = append(out, t)
	}
	return out
}

// BeginAssignment opens the assignment dialog for a ticket of the available
// scope. The dialog starts in solo mode.
func (c *Console) BeginAssignment(ticketID int) (AssignmentState, error) {
	if err := c.requireScope(domain.ScopeAvailable, "claiming"); err != nil {
		return AssignmentState{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.assigning {
		return AssignmentState{}, ErrAssignmentInFlight
	}
	c.dialogSeq++
	c.assignment = &assignmentDialog{
		seq:        c.dialogSeq,
		ticketID:   ticketID,
		mode:       ModeSolo,
		candidates: TeamCandidates(c.roster, c.identity),
	}
	return c.assignment.snapshot(), nil
}

// Assignment returns the dialog snapshot; Phase is closed when none is open.
func (c *Console) Assignment() AssignmentState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.assignment == nil {
		return AssignmentState{Phase: PhaseClosed}
	}
	return c.assignment.snapshot()
}

func (c *Console) editableAssignment() (*assignmentDialog, error) {
	if c.assignment == nil {
		return nil, apperrors.NewValidationError("no assignment dialog is open", nil)
	}
	if c.assignment.confirming {
		return nil, ErrAssignmentInFlight
	}
	return c.assignment, nil
}

// ChooseMode selects solo or team. Team is refused when nobody besides the
// acting technician is on the roster. Choosing solo drops any selection.
func (c *Console) ChooseMode(mode AssignmentMode) (AssignmentState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dlg, err := c.editableAssignment()
	if err != nil {
		return AssignmentState{}, err
	}
	switch mode {
	case ModeSolo:
		dlg.selected = nil
	case ModeTeam:
		if len(dlg.candidates) == 0 {
			return dlg.snapshot(), apperrors.NewValidationError("team assignment unavailable: no other technicians", map[string]any{"field": "mode"})
		}
	default:
		return dlg.snapshot(), apperrors.NewValidationError(fmt.Sprintf("unknown assignment mode %q", mode), map[string]any{"field": "mode"})
	}
	dlg.mode = mode
	dlg.chosen = true
	return dlg.snapshot(), nil
}

// SetCoAssignees replaces the team selection. Every id must be a candidate.
func (c *Console) SetCoAssignees(ids []int) (AssignmentState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dlg, err := c.editableAssignment()
	if err != nil {
		return AssignmentState{}, err
	}
	if dlg.mode != ModeTeam {
		return dlg.snapshot(), apperrors.NewValidationError("co-assignees require team mode", map[string]any{"field": "co_assignee_ids"})
	}
	selected := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if !dlg.isCandidate(id) {
			return dlg.snapshot(), apperrors.NewValidationError(fmt.Sprintf("technician %d is not a candidate", id), map[string]any{"field": "co_assignee_ids"})
		}
		if !seen[id] {
			seen[id] = true
			selected = append(selected, id)
		}
	}
	dlg.selected = selected
	return dlg.snapshot(), nil
}

// ToggleCoAssignee adds or removes one technician from the team selection.
func (c *Console) ToggleCoAssignee(id int) (AssignmentState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dlg, err := c.editableAssignment()
	if err != nil {
		return AssignmentState{}, err
	}
	if dlg.mode != ModeTeam {
		return dlg.snapshot(), apperrors.NewValidationError("co-assignees require team mode", map[string]any{"field": "co_assignee_ids"})
	}
	if !dlg.isCandidate(id) {
		return dlg.snapshot(), apperrors.NewValidationError(fmt.Sprintf("technician %d is not a candidate", id), map[string]any{"field": "co_assignee_ids"})
	}
	for i, sel := range dlg.selected {
		if sel == id {
			dlg.selected = append(dlg.selected[:i:i], dlg.selected[i+1:]...)
			return dlg.snapshot(), nil
		}
	}
	dlg.selected = append(dlg.selected, id)
	return dlg.snapshot(), nil
}

// CancelAssignment closes the dialog with no server effect. A confirmation
// already in flight keeps running but will not touch the dialogs.
func (c *Console) CancelAssignment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assignment = nil
}

// ConfirmAssignment claims the ticket and, in team mode with a selection,
// assigns the co-assignees. Only one confirmation runs at a time.
//
// A failed claim leaves the dialog open. A failed team assignment after a
// successful claim is a partial success: the claim stands, the cache and
// counters are refreshed, and the returned error names the assign_team step.
func (c *Console) ConfirmAssignment(ctx context.Context) (AssignmentResult, error) {
	c.mu.Lock()
	if c.assigning {
		c.mu.Unlock()
		return AssignmentResult{}, ErrAssignmentInFlight
	}
	dlg := c.assignment
	if dlg == nil {
		c.mu.Unlock()
		return AssignmentResult{}, apperrors.NewValidationError("no assignment dialog is open", nil)
	}
	c.assigning = true
	dlg.confirming = true
	ticketID := dlg.ticketID
	mode := dlg.mode
	team := append([]int(nil), dlg.selected...)
	var detailToken uint64
	if c.detail != nil && c.detail.view.ID == ticketID {
		detailToken = c.detail.seq
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.assigning = false
		dlg.confirming = false
		c.mu.Unlock()
	}()

	result := AssignmentResult{TicketID: ticketID}
	if err := c.tickets.Claim(ctx, ticketID); err != nil {
		return result, c.raise(apperrors.NewStepError(apperrors.StepClaim, err), ticketID)
	}
	result.Claimed = true
	c.publish(ctx, events.EventTicketClaimed, ticketID, events.TicketClaimedPayload{Mode: string(mode)})

	var teamErr error
	if mode == ModeTeam && len(team) > 0 {
		if err := c.tickets.AssignTeam(ctx, ticketID, team); err != nil {
			teamErr = apperrors.NewStepError(apperrors.StepAssignTeam, err, apperrors.StepClaim)
		} else {
			result.TeamAssigned = team
			c.publish(ctx, events.EventTeamAssigned, ticketID, events.TeamAssignedPayload{TechnicianIDs: team})
		}
	}

	// A dialog cancelled while the claim was in flight keeps the UI as the
	// user left it; only the reload below still runs.
	c.mu.Lock()
	stillOpen := c.assignment == dlg
	if stillOpen {
		c.assignment = nil
		if c.detailLoad != 0 && c.detailLoadID == ticketID {
			c.detailLoad = 0
		}
	}
	c.mu.Unlock()
	if stillOpen {
		c.closeDetailIf(detailToken)
	}

	if len(result.TeamAssigned) > 0 {
		c.success(fmt.Sprintf("Ticket #%d claimed with %d co-assignee(s)", ticketID, len(result.TeamAssigned)), ticketID)
	} else {
		c.success(fmt.Sprintf("Ticket #%d claimed", ticketID), ticketID)
	}
	if teamErr != nil {
		c.raise(teamErr, ticketID)
	}
	c.logger.Info("ticket claimed",
		zap.Int("ticket_id", ticketID),
		zap.String("mode", string(mode)),
		zap.Ints("team", result.TeamAssigned))

	c.refresh(ctx)
	return result, teamErr
}
