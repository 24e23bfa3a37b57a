package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tecnico-console/internal/domain"
	"github.com/spec-kit/tecnico-console/internal/events"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

func TestTeamCandidatesExcludeSelf(t *testing.T) {
	self := &domain.Identity{ID: ana.ID}
	got := TeamCandidates([]domain.Technician{ana, luis, rosa}, self)
	assert.Equal(t, []domain.Technician{luis, rosa}, got)
	assert.Empty(t, TeamCandidates([]domain.Technician{ana}, self))
}

func TestBeginAssignmentOnlyInAvailableScope(t *testing.T) {
	h := started(t, domain.ScopeAssigned)
	_, err := h.console.BeginAssignment(42)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalid, apperrors.KindOf(err))
	assert.Equal(t, PhaseClosed, h.console.Assignment().Phase)
}

func TestTeamModeDisabledWithoutCandidates(t *testing.T) {
	h := started(t, domain.ScopeAvailable, withRoster(ana))
	state, err := h.console.BeginAssignment(42)
	require.NoError(t, err)
	assert.False(t, state.TeamEnabled)
	assert.Empty(t, state.Candidates)

	_, err = h.console.ChooseMode(ModeTeam)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalid, apperrors.KindOf(err))
	assert.Equal(t, ModeSolo, h.console.Assignment().Mode)
}

func TestTeamCandidatesFromThreeTechnicians(t *testing.T) {
	h := started(t, domain.ScopeAvailable)
	state, err := h.console.BeginAssignment(42)
	require.NoError(t, err)
	assert.Equal(t, PhaseChoosingMode, state.Phase)
	assert.True(t, state.TeamEnabled)
	assert.Equal(t, []domain.Technician{luis, rosa}, state.Candidates)

	state, err = h.console.ChooseMode(ModeTeam)
	require.NoError(t, err)
	assert.Equal(t, PhaseTeam, state.Phase)

	_, err = h.console.SetCoAssignees([]int{ana.ID})
	assert.Equal(t, apperrors.CodeInvalid, apperrors.KindOf(err))

	state, err = h.console.ToggleCoAssignee(rosa.ID)
	require.NoError(t, err)
	state, err = h.console.ToggleCoAssignee(luis.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{rosa.ID, luis.ID}, state.Selected)
	state, err = h.console.ToggleCoAssignee(rosa.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{luis.ID}, state.Selected)

	state, err = h.console.ChooseMode(ModeSolo)
	require.NoError(t, err)
	assert.Empty(t, state.Selected)
	_, err = h.console.ToggleCoAssignee(luis.ID)
	assert.Error(t, err)
}

func TestCancelAssignmentHasNoServerEffect(t *testing.T) {
	h := started(t, domain.ScopeAvailable)
	_, err := h.console.BeginAssignment(42)
	require.NoError(t, err)
	_, err = h.console.ChooseMode(ModeTeam)
	require.NoError(t, err)
	_, err = h.console.SetCoAssignees([]int{luis.ID})
	require.NoError(t, err)

	h.console.CancelAssignment()
	assert.Equal(t, PhaseClosed, h.console.Assignment().Phase)
	assert.Empty(t, h.log.mutations())

	_, err = h.console.ConfirmAssignment(context.Background())
	assert.Equal(t, apperrors.CodeInvalid, apperrors.KindOf(err))
	assert.Empty(t, h.log.mutations())
}

func TestSoloClaimNeverAssignsTeam(t *testing.T) {
	h := started(t, domain.ScopeAvailable)
	h.tickets.setList(domain.ScopeAvailable, ticket(42, "Impresora", "Rosa", domain.StatePending))
	h.tickets.details[42] = detailFixture(42, domain.StatePending)
	_, err := h.console.OpenDetail(context.Background(), 42)
	require.NoError(t, err)

	_, err = h.console.BeginAssignment(42)
	require.NoError(t, err)
	listsBefore := h.log.count("list:")

	// the server moves the ticket out of the pool once claimed
	h.tickets.setList(domain.ScopeAvailable)
	result, err := h.console.ConfirmAssignment(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Claimed)
	assert.Empty(t, result.TeamAssigned)

	assert.Equal(t, []string{"claim:42"}, h.log.mutations())
	assert.Equal(t, 0, h.log.count("assign_team"))
	// one reload plus three counter lists
	assert.Equal(t, listsBefore+4, h.log.count("list:"))
	assert.Empty(t, h.console.Visible())

	assert.Equal(t, PhaseClosed, h.console.Assignment().Phase)
	_, open := h.console.Detail()
	assert.False(t, open)
	assert.Equal(t, []Level{LevelSuccess}, levels(h.inbox.Drain()))
}

func TestTeamClaimOrdersClaimBeforeAssignTeam(t *testing.T) {
	h := started(t, domain.ScopeAvailable)
	var published []events.EventType
	for _, et := range events.AllEventTypes() {
		h.dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			published = append(published, e.Type)
			return nil
		})
	}

	_, err := h.console.BeginAssignment(42)
	require.NoError(t, err)
	_, err = h.console.ChooseMode(ModeTeam)
	require.NoError(t, err)
	_, err = h.console.SetCoAssignees([]int{luis.ID, rosa.ID, luis.ID})
	require.NoError(t, err)

	result, err := h.console.ConfirmAssignment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{8, 9}, result.TeamAssigned)
	assert.Equal(t, []string{"claim:42", "assign_team:42:[8 9]"}, h.log.mutations())
	assert.Equal(t, []events.EventType{events.EventTicketClaimed, events.EventTeamAssigned}, published)
}

func TestTeamModeWithoutSelectionOnlyClaims(t *testing.T) {
	h := started(t, domain.ScopeAvailable)
	_, err := h.console.BeginAssignment(42)
	require.NoError(t, err)
	_, err = h.console.ChooseMode(ModeTeam)
	require.NoError(t, err)

	_, err = h.console.ConfirmAssignment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"claim:42"}, h.log.mutations())
}

func TestClaimFailureStopsSequenceAndKeepsDialog(t *testing.T) {
	h := started(t, domain.ScopeAvailable)
	_, err := h.console.BeginAssignment(42)
	require.NoError(t, err)
	_, err = h.console.ChooseMode(ModeTeam)
	require.NoError(t, err)
	_, err = h.console.SetCoAssignees([]int{luis.ID, rosa.ID})
	require.NoError(t, err)
	listsBefore := h.log.count("list:")

	h.tickets.failWith("claim", apperrors.NewServerError(500, "db down"))
	result, err := h.console.ConfirmAssignment(context.Background())
	require.Error(t, err)
	assert.False(t, result.Claimed)
	step, ok := apperrors.FailedStep(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.StepClaim, step)

	assert.Equal(t, []string{"claim:42"}, h.log.mutations())
	assert.Equal(t, listsBefore, h.log.count("list:"))

	state := h.console.Assignment()
	assert.Equal(t, PhaseTeam, state.Phase)
	assert.Equal(t, []int{8, 9}, state.Selected)

	// the guard is released: a retry goes through
	h.tickets.failWith("claim", nil)
	_, err = h.console.ConfirmAssignment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"claim:42", "claim:42", "assign_team:42:[8 9]"}, h.log.mutations())
}

func TestTeamFailureAfterClaimIsPartialSuccess(t *testing.T) {
	h := started(t, domain.ScopeAvailable)
	_, err := h.console.BeginAssignment(42)
	require.NoError(t, err)
	_, err = h.console.ChooseMode(ModeTeam)
	require.NoError(t, err)
	_, err = h.console.SetCoAssignees([]int{luis.ID})
	require.NoError(t, err)
	listsBefore := h.log.count("list:")

	h.tickets.failWith("assign_team", apperrors.NewUnauthorized("forbidden"))
	result, err := h.console.ConfirmAssignment(context.Background())
	require.Error(t, err)
	assert.True(t, result.Claimed)
	assert.Empty(t, result.TeamAssigned)

	var stepErr *apperrors.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, apperrors.StepAssignTeam, stepErr.Step)
	assert.Equal(t, []string{apperrors.StepClaim}, stepErr.Completed)
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.KindOf(err))

	// no rollback, and the cache still reloads
	assert.Equal(t, []string{"claim:42", "assign_team:42:[8]"}, h.log.mutations())
	assert.Equal(t, listsBefore+4, h.log.count("list:"))
	assert.Equal(t, PhaseClosed, h.console.Assignment().Phase)

	notes := h.inbox.Drain()
	require.Len(t, notes, 2)
	assert.Equal(t, LevelSuccess, notes[0].Level)
	assert.Equal(t, LevelError, notes[1].Level)
	assert.Equal(t, apperrors.StepAssignTeam, notes[1].Step)
}

func TestReentrantConfirmIssuesNoCalls(t *testing.T) {
	h := started(t, domain.ScopeAvailable)
	_, err := h.console.BeginAssignment(42)
	require.NoError(t, err)
	g := h.tickets.gateOn("claim")

	done := make(chan error, 1)
	go func() {
		_, err := h.console.ConfirmAssignment(context.Background())
		done <- err
	}()
	g.awaitEntered(t)

	assert.Equal(t, PhaseConfirming, h.console.Assignment().Phase)
	_, err = h.console.ConfirmAssignment(context.Background())
	assert.ErrorIs(t, err, ErrAssignmentInFlight)
	_, err = h.console.ChooseMode(ModeTeam)
	assert.ErrorIs(t, err, ErrAssignmentInFlight)
	_, err = h.console.BeginAssignment(43)
	assert.ErrorIs(t, err, ErrAssignmentInFlight)

	close(g.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.log.count("claim"))
}

func TestLateConfirmDoesNotCloseNewerDialogs(t *testing.T) {
	h := started(t, domain.ScopeAvailable)
	h.tickets.details[42] = detailFixture(42, domain.StatePending)
	_, err := h.console.OpenDetail(context.Background(), 42)
	require.NoError(t, err)
	_, err = h.console.BeginAssignment(42)
	require.NoError(t, err)
	g := h.tickets.gateOn("claim")

	done := make(chan error, 1)
	go func() {
		_, err := h.console.ConfirmAssignment(context.Background())
		done <- err
	}()
	g.awaitEntered(t)

	// the user closes and reopens the detail while the claim is pending
	h.console.CloseDetail()
	_, err = h.console.OpenDetail(context.Background(), 42)
	require.NoError(t, err)

	close(g.release)
	require.NoError(t, <-done)
	_, open := h.console.Detail()
	assert.True(t, open)
}

func TestCancelledConfirmLeavesDetailOpen(t *testing.T) {
	h := started(t, domain.ScopeAvailable)
	h.tickets.details[42] = detailFixture(42, domain.StatePending)
	_, err := h.console.OpenDetail(context.Background(), 42)
	require.NoError(t, err)
	_, err = h.console.BeginAssignment(42)
	require.NoError(t, err)
	g := h.tickets.gateOn("claim")

	done := make(chan error, 1)
	go func() {
		_, err := h.console.ConfirmAssignment(context.Background())
		done <- err
	}()
	g.awaitEntered(t)

	h.console.CancelAssignment()
	close(g.release)
	require.NoError(t, <-done)

	open, ok := h.console.Detail()
	require.True(t, ok)
	assert.Equal(t, 42, open.ID)
	assert.Equal(t, PhaseClosed, h.console.Assignment().Phase)
	assert.Equal(t, 1, h.log.count("claim"))
}

func TestClaimSupersedesPendingDetailOfSameTicket(t *testing.T) {
	h := started(t, domain.ScopeAvailable)
	h.tickets.details[42] = detailFixture(42, domain.StatePending)
	_, err := h.console.BeginAssignment(42)
	require.NoError(t, err)
	claim := h.tickets.gateOn("claim")
	get := h.tickets.gateOn("get:42")

	confirmed := make(chan error, 1)
	go func() {
		_, err := h.console.ConfirmAssignment(context.Background())
		confirmed <- err
	}()
	claim.awaitEntered(t)

	loaded := make(chan error, 1)
	go func() {
		_, err := h.console.OpenDetail(context.Background(), 42)
		loaded <- err
	}()
	get.awaitEntered(t)

	close(claim.release)
	require.NoError(t, <-confirmed)
	close(get.release)
	assert.ErrorIs(t, <-loaded, ErrSuperseded)

	_, open := h.console.Detail()
	assert.False(t, open)
}
