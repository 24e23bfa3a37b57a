package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScopeAcceptsBothSpellings(t *testing.T) {
	for raw, want := range map[string]Scope{
		"available":   ScopeAvailable,
		"Disponibles": ScopeAvailable,
		" asignados ": ScopeAssigned,
		"HISTORY":     ScopeHistory,
	} {
		got, err := ParseScope(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseScope("archived")
	assert.Error(t, err)
}

func TestScopeWire(t *testing.T) {
	assert.Equal(t, "disponibles", ScopeAvailable.Wire())
	assert.Equal(t, "asignados", ScopeAssigned.Wire())
	assert.Equal(t, "historial", ScopeHistory.Wire())
	assert.Equal(t, []Scope{ScopeAvailable, ScopeAssigned, ScopeHistory}, Scopes())
}

func TestTicketStateWireAndParse(t *testing.T) {
	for _, state := range []TicketState{StatePending, StateInProgress, StateResolved, StateCancelled} {
		parsed, err := ParseTicketState(state.Wire())
		require.NoError(t, err)
		assert.Equal(t, state, parsed)
		assert.True(t, state.Valid())
	}

	_, err := ParseTicketState("REOPENED")
	assert.Error(t, err)
	assert.False(t, TicketState("REOPENED").Valid())
}

func TestTicketStateTerminal(t *testing.T) {
	assert.True(t, StateResolved.IsTerminal())
	assert.True(t, StateCancelled.IsTerminal())
	assert.False(t, StatePending.IsTerminal())
	assert.NotContains(t, TargetStates(), StatePending)
}

func TestTicketHasAssignee(t *testing.T) {
	ticket := Ticket{Assignees: []string{"ana", "Luis"}}
	assert.True(t, ticket.HasAssignee("luis"))
	assert.False(t, ticket.HasAssignee("marta"))
}
