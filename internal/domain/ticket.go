package domain

import (
	"fmt"
	"strings"
	"time"
)

// TicketState enumerates lifecycle states for tickets.
type TicketState string

const (
	StatePending    TicketState = "PENDING"
	StateInProgress TicketState = "IN_PROGRESS"
	StateResolved   TicketState = "RESOLVED"
	StateCancelled  TicketState = "CANCELLED"
)

// MaxEvidenceFiles caps the evidence uploaded with one resolution.
const MaxEvidenceFiles = 3

// Wire returns the value the helpdesk API uses for the state.
func (s TicketState) Wire() string {
	switch s {
	case StatePending:
		return "PENDIENTE"
	case StateInProgress:
		return "EN_CURSO"
	case StateResolved:
		return "RESUELTO"
	case StateCancelled:
		return "CANCELADO"
	}
	return string(s)
}

// IsTerminal reports whether no further technician transition applies.
func (s TicketState) IsTerminal() bool {
	switch s {
	case StateResolved, StateCancelled:
		return true
	case StatePending, StateInProgress:
		return false
	}
	return false
}

// Valid reports whether s is one of the known states.
func (s TicketState) Valid() bool {
	switch s {
	case StatePending, StateInProgress, StateResolved, StateCancelled:
		return true
	}
	return false
}

// ParseTicketState accepts either the console or the helpdesk spelling.
func ParseTicketState(raw string) (TicketState, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PENDING", "PENDIENTE":
		return StatePending, nil
	case "IN_PROGRESS", "EN_CURSO":
		return StateInProgress, nil
	case "RESOLVED", "RESUELTO":
		return StateResolved, nil
	case "CANCELLED", "CANCELED", "CANCELADO":
		return StateCancelled, nil
	}
	return "", fmt.Errorf("unknown ticket state %q", raw)
}

// TargetStates lists the states a technician may request for an assigned ticket.
func TargetStates() []TicketState {
	return []TicketState{StateInProgress, StateResolved, StateCancelled}
}

// Ticket is a row of a scope listing.
type Ticket struct {
	ID            int
	Subject       string
	Description   string
	RequesterName string
	Area          string
	CreatedAt     time.Time
	State         TicketState
	Assignees     []string
}

// HasAssignee reports whether username is among the ticket's assignees.
func (t Ticket) HasAssignee(username string) bool {
	for _, a := range t.Assignees {
		if strings.EqualFold(a, username) {
			return true
		}
	}
	return false
}

// TicketDetail is the full record of a single ticket.
type TicketDetail struct {
	Ticket
	AssignedTo  []Assignee
	Notes       []Note
	Attachments []Attachment
}
