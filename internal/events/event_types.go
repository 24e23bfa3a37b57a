package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/tecnico-console/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketClaimed    EventType = "ticket_claimed"
	EventTeamAssigned     EventType = "team_assigned"
	EventEvidenceUploaded EventType = "evidence_uploaded"
	EventStateChanged     EventType = "state_changed"
	EventNoteAdded        EventType = "note_added"
)

// AllEventTypes lists every type the console publishes.
func AllEventTypes() []EventType {
	return []EventType{
		EventTicketClaimed,
		EventTeamAssigned,
		EventEvidenceUploaded,
		EventStateChanged,
		EventNoteAdded,
	}
}

// Actor is the technician behind an event.
type Actor struct {
	Type     domain.SubjectType `json:"type"`
	ID       int                `json:"id"`
	Username string             `json:"username"`
}

// Event represents a lifecycle event emitted by the console.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int         `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with an id and the current time.
func New(eventType EventType, ticketID int, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketClaimedPayload payload.
type TicketClaimedPayload struct {
	Mode string `json:"mode"`
}

// TeamAssignedPayload payload.
type TeamAssignedPayload struct {
	TechnicianIDs []int `json:"technician_ids"`
}

// EvidenceUploadedPayload payload.
type EvidenceUploadedPayload struct {
	Count int      `json:"count"`
	URLs  []string `json:"urls,omitempty"`
}

// StateChangedPayload payload.
type StateChangedPayload struct {
	OldState domain.TicketState `json:"old_state,omitempty"`
	NewState domain.TicketState `json:"new_state"`
	Note     string             `json:"note,omitempty"`
}

// NoteAddedPayload payload.
type NoteAddedPayload struct {
	BodyPreview string `json:"body_preview"`
}
