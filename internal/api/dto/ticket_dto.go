package dto

import (
	"time"

	"github.com/spec-kit/tecnico-console/internal/domain"
)

// TicketSummary is one row of the visible list.
type TicketSummary struct {
	ID        int                `json:"id"`
	Subject   string             `json:"subject"`
	Requester string             `json:"requester"`
	Area      string             `json:"area"`
	State     domain.TicketState `json:"state"`
	Assignees []string           `json:"assignees"`
	CreatedAt time.Time          `json:"created_at"`
}

// TicketListMeta describes the list a response was filtered from.
type TicketListMeta struct {
	Scope    domain.Scope `json:"scope"`
	Query    string       `json:"query"`
	Visible  int          `json:"visible"`
	Total    int          `json:"total"`
	LoadedAt *time.Time   `json:"loaded_at,omitempty"`
}

// NoteResponse is one entry of a ticket's note history.
type NoteResponse struct {
	ID        int       `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// EvidenceResponse is one stored attachment.
type EvidenceResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TicketDetailResponse provides the detail dialog content.
type TicketDetailResponse struct {
	ID          int                `json:"id"`
	Subject     string             `json:"subject"`
	State       domain.TicketState `json:"state"`
	Area        string             `json:"area"`
	Requester   string             `json:"requester"`
	Assignees   string             `json:"assignees"`
	Description string             `json:"description"`
	CreatedAt   time.Time          `json:"created_at"`
	Notes       []NoteResponse     `json:"notes"`
	Evidence    []EvidenceResponse `json:"evidence"`
	Actions     DetailActions      `json:"actions"`
}

// DetailActions lists what the dialog offers in the console's scope.
type DetailActions struct {
	Claim       bool `json:"claim"`
	ChangeState bool `json:"change_state"`
}

// StateChangeRequest is the JSON form of a state submission. Multipart
// submissions use the same field names plus "evidence" files.
type StateChangeRequest struct {
	State string `json:"state" form:"state"`
	Note  string `json:"note" form:"note"`
}

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	Text string `json:"text"`
}
