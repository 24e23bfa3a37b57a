package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/tecnico-console/internal/domain"
)

const noAssignees = "none"

// DetailView is what the detail dialog shows for one ticket.
type DetailView struct {
	ID             int                 `json:"id"`
	Subject        string              `json:"subject"`
	State          domain.TicketState  `json:"state"`
	Area           string              `json:"area"`
	Requester      string              `json:"requester"`
	Assignees      string              `json:"assignees"`
	Description    string              `json:"description"`
	CreatedAt      time.Time           `json:"created_at"`
	Notes          []domain.Note       `json:"notes"`
	Evidence       []domain.Attachment `json:"evidence"`
	CanClaim       bool                `json:"can_claim"`
	CanChangeState bool                `json:"can_change_state"`
}

// NewDetailView builds the dialog content; the actions follow the scope.
func NewDetailView(detail *domain.TicketDetail, scope domain.Scope) DetailView {
	names := make([]string, 0, len(detail.AssignedTo))
	for _, a := range detail.AssignedTo {
		names = append(names, a.Username)
	}
	if len(names) == 0 {
		names = append(names, detail.Assignees...)
	}
	assignees := strings.Join(names, ", ")
	if assignees == "" {
		assignees = noAssignees
	}
	return DetailView{
		ID:             detail.ID,
		Subject:        detail.Subject,
		State:          detail.State,
		Area:           detail.Area,
		Requester:      detail.RequesterName,
		Assignees:      assignees,
		Description:    detail.Description,
		CreatedAt:      detail.CreatedAt,
		Notes:          append([]domain.Note(nil), detail.Notes...),
		Evidence:       append([]domain.Attachment(nil), detail.Attachments...),
		CanClaim:       scope == domain.ScopeAvailable,
		CanChangeState: scope == domain.ScopeAssigned && !detail.State.IsTerminal(),
	}
}

type detailDialog struct {
	seq  uint64
	view DetailView
}

// OpenDetail loads a ticket and opens its dialog. The cache is not touched.
// If the load fails the previous dialog, if any, stays as it was. If the
// dialog is closed or another one is requested before the response arrives,
// the response is dropped and ErrSuperseded returned.
func (c *Console) OpenDetail(ctx context.Context, id int) (*DetailView, error) {
	c.mu.Lock()
	c.dialogSeq++
	seq := c.dialogSeq
	c.detailLoad = seq
	c.detailLoadID = id
	c.mu.Unlock()

	detail, err := c.tickets.Get(ctx, id)

	c.mu.Lock()
	if c.detailLoad != seq {
		c.mu.Unlock()
		return nil, ErrSuperseded
	}
	c.detailLoad = 0
	if err != nil {
		c.mu.Unlock()
		return nil, c.raise(err, id)
	}
	view := NewDetailView(detail, c.scope)
	c.detail = &detailDialog{seq: seq, view: view}
	c.mu.Unlock()
	return &view, nil
}

// Detail returns the open detail dialog.
func (c *Console) Detail() (*DetailView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detail == nil {
		return nil, false
	}
	view := c.detail.view
	return &view, true
}

// CloseDetail closes the dialog and discards any pending load.
func (c *Console) CloseDetail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detail = nil
	c.detailLoad = 0
}

// detailToken identifies the open dialog for ticketID, or 0.
func (c *Console) detailToken(ticketID int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detail != nil && c.detail.view.ID == ticketID {
		return c.detail.seq
	}
	return 0
}

// closeDetailIf closes the detail dialog only if it is still the one
// identified by token.
func (c *Console) closeDetailIf(token uint64) {
	if token == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detail != nil && c.detail.seq == token {
		c.detail = nil
	}
}

// refreshDetailIf reloads the open dialog in place when it still is token.
func (c *Console) refreshDetailIf(ctx context.Context, token uint64) {
	if token == 0 {
		return
	}
	c.mu.Lock()
	if c.detail == nil || c.detail.seq != token {
		c.mu.Unlock()
		return
	}
	id := c.detail.view.ID
	c.mu.Unlock()

	detail, err := c.tickets.Get(ctx, id)
	if err != nil {
		c.raise(err, id)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detail != nil && c.detail.seq == token {
		c.detail.view = NewDetailView(detail, c.scope)
	}
}
