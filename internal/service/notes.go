package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/tecnico-console/internal/domain"
	"github.com/spec-kit/tecnico-console/internal/events"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

const notePreviewLength = 80

// AddNote appends a note to an assigned ticket and refreshes its open
// detail dialog.
func (c *Console) AddNote(ctx context.Context, ticketID int, text string) error {
	if err := c.requireScope(domain.ScopeAssigned, "adding notes"); err != nil {
		return c.raise(err, ticketID)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return c.raise(apperrors.NewValidationError("note text required", map[string]any{"field": "note", "ticket_id": ticketID}), ticketID)
	}
	if err := c.acquireTicket(ticketID); err != nil {
		return c.raise(err, ticketID)
	}
	defer c.releaseTicket(ticketID)

	token := c.detailToken(ticketID)
	if err := c.tickets.AddNote(ctx, ticketID, text); err != nil {
		return c.raise(err, ticketID)
	}
	c.publish(ctx, events.EventNoteAdded, ticketID, events.NoteAddedPayload{BodyPreview: preview(text)})
	c.success(fmt.Sprintf("Note added to ticket #%d", ticketID), ticketID)
	c.refreshDetailIf(ctx, token)
	return nil
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= notePreviewLength {
		return text
	}
	return string(runes[:notePreviewLength]) + "…"
}
