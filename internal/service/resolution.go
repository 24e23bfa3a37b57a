package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/tecnico-console/internal/domain"
	"github.com/spec-kit/tecnico-console/internal/events"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

// StateChange is one submission of the state dialog.
type StateChange struct {
	TicketID int
	Target   domain.TicketState
	Note     string
	Evidence []domain.EvidenceFile
}

// StateChangeResult reports what the helpdesk accepted.
type StateChangeResult struct {
	TicketID         int                `json:"ticket_id"`
	State            domain.TicketState `json:"state"`
	EvidenceUploaded int                `json:"evidence_uploaded"`
	EvidenceURLs     []string           `json:"evidence_urls,omitempty"`
}

// ValidateStateChange checks the client-side preconditions of a submission.
// RESOLVED needs a justification note; other targets need nothing.
func ValidateStateChange(req StateChange) error {
	switch req.Target {
	case domain.StateResolved:
		if strings.TrimSpace(req.Note) == "" {
			return apperrors.NewValidationError("a justification note is required to resolve a ticket", map[string]any{"field": "note", "ticket_id": req.TicketID})
		}
	case domain.StatePending, domain.StateInProgress, domain.StateCancelled:
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unknown target state %q", req.Target), map[string]any{"field": "state", "ticket_id": req.TicketID})
	}
	return nil
}

// ChangeState moves an assigned ticket to req.Target.
//
// For RESOLVED the evidence (at most domain.MaxEvidenceFiles files) is
// uploaded first and a failed upload stops the flow before any state
// request. A failed state request after an upload leaves the evidence
// stored and names the set_state step. Other targets issue one state
// request with no note.
func (c *Console) ChangeState(ctx context.Context, req StateChange) (StateChangeResult, error) {
	result := StateChangeResult{TicketID: req.TicketID}
	if err := c.requireScope(domain.ScopeAssigned, "changing state"); err != nil {
		return result, c.raise(err, req.TicketID)
	}
	if err := ValidateStateChange(req); err != nil {
		return result, c.raise(err, req.TicketID)
	}
	if err := c.acquireTicket(req.TicketID); err != nil {
		return result, c.raise(err, req.TicketID)
	}
	defer c.releaseTicket(req.TicketID)

	detailToken := c.detailToken(req.TicketID)
	previous, _ := c.cachedTicket(req.TicketID)

	note := ""
	var completed []string
	if req.Target == domain.StateResolved {
		note = strings.TrimSpace(req.Note)
		evidence := req.Evidence
		if len(evidence) > domain.MaxEvidenceFiles {
			evidence = evidence[:domain.MaxEvidenceFiles]
		}
		if len(evidence) > 0 {
			receipt, err := c.tickets.UploadEvidence(ctx, req.TicketID, evidence)
			if err != nil {
				return result, c.raise(apperrors.NewStepError(apperrors.StepUploadEvidence, err), req.TicketID)
			}
			result.EvidenceUploaded = receipt.Count
			if result.EvidenceUploaded == 0 {
				result.EvidenceUploaded = len(evidence)
			}
			result.EvidenceURLs = receipt.URLs
			completed = append(completed, apperrors.StepUploadEvidence)
			c.publish(ctx, events.EventEvidenceUploaded, req.TicketID, events.EvidenceUploadedPayload{
				Count: result.EvidenceUploaded,
				URLs:  receipt.URLs,
			})
		}
	}

	if err := c.tickets.SetState(ctx, req.TicketID, req.Target, note); err != nil {
		stepErr := apperrors.NewStepError(apperrors.StepSetState, err, completed...)
		if len(completed) > 0 {
			// The evidence is stored; a retry should only change the state.
			c.notify(newNotification(LevelInfo, fmt.Sprintf("Evidence for ticket #%d is already stored; retry only the state change", req.TicketID), req.TicketID))
			c.refreshDetailIf(ctx, detailToken)
		}
		return result, c.raise(stepErr, req.TicketID)
	}
	result.State = req.Target
	c.publish(ctx, events.EventStateChanged, req.TicketID, events.StateChangedPayload{
		OldState: previous.State,
		NewState: req.Target,
		Note:     note,
	})

	c.closeDetailIf(detailToken)
	c.success(fmt.Sprintf("Ticket #%d is now %s", req.TicketID, req.Target), req.TicketID)
	c.logger.Info("ticket state changed",
		zap.Int("ticket_id", req.TicketID),
		zap.String("state", string(req.Target)),
		zap.Int("evidence", result.EvidenceUploaded))

	c.refresh(ctx)
	return result, nil
}
