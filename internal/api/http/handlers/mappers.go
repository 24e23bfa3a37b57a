package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tecnico-console/internal/api/dto"
	"github.com/spec-kit/tecnico-console/internal/domain"
	"github.com/spec-kit/tecnico-console/internal/service"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

func ticketID(c *fiber.Ctx) (int, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func ticketSummary(t domain.Ticket) dto.TicketSummary {
	assignees := t.Assignees
	if assignees == nil {
		assignees = []string{}
	}
	return dto.TicketSummary{
		ID:        t.ID,
		Subject:   t.Subject,
		Requester: t.RequesterName,
		Area:      t.Area,
		State:     t.State,
		Assignees: assignees,
		CreatedAt: t.CreatedAt,
	}
}

func ticketDetail(view *service.DetailView) dto.TicketDetailResponse {
	notes := make([]dto.NoteResponse, 0, len(view.Notes))
	for _, n := range view.Notes {
		notes = append(notes, dto.NoteResponse{ID: n.ID, Author: n.Author, Text: n.Text, CreatedAt: n.CreatedAt})
	}
	evidence := make([]dto.EvidenceResponse, 0, len(view.Evidence))
	for _, a := range view.Evidence {
		evidence = append(evidence, dto.EvidenceResponse{ID: a.ID, Name: a.Name, URL: a.URL})
	}
	return dto.TicketDetailResponse{
		ID:          view.ID,
		Subject:     view.Subject,
		State:       view.State,
		Area:        view.Area,
		Requester:   view.Requester,
		Assignees:   view.Assignees,
		Description: view.Description,
		CreatedAt:   view.CreatedAt,
		Notes:       notes,
		Evidence:    evidence,
		Actions: dto.DetailActions{
			Claim:       view.CanClaim,
			ChangeState: view.CanChangeState,
		},
	}
}

// errorBody renders err the way the error middleware does, for responses
// that also carry data.
func errorBody(err error) fiber.Map {
	domainErr := apperrors.ToDomainError(err)
	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return body
}
