package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tecnico-console/internal/api/dto"
	"github.com/spec-kit/tecnico-console/internal/domain"
	"github.com/spec-kit/tecnico-console/internal/service"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

// ConsoleHandler exposes the ticket list, the detail dialog, the counters and
// the notification inbox of one console.
type ConsoleHandler struct {
	console *service.Console
	inbox   *service.Inbox
}

// NewConsoleHandler constructs handler.
func NewConsoleHandler(console *service.Console, inbox *service.Inbox) *ConsoleHandler {
	return &ConsoleHandler{console: console, inbox: inbox}
}

// Session GET /console/session.
func (h *ConsoleHandler) Session(c *fiber.Ctx) error {
	identity := h.console.Identity()
	if identity == nil {
		return apperrors.NewUnauthenticated("no technician session")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"session": dto.SessionResponse{
			Technician: dto.TechnicianResponse{
				ID:       identity.ID,
				Username: identity.DisplayName(),
				Email:    identity.Email,
				Role:     identity.Role,
				Area:     identity.AreaName,
			},
			Scope:  h.console.Scope(),
			Scopes: domain.Scopes(),
		},
		"counters": h.console.Counters(),
	}})
}

// ListTickets GET /console/tickets. A q parameter replaces the filter text;
// without it the current filter applies.
func (h *ConsoleHandler) ListTickets(c *fiber.Ctx) error {
	var visible []domain.Ticket
	if c.Context().QueryArgs().Has("q") {
		visible = h.console.SetQuery(c.Query("q"))
	} else {
		visible = h.console.Visible()
	}
	return c.JSON(h.listResponse(visible))
}

// Reload POST /console/tickets/reload.
func (h *ConsoleHandler) Reload(c *fiber.Ctx) error {
	if err := h.console.Reload(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(h.listResponse(h.console.Visible()))
}

func (h *ConsoleHandler) listResponse(visible []domain.Ticket) fiber.Map {
	all, loadedAt := h.console.Tickets()
	items := make([]dto.TicketSummary, 0, len(visible))
	for _, t := range visible {
		items = append(items, ticketSummary(t))
	}
	meta := dto.TicketListMeta{
		Scope:   h.console.Scope(),
		Query:   h.console.Query(),
		Visible: len(items),
		Total:   len(all),
	}
	if !loadedAt.IsZero() {
		at := loadedAt.Truncate(time.Second)
		meta.LoadedAt = &at
	}
	return fiber.Map{"data": items, "meta": meta}
}

// OpenDetail GET /console/tickets/:id.
func (h *ConsoleHandler) OpenDetail(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	view, err := h.console.OpenDetail(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(view)})
}

// Detail GET /console/detail.
func (h *ConsoleHandler) Detail(c *fiber.Ctx) error {
	view, ok := h.console.Detail()
	if !ok {
		return apperrors.NewNotFound("detail dialog", nil)
	}
	return c.JSON(fiber.Map{"data": ticketDetail(view)})
}

// CloseDetail DELETE /console/detail.
func (h *ConsoleHandler) CloseDetail(c *fiber.Ctx) error {
	h.console.CloseDetail()
	return c.SendStatus(fiber.StatusNoContent)
}

// Counters GET /console/counters.
func (h *ConsoleHandler) Counters(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.console.Counters()})
}

// RefreshCounters POST /console/counters/refresh. Failed scopes keep their
// previous value and are flagged; the response is still 200.
func (h *ConsoleHandler) RefreshCounters(c *fiber.Ctx) error {
	counters, err := h.console.RefreshCounts(c.UserContext())
	if err != nil && apperrors.Is(err, apperrors.CodeUnauthenticated) {
		return err
	}
	return c.JSON(fiber.Map{"data": counters})
}

// Notifications GET /console/notifications drains the inbox.
func (h *ConsoleHandler) Notifications(c *fiber.Ctx) error {
	notes := h.inbox.Drain()
	if notes == nil {
		notes = []service.Notification{}
	}
	return c.JSON(fiber.Map{"data": notes})
}
