package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tecnico-console/internal/api/dto"
	"github.com/spec-kit/tecnico-console/internal/service"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

// AssignmentHandler drives the assignment dialog of the available scope.
type AssignmentHandler struct {
	console *service.Console
}

// NewAssignmentHandler constructs handler.
func NewAssignmentHandler(console *service.Console) *AssignmentHandler {
	return &AssignmentHandler{console: console}
}

// Begin POST /console/tickets/:id/assignment.
func (h *AssignmentHandler) Begin(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	state, err := h.console.BeginAssignment(id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": state})
}

// Get GET /console/assignment.
func (h *AssignmentHandler) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.console.Assignment()})
}

// Update PUT /console/assignment.
func (h *AssignmentHandler) Update(c *fiber.Ctx) error {
	var req dto.AssignmentUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	state := h.console.Assignment()
	if req.Mode != "" {
		mode, err := service.ParseAssignmentMode(req.Mode)
		if err != nil {
			return err
		}
		if state, err = h.console.ChooseMode(mode); err != nil {
			return err
		}
	}
	if req.CoAssigneeIDs != nil {
		var err error
		if state, err = h.console.SetCoAssignees(*req.CoAssigneeIDs); err != nil {
			return err
		}
	}
	return c.JSON(fiber.Map{"data": state})
}

// Confirm POST /console/assignment/confirm. A claim that succeeded while the
// team step failed answers 207 with both the result and the error.
func (h *AssignmentHandler) Confirm(c *fiber.Ctx) error {
	result, err := h.console.ConfirmAssignment(c.UserContext())
	if err != nil {
		if result.Claimed {
			return c.Status(fiber.StatusMultiStatus).JSON(fiber.Map{
				"data":  result,
				"error": errorBody(err),
			})
		}
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// Cancel DELETE /console/assignment.
func (h *AssignmentHandler) Cancel(c *fiber.Ctx) error {
	h.console.CancelAssignment()
	return c.SendStatus(fiber.StatusNoContent)
}
