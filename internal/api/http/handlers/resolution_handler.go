package handlers

import (
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/tecnico-console/internal/api/dto"
	"github.com/spec-kit/tecnico-console/internal/domain"
	"github.com/spec-kit/tecnico-console/internal/service"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

const evidenceField = "evidence"

// ResolutionHandler submits state changes and notes for assigned tickets.
type ResolutionHandler struct {
	console *service.Console
	logger  *zap.Logger
}

// NewResolutionHandler constructs handler.
func NewResolutionHandler(console *service.Console, logger *zap.Logger) *ResolutionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResolutionHandler{console: console, logger: logger}
}

// ChangeState POST /console/tickets/:id/state. Accepts JSON or a multipart
// form carrying evidence images.
func (h *ResolutionHandler) ChangeState(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}

	var req dto.StateChangeRequest
	var evidence []domain.EvidenceFile
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return apperrors.NewValidationError("invalid multipart form", nil)
		}
		req.State = firstValue(form, "state")
		req.Note = firstValue(form, "note")
		files, closeAll, err := openEvidence(form.File[evidenceField])
		defer closeAll()
		if err != nil {
			return err
		}
		evidence = files
		if n := len(form.File[evidenceField]); n > domain.MaxEvidenceFiles {
			h.logger.Info("extra evidence files ignored",
				zap.Int("ticket_id", id),
				zap.Int("received", n),
				zap.Int("kept", domain.MaxEvidenceFiles))
		}
	} else if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	target, err := domain.ParseTicketState(req.State)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"field": "state"})
	}

	result, err := h.console.ChangeState(c.UserContext(), service.StateChange{
		TicketID: id,
		Target:   target,
		Note:     req.Note,
		Evidence: evidence,
	})
	if err != nil {
		if result.EvidenceUploaded > 0 {
			return c.Status(fiber.StatusMultiStatus).JSON(fiber.Map{
				"data":  result,
				"error": errorBody(err),
			})
		}
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// AddNote POST /console/tickets/:id/notes.
func (h *ResolutionHandler) AddNote(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.console.AddNote(c.UserContext(), id, req.Text); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusCreated)
}

func firstValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// openEvidence opens at most domain.MaxEvidenceFiles uploaded files. The
// returned close function is always safe to call.
func openEvidence(headers []*multipart.FileHeader) ([]domain.EvidenceFile, func(), error) {
	if len(headers) > domain.MaxEvidenceFiles {
		headers = headers[:domain.MaxEvidenceFiles]
	}
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	files := make([]domain.EvidenceFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, apperrors.NewValidationError("cannot read evidence file", map[string]any{"file": fh.Filename})
		}
		opened = append(opened, f)
		files = append(files, domain.EvidenceFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     f,
		})
	}
	return files, closeAll, nil
}
