package repository

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/spec-kit/tecnico-console/internal/domain"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

const ticketsPath = "/api/tecnico/tickets"

// EvidenceReceipt reports what the helpdesk stored from an upload.
type EvidenceReceipt struct {
	URLs  []string
	Count int
}

// TicketRepository encapsulates the technician ticket endpoints.
type TicketRepository interface {
	List(ctx context.Context, scope domain.Scope) ([]domain.Ticket, error)
	Get(ctx context.Context, id int) (*domain.TicketDetail, error)
	Claim(ctx context.Context, id int) error
	AssignTeam(ctx context.Context, id int, technicianIDs []int) error
	SetState(ctx context.Context, id int, state domain.TicketState, note string) error
	UploadEvidence(ctx context.Context, id int, files []domain.EvidenceFile) (EvidenceReceipt, error)
	AddNote(ctx context.Context, id int, text string) error
}

type ticketRepository struct {
	client *Client
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(client *Client) TicketRepository {
	return &ticketRepository{client: client}
}

func ticketPath(id int, suffix string) string {
	if suffix == "" {
		return fmt.Sprintf("%s/%d", ticketsPath, id)
	}
	return fmt.Sprintf("%s/%d/%s", ticketsPath, id, suffix)
}

func (r *ticketRepository) List(ctx context.Context, scope domain.Scope) ([]domain.Ticket, error) {
	resp, err := r.client.call(ctx, "list_tickets", http.MethodGet, ticketsPath, func(req *resty.Request) {
		req.SetQueryParam("scope", scope.Wire())
	})
	if err != nil {
		return nil, err
	}
	var records []ticketRecord
	if err := decode(resp, &records); err != nil {
		return nil, err
	}
	tickets := make([]domain.Ticket, 0, len(records))
	for _, rec := range records {
		tickets = append(tickets, rec.toDomain())
	}
	return tickets, nil
}

func (r *ticketRepository) Get(ctx context.Context, id int) (*domain.TicketDetail, error) {
	resp, err := r.client.call(ctx, "get_ticket", http.MethodGet, ticketPath(id, ""), nil)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, err
	}
	var rec detailRecord
	if err := decode(resp, &rec); err != nil {
		return nil, err
	}

	detail := &domain.TicketDetail{Ticket: rec.Ticket.toDomain()}
	for _, a := range rec.Asignados {
		detail.AssignedTo = append(detail.AssignedTo, domain.Assignee{ID: a.ID, Username: a.Username})
	}
	if len(detail.Assignees) == 0 {
		for _, a := range detail.AssignedTo {
			detail.Assignees = append(detail.Assignees, a.Username)
		}
	}
	for _, n := range rec.Notas {
		detail.Notes = append(detail.Notes, domain.Note{
			ID:        n.ID,
			Author:    n.Autor,
			CreatedAt: n.CreadoEn.Time,
			Text:      n.Texto,
		})
	}
	for _, a := range rec.Adjuntos {
		detail.Attachments = append(detail.Attachments, domain.Attachment{
			ID:   a.ID,
			Name: a.Name,
			URL:  r.client.resolve(a.URL),
		})
	}
	return detail, nil
}

func (r *ticketRepository) Claim(ctx context.Context, id int) error {
	resp, err := r.client.call(ctx, "claim", http.MethodPost, ticketPath(id, "tomar"), nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

func (r *ticketRepository) AssignTeam(ctx context.Context, id int, technicianIDs []int) error {
	if len(technicianIDs) == 0 {
		return apperrors.NewValidationError("at least one technician is required", map[string]any{"ticket_id": id})
	}
	resp, err := r.client.call(ctx, "assign_team", http.MethodPost, ticketPath(id, "asignar"), func(req *resty.Request) {
		req.SetHeader("Content-Type", "application/json").
			SetBody(assignTeamRequest{UsuarioIDs: technicianIDs})
	})
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

func (r *ticketRepository) SetState(ctx context.Context, id int, state domain.TicketState, note string) error {
	body := stateChangeRequest{Estado: state.Wire(), Nota: strings.TrimSpace(note)}
	resp, err := r.client.call(ctx, "set_state", http.MethodPatch, ticketPath(id, "estado"), func(req *resty.Request) {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	})
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// UploadEvidence sends at most domain.MaxEvidenceFiles files; extra files are dropped.
func (r *ticketRepository) UploadEvidence(ctx context.Context, id int, files []domain.EvidenceFile) (EvidenceReceipt, error) {
	if len(files) == 0 {
		return EvidenceReceipt{}, apperrors.NewValidationError("no evidence files selected", map[string]any{"ticket_id": id})
	}
	if len(files) > domain.MaxEvidenceFiles {
		files = files[:domain.MaxEvidenceFiles]
	}
	resp, err := r.client.call(ctx, "upload_evidence", http.MethodPost, ticketPath(id, "evidencia"), func(req *resty.Request) {
		for _, f := range files {
			req.SetMultipartField("imagenes", f.Name, evidenceContentType(f), f.Content)
		}
	})
	if err != nil {
		return EvidenceReceipt{}, err
	}
	var out evidenceResponse
	if err := decode(resp, &out); err != nil {
		return EvidenceReceipt{}, err
	}
	receipt := EvidenceReceipt{Count: out.Count}
	for _, u := range out.URLs {
		receipt.URLs = append(receipt.URLs, r.client.resolve(u))
	}
	return receipt, nil
}

func (r *ticketRepository) AddNote(ctx context.Context, id int, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return apperrors.NewValidationError("note text required", map[string]any{"field": "note"})
	}
	resp, err := r.client.call(ctx, "add_note", http.MethodPost, ticketPath(id, "nota"), func(req *resty.Request) {
		req.SetHeader("Content-Type", "application/json").SetBody(noteRequest{Texto: text})
	})
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

func evidenceContentType(f domain.EvidenceFile) string {
	if f.ContentType != "" {
		return f.ContentType
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name))); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}
