package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/tecnico-console/internal/domain"
)

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC1123,
}

// wireTime accepts the helpdesk's timestamp formats and null.
type wireTime struct {
	time.Time
}

func (t *wireTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}

type ticketRecord struct {
	ID                int      `json:"id"`
	Asunto            string   `json:"asunto"`
	Descripcion       string   `json:"descripcion"`
	Estado            string   `json:"estado"`
	CreadoEn          wireTime `json:"creado_en"`
	SolicitanteNombre string   `json:"solicitante_nombre"`
	Area              string   `json:"area"`
	Asignados         string   `json:"asignados"`
}

func (r ticketRecord) toDomain() domain.Ticket {
	state, err := domain.ParseTicketState(r.Estado)
	if err != nil {
		state = domain.TicketState(strings.ToUpper(r.Estado))
	}
	return domain.Ticket{
		ID:            r.ID,
		Subject:       r.Asunto,
		Description:   r.Descripcion,
		RequesterName: r.SolicitanteNombre,
		Area:          r.Area,
		CreatedAt:     r.CreadoEn.Time,
		State:         state,
		Assignees:     splitAssignees(r.Asignados),
	}
}

func splitAssignees(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			out = append(out, name)
		}
	}
	return out
}

type noteRecord struct {
	ID       int      `json:"id"`
	Texto    string   `json:"texto"`
	CreadoEn wireTime `json:"creado_en"`
	Autor    string   `json:"autor"`
}

type userRecord struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Area     string `json:"area_name"`
}

type attachmentRecord struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type detailRecord struct {
	Ticket    ticketRecord       `json:"ticket"`
	Notas     []noteRecord       `json:"notas"`
	Asignados []userRecord       `json:"asignados"`
	Adjuntos  []attachmentRecord `json:"adjuntos"`
}

type identityRecord struct {
	ID       int    `json:"id"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	AreaID   *int   `json:"area_id"`
	AreaName string `json:"area_name"`
}

func (r identityRecord) toDomain() domain.Identity {
	id := r.ID
	if id == 0 {
		id = r.UserID
	}
	return domain.Identity{
		ID:       id,
		Username: r.Username,
		Email:    r.Email,
		Role:     r.Role,
		AreaID:   r.AreaID,
		AreaName: r.AreaName,
	}
}

type stateChangeRequest struct {
	Estado string `json:"estado"`
	Nota   string `json:"nota,omitempty"`
}

type assignTeamRequest struct {
	UsuarioIDs []int `json:"usuario_ids"`
}

type noteRequest struct {
	Texto string `json:"texto"`
}

type loginRequest struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

type evidenceResponse struct {
	URLs  []string `json:"urls"`
	Count int      `json:"count"`
}
