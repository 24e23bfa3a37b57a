package dto

import "github.com/spec-kit/tecnico-console/internal/domain"

// LoginRequest payload for the console API.
type LoginRequest struct {
	Password string `json:"password"`
}

// TechnicianResponse describes the acting technician.
type TechnicianResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	Area     string `json:"area,omitempty"`
}

// SessionResponse is the console's view of the session.
type SessionResponse struct {
	Technician TechnicianResponse `json:"technician"`
	Scope      domain.Scope       `json:"scope"`
	Scopes     []domain.Scope     `json:"scopes"`
}

// AssignmentUpdateRequest edits the open assignment dialog. Mode is applied
// before the selection.
type AssignmentUpdateRequest struct {
	Mode          string `json:"mode"`
	CoAssigneeIDs *[]int `json:"co_assignee_ids"`
}
