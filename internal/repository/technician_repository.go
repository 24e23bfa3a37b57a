package repository

import (
	"context"
	"net/http"

	"github.com/spec-kit/tecnico-console/internal/domain"
)

// TechnicianRepository lists the active technician roster.
type TechnicianRepository interface {
	List(ctx context.Context) ([]domain.Technician, error)
}

type technicianRepository struct {
	client *Client
}

// NewTechnicianRepository instantiates the repository.
func NewTechnicianRepository(client *Client) TechnicianRepository {
	return &technicianRepository{client: client}
}

// List returns every active technician, the acting one included.
func (r *technicianRepository) List(ctx context.Context) ([]domain.Technician, error) {
	resp, err := r.client.call(ctx, "list_technicians", http.MethodGet, "/api/tecnicos", nil)
	if err != nil {
		return nil, err
	}
	var records []userRecord
	if err := decode(resp, &records); err != nil {
		return nil, err
	}
	roster := make([]domain.Technician, 0, len(records))
	for _, rec := range records {
		roster = append(roster, domain.Technician{
			ID:       rec.ID,
			Username: rec.Username,
			Role:     rec.Role,
			Area:     rec.Area,
		})
	}
	return roster, nil
}
