package repository

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/spec-kit/tecnico-console/internal/domain"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

// SessionRepository opens and describes the technician's helpdesk session.
type SessionRepository interface {
	Login(ctx context.Context, username, password string) error
	Identity(ctx context.Context) (*domain.Identity, error)
}

type sessionRepository struct {
	client *Client
}

// NewSessionRepository instantiates the repository.
func NewSessionRepository(client *Client) SessionRepository {
	return &sessionRepository{client: client}
}

// Login posts credentials; the session cookie lands in the client's jar.
func (r *sessionRepository) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}
	resp, err := r.client.call(ctx, "login", http.MethodPost, loginPath, func(req *resty.Request) {
		req.SetHeader("Content-Type", "application/json").
			SetBody(loginRequest{User: username, Pass: password})
	})
	if err != nil {
		return err
	}
	if err := decode(resp, nil); err != nil {
		// A rejected login is a credentials problem, not a server fault.
		if apperrors.Is(err, apperrors.CodeServerError) {
			return apperrors.NewUnauthenticated(err.Error())
		}
		return err
	}
	return nil
}

// Identity reads the full profile and falls back to the basic session view.
func (r *sessionRepository) Identity(ctx context.Context) (*domain.Identity, error) {
	identity, err := r.fetchIdentity(ctx, "session_me", "/api/session/me")
	if apperrors.Is(err, apperrors.CodeNotFound) {
		return r.fetchIdentity(ctx, "session_basic", "/api/session/basic")
	}
	return identity, err
}

func (r *sessionRepository) fetchIdentity(ctx context.Context, op, path string) (*domain.Identity, error) {
	resp, err := r.client.call(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var rec identityRecord
	if err := decode(resp, &rec); err != nil {
		return nil, err
	}
	identity := rec.toDomain()
	if identity.ID == 0 {
		return nil, apperrors.NewUnauthenticated("session has no user")
	}
	return &identity, nil
}
