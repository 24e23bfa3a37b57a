package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/spec-kit/tecnico-console/internal/auth"
	"github.com/spec-kit/tecnico-console/internal/config"
	"github.com/spec-kit/tecnico-console/internal/domain"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

// IdentitySource yields the technician behind the console.
type IdentitySource interface {
	Identity() *domain.Identity
}

// AuthService issues console API tokens against the configured password hash.
type AuthService struct {
	tokenMgr     *auth.TokenManager
	passwordHash string
	identity     IdentitySource
	logger       *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, tokens *auth.TokenManager, identity IdentitySource, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		tokenMgr:     tokens,
		passwordHash: cfg.PasswordHash,
		identity:     identity,
		logger:       logger,
	}
}

// Enabled reports whether the console API is protected.
func (s *AuthService) Enabled() bool {
	return s.passwordHash != ""
}

// Login checks password and returns a token bound to the session technician.
func (s *AuthService) Login(_ context.Context, password string) (domain.Token, error) {
	if !s.Enabled() {
		return domain.Token{}, apperrors.NewValidationError("console authentication is disabled", nil)
	}
	if password == "" {
		return domain.Token{}, apperrors.NewValidationError("password required", map[string]any{"field": "password"})
	}
	if err := auth.ComparePassword(s.passwordHash, password); err != nil {
		s.logger.Warn("console login rejected")
		if apperrors.Is(err, apperrors.CodeUnauthenticated) {
			return domain.Token{}, err
		}
		return domain.Token{}, apperrors.NewInternalError(err)
	}

	identity := s.identity.Identity()
	if identity == nil {
		return domain.Token{}, apperrors.NewUnauthenticated("helpdesk session not established")
	}
	token, err := s.tokenMgr.GenerateToken(strconv.Itoa(identity.ID), identity.Username, identity.Role)
	if err != nil {
		return domain.Token{}, apperrors.NewInternalError(err)
	}
	s.logger.Info("console login", zap.Int("technician_id", identity.ID))
	return token, nil
}
