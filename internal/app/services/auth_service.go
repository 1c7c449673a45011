package services

import (
	"github.com/rs/zerolog"

	"github.com/edupulse/edupulse/internal/pkg/apperrors"
	"github.com/edupulse/edupulse/internal/pkg/auth"
)

// AuthService authenticates the administrative principal for the manual
// reconciliation and bulk-status endpoints.
type AuthService struct {
	username     string
	passwordHash string
	jwtService   *auth.JWTService
	logger       zerolog.Logger
}

// NewAuthService creates a new auth service instance
func NewAuthService(username, passwordHash string, jwtService *auth.JWTService, logger zerolog.Logger) *AuthService {
	return &AuthService{
		username:     username,
		passwordHash: passwordHash,
		jwtService:   jwtService,
		logger:       logger,
	}
}

// Login checks the admin credentials and issues an access token
func (s *AuthService) Login(username, password string) (token string, expiresIn int, err error) {
	if s.username == "" || s.passwordHash == "" {
		s.logger.Warn().Msg("Admin login attempted but no admin credentials configured")
		return "", 0, apperrors.ErrInvalidCredentials
	}

	if username != s.username || !auth.CheckPassword(s.passwordHash, password) {
		return "", 0, apperrors.ErrInvalidCredentials
	}

	return s.jwtService.GenerateToken(username)
}
