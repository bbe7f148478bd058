package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/mmynk/dormmess/internal/auth"
	"github.com/mmynk/dormmess/internal/models"
	"github.com/mmynk/dormmess/internal/storage"
)

// AuthResult is returned on successful registration or login.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// AuthService registers and logs in residents.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Register creates a new user account and returns a session token.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	s.logger.Info("Register request", "email", email)

	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, invalidf("All fields are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalidf("invalid email address")
	}

	user, err := s.authenticator.Register(ctx, name, email, password)
	if err != nil {
		s.logger.Error("Registration failed", "email", email, "error", err)
		return nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates a user and returns a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	s.logger.Info("Login request", "email", email)

	if email == "" || password == "" {
		return nil, invalidf("All fields are required")
	}

	user, err := s.authenticator.Authenticate(ctx, email, password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, storage.ErrNotFound):
		s.logger.Warn("Login failed", "email", email, "error", err)
		return nil, auth.ErrInvalidCredentials
	case err != nil:
		s.logger.Error("Login failed", "email", email, "error", err)
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return &AuthResult{User: user, Token: token}, nil
}

// ValidateToken returns the claims of a valid session token.
func (s *AuthService) ValidateToken(token string) (*auth.Claims, error) {
	return s.jwtManager.Validate(token)
}
