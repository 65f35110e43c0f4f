// Package auth tracks the authenticated user and session for the client.
package auth

import (
	"context"
	"log/slog"
	"sync"

	"sensechat/src/api"
	"sensechat/src/models"
	"sensechat/src/services/storage"
)

// Service owns the login/logout lifecycle and the current user. Views never
// touch the token; they ask the service.
type Service struct {
	client *api.Client
	tokens storage.TokenRepository
	logger *slog.Logger

	mu        sync.RWMutex
	user      *models.User
	token     *models.Token
	callbacks []func()
}

func NewService(client *api.Client, tokens storage.TokenRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client: client,
		tokens: tokens,
		logger: logger.With("component", "auth"),
	}
}

// Login authenticates against the backend and, on success, installs the
// token and loads the user profile. A rejected login comes back as an
// AuthError carrying the backend's French detail.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, &models.ValidationError{
			Message: "Veuillez saisir votre nom d'utilisateur et votre mot de passe",
		}
	}

	token, err := s.client.Login(ctx, username, password)
	if err != nil {
		if api.IsStatus(err, 401) {
			message := api.UserMessage(err)
			if message == "" {
				message = "Nom d'utilisateur ou mot de passe incorrect"
			}
			return nil, &models.AuthError{Message: message, Err: err}
		}
		return nil, err
	}

	s.client.SetToken(token.AccessToken)
	user, err := s.client.Me(ctx)
	if err != nil {
		s.client.ClearToken()
		return nil, err
	}

	if err := s.tokens.Save(&token); err != nil {
		// The session still works in memory; only the restart shortcut is lost.
		s.logger.Warn("Failed to persist session", "error", err)
	}

	s.mu.Lock()
	s.user = &user
	s.token = &token
	s.mu.Unlock()

	s.logger.Info("User logged in", "username", user.Username, "role", user.Role)
	return &user, nil
}

// Logout clears the session and runs every registered callback so dependent
// views reset their state. Tokens are stateless JWTs, so there is nothing to
// revoke on the backend; dropping the token ends the session.
func (s *Service) Logout() {
	s.mu.Lock()
	username := ""
	if s.user != nil {
		username = s.user.Username
	}
	s.user = nil
	s.token = nil
	callbacks := make([]func(), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.Unlock()

	s.client.ClearToken()
	if err := s.tokens.Clear(); err != nil {
		s.logger.Warn("Failed to clear stored session", "error", err)
	}

	for _, callback := range callbacks {
		callback()
	}
	s.logger.Info("User logged out", "username", username)
}

// VerifyToken restores the previous session when a stored token is still
// accepted by the backend. Tokens whose expiry claim is already past are
// discarded without a network call.
func (s *Service) VerifyToken(ctx context.Context) bool {
	stored, err := s.tokens.Load()
	if err != nil {
		s.logger.Debug("Failed to load stored session", "error", err)
		return false
	}
	if stored == nil {
		return false
	}
	if tokenExpired(stored.AccessToken) {
		s.logger.Debug("Stored session expired", "username", stored.Username)
		if err := s.tokens.Clear(); err != nil {
			s.logger.Warn("Failed to clear stored session", "error", err)
		}
		return false
	}

	s.client.SetToken(stored.AccessToken)
	user, err := s.client.Me(ctx)
	if err != nil {
		s.client.ClearToken()
		if api.IsStatus(err, 401) {
			if clearErr := s.tokens.Clear(); clearErr != nil {
				s.logger.Warn("Failed to clear stored session", "error", clearErr)
			}
		}
		s.logger.Debug("Stored session rejected", "error", err)
		return false
	}

	s.mu.Lock()
	s.user = &user
	s.token = stored
	s.mu.Unlock()

	s.logger.Info("Session restored", "username", user.Username, "role", user.Role)
	return true
}

// VerifyAdmin checks with the backend that the current session may use the
// admin endpoints.
func (s *Service) VerifyAdmin(ctx context.Context) error {
	if err := s.client.VerifyAdmin(ctx); err != nil {
		if api.IsStatus(err, 403) {
			return &models.AuthError{Message: "Accès réservé aux administrateurs", Err: err}
		}
		return err
	}
	return nil
}

// CurrentUser returns the authenticated user, or nil before login.
func (s *Service) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// IsAuthenticated reports whether a user is logged in.
func (s *Service) IsAuthenticated() bool {
	return s.CurrentUser() != nil
}

// OnLogout registers a callback run after every logout.
func (s *Service) OnLogout(callback func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, callback)
}
