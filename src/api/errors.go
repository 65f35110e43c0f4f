package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"sensechat/src/models"
)

// APIError is a non-2xx response from the backend. Detail carries the
// {"detail": ...} string when the body had one.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	// FastAPI errors carry {"detail": "..."}; on validation failures the
	// detail is a list instead of a string and is not user material.
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
			apiErr.Detail = strings.TrimSpace(detail)
		}
	}
	return apiErr
}

// UserMessage converts any error from this layer into the French line shown
// to the user. Server-provided details are preferred verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized:
			return "Session expirée, veuillez vous reconnecter"
		case apiErr.StatusCode == http.StatusForbidden:
			return "Accès refusé"
		case apiErr.StatusCode == http.StatusNotFound:
			return "Ressource introuvable"
		case apiErr.StatusCode == http.StatusRequestEntityTooLarge:
			return "Fichier trop volumineux"
		case apiErr.StatusCode >= 500:
			return "Erreur interne du serveur"
		}
		return fmt.Sprintf("Erreur serveur (%d)", apiErr.StatusCode)
	}

	var authErr *models.AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.UserMessage()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "Le serveur met trop de temps à répondre"
	}
	return "Erreur de connexion au serveur"
}
