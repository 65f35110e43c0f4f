package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensechat/src/models"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(server.URL, 5*time.Second, logger)
}

func TestRequestHeaders(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(models.User{Username: "jdupont"})
	}))
	client.SetToken("tok123")

	_, err := client.Me(context.Background())
	require.NoError(t, err)
}

func TestNoAuthorizationHeaderWithoutToken(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(models.User{})
	}))
	_, err := client.Me(context.Background())
	require.NoError(t, err)
}

func TestErrorDetailParsing(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Nom d'utilisateur ou mot de passe incorrect"})
	}))

	_, err := client.Login(context.Background(), "jdupont", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Nom d'utilisateur ou mot de passe incorrect", apiErr.Detail)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
}

func TestErrorListDetailIsNotUserMaterial(t *testing.T) {
	// FastAPI validation errors carry a list under "detail".
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"loc":["body","message"],"msg":"field required"}]}`))
	}))

	_, err := client.SendMessage(context.Background(), "s1", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Empty(t, apiErr.Detail)
}

func TestNonJSONErrorBody(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))

	_, err := client.ListSessions(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Empty(t, apiErr.Detail)
}

func TestHealthLivesOutsideAPIPrefix(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}))
	require.NoError(t, client.Health(context.Background()))
}

func TestNaiveTimestampsDecode(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sessions":[{"id":"s1","title":"Audit","created_at":"2025-03-01T09:30:00.123456","updated_at":"2025-03-01T10:00:00","message_count":4}],"total":1}`))
	}))

	sessions, err := client.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 2025, sessions[0].CreatedAt.Year())
	assert.Equal(t, 10, sessions[0].UpdatedAt.Hour())
}

func TestUserMessageMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server detail wins", &APIError{StatusCode: 400, Detail: "Type de fichier non supporté: .exe"}, "Type de fichier non supporté: .exe"},
		{"401 without detail", &APIError{StatusCode: 401}, "Session expirée, veuillez vous reconnecter"},
		{"403 without detail", &APIError{StatusCode: 403}, "Accès refusé"},
		{"404 without detail", &APIError{StatusCode: 404}, "Ressource introuvable"},
		{"413 without detail", &APIError{StatusCode: 413}, "Fichier trop volumineux"},
		{"500 without detail", &APIError{StatusCode: 503}, "Erreur interne du serveur"},
		{"auth error message", &models.AuthError{Message: "Nom d'utilisateur ou mot de passe incorrect"}, "Nom d'utilisateur ou mot de passe incorrect"},
		{"validation message", &models.ValidationError{Message: "Veuillez saisir votre mot de passe"}, "Veuillez saisir votre mot de passe"},
		{"app error message", &models.AppError{Op: "open file", Message: "Impossible d'ouvrir le fichier"}, "Impossible d'ouvrir le fichier"},
		{"deadline", context.DeadlineExceeded, "Le serveur met trop de temps à répondre"},
		{"transport", errors.New("dial tcp: connection refused"), "Erreur de connexion au serveur"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
