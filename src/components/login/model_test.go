package login

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sensechat/src/api"
	"sensechat/src/services/auth"
	"sensechat/src/services/storage/repositories"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoginModel(t *testing.T, handler http.Handler) Model {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := api.NewClient(server.URL, 5*time.Second, logger)
	tokens := repositories.NewFileTokenRepository(t.TempDir())
	service := auth.NewService(client, tokens, logger)
	return New(context.Background(), service)
}

func typeText(m Model, text string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func press(m Model, key tea.KeyType) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: key})
}

func TestSubmitGateRequiresBothFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s %s", r.Method, r.URL.Path)
	})
	m := newLoginModel(t, mux)

	assert.False(t, m.CanSubmit())

	m = typeText(m, "marie.dupont")
	assert.False(t, m.CanSubmit(), "password still empty")

	m, _ = press(m, tea.KeyTab)
	var cmd tea.Cmd
	m, cmd = press(m, tea.KeyEnter)
	assert.Nil(t, cmd, "enter with an empty password must not submit")
	assert.False(t, m.submitting)

	m = typeText(m, "secret")
	assert.True(t, m.CanSubmit())
}

func TestWhitespaceUsernameDoesNotSubmit(t *testing.T) {
	m := newLoginModel(t, http.NewServeMux())
	m = typeText(m, "   ")
	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "secret")
	assert.False(t, m.CanSubmit())
}

func TestEnterOnUsernameMovesToPassword(t *testing.T) {
	m := newLoginModel(t, http.NewServeMux())
	m = typeText(m, "marie.dupont")
	m, _ = press(m, tea.KeyEnter)
	assert.Equal(t, 1, m.focusIndex)
}

func TestSubmitSuccessEmitsSuccessMsg(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token123",
			"token_type":   "bearer",
			"role":         "employee",
			"username":     "marie.dupont",
		})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"username":  "marie.dupont",
			"role":      "employee",
			"full_name": "Marie Dupont",
		})
	})
	m := newLoginModel(t, mux)

	m = typeText(m, "marie.dupont")
	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "secret")

	m, cmd := press(m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.True(t, m.submitting)

	login, ok := findResult(runCmd(cmd))
	require.True(t, ok)
	require.NoError(t, login.err)

	m, cmd = m.Update(login)
	assert.False(t, m.submitting)
	require.NotNil(t, cmd)
	success, isSuccess := cmd().(SuccessMsg)
	require.True(t, isSuccess)
	assert.Equal(t, "marie.dupont", success.User.Username)
	assert.Equal(t, "Marie Dupont", success.User.FullName)
}

func TestSubmitFailureKeepsUsernameAndShowsError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Nom d'utilisateur ou mot de passe incorrect"})
	})
	m := newLoginModel(t, mux)

	m = typeText(m, "marie.dupont")
	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "mauvais")

	m, cmd := press(m, tea.KeyEnter)
	require.NotNil(t, cmd)

	login, ok := findResult(runCmd(cmd))
	require.True(t, ok)
	require.Error(t, login.err)

	m, cmd = m.Update(login)
	assert.Nil(t, cmd)
	assert.False(t, m.submitting)
	assert.Equal(t, "Nom d'utilisateur ou mot de passe incorrect", m.errMessage)
	assert.Equal(t, "marie.dupont", m.username.Value())
	assert.Empty(t, m.password.Value(), "the rejected password is cleared")
}

// runCmd executes a command tree and returns every produced message,
// flattening batches.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, sub := range batch {
			out = append(out, runCmd(sub)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findResult(msgs []tea.Msg) (resultMsg, bool) {
	for _, msg := range msgs {
		if result, ok := msg.(resultMsg); ok {
			return result, true
		}
	}
	return resultMsg{}, false
}
