package chat

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
	"sensechat/src/models"
	"sensechat/src/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatModel(t *testing.T, handler http.Handler) Model {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := api.NewClient(server.URL, 5*time.Second, logger)
	m := New(context.Background(), client)
	m.SetFocused(true)
	m.SetSize(100, 30)
	return m
}

func sessionJSON(id, title string, messages ...map[string]any) map[string]any {
	return map[string]any{
		"session":  map[string]any{"id": id, "title": title, "message_count": len(messages)},
		"messages": messages,
	}
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
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

func findSession(msgs []tea.Msg) (sessionMsg, bool) {
	for _, msg := range msgs {
		if sm, ok := msg.(sessionMsg); ok {
			return sm, true
		}
	}
	return sessionMsg{}, false
}

func findAnswer(msgs []tea.Msg) (answerMsg, bool) {
	for _, msg := range msgs {
		if am, ok := msg.(answerMsg); ok {
			return am, true
		}
	}
	return answerMsg{}, false
}

func loadSession(t *testing.T, m Model, sessionID string) Model {
	t.Helper()
	sm, ok := findSession(runCmd(m.Load(sessionID)))
	require.True(t, ok, "loading produced no session")
	m, _ = m.Update(sm)
	require.False(t, m.loading)
	return m
}

func TestSendRequiresSessionAndQuestion(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})
	m := newChatModel(t, handler)

	// No session loaded yet.
	m = typeText(m, "bonjour")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.awaiting)

	// Session loaded but nothing typed.
	m.session = models.ChatSession{ID: "s1", Title: "Audit"}
	m.input.SetValue("   ")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestSendShowsQuestionThenRefreshesTranscript(t *testing.T) {
	var asked string
	answered := false
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/chats/s1", func(w http.ResponseWriter, r *http.Request) {
		if !answered {
			json.NewEncoder(w).Encode(sessionJSON("s1", "Audit"))
			return
		}
		json.NewEncoder(w).Encode(sessionJSON("s1", "Audit",
			map[string]any{"id": "m1", "type": "user", "content": asked},
			map[string]any{"id": "m2", "type": "assistant", "content": "Voici la procédure.", "processing_time": 1.2},
		))
	})
	mux.HandleFunc("POST /api/chats/s1/messages", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message string `json:"message"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		asked = req.Message
		answered = true
		json.NewEncoder(w).Encode(map[string]any{"response": "Voici la procédure.", "processing_time": 1.2})
	})
	m := newChatModel(t, mux)
	m = loadSession(t, m, "s1")

	m = typeText(m, "Comment signaler un incident ?")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.awaiting)
	assert.Empty(t, m.input.Value())
	require.Len(t, m.messages, 1, "the question shows up before the answer")
	assert.Equal(t, models.MessageTypeUser, m.messages[0].Type)
	assert.Equal(t, "Comment signaler un incident ?", m.messages[0].Content)

	answer, ok := findAnswer(runCmd(cmd))
	require.True(t, ok)
	require.NoError(t, answer.err)
	assert.Equal(t, "Comment signaler un incident ?", asked)

	// The answer triggers a full refetch of the transcript.
	m, cmd = m.Update(answer)
	require.NotNil(t, cmd)
	assert.True(t, m.loading)

	sm, ok := findSession(runCmd(cmd))
	require.True(t, ok)
	m, _ = m.Update(sm)
	assert.False(t, m.awaiting)
	assert.True(t, m.responseReceived)
	require.Len(t, m.messages, 2)
	assert.Equal(t, "m2", m.messages[1].ID)
}

func TestAnswerFailureRestoresQuestion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/chats/s1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sessionJSON("s1", "Audit"))
	})
	mux.HandleFunc("POST /api/chats/s1/messages", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Service temporairement indisponible"})
	})
	m := newChatModel(t, mux)
	m = loadSession(t, m, "s1")

	m = typeText(m, "ma question")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, m.messages, 1)

	answer, ok := findAnswer(runCmd(cmd))
	require.True(t, ok)
	require.Error(t, answer.err)

	m, cmd = m.Update(answer)
	assert.False(t, m.awaiting)
	assert.Empty(t, m.messages, "the unanswered question is removed from the transcript")
	assert.Equal(t, "ma question", m.input.Value(), "the question returns to the input for a retry")

	msgs := runCmd(cmd)
	require.Len(t, msgs, 1)
	errMsg, ok := msgs[0].(types.ErrorMsg)
	require.True(t, ok)
	assert.Equal(t, "Service temporairement indisponible", errMsg.Message)
}

func TestStaleSessionResponseIsIgnored(t *testing.T) {
	m := newChatModel(t, http.NewServeMux())
	m.Load("s1")
	m.Load("s2")

	m, _ = m.Update(sessionMsg{
		session:  models.ChatSession{ID: "s1", Title: "Ancienne"},
		messages: []models.ChatMessage{{ID: "m1", Type: models.MessageTypeUser, Content: "vieux"}},
	})
	assert.Empty(t, m.SessionID(), "a response for a superseded load is dropped")

	m, _ = m.Update(sessionMsg{session: models.ChatSession{ID: "s2", Title: "Courante"}})
	assert.Equal(t, "s2", m.SessionID())
}

func TestAnswerForAnotherSessionIsIgnored(t *testing.T) {
	m := newChatModel(t, http.NewServeMux())
	m.session = models.ChatSession{ID: "s2"}
	m.awaiting = true

	m, cmd := m.Update(answerMsg{sessionID: "s1", err: nil})
	assert.Nil(t, cmd)
	assert.True(t, m.awaiting, "an answer for another session changes nothing")
}

func TestSuggestionCyclingFillsInput(t *testing.T) {
	m := newChatModel(t, http.NewServeMux())
	m, _ = m.Update(suggestionsMsg{suggestions: []string{
		"Comment créer un mot de passe fort ?",
		"Qu'est-ce que le phishing ?",
	}})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, "Comment créer un mot de passe fort ?", m.input.Value())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, "Qu'est-ce que le phishing ?", m.input.Value())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, "Comment créer un mot de passe fort ?", m.input.Value(), "cycling wraps around")
}

func TestResetClearsSession(t *testing.T) {
	m := newChatModel(t, http.NewServeMux())
	m.session = models.ChatSession{ID: "s1", Title: "Audit"}
	m.messages = []models.ChatMessage{{ID: "m1"}}
	m.awaiting = true
	m.input.SetValue("brouillon")

	m.Reset()
	assert.Empty(t, m.SessionID())
	assert.Empty(t, m.messages)
	assert.False(t, m.Awaiting())
	assert.Empty(t, m.input.Value())
}
