package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensechat/src/models"
)

func TestSendMessageRequestShape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chats/s1/messages", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Message     string  `json:"message"`
			MaxTokens   int     `json:"max_tokens"`
			Temperature float64 `json:"temperature"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "Quelle est la politique de mot de passe ?", body.Message)
		assert.Equal(t, 512, body.MaxTokens)
		assert.InDelta(t, 0.7, body.Temperature, 0.001)

		json.NewEncoder(w).Encode(ChatAnswer{
			Response: "La politique impose 12 caractères minimum.",
			Sources: []models.SourceReference{{
				DocumentID:     "doc123",
				DocumentName:   "politique_securite.pdf",
				ChunkContent:   "Les mots de passe doivent compter au moins 12 caractères...",
				RelevanceScore: 0.92,
			}},
			ProcessingTime: 1.4,
			TokensUsed:     187,
		})
	})

	client := testClient(t, mux)
	answer, err := client.SendMessage(context.Background(), "s1", "Quelle est la politique de mot de passe ?")
	require.NoError(t, err)
	assert.Contains(t, answer.Response, "12 caractères")
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "politique_securite.pdf", answer.Sources[0].DocumentName)
}

func TestSessionLifecycleEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chats", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Title string `json:"title"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(models.ChatSession{ID: "s9", Title: body.Title})
	})
	mux.HandleFunc("GET /api/chats/s9", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"session":{"id":"s9","title":"Audit","message_count":2},` +
			`"messages":[{"id":"m1","session_id":"s9","type":"user","content":"Bonjour","timestamp":"2025-03-01T09:00:00"},` +
			`{"id":"m2","session_id":"s9","type":"assistant","content":"Bonjour, comment puis-je aider ?","timestamp":"2025-03-01T09:00:02"}]}`))
	})
	mux.HandleFunc("DELETE /api/chats/s9", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "Session deleted successfully"})
	})

	client := testClient(t, mux)

	created, err := client.CreateSession(context.Background(), "Audit")
	require.NoError(t, err)
	assert.Equal(t, "s9", created.ID)

	session, messages, err := client.GetSession(context.Background(), "s9")
	require.NoError(t, err)
	assert.Equal(t, "Audit", session.Title)
	require.Len(t, messages, 2)
	assert.Equal(t, models.MessageTypeUser, messages[0].Type)
	assert.Equal(t, models.MessageTypeAssistant, messages[1].Type)

	require.NoError(t, client.DeleteSession(context.Background(), "s9"))
}

func TestRenameSessionUsesQueryParameter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/chats/s1/title", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Revue pare-feu", r.URL.Query().Get("title"))
		json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})

	client := testClient(t, mux)
	require.NoError(t, client.RenameSession(context.Background(), "s1", "Revue pare-feu"))
}

func TestSuggestions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/chat/suggestions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "4", r.URL.Query().Get("count"))
		json.NewEncoder(w).Encode(map[string]any{
			"suggestions": []string{
				"Comment signaler un e-mail de phishing ?",
				"Quelle est la politique de mot de passe ?",
			},
		})
	})

	client := testClient(t, mux)
	suggestions, err := client.Suggestions(context.Background(), 4)
	require.NoError(t, err)
	assert.Len(t, suggestions, 2)
}
