package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"sensechat/src/models"
)

// Generation parameters sent with every question; the backend treats them
// as hints.
const (
	defaultMaxTokens   = 512
	defaultTemperature = 0.7
)

type sessionListResponse struct {
	Sessions []models.ChatSession `json:"sessions"`
	Total    int                  `json:"total"`
}

type sessionDetailResponse struct {
	Session  models.ChatSession   `json:"session"`
	Messages []models.ChatMessage `json:"messages"`
}

type createSessionRequest struct {
	Title string `json:"title,omitempty"`
}

type sendMessageRequest struct {
	Message     string  `json:"message"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// ChatAnswer is the assistant's reply to one question, before the session
// transcript is re-fetched.
type ChatAnswer struct {
	Response       string                   `json:"response"`
	Sources        []models.SourceReference `json:"sources"`
	ProcessingTime float64                  `json:"processing_time"`
	TokensUsed     int                      `json:"tokens_used,omitempty"`
}

// ListSessions returns every chat session of the current user.
func (c *Client) ListSessions(ctx context.Context) ([]models.ChatSession, error) {
	var resp sessionListResponse
	if err := c.getJSON(ctx, "/chats", &resp); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return resp.Sessions, nil
}

// CreateSession creates a session; an empty title lets the backend pick one.
func (c *Client) CreateSession(ctx context.Context, title string) (models.ChatSession, error) {
	var session models.ChatSession
	err := c.doJSON(ctx, http.MethodPost, "/chats", createSessionRequest{Title: title}, &session)
	if err != nil {
		return models.ChatSession{}, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetSession returns a session together with its full transcript.
func (c *Client) GetSession(ctx context.Context, sessionID string) (models.ChatSession, []models.ChatMessage, error) {
	var resp sessionDetailResponse
	if err := c.getJSON(ctx, "/chats/"+url.PathEscape(sessionID), &resp); err != nil {
		return models.ChatSession{}, nil, fmt.Errorf("failed to load session '%s': %w", sessionID, err)
	}
	return resp.Session, resp.Messages, nil
}

// SendMessage asks one question inside a session and waits for the answer.
func (c *Client) SendMessage(ctx context.Context, sessionID, message string) (ChatAnswer, error) {
	var answer ChatAnswer
	err := c.doJSON(ctx, http.MethodPost, "/chats/"+url.PathEscape(sessionID)+"/messages", sendMessageRequest{
		Message:     message,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}, &answer)
	if err != nil {
		return ChatAnswer{}, err
	}
	return answer, nil
}

// DeleteSession removes a session and its history.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/chats/"+url.PathEscape(sessionID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete session '%s': %w", sessionID, err)
	}
	return nil
}

// RenameSession updates a session title. The backend takes the new title as
// a query parameter.
func (c *Client) RenameSession(ctx context.Context, sessionID, title string) error {
	path := "/chats/" + url.PathEscape(sessionID) + "/title?" + url.Values{"title": {title}}.Encode()
	if err := c.doJSON(ctx, http.MethodPut, path, nil, nil); err != nil {
		return fmt.Errorf("failed to rename session '%s': %w", sessionID, err)
	}
	return nil
}

// Suggestions returns starter questions for an empty chat.
func (c *Client) Suggestions(ctx context.Context, count int) ([]string, error) {
	path := "/chat/suggestions"
	if count > 0 {
		path += fmt.Sprintf("?count=%d", count)
	}
	var resp suggestionsResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch suggestions: %w", err)
	}
	return resp.Suggestions, nil
}
