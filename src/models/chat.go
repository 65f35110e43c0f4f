package models

// Message author types used by the backend.
const (
	MessageTypeUser      = "user"
	MessageTypeAssistant = "assistant"
)

// ChatSession represents one conversation thread as listed by the backend.
type ChatSession struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    Timestamp `json:"created_at"`
	UpdatedAt    Timestamp `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview,omitempty"`
}

// ChatMessage is a single immutable entry of a session transcript.
type ChatMessage struct {
	ID             string            `json:"id"`
	SessionID      string            `json:"session_id"`
	Type           string            `json:"type"`
	Content        string            `json:"content"`
	Timestamp      Timestamp         `json:"timestamp"`
	Sources        []SourceReference `json:"sources,omitempty"`
	TokensUsed     int               `json:"tokens_used,omitempty"`
	ProcessingTime float64           `json:"processing_time,omitempty"`
}

// SourceReference points at the document chunk an assistant answer was
// grounded on. Assistant messages only.
type SourceReference struct {
	DocumentID     string  `json:"document_id"`
	DocumentName   string  `json:"document_name"`
	ChunkContent   string  `json:"chunk_content"`
	RelevanceScore float64 `json:"relevance_score"`
	PageNumber     int     `json:"page_number,omitempty"`
	Section        string  `json:"section,omitempty"`
}
