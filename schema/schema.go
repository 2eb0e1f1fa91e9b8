package schema

import "time"

// Document is a stored index record as returned by a vector store.
type Document struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Vector    []float32              `json:"-"`
	CreatedAt time.Time              `json:"created_at,omitempty"`
}

// SearchResult pairs a document with its similarity score (higher is closer).
type SearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// SearchOptions controls a single similarity search.
type SearchOptions struct {
	TopK      int     `json:"top_k"`
	Threshold float64 `json:"threshold,omitempty"`
}

// Metadata keys every index provider populates.
const (
	MetaSource = "source"
	MetaPage   = "page"
)

// Sentinels used when a fragment lacks source metadata.
const (
	UnknownSource = "Unknown File"
	UnknownPage   = "?"
)

// Fragment is a retrieved passage of a legal document.
type Fragment struct {
	Source  string  `json:"source"`
	Page    string  `json:"page"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Roles of a conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message of prior conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Query is a single user request. It is not modified by the pipeline.
type Query struct {
	Text         string `json:"query"`
	Jurisdiction string `json:"jurisdiction"`
	LegalLens    string `json:"legal_lens"`
	History      []Turn `json:"history,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
}

// Intent is the routing classification of a query.
type Intent string

const (
	IntentConversational Intent = "CONVERSATIONAL"
	IntentSubstantive    Intent = "SUBSTANTIVE"
)

func (i Intent) String() string { return string(i) }
