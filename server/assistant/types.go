package assistant

import (
	"github.com/atelierhq/atelier/plugin/ai"
	"github.com/atelierhq/atelier/plugin/ai/analyzer"
	"github.com/atelierhq/atelier/plugin/ai/clarify"
	"github.com/atelierhq/atelier/plugin/ai/rag"
)

// ChatOptions carries per-turn conversation context supplied by the
// caller. The engine holds no conversation state of its own.
type ChatOptions struct {
	// ConversationID labels log lines; empty is fine.
	ConversationID string
	// History is the conversation so far, oldest first. Only the most
	// recent turns are forwarded to the completion provider.
	History []ai.Message
	// Dimensions extracted in earlier turns; newly detected values
	// override them per facet.
	Dimensions analyzer.Dimensions
}

// RAGResponse is the sole externally visible contract of the engine.
// When NeedsClarification is true, SearchResults is empty and
// ClarificationQuestions holds 1-3 items.
type RAGResponse struct {
	Content                string             `json:"content"`
	SearchResults          []rag.SearchResult `json:"searchResults"`
	ProcessingTimeMs       int64              `json:"processingTimeMs"`
	NeedsClarification     bool               `json:"needsClarification"`
	ClarificationQuestions []clarify.Question `json:"clarificationQuestions,omitempty"`
	SuggestedQueries       []string           `json:"suggestedQueries,omitempty"`
	FromCache              bool               `json:"fromCache"`
}

// StreamEvent is one increment of a streaming response. The first event
// of a successful search carries the result list; content chunks follow;
// the final event has Done set.
type StreamEvent struct {
	Chunk                  string             `json:"chunk,omitempty"`
	SearchResults          []rag.SearchResult `json:"searchResults,omitempty"`
	NeedsClarification     bool               `json:"needsClarification,omitempty"`
	ClarificationQuestions []clarify.Question `json:"clarificationQuestions,omitempty"`
	SuggestedQueries       []string           `json:"suggestedQueries,omitempty"`
	Done                   bool               `json:"done,omitempty"`
}
