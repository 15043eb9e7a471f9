package apiv1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/atelierhq/atelier/plugin/ai"
	"github.com/atelierhq/atelier/plugin/ai/clarify"
	"github.com/atelierhq/atelier/plugin/ai/rag"
	"github.com/atelierhq/atelier/server/assistant"
)

// HistoryMessage is one prior conversation turn.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SearchFilters mirrors the retrieval filters on the wire.
type SearchFilters struct {
	Categories []string `json:"categories,omitempty"`
	MinRating  float64  `json:"minRating,omitempty"`
	ExcludeIDs []string `json:"excludeIds,omitempty"`
	MaxResults int      `json:"maxResults,omitempty"`
}

// ChatRequest represents a single assistant turn.
type ChatRequest struct {
	Query          string           `json:"query"`
	ConversationID string           `json:"conversationId,omitempty"`
	History        []HistoryMessage `json:"history,omitempty"`
	Filters        SearchFilters    `json:"filters,omitempty"`
}

// ChatResponse is the batch-mode assistant reply.
type ChatResponse struct {
	ConversationID         string             `json:"conversationId"`
	Content                string             `json:"content"`
	SearchResults          []rag.SearchResult `json:"searchResults"`
	ProcessingTimeMs       int64              `json:"processingTimeMs"`
	NeedsClarification     bool               `json:"needsClarification"`
	ClarificationQuestions []clarify.Question `json:"clarificationQuestions,omitempty"`
	SuggestedQueries       []string           `json:"suggestedQueries,omitempty"`
	FromCache              bool               `json:"fromCache"`
}

// ClarifyRequest carries the user's answer to a clarification question.
type ClarifyRequest struct {
	OriginalQuery  string           `json:"originalQuery"`
	Answer         string           `json:"answer"`
	ConversationID string           `json:"conversationId,omitempty"`
	History        []HistoryMessage `json:"history,omitempty"`
	Filters        SearchFilters    `json:"filters,omitempty"`
}

func (s *APIV1Service) assistantEnabled(c echo.Context) (bool, error) {
	if s.Engine == nil {
		return false, c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "assistant is not enabled"})
	}
	return true, nil
}

// Chat handles one assistant turn in batch mode.
// POST /api/v1/assistant/chat
func (s *APIV1Service) Chat(c echo.Context) error {
	if ok, err := s.assistantEnabled(c); !ok {
		return err
	}

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = shortuuid.New()
	}

	resp := s.Engine.Respond(c.Request().Context(), req.Query, toRAGFilters(req.Filters), assistant.ChatOptions{
		ConversationID: conversationID,
		History:        toMessages(req.History),
	})
	return c.JSON(http.StatusOK, toChatResponse(conversationID, resp))
}

// Clarify re-enters the pipeline with a clarification answer.
// POST /api/v1/assistant/clarify
func (s *APIV1Service) Clarify(c echo.Context) error {
	if ok, err := s.assistantEnabled(c); !ok {
		return err
	}

	var req ClarifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.OriginalQuery == "" || req.Answer == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "originalQuery and answer are required"})
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = shortuuid.New()
	}

	resp := s.Engine.HandleClarification(c.Request().Context(), req.OriginalQuery, req.Answer, toRAGFilters(req.Filters), assistant.ChatOptions{
		ConversationID: conversationID,
		History:        toMessages(req.History),
	})
	return c.JSON(http.StatusOK, toChatResponse(conversationID, resp))
}

// ChatStream handles one assistant turn over server-sent events. The
// event sequence is: one "results" event, zero or more "message"
// events, one "done" event.
// POST /api/v1/assistant/chat/stream
func (s *APIV1Service) ChatStream(c echo.Context) error {
	if ok, err := s.assistantEnabled(c); !ok {
		return err
	}

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = shortuuid.New()
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)

	events := s.Engine.RespondStream(c.Request().Context(), req.Query, toRAGFilters(req.Filters), assistant.ChatOptions{
		ConversationID: conversationID,
		History:        toMessages(req.History),
	})

	for event := range events {
		if err := writeSSE(w, event); err != nil {
			return err
		}
		w.Flush()
	}
	return nil
}

// SuggestionsResponse represents the suggested follow-up queries.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// GetSuggestions returns follow-up query suggestions for a query.
// GET /api/v1/assistant/suggestions?query=...
func (s *APIV1Service) GetSuggestions(c echo.Context) error {
	query := c.QueryParam("query")
	return c.JSON(http.StatusOK, SuggestionsResponse{
		Suggestions: clarify.SuggestedQueries(query),
	})
}

// GetCacheStats returns the search cache counters.
// GET /api/v1/cache/stats
func (s *APIV1Service) GetCacheStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.SearchCache.Stats())
}

func writeSSE(w *echo.Response, event assistant.StreamEvent) error {
	name := "message"
	switch {
	case event.Done:
		name = "done"
	case event.SearchResults != nil:
		name = "results"
	case event.NeedsClarification:
		name = "clarification"
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}

func toRAGFilters(f SearchFilters) rag.SearchFilters {
	return rag.SearchFilters{
		Categories: f.Categories,
		MinRating:  f.MinRating,
		ExcludeIDs: f.ExcludeIDs,
		MaxResults: f.MaxResults,
	}
}

func toMessages(history []HistoryMessage) []ai.Message {
	if len(history) == 0 {
		return nil
	}
	messages := make([]ai.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case "user":
			messages = append(messages, ai.UserMessage(m.Content))
		case "assistant":
			messages = append(messages, ai.AssistantMessage(m.Content))
		}
	}
	return messages
}

func toChatResponse(conversationID string, resp *assistant.RAGResponse) ChatResponse {
	return ChatResponse{
		ConversationID:         conversationID,
		Content:                resp.Content,
		SearchResults:          resp.SearchResults,
		ProcessingTimeMs:       resp.ProcessingTimeMs,
		NeedsClarification:     resp.NeedsClarification,
		ClarificationQuestions: resp.ClarificationQuestions,
		SuggestedQueries:       resp.SuggestedQueries,
		FromCache:              resp.FromCache,
	}
}
