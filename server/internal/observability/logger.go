// Package observability provides structured logging helpers for
// per-request tracing of the retrieval pipeline.
package observability

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldConversationID is the field name for conversation ID.
	LogFieldConversationID = "conversation_id"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldQueryLen is the field name for query length.
	LogFieldQueryLen = "query_length"
	// LogFieldIntent is the field name for classified intent.
	LogFieldIntent = "intent"
	// LogFieldResultCount is the field name for result count.
	LogFieldResultCount = "result_count"
	// LogFieldCacheHit is the field name for cache hit flag.
	LogFieldCacheHit = "cache_hit"
	// LogFieldErrorCode is the field name for error code.
	LogFieldErrorCode = "error_code"
)

// RequestContext represents the context for a single retrieval turn with
// structured logging.
type RequestContext struct {
	RequestID      string
	ConversationID string
	StartTime      time.Time
	Logger         *slog.Logger
}

// NewRequestContext creates a new request context with a generated
// request ID.
func NewRequestContext(logger *slog.Logger, conversationID string) *RequestContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestContext{
		RequestID:      uuid.NewString(),
		ConversationID: conversationID,
		StartTime:      time.Now(),
		Logger:         logger,
	}
}

// DurationMs returns the elapsed time since the request started.
func (c *RequestContext) DurationMs() int64 {
	return time.Since(c.StartTime).Milliseconds()
}

func (c *RequestContext) attrs(extra []any) []any {
	base := []any{
		slog.String(LogFieldRequestID, c.RequestID),
	}
	if c.ConversationID != "" {
		base = append(base, slog.String(LogFieldConversationID, c.ConversationID))
	}
	return append(base, extra...)
}

// Info logs at info level with the request fields attached.
func (c *RequestContext) Info(msg string, args ...any) {
	c.Logger.Info(msg, c.attrs(args)...)
}

// Debug logs at debug level with the request fields attached.
func (c *RequestContext) Debug(msg string, args ...any) {
	c.Logger.Debug(msg, c.attrs(args)...)
}

// Warn logs at warn level with the request fields attached.
func (c *RequestContext) Warn(msg string, args ...any) {
	c.Logger.Warn(msg, c.attrs(args)...)
}

// Error logs at error level with the request fields attached.
func (c *RequestContext) Error(msg string, err error, args ...any) {
	args = append(args, slog.String("error", err.Error()))
	c.Logger.Error(msg, c.attrs(args)...)
}
