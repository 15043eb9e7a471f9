package assistant

import (
	"context"
	"log/slog"

	"github.com/atelierhq/atelier/plugin/ai/analyzer"
	"github.com/atelierhq/atelier/plugin/ai/clarify"
	"github.com/atelierhq/atelier/plugin/ai/rag"
	"github.com/atelierhq/atelier/server/internal/observability"
)

// RespondStream handles one user turn in streaming mode. Search results
// are always delivered before any prose so the client can render the
// resource cards while the explanation is still generating. The channel
// is closed after the terminal Done event, or as soon as ctx is
// cancelled; a caller that stops consuming must cancel ctx.
func (e *Engine) RespondStream(ctx context.Context, query string, filters rag.SearchFilters, opts ChatOptions) <-chan StreamEvent {
	events := make(chan StreamEvent, 8)

	go func() {
		defer close(events)

		reqCtx := observability.NewRequestContext(e.logger, opts.ConversationID)
		reqCtx.Info("assistant stream started",
			slog.Int(observability.LogFieldQueryLen, len(query)))

		e.stream(ctx, reqCtx, events, query, filters, opts)

		if !emit(ctx, events, StreamEvent{Done: true}) {
			return
		}
		reqCtx.Info("assistant stream completed",
			slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))
	}()

	return events
}

// emit delivers one event unless the turn is cancelled first. A false
// return means the consumer is gone and the producer must stop.
func emit(ctx context.Context, events chan<- StreamEvent, event StreamEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Engine) stream(ctx context.Context, reqCtx *observability.RequestContext, events chan<- StreamEvent, query string, filters rag.SearchFilters, opts ChatOptions) {
	analysis := analyzer.Analyze(query, opts.Dimensions)

	if analysis.Intent == analyzer.IntentBlocked {
		emit(ctx, events, StreamEvent{Chunk: blockedPrompt, SuggestedQueries: clarify.SuggestedQueries(query)})
		return
	}

	if clarify.ShouldAsk(analysis) {
		emit(ctx, events, StreamEvent{
			Chunk:                  clarifyPrompt,
			NeedsClarification:     true,
			ClarificationQuestions: clarify.Questions(analysis),
		})
		return
	}

	results, _, err := e.search(ctx, query, filters)
	if err != nil {
		reqCtx.Error("hybrid search failed", err)
		emit(ctx, events, StreamEvent{Chunk: apologyMessage, SuggestedQueries: clarify.SuggestedQueries(query)})
		return
	}

	if len(results) == 0 {
		resp := e.noResults(query)
		if !emit(ctx, events, StreamEvent{
			SearchResults:    []rag.SearchResult{},
			SuggestedQueries: resp.SuggestedQueries,
		}) {
			return
		}
		emit(ctx, events, StreamEvent{Chunk: resp.Content})
		return
	}

	// Results first, prose after.
	if !emit(ctx, events, StreamEvent{SearchResults: results}) {
		return
	}

	chunks, errs := e.llm.ChatStream(ctx, e.buildMessages(query, results, opts.History))
	for chunk := range chunks {
		if !emit(ctx, events, StreamEvent{Chunk: chunk}) {
			return
		}
	}
	if err := <-errs; err != nil {
		reqCtx.Error("chat completion stream failed", err)
		emit(ctx, events, StreamEvent{Chunk: apologyMessage})
	}
}
