// Package assistant is the retrieval orchestrator: it turns a free-text
// user utterance into either clarification questions or a ranked,
// explained set of resource recommendations, and drives the
// chat-completion provider to produce the user-facing explanation.
//
// Per turn the engine walks Start → Analyzing → (Clarifying | Searching)
// → (NoResults | Responding) → Done. It guarantees a well-formed
// RAGResponse on every path; provider failures degrade to an apology
// instead of crossing the boundary to the caller.
package assistant

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/atelierhq/atelier/plugin/ai"
	"github.com/atelierhq/atelier/plugin/ai/analyzer"
	"github.com/atelierhq/atelier/plugin/ai/cache"
	"github.com/atelierhq/atelier/plugin/ai/clarify"
	"github.com/atelierhq/atelier/plugin/ai/rag"
	"github.com/atelierhq/atelier/server/internal/observability"
)

// maxHistoryTurns bounds the conversation window forwarded to the
// completion provider.
const maxHistoryTurns = 10

const (
	clarifyPrompt  = "为了给您更精准的推荐，请补充一些信息："
	blockedPrompt  = "请输入想找的设计资源，例如「扁平风格图标」。"
	noResultIntro  = "抱歉，没有找到符合条件的资源。您可以试试："
	apologyMessage = "抱歉，推荐服务暂时不可用，请稍后再试。以下是检索到的资源列表。"
)

// Engine is the top-level retrieval orchestrator.
type Engine struct {
	searcher *rag.Searcher
	cache    *cache.SearchCache
	llm      ai.LLMService
	logger   *slog.Logger

	// flight collapses concurrent identical cache misses so the
	// underlying search runs once.
	flight singleflight.Group
}

// NewEngine creates the orchestrator. All collaborators are constructed
// once at process start and passed in; the engine owns no hidden
// globals.
func NewEngine(searcher *rag.Searcher, searchCache *cache.SearchCache, llm ai.LLMService, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		searcher: searcher,
		cache:    searchCache,
		llm:      llm,
		logger:   logger,
	}
}

// Respond handles one user turn in batch mode.
func (e *Engine) Respond(ctx context.Context, query string, filters rag.SearchFilters, opts ChatOptions) *RAGResponse {
	reqCtx := observability.NewRequestContext(e.logger, opts.ConversationID)
	reqCtx.Info("assistant turn started",
		slog.Int(observability.LogFieldQueryLen, len(query)))

	resp := e.respond(ctx, reqCtx, query, filters, opts)
	resp.ProcessingTimeMs = reqCtx.DurationMs()

	reqCtx.Info("assistant turn completed",
		slog.Int64(observability.LogFieldDuration, resp.ProcessingTimeMs),
		slog.Int(observability.LogFieldResultCount, len(resp.SearchResults)),
		slog.Bool(observability.LogFieldCacheHit, resp.FromCache))
	return resp
}

func (e *Engine) respond(ctx context.Context, reqCtx *observability.RequestContext, query string, filters rag.SearchFilters, opts ChatOptions) *RAGResponse {
	// Analyzing.
	analysis := analyzer.Analyze(query, opts.Dimensions)
	reqCtx.Debug("query analyzed",
		slog.String(observability.LogFieldIntent, string(analysis.Intent)),
		slog.Float64("confidence", analysis.Confidence),
		slog.String("clarity", string(analysis.Clarity)))

	if analysis.Intent == analyzer.IntentBlocked {
		return &RAGResponse{
			Content:          blockedPrompt,
			SearchResults:    []rag.SearchResult{},
			SuggestedQueries: clarify.SuggestedQueries(query),
		}
	}

	// Clarifying: no search is performed on this branch.
	if clarify.ShouldAsk(analysis) {
		return &RAGResponse{
			Content:                clarifyPrompt,
			SearchResults:          []rag.SearchResult{},
			NeedsClarification:     true,
			ClarificationQuestions: clarify.Questions(analysis),
		}
	}

	// Searching.
	results, fromCache, err := e.search(ctx, query, filters)
	if err != nil {
		reqCtx.Error("hybrid search failed", err)
		return e.apology(query, nil)
	}

	// NoResults: skip the completion provider, nothing to ground on.
	if len(results) == 0 {
		return e.noResults(query)
	}

	// Responding.
	content, err := e.llm.Chat(ctx, e.buildMessages(query, results, opts.History))
	if err != nil {
		reqCtx.Error("chat completion failed", err)
		return e.apology(query, results)
	}

	return &RAGResponse{
		Content:       content,
		SearchResults: results,
		FromCache:     fromCache,
	}
}

// HandleClarification re-enters the pipeline with the original query
// augmented by the clarification answer. Clarification is a recursive
// re-invocation, not a separate code path.
func (e *Engine) HandleClarification(ctx context.Context, originalQuery, answer string, filters rag.SearchFilters, opts ChatOptions) *RAGResponse {
	return e.Respond(ctx, clarify.RefineQuery(originalQuery, answer), filters, opts)
}

// search consults the cache, collapsing concurrent identical misses.
func (e *Engine) search(ctx context.Context, query string, filters rag.SearchFilters) ([]rag.SearchResult, bool, error) {
	key := cache.Key(query, filters)
	if results, ok := e.cache.Get(key); ok {
		return results, true, nil
	}

	value, err, _ := e.flight.Do(key, func() (any, error) {
		results, err := e.searcher.Search(ctx, query, filters)
		if err != nil {
			return nil, err
		}
		e.cache.Set(key, results)
		return results, nil
	})
	if err != nil {
		return nil, false, err
	}
	return value.([]rag.SearchResult), false, nil
}

// noResults builds the empty-result response: an apology plus suggested
// follow-up queries, with no completion call.
func (e *Engine) noResults(query string) *RAGResponse {
	suggestions := clarify.SuggestedQueries(query)

	var b strings.Builder
	b.WriteString(noResultIntro)
	for _, s := range suggestions {
		b.WriteString("\n· ")
		b.WriteString(s)
	}

	return &RAGResponse{
		Content:          b.String(),
		SearchResults:    []rag.SearchResult{},
		SuggestedQueries: suggestions,
	}
}

// apology is the degraded response after provider failure. Results that
// were already retrieved are still surfaced.
func (e *Engine) apology(query string, results []rag.SearchResult) *RAGResponse {
	if results == nil {
		results = []rag.SearchResult{}
	}
	return &RAGResponse{
		Content:          apologyMessage,
		SearchResults:    results,
		SuggestedQueries: clarify.SuggestedQueries(query),
	}
}

// buildMessages assembles the completion request: system instruction
// with grounding context, up to the last 10 conversation turns, and the
// current query.
func (e *Engine) buildMessages(query string, results []rag.SearchResult, history []ai.Message) []ai.Message {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	return ai.FormatMessages(systemPrompt(results), query, history)
}
