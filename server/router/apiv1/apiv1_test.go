package apiv1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier/internal/profile"
	"github.com/atelierhq/atelier/plugin/ai"
	"github.com/atelierhq/atelier/plugin/ai/cache"
	"github.com/atelierhq/atelier/plugin/ai/rag"
	"github.com/atelierhq/atelier/plugin/ai/vector"
	"github.com/atelierhq/atelier/server/assistant"
	"github.com/atelierhq/atelier/store"
)

func newTestService() (*APIV1Service, *echo.Echo) {
	service := NewAPIV1Service(
		&profile.Profile{Mode: "dev", Version: "0.0.0-test"},
		nil,
		nil,
		cache.NewSearchCache(cache.DefaultConfig()),
		nil,
	)
	e := echo.New()
	service.RegisterRoutes(e)
	return service, e
}

func TestGetHealthz(t *testing.T) {
	_, e := newTestService()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthzResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "0.0.0-test", resp.Version)
}

func TestGetSuggestions(t *testing.T) {
	_, e := newTestService()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/assistant/suggestions?query=配色", nil)
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SuggestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Suggestions)
	assert.LessOrEqual(t, len(resp.Suggestions), 3)
}

func TestGetCacheStats(t *testing.T) {
	service, e := newTestService()
	service.SearchCache.Get("warm-up-miss")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil)
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats cache.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestChatWithoutEngine(t *testing.T) {
	_, e := newTestService()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assistant/chat",
		strings.NewReader(`{"query":"图标"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func newEngineBackedService() (*APIV1Service, *echo.Echo) {
	index := &fakeIndex{matches: []vector.Match{
		{Resource: &store.Resource{
			ID:         "r1",
			Name:       "Flat Icons",
			CategoryID: "icon",
			Rating:     store.RatingSummary{Quality: 4.5, Usability: 4.5, Visual: 4.5, Count: 3},
		}, Similarity: 0.9},
	}}
	searcher := rag.NewSearcher(index, &fakeCorpus{}, rag.DefaultConfig())
	searchCache := cache.NewSearchCache(cache.DefaultConfig())
	engine := assistant.NewEngine(searcher, searchCache, &fakeLLM{reply: "为您推荐 Flat Icons。"}, nil)

	service := NewAPIV1Service(
		&profile.Profile{Mode: "dev", Version: "0.0.0-test"},
		nil,
		engine,
		searchCache,
		nil,
	)
	e := echo.New()
	service.RegisterRoutes(e)
	return service, e
}

type fakeIndex struct {
	matches []vector.Match
}

func (f *fakeIndex) Search(context.Context, string, vector.SearchOptions) ([]vector.Match, error) {
	return f.matches, nil
}

func (f *fakeIndex) FindSimilar(context.Context, string, vector.SearchOptions) ([]vector.Match, error) {
	return nil, nil
}

func (f *fakeIndex) Upsert(context.Context, *store.Resource) error { return nil }

func (f *fakeIndex) Size() int { return len(f.matches) }

type fakeCorpus struct{}

func (f *fakeCorpus) ListResources(context.Context, *store.FindResource) ([]*store.Resource, error) {
	return nil, nil
}

type fakeLLM struct {
	reply string
}

func (f *fakeLLM) Chat(context.Context, []ai.Message) (string, error) {
	return f.reply, nil
}

func (f *fakeLLM) ChatStream(context.Context, []ai.Message) (<-chan string, <-chan error) {
	contentChan := make(chan string, 1)
	errChan := make(chan error, 1)
	contentChan <- f.reply
	close(contentChan)
	close(errChan)
	return contentChan, errChan
}

func TestChatRoundTrip(t *testing.T) {
	_, e := newEngineBackedService()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assistant/chat",
		strings.NewReader(`{"query":"扁平图标"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ConversationID)
	assert.Equal(t, "为您推荐 Flat Icons。", resp.Content)
	require.Len(t, resp.SearchResults, 1)
	assert.Equal(t, "r1", resp.SearchResults[0].Resource.ID)
	assert.False(t, resp.NeedsClarification)
}

func TestChatRejectsMissingQuery(t *testing.T) {
	_, e := newEngineBackedService()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assistant/chat", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatStreamEventOrder(t *testing.T) {
	_, e := newEngineBackedService()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assistant/chat/stream",
		strings.NewReader(`{"query":"扁平图标"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/event-stream")

	body := rec.Body.String()
	resultsAt := strings.Index(body, "event: results")
	messageAt := strings.Index(body, "event: message")
	doneAt := strings.Index(body, "event: done")
	require.GreaterOrEqual(t, resultsAt, 0)
	require.Greater(t, messageAt, resultsAt)
	require.Greater(t, doneAt, messageAt)
}

func TestClarifyRoundTrip(t *testing.T) {
	_, e := newEngineBackedService()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assistant/clarify",
		strings.NewReader(`{"originalQuery":"图标","answer":"医疗行业"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.NeedsClarification)
	assert.NotEmpty(t, resp.SearchResults)
}
