// Package apiv1 exposes the assistant and catalog over HTTP.
package apiv1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/atelierhq/atelier/internal/profile"
	"github.com/atelierhq/atelier/plugin/ai/cache"
	"github.com/atelierhq/atelier/server/assistant"
	ratelimit "github.com/atelierhq/atelier/server/middleware"
	"github.com/atelierhq/atelier/store"
)

// Assistant turns fan out into embedding and completion calls, so the
// per-client rate is tighter than the rest of the API.
const (
	assistantRatePerSecond = 2.0
	assistantRateBurst     = 5
)

// APIV1Service wires the retrieval pipeline into the HTTP layer.
type APIV1Service struct {
	Profile     *profile.Profile
	Store       *store.Store
	Engine      *assistant.Engine
	SearchCache *cache.SearchCache

	logger *slog.Logger
}

// NewAPIV1Service creates the v1 API service.
func NewAPIV1Service(profile *profile.Profile, store *store.Store, engine *assistant.Engine, searchCache *cache.SearchCache, logger *slog.Logger) *APIV1Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIV1Service{
		Profile:     profile,
		Store:       store,
		Engine:      engine,
		SearchCache: searchCache,
		logger:      logger,
	}
}

// RegisterRoutes registers all v1 routes with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/healthz", s.GetHealthz)

	g := echoServer.Group("/api/v1")
	g.Use(middleware.CORS())
	g.Use(s.requestLogger)

	limiter := ratelimit.NewRateLimiter(assistantRatePerSecond, assistantRateBurst)
	chat := g.Group("/assistant", limiter.Middleware())
	chat.POST("/chat", s.Chat)
	chat.POST("/chat/stream", s.ChatStream)
	chat.POST("/clarify", s.Clarify)
	chat.GET("/suggestions", s.GetSuggestions)

	g.GET("/cache/stats", s.GetCacheStats)
	g.GET("/resources", s.ListResources)
}

// requestLogger logs one line per API request.
func (s *APIV1Service) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		s.logger.Info("api request",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Request().URL.Path),
			slog.Int("status", c.Response().Status),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return err
	}
}

// HealthzResponse represents the health check response.
type HealthzResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// GetHealthz returns service health.
// GET /healthz
func (s *APIV1Service) GetHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthzResponse{
		Status:  "ok",
		Version: s.Profile.Version,
	})
}
