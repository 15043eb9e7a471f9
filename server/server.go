// Package server assembles the HTTP server from the retrieval pipeline
// components.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/atelierhq/atelier/internal/profile"
	"github.com/atelierhq/atelier/plugin/ai"
	"github.com/atelierhq/atelier/plugin/ai/cache"
	"github.com/atelierhq/atelier/plugin/ai/rag"
	"github.com/atelierhq/atelier/plugin/ai/vector"
	"github.com/atelierhq/atelier/server/assistant"
	"github.com/atelierhq/atelier/server/router/apiv1"
	"github.com/atelierhq/atelier/server/router/feed"
	indexrunner "github.com/atelierhq/atelier/server/runner/index"
	"github.com/atelierhq/atelier/store"
)

// Server is the Atelier HTTP server.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	index      vector.RebuildableIndex
}

// NewServer assembles the server. When AI is enabled the retrieval
// pipeline is wired end to end; otherwise only the catalog endpoints
// are served.
func NewServer(ctx context.Context, profile *profile.Profile, st *store.Store) (*Server, error) {
	s := &Server{
		Profile: profile,
		Store:   st,
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	s.echoServer = echoServer

	var engine *assistant.Engine
	searchCache := cache.NewSearchCache(cache.DefaultConfig())

	if profile.IsAIEnabled() {
		aiConfig := ai.NewConfigFromProfile(profile)
		if err := aiConfig.Validate(); err != nil {
			return nil, fmt.Errorf("invalid AI configuration: %w", err)
		}
		provider, err := ai.NewProvider(aiConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create AI provider: %w", err)
		}

		// The postgres driver persists embeddings with pgvector; sqlite
		// keeps the index in memory and rebuilds it on start.
		if profile.Driver == "postgres" {
			s.index = vector.NewPersistedIndex(st.GetDriver(), provider, aiConfig.Embedding.Model)
		} else {
			s.index = vector.NewMemoryIndex(provider)
		}

		resources, err := st.ListResources(ctx, &store.FindResource{})
		if err != nil {
			return nil, fmt.Errorf("failed to load resources for indexing: %w", err)
		}
		if err := s.index.Build(ctx, resources); err != nil {
			return nil, fmt.Errorf("failed to build semantic index: %w", err)
		}
		slog.Info("semantic index ready", "size", s.index.Size(), "driver", profile.Driver)

		searcher := rag.NewSearcher(s.index, st, rag.DefaultConfig())
		engine = assistant.NewEngine(searcher, searchCache, provider, slog.Default())
	}

	apiService := apiv1.NewAPIV1Service(profile, st, engine, searchCache, slog.Default())
	apiService.RegisterRoutes(echoServer)

	feedService := feed.NewFeedService(profile, st)
	feedService.RegisterRoutes(echoServer)

	return s, nil
}

// Start launches the background runners and begins serving. It blocks
// until the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s.index != nil {
		go indexrunner.NewRunner(s.Store, s.index).Run(ctx)
	}

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", "address", address, "mode", s.Profile.Mode)
	return s.echoServer.Start(address)
}

// Shutdown gracefully stops the server and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown http server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server stopped")
}
