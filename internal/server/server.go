// Package server exposes sheetql sessions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/nao1215/sheetql"
	"github.com/nao1215/sheetql/internal/config"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

type Server struct {
	config   *config.Config
	router   *echo.Echo
	builder  *sheetql.Builder
	sessions *registry
}

// New validates cfg and wires the HTTP routes. No listener is opened until Start.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	level, err := cfg.Log.Lvl()
	if err != nil {
		return nil, err
	}

	builder, err := cfg.Builder()
	if err != nil {
		return nil, err
	}
	builder, err = builder.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.HTTP.ReadTimeout
	e.Server.WriteTimeout = cfg.HTTP.WriteTimeout

	server := &Server{
		config:   cfg,
		router:   e,
		builder:  builder,
		sessions: newRegistry(builder, cfg.Query.PreviewRows),
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.HTTP.MaxUploadMB)))

	e.Logger.SetLevel(level)

	server.registerRoutes()
	return server, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.Health)

	api := s.router.Group("/api/sessions")
	api.POST("", s.CreateSession)
	api.DELETE("/:id", s.DeleteSession)
	api.POST("/:id/upload", s.Upload)
	api.GET("/:id/preview", s.Preview)
	api.POST("/:id/persist", s.Persist)
	api.GET("/:id/columns", s.Columns)
	api.POST("/:id/search", s.Search)
	api.POST("/:id/sql", s.RawSQL)
	api.GET("/:id/export", s.Export)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Logger returns the server logger.
func (s *Server) Logger() echo.Logger {
	return s.router.Logger
}

// Preload ingests a file into the configured store before serving. It needs
// a shared store; a per-session in-memory store would drop the rows at once.
func (s *Server) Preload(ctx context.Context, path string) (int64, error) {
	if s.config.Store.DSN == "" {
		return 0, errors.New("preload requires store.dsn to point at a shared database")
	}

	table, err := sheetql.ReadFile(path)
	if err != nil {
		return 0, err
	}

	store, err := s.builder.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	n, err := store.Persist(ctx, table)
	if err != nil {
		return 0, err
	}
	s.router.Logger.Infoj(log.JSON{"action": "preload", "file": path, "table": store.TableName(), "rows": n})
	return n, nil
}

// Start serves until ctx is cancelled, then shuts down gracefully and
// closes every session.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.router.Start(s.config.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.router.Logger.Info("Shutting down")

	var errs []error
	if err := s.router.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown server: %w", err))
	}
	if err := s.sessions.closeAll(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
