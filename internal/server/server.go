// Package server exposes the tools and the completion endpoint over HTTP:
// a legacy function-calling chat endpoint, direct function calls, a health
// check and an MCP streamable endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/harunnryd/mcpilot/internal/config"
	apperrors "github.com/harunnryd/mcpilot/internal/errors"
	"github.com/harunnryd/mcpilot/internal/intent"
	"github.com/harunnryd/mcpilot/internal/logger"
	"github.com/harunnryd/mcpilot/internal/model"
	"github.com/harunnryd/mcpilot/internal/tool"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "1.0.0"

type Deps struct {
	Runner     *tool.Runner
	Completer  model.Completer
	Classifier intent.Classifier
}

type Server struct {
	cfg         config.ServerConfig
	runner      *tool.Runner
	completer   model.Completer
	classifier  intent.Classifier
	mapper      apperrors.ErrorMapper
	handler     http.Handler
	server      *http.Server
	shutdownTTL time.Duration

	mu       sync.Mutex
	started  bool
	listener net.Listener
}

func New(cfg config.ServerConfig, deps Deps) (*Server, error) {
	if deps.Runner == nil {
		return nil, apperrors.Config("server needs a tool runner")
	}

	readTimeout, err := config.DurationOrDefault(cfg.ReadTimeout, config.DefaultServerReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server read timeout: %w", err)
	}
	writeTimeout, err := config.DurationOrDefault(cfg.WriteTimeout, config.DefaultServerWriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server write timeout: %w", err)
	}
	idleTimeout, err := config.DurationOrDefault(cfg.IdleTimeout, config.DefaultServerIdleTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server idle timeout: %w", err)
	}
	shutdownTimeout, err := config.DurationOrDefault(cfg.ShutdownTimeout, config.DefaultServerShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server shutdown timeout: %w", err)
	}

	classifier := deps.Classifier
	if classifier == nil {
		classifier = intent.None
	}

	s := &Server{
		cfg:         cfg,
		runner:      deps.Runner,
		completer:   deps.Completer,
		classifier:  classifier,
		mapper:      apperrors.NewDefaultErrorMapper(),
		shutdownTTL: shutdownTimeout,
	}

	mcpServer := NewMCPServer(deps.Runner, config.DefaultClientName, Version)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /v1/chat/completions", s.handleChat)
	mux.HandleFunc("POST /v1/functions/{name}", s.handleFunction)
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, nil))
	s.handler = withRequestID(mux)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return s, nil
}

// Handler is the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured port and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("server already started")
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln

	go func() {
		slog.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
		}
	}()

	s.started = true
	return nil
}

// Addr is the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	slog.Info("Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTTL)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.started = false
	slog.Info("HTTP server stopped")
	return nil
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = logger.NewTraceID()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		ctx := logger.WithTraceID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
		logger.FromContext(ctx).Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
