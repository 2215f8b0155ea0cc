package server

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/akolanti/GoRAG/internal/adapter/utils"
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/handlers"
	"github.com/akolanti/GoRAG/internal/middleware"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

type Routes struct {
	Handler *handlers.Handler
	Chain   *middleware.Chain
	// MCP is mounted on /mcp when set.
	MCP http.Handler
}

type Server struct {
	server *http.Server
	logger *logger_i.Logger
}

type ShutdownParams struct {
	GracefulShutdown <-chan os.Signal
	StopExecution    chan bool
	// CloseServices stops the job queue, the workers and the stores, in
	// that order, once the listener is closed.
	CloseServices func(ctx context.Context) error
}

func NewRouter(routes Routes) http.Handler {
	r := utils.NewRouter()
	h, mw := routes.Handler, routes.Chain

	r.NotFound(handlers.RouteNotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)
	r.Get("/", handlers.GetHandler)
	r.Route("/rag", func(rag chi.Router) {
		rag.Post("/question", mw.WrapLimited(h.PostQuestion))
		rag.Post("/process-document", mw.Wrap(h.PostProcessDocument))
		rag.Post("/process-all-documents", mw.Wrap(h.PostProcessAllDocuments))
		rag.Get("/status", mw.Wrap(h.GetStatus))
		rag.Get("/analytics", mw.Wrap(h.GetAnalytics))
		rag.Post("/feedback", mw.Wrap(h.PostFeedback))
		rag.Get("/index-jobs/{id}", mw.Wrap(h.GetIndexJob))
		rag.Delete("/documents/{id}", mw.Wrap(h.DeleteDocument))
	})
	if routes.MCP != nil {
		mcpHandler := mw.Wrap(routes.MCP.ServeHTTP)
		r.Handle("/mcp", mcpHandler)
		r.Handle("/mcp/*", mcpHandler)
	}
	return r
}

func New(listenAddr string, handler http.Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:         listenAddr,
			Handler:      handler,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: logger_i.NewLogger("Server"),
	}
}

// CreateServer blocks until the listener is closed.
func (s *Server) CreateServer() error {
	s.logger.Info("Server is listening at", "address", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Server crashed", "error", err, "addr", s.server.Addr)
		return err
	}
	return nil
}

// ShutDownHandler waits for a signal, then drains the listener before the
// services behind it are closed.
func (s *Server) ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	s.logger.Info("Server is shutting down", "signal", state)

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.server.SetKeepAlivesEnabled(false)
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Error("Could not shutdown gracefully", "error", err)
		}
		if shutdownParams.CloseServices != nil {
			if err := shutdownParams.CloseServices(ctx); err != nil {
				s.logger.Error("Services did not close cleanly", "error", err)
			}
		}
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Shut down gracefully")
	case <-ctx.Done():
		s.logger.Warn("Forced shut down")
	}
	close(shutdownParams.StopExecution)
}
