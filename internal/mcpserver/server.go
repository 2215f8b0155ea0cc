// Package mcpserver exposes the question answering service as MCP tools so
// assistants can query the document index directly.
package mcpserver

import (
	"errors"
	"net/http"

	"github.com/akolanti/GoRAG/internal/rag"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "1.0.0"

var ErrMissingService = errors.New("mcpserver: rag service is required")

type Server struct {
	rag    rag.Service
	server *mcp.Server
	logger *logger_i.Logger
}

func New(ragService rag.Service) (*Server, error) {
	if ragService == nil {
		return nil, ErrMissingService
	}
	s := &Server{
		rag:    ragService,
		server: mcp.NewServer(&mcp.Implementation{Name: "gorag", Version: Version}, nil),
		logger: logger_i.NewLogger("mcp"),
	}
	s.registerTools()
	return s, nil
}

// Handler serves the streamable HTTP transport. Every session shares the
// one server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}
