package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/apertium-stats-mcp/internal/service"
	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "apertium-stats-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Stats answers stats requests for the tool handlers
type Stats interface {
	GetStats(ctx context.Context, pkg string, kind *types.FileKind, opts service.Options) (*service.Result, error)
	CalculateStats(ctx context.Context, pkg string, kind *types.FileKind, opts service.Options) (*service.Result, error)
	InProgress(pkg string) []types.Task
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	stats  Stats
	logger *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(stats Stats, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		mcp:    server.NewMCPServer(ServerName, ServerVersion),
		stats:  stats,
		logger: logger,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(_ context.Context) error {
	s.logger.Info("serving MCP over stdio", zap.String("server", ServerName), zap.String("version", ServerVersion))
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(getStatsTool(), s.handleGetStats)
	s.mcp.AddTool(calculateStatsTool(), s.handleCalculateStats)
	s.mcp.AddTool(getInProgressTool(), s.handleGetInProgress)
}

var _ Stats = (*service.Service)(nil)
