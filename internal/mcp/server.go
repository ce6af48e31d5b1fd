package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/services"
)

// ServerName tên MCP server
const ServerName = "locality-resolver"

// Server bọc MCP server cùng các service tra cứu
type Server struct {
	mcp       *server.MCPServer
	locations *services.LocationService
	colleges  *services.CollegeService
	logger    *zap.Logger
}

// NewServer tạo MCP server và đăng ký tools
func NewServer(locations *services.LocationService, colleges *services.CollegeService, version string, logger *zap.Logger) *Server {
	s := &Server{
		mcp:       server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false)),
		locations: locations,
		colleges:  colleges,
		logger:    logger,
	}
	s.mcp.AddTool(resolvePincodeTool(), s.handleResolvePincode)
	s.mcp.AddTool(searchLocalityTool(), s.handleSearchLocality)
	s.mcp.AddTool(searchCollegeTool(), s.handleSearchCollege)
	return s
}

// Serve chạy trên stdio, block tới khi stdin đóng
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
