// Package mcpserver exposes the editor session and the saved sites over the
// Model Context Protocol, so agents and scripts can build pages the same way
// the canvas does.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"sitebuilder/internal/blocks"
	"sitebuilder/internal/editor"
	"sitebuilder/internal/logger"
	"sitebuilder/internal/service"
)

// Server is the MCP server for the site builder.
type Server struct {
	mcp      *server.MCPServer
	emitter  service.EventEmitter
	session  *editor.Session
	registry *blocks.Registry
	sites    *service.SiteService
	log      *logger.Logger
}

// Deps holds the dependencies passed from the app layer.
type Deps struct {
	Emitter  service.EventEmitter
	Session  *editor.Session
	Registry *blocks.Registry
	Sites    *service.SiteService
	Logger   *logger.Logger
}

// New creates and configures the server with all tools, resources and prompts.
func New(deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		emitter:  deps.Emitter,
		session:  deps.Session,
		registry: deps.Registry,
		sites:    deps.Sites,
		log:      log.With("component", "mcp"),
	}
	if s.emitter == nil {
		s.emitter = service.LogEmitter{Log: s.log}
	}
	if s.registry == nil {
		s.registry = blocks.NewRegistry()
	}

	s.mcp = server.NewMCPServer(
		"sitebuilder-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerBlockTools()
	s.registerHistoryTools()
	s.registerDragTools()
	if s.sites != nil {
		s.registerSiteTools()
	}
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio serves on stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	s.log.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// emitBlocksChanged tells the host that the tree changed.
func (s *Server) emitBlocksChanged(ctx context.Context, command string) {
	s.emitter.Emit(ctx, "mcp:blocks-changed", map[string]string{"command": command})
}
