package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"sitebuilder/internal/domain"
)

func (s *Server) registerHistoryTools() {
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Step back to the previous structural change. Clears the selection."),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Re-apply the change undone last. Clears the selection."),
	), s.handleRedo)

	// ── clear_canvas (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("clear_canvas",
		mcp.WithDescription("Remove every block and reset the undo history"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleClearCanvas)

	// ── load_configuration ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("load_configuration",
		mcp.WithDescription("Replace the page with the given block tree. The previous page stays reachable with undo."),
		mcp.WithString("blocks", mcp.Description("JSON array of blocks"), mcp.Required()),
		mcp.WithString("settings", mcp.Description("JSON object of page settings (optional)")),
	), s.handleLoadConfiguration)
}

type historyResult struct {
	Changed bool `json:"changed"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
	Blocks  int  `json:"blocks"`
}

func (s *Server) historyResult(ok bool) (*mcp.CallToolResult, error) {
	st := s.session.State()
	return jsonResult(historyResult{Changed: ok, CanUndo: st.CanUndo, CanRedo: st.CanRedo, Blocks: len(st.Blocks)})
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ok := s.session.Undo()
	if ok {
		s.emitBlocksChanged(ctx, "undo")
	}
	return s.historyResult(ok)
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ok := s.session.Redo()
	if ok {
		s.emitBlocksChanged(ctx, "redo")
	}
	return s.historyResult(ok)
}

func (s *Server) handleClearCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.session.ClearCanvas()
	s.emitBlocksChanged(ctx, "clear_canvas")
	return s.historyResult(true)
}

func (s *Server) handleLoadConfiguration(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := requireString(req.GetArguments(), "blocks")
	if err != nil {
		return nil, err
	}
	var blocks []domain.Block
	if err := parseJSON(raw, &blocks); err != nil {
		return nil, fmt.Errorf("invalid blocks JSON: %w", err)
	}
	var settings domain.Settings
	if rawSettings := req.GetString("settings", ""); rawSettings != "" {
		if err := parseJSON(rawSettings, &settings); err != nil {
			return nil, fmt.Errorf("invalid settings JSON: %w", err)
		}
	}
	s.session.LoadConfiguration(blocks, settings)
	s.emitBlocksChanged(ctx, "load_configuration")
	return s.historyResult(true)
}
