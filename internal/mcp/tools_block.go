package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"sitebuilder/internal/domain"
)

func (s *Server) registerBlockTools() {
	// ── list_block_types ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_block_types",
		mcp.WithDescription("List the block types of the palette, grouped by category"),
	), s.handleListBlockTypes)

	// ── get_state ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Return the whole editor state: blocks, settings, selection, drag state and history position"),
	), s.handleGetState)

	// ── add_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Create a block of the given type. Without targetId it is appended to the page; relation 'inside' only works on rows."),
		mcp.WithString("type", mcp.Description("Block type, see list_block_types"), mcp.Required()),
		mcp.WithString("targetId", mcp.Description("Existing block to place the new one next to or inside (optional)")),
		mcp.WithString("relation", mcp.Description("before, after or inside (default after)")),
	), s.handleAddBlock)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Edit a block's fields in place. props is merged into the existing props."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("props", mcp.Description(`JSON object of props to merge, e.g. {"text":"Hello"}`)),
		mcp.WithString("width", mcp.Description("auto, 1/4, 1/3, 1/2, 2/3, 3/4 or full")),
		mcp.WithBoolean("visible", mcp.Description("Show or hide the block")),
	), s.handleUpdateBlock)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("Delete a block and everything inside it"),
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block next to or inside another block. Without targetId it moves to the end of the page."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("targetId", mcp.Description("Drop target block ID (optional)")),
		mcp.WithString("relation", mcp.Description("before, after or inside (default after)")),
	), s.handleMoveBlock)

	// ── duplicate_block ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("duplicate_block",
		mcp.WithDescription("Insert a copy of a block right after it. Copies get new IDs throughout."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleDuplicateBlock)

	// ── move_block_up / move_block_down ────────────────
	s.mcp.AddTool(mcp.NewTool("move_block_up",
		mcp.WithDescription("Swap a block with its previous sibling"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleShift(-1))
	s.mcp.AddTool(mcp.NewTool("move_block_down",
		mcp.WithDescription("Swap a block with its next sibling"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleShift(1))

	// ── toggle_visibility ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("toggle_visibility",
		mcp.WithDescription("Flip whether a block shows in preview"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleToggleVisibility)

	// ── select_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_block",
		mcp.WithDescription("Select a block for editing. An empty blockId clears the selection."),
		mcp.WithString("blockId", mcp.Description("Block ID (optional)")),
	), s.handleSelectBlock)

	// ── set_preview ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_preview",
		mcp.WithDescription("Turn preview mode on or off. Preview hides invisible blocks."),
		mcp.WithBoolean("enabled", mcp.Description("Preview on"), mcp.Required()),
	), s.handleSetPreview)

	// ── update_settings ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_settings",
		mcp.WithDescription("Merge keys into the page settings (title, colors, fonts...)"),
		mcp.WithString("settings", mcp.Description("JSON object"), mcp.Required()),
	), s.handleUpdateSettings)
}

func boolPtr(v bool) *bool { return &v }

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListBlockTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.registry.Types())
}

func (s *Server) handleGetState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.session.State())
}

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockType, err := requireString(args, "type")
	if err != nil {
		return nil, err
	}
	t := domain.BlockType(strings.TrimSpace(blockType))
	if _, ok := s.registry.Lookup(t); !ok {
		return nil, fmt.Errorf("add block: unknown type %q (see list_block_types)", blockType)
	}
	pos, err := dropPositionArg(args)
	if err != nil {
		return nil, err
	}

	id, ok := s.session.AddBlock(t, &pos)
	if ok {
		s.emitBlocksChanged(ctx, "add_block")
	}
	return changed(ok, id, "drop target not found or cannot hold children")
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockID, err := requireString(args, "blockId")
	if err != nil {
		return nil, err
	}

	var patch domain.BlockPatch
	if raw := req.GetString("props", ""); raw != "" {
		if err := parseJSON(raw, &patch.Props); err != nil {
			return nil, fmt.Errorf("invalid props JSON: %w", err)
		}
	}
	if w := req.GetString("width", ""); w != "" {
		width := domain.Width(w)
		if !width.Valid() {
			return nil, fmt.Errorf("invalid width %q", w)
		}
		patch.Width = &width
	}
	if v, ok := args["visible"].(bool); ok {
		patch.Visible = &v
	}
	if patch.Empty() {
		return nil, fmt.Errorf("nothing to update: pass props, width or visible")
	}

	ok := s.session.UpdateBlock(blockID, patch)
	if ok {
		s.emitBlocksChanged(ctx, "update_block")
	}
	return changed(ok, blockID, "block not found")
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireString(req.GetArguments(), "blockId")
	if err != nil {
		return nil, err
	}
	ok := s.session.DeleteBlock(blockID)
	if ok {
		s.emitBlocksChanged(ctx, "delete_block")
	}
	return changed(ok, blockID, "block not found")
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockID, err := requireString(args, "blockId")
	if err != nil {
		return nil, err
	}
	pos, err := dropPositionArg(args)
	if err != nil {
		return nil, err
	}
	ok := s.session.MoveBlock(blockID, pos)
	if ok {
		s.emitBlocksChanged(ctx, "move_block")
	}
	return changed(ok, blockID, "block or target not found, target is the block itself or inside it, or target cannot hold children")
}

func (s *Server) handleDuplicateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireString(req.GetArguments(), "blockId")
	if err != nil {
		return nil, err
	}
	cloneID, ok := s.session.DuplicateBlock(blockID)
	if ok {
		s.emitBlocksChanged(ctx, "duplicate_block")
	}
	return changed(ok, cloneID, "block not found")
}

func (s *Server) handleShift(delta int) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		blockID, err := requireString(req.GetArguments(), "blockId")
		if err != nil {
			return nil, err
		}
		var ok bool
		if delta < 0 {
			ok = s.session.MoveUp(blockID)
		} else {
			ok = s.session.MoveDown(blockID)
		}
		if ok {
			s.emitBlocksChanged(ctx, "shift_block")
		}
		return changed(ok, blockID, "block not found or already at the edge")
	}
}

func (s *Server) handleToggleVisibility(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireString(req.GetArguments(), "blockId")
	if err != nil {
		return nil, err
	}
	ok := s.session.ToggleVisibility(blockID)
	if ok {
		s.emitBlocksChanged(ctx, "toggle_visibility")
	}
	return changed(ok, blockID, "block not found")
}

func (s *Server) handleSelectBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID := req.GetString("blockId", "")
	ok := s.session.Select(blockID)
	return jsonResult(map[string]any{"selectedBlockId": s.session.SelectedBlockID(), "selected": ok})
}

func (s *Server) handleSetPreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	on, _ := req.GetArguments()["enabled"].(bool)
	s.session.SetPreview(on)
	return jsonResult(map[string]any{"preview": on, "blocks": s.session.RenderBlocks()})
}

func (s *Server) handleUpdateSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := requireString(req.GetArguments(), "settings")
	if err != nil {
		return nil, err
	}
	var patch domain.Settings
	if err := parseJSON(raw, &patch); err != nil {
		return nil, fmt.Errorf("invalid settings JSON: %w", err)
	}
	s.session.UpdateSettings(patch)
	return jsonResult(s.session.Settings())
}
