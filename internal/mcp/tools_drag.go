package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"sitebuilder/internal/domain"
)

// The drag tools replay the canvas pointer protocol: start, any number of
// position updates, then end. Only end_drag touches the page.
func (s *Server) registerDragTools() {
	s.mcp.AddTool(mcp.NewTool("start_drag",
		mcp.WithDescription("Begin dragging a palette item (kind=new, blockType) or a block on the page (kind=existing, blockId)"),
		mcp.WithString("kind", mcp.Description("new or existing"), mcp.Required()),
		mcp.WithString("blockType", mcp.Description("Block type for kind=new")),
		mcp.WithString("blockId", mcp.Description("Block ID for kind=existing")),
	), s.handleStartDrag)

	s.mcp.AddTool(mcp.NewTool("update_drop_position",
		mcp.WithDescription("Point the drag at a drop target. Without targetId the drop appends to the page; clear=true removes the indicator."),
		mcp.WithString("targetId", mcp.Description("Drop target block ID (optional)")),
		mcp.WithString("relation", mcp.Description("before, after or inside (default after)")),
		mcp.WithBoolean("clear", mcp.Description("Remove the drop indicator")),
	), s.handleUpdateDropPosition)

	s.mcp.AddTool(mcp.NewTool("end_drag",
		mcp.WithDescription("Release the drag. Commits when a drop position is set, otherwise cancels."),
	), s.handleEndDrag)

	s.mcp.AddTool(mcp.NewTool("cancel_drag",
		mcp.WithDescription("Abandon the current drag"),
	), s.handleCancelDrag)
}

func (s *Server) handleStartDrag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var item domain.DragItem
	switch kind := req.GetString("kind", ""); domain.DragKind(kind) {
	case domain.DragKindNew:
		item = domain.NewBlockItem(domain.BlockType(req.GetString("blockType", "")))
		if _, ok := s.registry.Lookup(item.BlockType); !ok {
			return nil, fmt.Errorf("start drag: unknown block type %q", item.BlockType)
		}
	case domain.DragKindExisting:
		item = domain.ExistingBlockItem(req.GetString("blockId", ""))
	default:
		return nil, fmt.Errorf("kind must be new or existing, got %q", kind)
	}
	ok := s.session.StartDrag(item)
	return jsonResult(map[string]any{"dragging": ok, "drag": s.session.Drag()})
}

func (s *Server) handleUpdateDropPosition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	var ok bool
	if clear, _ := args["clear"].(bool); clear {
		ok = s.session.UpdateDropPosition(nil)
	} else {
		pos, err := dropPositionArg(args)
		if err != nil {
			return nil, err
		}
		ok = s.session.UpdateDropPosition(&pos)
	}
	return jsonResult(map[string]any{"accepted": ok, "drag": s.session.Drag()})
}

func (s *Server) handleEndDrag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d := s.session.Drag()
	ok := s.session.EndDrag()
	if !ok {
		return changed(false, "", "no drag in progress, no drop position, or the drop was not valid")
	}
	s.emitBlocksChanged(ctx, "end_drag")
	id := s.session.SelectedBlockID()
	if d.DraggedItem != nil && d.DraggedItem.Kind == domain.DragKindExisting {
		id = d.DraggedItem.BlockID
	}
	return changed(true, id, "")
}

func (s *Server) handleCancelDrag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.session.CancelDrag()
	return textResult("drag cancelled"), nil
}
