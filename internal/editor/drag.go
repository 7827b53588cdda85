package editor

import (
	"sitebuilder/internal/blocktree"
	"sitebuilder/internal/domain"
)

// StartDrag moves the session into the dragging state with no drop position.
// Dragging an unknown existing block, or a new block without a type, is refused.
func (s *Session) StartDrag(item domain.DragItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch item.Kind {
	case domain.DragKindNew:
		if item.BlockType == "" {
			return false
		}
	case domain.DragKindExisting:
		if !blocktree.Contains(s.blocks, item.BlockID) {
			s.log.Debug("drag ignored: stale block", "block_id", item.BlockID)
			return false
		}
	default:
		return false
	}
	s.drag = domain.DragState{IsDragging: true, DraggedItem: &item}
	return true
}

// UpdateDropPosition records the drop indicator under the pointer; nil clears it.
// The last call wins. A block is never a valid target for itself.
func (s *Session) UpdateDropPosition(pos *domain.DropPosition) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drag.IsDragging {
		return false
	}
	if pos == nil {
		s.drag.DropPosition = nil
		return true
	}
	if !CanDropOn(s.drag.DraggedItem, *pos) {
		return false
	}
	p := *pos
	s.drag.DropPosition = &p
	return true
}

// CanDropOn reports whether a drop indicator for pos may register while item is dragged.
func CanDropOn(item *domain.DragItem, pos domain.DropPosition) bool {
	if pos.TargetID != "" && !pos.Relation.Valid() {
		return false
	}
	if item != nil && item.Kind == domain.DragKindExisting && item.BlockID == pos.TargetID {
		return false
	}
	return true
}

// EndDrag finishes the drag. With both an item and a drop position it commits:
// a new block is created there, an existing one is moved there. Otherwise the
// drag is cancelled without touching the tree. It reports whether the tree changed.
func (s *Session) EndDrag() bool {
	s.mu.Lock()
	defer s.unlockAndNotify()
	d := s.drag
	s.drag = domain.DragState{}
	if !d.IsDragging || d.DraggedItem == nil || d.DropPosition == nil {
		return false
	}
	switch d.DraggedItem.Kind {
	case domain.DragKindNew:
		_, ok := s.addBlockLocked(d.DraggedItem.BlockType, d.DropPosition)
		return ok
	case domain.DragKindExisting:
		return s.moveBlockLocked(d.DraggedItem.BlockID, *d.DropPosition)
	}
	return false
}

// CancelDrag discards the drag state.
func (s *Session) CancelDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag = domain.DragState{}
}

// Drag returns a copy of the drag state.
func (s *Session) Drag() domain.DragState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyDrag(s.drag)
}

func copyDrag(d domain.DragState) domain.DragState {
	out := domain.DragState{IsDragging: d.IsDragging}
	if d.DraggedItem != nil {
		item := *d.DraggedItem
		out.DraggedItem = &item
	}
	if d.DropPosition != nil {
		pos := *d.DropPosition
		out.DropPosition = &pos
	}
	return out
}
