package editor

import (
	"sitebuilder/internal/blocktree"
	"sitebuilder/internal/domain"
)

// DefaultHistoryLimit caps the number of snapshots kept for undo.
const DefaultHistoryLimit = 50

// history is a bounded linear stack of full-tree snapshots.
// Entries are private deep copies; callers always receive fresh copies.
type history struct {
	entries [][]domain.Block
	index   int
	limit   int
}

func newHistory(limit int) *history {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	h := &history{limit: limit}
	h.reset(nil)
	return h
}

// push records tree as the newest step, dropping any redo branch and
// evicting the oldest entries past the limit.
func (h *history) push(tree []domain.Block) {
	h.entries = append(h.entries[:h.index+1], snapshot(tree))
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([][]domain.Block(nil), h.entries[over:]...)
	}
	h.index = len(h.entries) - 1
}

func (h *history) reset(tree []domain.Block) {
	h.entries = [][]domain.Block{snapshot(tree)}
	h.index = 0
}

func (h *history) undo() ([]domain.Block, bool) {
	if h.index <= 0 {
		return nil, false
	}
	h.index--
	return blocktree.CloneTree(h.entries[h.index]), true
}

func (h *history) redo() ([]domain.Block, bool) {
	if h.index >= len(h.entries)-1 {
		return nil, false
	}
	h.index++
	return blocktree.CloneTree(h.entries[h.index]), true
}

func (h *history) canUndo() bool { return h.index > 0 }
func (h *history) canRedo() bool { return h.index < len(h.entries)-1 }

func (h *history) export() ([][]domain.Block, int) {
	out := make([][]domain.Block, len(h.entries))
	for i, e := range h.entries {
		out[i] = blocktree.CloneTree(e)
	}
	return out, h.index
}

// restore replaces the stack. Entries beyond the limit are trimmed from the oldest end.
func (h *history) restore(entries [][]domain.Block, index int) bool {
	if len(entries) == 0 || index < 0 || index >= len(entries) {
		return false
	}
	if over := len(entries) - h.limit; over > 0 {
		entries = entries[over:]
		index -= over
		if index < 0 {
			index = 0
		}
	}
	h.entries = make([][]domain.Block, len(entries))
	for i, e := range entries {
		h.entries[i] = snapshot(e)
	}
	h.index = index
	return true
}

func snapshot(tree []domain.Block) []domain.Block {
	if tree == nil {
		return []domain.Block{}
	}
	return blocktree.CloneTree(tree)
}
