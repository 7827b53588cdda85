// Package blocktree holds the pure read and write operations on a block tree.
//
// Nothing here mutates its input: every write returns a new root slice and
// copies each array on the path to the change, leaving untouched branches shared.
// An unknown identity is never an error; the operation reports false and
// returns the input as is.
package blocktree

import "sitebuilder/internal/domain"

// ParentContext locates a block within its containing array.
// Siblings is shared with the tree and must be treated as read-only.
type ParentContext struct {
	Siblings []domain.Block
	Index    int
	ParentID string // empty at root level
}

// FindByID searches depth-first, descending only into container children.
func FindByID(tree []domain.Block, id string) (domain.Block, bool) {
	if id == "" {
		return domain.Block{}, false
	}
	for _, b := range tree {
		if b.ID == id {
			return b, true
		}
		if b.IsContainer() {
			if found, ok := FindByID(b.Children, id); ok {
				return found, true
			}
		}
	}
	return domain.Block{}, false
}

// FindParentContext returns the array holding id, its index and the parent's identity.
func FindParentContext(tree []domain.Block, id string) (ParentContext, bool) {
	return findParent(tree, id, "")
}

func findParent(blocks []domain.Block, id, parentID string) (ParentContext, bool) {
	if id == "" {
		return ParentContext{}, false
	}
	for i, b := range blocks {
		if b.ID == id {
			return ParentContext{Siblings: blocks, Index: i, ParentID: parentID}, true
		}
		if b.IsContainer() {
			if pc, ok := findParent(b.Children, id, b.ID); ok {
				return pc, true
			}
		}
	}
	return ParentContext{}, false
}

// Contains reports whether id is reachable in tree.
func Contains(tree []domain.Block, id string) bool {
	_, ok := FindByID(tree, id)
	return ok
}

// IsDescendant reports whether id lies strictly inside ancestorID's subtree.
func IsDescendant(tree []domain.Block, ancestorID, id string) bool {
	ancestor, ok := FindByID(tree, ancestorID)
	if !ok || !ancestor.IsContainer() {
		return false
	}
	return Contains(ancestor.Children, id)
}

// Walk visits every block depth-first in rendering order.
// Returning false from fn stops the walk.
func Walk(tree []domain.Block, fn func(b domain.Block, parentID string) bool) {
	walk(tree, "", fn)
}

func walk(blocks []domain.Block, parentID string, fn func(domain.Block, string) bool) bool {
	for _, b := range blocks {
		if !fn(b, parentID) {
			return false
		}
		if b.IsContainer() && !walk(b.Children, b.ID, fn) {
			return false
		}
	}
	return true
}

// IDs lists every identity in the tree in rendering order.
func IDs(tree []domain.Block) []string {
	var ids []string
	Walk(tree, func(b domain.Block, _ string) bool {
		ids = append(ids, b.ID)
		return true
	})
	return ids
}

// Count returns the number of blocks in the tree, nested ones included.
func Count(tree []domain.Block) int {
	n := 0
	Walk(tree, func(domain.Block, string) bool {
		n++
		return true
	})
	return n
}

// Visible returns a copy of the tree without hidden blocks, for preview rendering.
// A hidden row drops its whole subtree.
func Visible(tree []domain.Block) []domain.Block {
	out := make([]domain.Block, 0, len(tree))
	for _, b := range tree {
		if !b.Visible {
			continue
		}
		if b.IsContainer() {
			b.Children = Visible(b.Children)
		}
		out = append(out, b)
	}
	return out
}
