package blocktree

import "sitebuilder/internal/domain"

// Remove returns a tree without the block id (and, for a row, its subtree).
func Remove(tree []domain.Block, id string) ([]domain.Block, bool) {
	out, _, ok := detach(tree, id)
	if !ok {
		return tree, false
	}
	return out, true
}

// detach removes id and hands back the removed block.
func detach(blocks []domain.Block, id string) ([]domain.Block, domain.Block, bool) {
	for i, b := range blocks {
		if b.ID == id {
			out := make([]domain.Block, 0, len(blocks)-1)
			out = append(out, blocks[:i]...)
			out = append(out, blocks[i+1:]...)
			return out, b, true
		}
		if b.IsContainer() && len(b.Children) > 0 {
			if children, removed, ok := detach(b.Children, id); ok {
				out := append([]domain.Block(nil), blocks...)
				b.Children = children
				out[i] = b
				return out, removed, true
			}
		}
	}
	return blocks, domain.Block{}, false
}

// Insert places block relative to pos.
//
// An empty target appends to the root. "before" and "after" splice next to the
// target in whichever array holds it. "inside" appends to a row's children and
// resets the block's width to auto; against any other type it does nothing.
// An unknown target, an unknown relation, or a block whose identity already
// exists in the tree leave the tree unchanged.
func Insert(tree []domain.Block, block domain.Block, pos domain.DropPosition) ([]domain.Block, bool) {
	if block.ID == "" || overlaps(tree, block) {
		return tree, false
	}
	if pos.TargetID == "" {
		return spliceAt(tree, len(tree), block), true
	}
	return insertAt(tree, block, pos)
}

func insertAt(blocks []domain.Block, block domain.Block, pos domain.DropPosition) ([]domain.Block, bool) {
	for i, b := range blocks {
		if b.ID == pos.TargetID {
			switch pos.Relation {
			case domain.RelationBefore:
				return spliceAt(blocks, i, block), true
			case domain.RelationAfter:
				return spliceAt(blocks, i+1, block), true
			case domain.RelationInside:
				if !b.IsContainer() {
					return blocks, false
				}
				block.Width = domain.WidthAuto
				b.Children = spliceAt(b.Children, len(b.Children), block)
				out := append([]domain.Block(nil), blocks...)
				out[i] = b
				return out, true
			default:
				return blocks, false
			}
		}
		if b.IsContainer() && len(b.Children) > 0 {
			if children, ok := insertAt(b.Children, block, pos); ok {
				out := append([]domain.Block(nil), blocks...)
				b.Children = children
				out[i] = b
				return out, true
			}
		}
	}
	return blocks, false
}

func spliceAt(blocks []domain.Block, at int, block domain.Block) []domain.Block {
	out := make([]domain.Block, 0, len(blocks)+1)
	out = append(out, blocks[:at]...)
	out = append(out, block)
	out = append(out, blocks[at:]...)
	return out
}

// overlaps reports whether any identity in block's subtree already exists in tree.
func overlaps(tree []domain.Block, block domain.Block) bool {
	if Contains(tree, block.ID) {
		return true
	}
	for _, c := range block.Children {
		if overlaps(tree, c) {
			return true
		}
	}
	return false
}

// Duplicate deep-copies id with fresh identities for the copy and all of its
// descendants, and inserts the copy right after the original.
// It returns the identity of the copy.
func Duplicate(tree []domain.Block, id string, newID IDFunc) ([]domain.Block, string, bool) {
	orig, ok := FindByID(tree, id)
	if !ok {
		return tree, "", false
	}
	clone := Reidentify(orig, newID)
	out, ok := Insert(tree, clone, domain.DropPosition{TargetID: id, Relation: domain.RelationAfter})
	if !ok {
		return tree, "", false
	}
	return out, clone.ID, true
}

// Move detaches blockID and inserts it at pos.
// Moving a block onto itself, into its own subtree, next to a missing target,
// or inside a non-container returns the original tree.
func Move(tree []domain.Block, blockID string, pos domain.DropPosition) ([]domain.Block, bool) {
	if blockID == "" || blockID == pos.TargetID {
		return tree, false
	}
	moving, ok := FindByID(tree, blockID)
	if !ok {
		return tree, false
	}
	if pos.TargetID != "" && moving.IsContainer() && Contains(moving.Children, pos.TargetID) {
		return tree, false
	}
	rest, detached, _ := detach(tree, blockID)
	out, ok := Insert(rest, detached, pos)
	if !ok {
		return tree, false
	}
	return out, true
}

// Update shallow-merges patch into the block id.
func Update(tree []domain.Block, id string, patch domain.BlockPatch) ([]domain.Block, bool) {
	if patch.Empty() {
		return tree, false
	}
	return replace(tree, id, func(b domain.Block) (domain.Block, bool) {
		changed := false
		if patch.Width != nil && patch.Width.Valid() {
			b.Width = *patch.Width
			changed = true
		}
		if patch.Visible != nil {
			b.Visible = *patch.Visible
			changed = true
		}
		if len(patch.Props) > 0 {
			props := CloneProps(b.Props)
			if props == nil {
				props = make(domain.Props, len(patch.Props))
			}
			for k, v := range patch.Props {
				props[k] = cloneValue(v)
			}
			b.Props = props
			changed = true
		}
		return b, changed
	})
}

// Shift swaps id with the sibling delta positions away in the same array.
// Used for move up (-1) and move down (+1); out of range is a no-op.
func Shift(tree []domain.Block, id string, delta int) ([]domain.Block, bool) {
	pc, ok := FindParentContext(tree, id)
	if !ok {
		return tree, false
	}
	j := pc.Index + delta
	if delta == 0 || j < 0 || j >= len(pc.Siblings) {
		return tree, false
	}
	siblings := append([]domain.Block(nil), pc.Siblings...)
	siblings[pc.Index], siblings[j] = siblings[j], siblings[pc.Index]
	if pc.ParentID == "" {
		return siblings, true
	}
	return replace(tree, pc.ParentID, func(b domain.Block) (domain.Block, bool) {
		b.Children = siblings
		return b, true
	})
}

// replace rewrites the block id with fn, copying each array on its path.
func replace(blocks []domain.Block, id string, fn func(domain.Block) (domain.Block, bool)) ([]domain.Block, bool) {
	for i, b := range blocks {
		if b.ID == id {
			nb, changed := fn(b)
			if !changed {
				return blocks, false
			}
			out := append([]domain.Block(nil), blocks...)
			out[i] = nb
			return out, true
		}
		if b.IsContainer() && len(b.Children) > 0 {
			if children, ok := replace(b.Children, id, fn); ok {
				out := append([]domain.Block(nil), blocks...)
				b.Children = children
				out[i] = b
				return out, true
			}
		}
	}
	return blocks, false
}
