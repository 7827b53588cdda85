package blocktree

import (
	"github.com/google/uuid"

	"sitebuilder/internal/domain"
)

// IDFunc produces a fresh, never reused block identity.
type IDFunc func() string

// NewID is the default IDFunc.
func NewID() string {
	return uuid.New().String()
}

// Clone returns a structural deep copy of b that keeps every identity.
// The copy shares no map or slice with the original.
func Clone(b domain.Block) domain.Block {
	out := b
	out.Props = CloneProps(b.Props)
	if b.Children != nil {
		out.Children = CloneTree(b.Children)
	}
	return out
}

// CloneTree deep-copies a block sequence. Used for history snapshots.
func CloneTree(blocks []domain.Block) []domain.Block {
	if blocks == nil {
		return nil
	}
	out := make([]domain.Block, len(blocks))
	for i, b := range blocks {
		out[i] = Clone(b)
	}
	return out
}

// Reidentify deep-copies b and assigns a fresh identity to it and to every descendant.
func Reidentify(b domain.Block, newID IDFunc) domain.Block {
	out := b
	out.ID = newID()
	out.Props = CloneProps(b.Props)
	if b.Children != nil {
		out.Children = make([]domain.Block, len(b.Children))
		for i, c := range b.Children {
			out.Children[i] = Reidentify(c, newID)
		}
	}
	return out
}

// CloneProps deep-copies a payload.
func CloneProps(p domain.Props) domain.Props {
	if p == nil {
		return nil
	}
	return domain.Props(cloneMap(p))
}

// CloneSettings deep-copies a settings object.
func CloneSettings(s domain.Settings) domain.Settings {
	if s == nil {
		return nil
	}
	return domain.Settings(cloneMap(s))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies the JSON-compatible shapes a payload may hold.
// Scalars are immutable and returned as is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		return cloneMap(t)
	case domain.Props:
		return CloneProps(t)
	case domain.Settings:
		return CloneSettings(t)
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []map[string]any:
		if t == nil {
			return t
		}
		out := make([]map[string]any, len(t))
		for i := range t {
			out[i] = cloneMap(t[i])
		}
		return out
	case []string:
		if t == nil {
			return t
		}
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Normalize deep-copies a tree loaded from outside and repairs it so the
// editor invariants hold: every block has a unique identity, only rows keep
// children, and widths are valid.
func Normalize(blocks []domain.Block, newID IDFunc) []domain.Block {
	seen := make(map[string]bool)
	return normalize(blocks, newID, seen)
}

func normalize(blocks []domain.Block, newID IDFunc, seen map[string]bool) []domain.Block {
	out := make([]domain.Block, 0, len(blocks))
	for _, b := range blocks {
		c := b
		if c.ID == "" || seen[c.ID] {
			c.ID = newID()
		}
		seen[c.ID] = true
		if !c.Width.Valid() {
			c.Width = domain.WidthAuto
		}
		c.Props = CloneProps(b.Props)
		if c.Props == nil {
			c.Props = domain.Props{}
		}
		if c.IsContainer() {
			c.Children = normalize(b.Children, newID, seen)
		} else {
			c.Children = nil
		}
		out = append(out, c)
	}
	return out
}
