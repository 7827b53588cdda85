package domain

// Relation places a block relative to a drop target.
type Relation string

const (
	RelationBefore Relation = "before"
	RelationAfter  Relation = "after"
	RelationInside Relation = "inside"
)

// Valid reports whether r is a known relation.
func (r Relation) Valid() bool {
	return r == RelationBefore || r == RelationAfter || r == RelationInside
}

// DropPosition is where a dragged or inserted block should land.
// An empty TargetID means "append to the root sequence".
type DropPosition struct {
	TargetID string   `json:"targetId"`
	Relation Relation `json:"relation"`
}

// DragKind tells whether a drag carries a palette type or an existing block.
type DragKind string

const (
	DragKindNew      DragKind = "new"
	DragKindExisting DragKind = "existing"
)

// DragItem is the payload of a drag: a new block type or an existing block id.
type DragItem struct {
	Kind      DragKind  `json:"kind"`
	BlockType BlockType `json:"blockType,omitempty"`
	BlockID   string    `json:"blockId,omitempty"`
}

// NewBlockItem returns a drag item for a palette entry.
func NewBlockItem(t BlockType) DragItem {
	return DragItem{Kind: DragKindNew, BlockType: t}
}

// ExistingBlockItem returns a drag item for a block already in the tree.
func ExistingBlockItem(id string) DragItem {
	return DragItem{Kind: DragKindExisting, BlockID: id}
}

// DragState is the drag/drop interaction state owned by the editor.
type DragState struct {
	IsDragging   bool          `json:"isDragging"`
	DraggedItem  *DragItem     `json:"draggedItem"`
	DropPosition *DropPosition `json:"dropPosition"`
}
