package domain

// EditorState is a read-only view of an editing session.
// Returned to hosts so they can render the canvas, the selection and the drop indicator.
type EditorState struct {
	Blocks          []Block   `json:"blocks"`
	Settings        Settings  `json:"settings"`
	SelectedBlockID string    `json:"selectedBlockId,omitempty"`
	Preview         bool      `json:"preview"`
	Drag            DragState `json:"dragState"`
	HistoryIndex    int       `json:"historyIndex"`
	HistoryLength   int       `json:"historyLength"`
	CanUndo         bool      `json:"canUndo"`
	CanRedo         bool      `json:"canRedo"`
}
