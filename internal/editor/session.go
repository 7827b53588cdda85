// Package editor owns the state of one editing session: the block tree,
// the selection, the drag state and the undo history.
//
// Every command runs under the session lock, computes a new tree with the
// pure blocktree operations and swaps it in at once, so readers never see a
// half-applied edit. Commands that cannot apply (stale identity, cyclic move,
// bad drop target, history bounds) leave the state untouched and return false.
package editor

import (
	"sync"

	"sitebuilder/internal/blocktree"
	"sitebuilder/internal/domain"
	"sitebuilder/internal/logger"
)

// BlockFactory creates new blocks for the palette and hands out identities for copies.
type BlockFactory interface {
	New(t domain.BlockType) (domain.Block, error)
	NewID() string
}

// Snapshot is what observers receive after a committed change.
// Seq grows by one per commit and is assigned under the session lock, so it
// orders snapshots even when deliveries from concurrent commits interleave.
type Snapshot struct {
	Seq        uint64          `json:"seq"`
	Command    string          `json:"command"`
	Structural bool            `json:"structural"`
	Blocks     []domain.Block  `json:"blocks"`
	Settings   domain.Settings `json:"settings"`
}

// Observer is notified after every committed change, outside the session lock.
// Snapshots from concurrent commits may arrive out of order; compare Seq.
// Implementations must not block.
type Observer interface {
	OnCommit(Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) OnCommit(s Snapshot) { f(s) }

// Option configures a Session.
type Option func(*Session)

// WithHistoryLimit overrides DefaultHistoryLimit.
func WithHistoryLimit(n int) Option {
	return func(s *Session) { s.historyLimit = n }
}

// WithLogger sets the session logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithObserver registers an observer at construction time.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

// Session is the editor state container.
type Session struct {
	mu sync.Mutex

	factory    BlockFactory
	blocks     []domain.Block
	settings   domain.Settings
	selectedID string
	preview    bool
	drag       domain.DragState
	history    *history

	historyLimit int
	seq          uint64
	observers    []Observer
	pending      []Snapshot
	log          *logger.Logger
}

// New creates an empty session whose history holds the single empty snapshot.
func New(factory BlockFactory, opts ...Option) *Session {
	s := &Session{
		factory:      factory,
		blocks:       []domain.Block{},
		settings:     domain.Settings{},
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	s.log = s.log.With("component", "editor")
	s.history = newHistory(s.historyLimit)
	return s
}

// Observe registers an observer.
func (s *Session) Observe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// ── Structural commands ────────────────────────────────────

// AddBlock creates a block of type t and inserts it at pos, or appends it to the
// root when pos is nil. The new block becomes the selection.
func (s *Session) AddBlock(t domain.BlockType, pos *domain.DropPosition) (string, bool) {
	s.mu.Lock()
	defer s.unlockAndNotify()
	return s.addBlockLocked(t, pos)
}

func (s *Session) addBlockLocked(t domain.BlockType, pos *domain.DropPosition) (string, bool) {
	b, err := s.factory.New(t)
	if err != nil {
		s.log.Debug("add block ignored", "block_type", t, "error", err)
		return "", false
	}
	var at domain.DropPosition
	if pos != nil {
		at = *pos
	}
	tree, ok := blocktree.Insert(s.blocks, b, at)
	if !ok {
		s.log.Debug("add block ignored: no such drop target", "block_type", t, "target_id", at.TargetID, "relation", at.Relation)
		return "", false
	}
	s.selectedID = b.ID
	s.commitLocked("add_block", tree, true)
	return b.ID, true
}

// DeleteBlock removes id and its subtree. A selection inside the removed
// subtree is cleared.
func (s *Session) DeleteBlock(id string) bool {
	s.mu.Lock()
	defer s.unlockAndNotify()
	tree, ok := blocktree.Remove(s.blocks, id)
	if !ok {
		s.log.Debug("delete ignored: stale block", "block_id", id)
		return false
	}
	if s.selectedID != "" && !blocktree.Contains(tree, s.selectedID) {
		s.selectedID = ""
	}
	s.commitLocked("delete_block", tree, true)
	return true
}

// MoveBlock moves blockID to pos. The drag state is cleared either way.
func (s *Session) MoveBlock(blockID string, pos domain.DropPosition) bool {
	s.mu.Lock()
	defer s.unlockAndNotify()
	return s.moveBlockLocked(blockID, pos)
}

func (s *Session) moveBlockLocked(blockID string, pos domain.DropPosition) bool {
	s.drag = domain.DragState{}
	tree, ok := blocktree.Move(s.blocks, blockID, pos)
	if !ok {
		s.log.Debug("move ignored", "block_id", blockID, "target_id", pos.TargetID, "relation", pos.Relation)
		return false
	}
	s.commitLocked("move_block", tree, true)
	return true
}

// DuplicateBlock inserts a deep copy of id right after it and returns the copy's identity.
func (s *Session) DuplicateBlock(id string) (string, bool) {
	s.mu.Lock()
	defer s.unlockAndNotify()
	tree, cloneID, ok := blocktree.Duplicate(s.blocks, id, s.factory.NewID)
	if !ok {
		s.log.Debug("duplicate ignored: stale block", "block_id", id)
		return "", false
	}
	s.commitLocked("duplicate_block", tree, true)
	return cloneID, true
}

// MoveUp swaps id with its previous sibling.
func (s *Session) MoveUp(id string) bool {
	return s.shift("move_up", id, -1)
}

// MoveDown swaps id with its next sibling.
func (s *Session) MoveDown(id string) bool {
	return s.shift("move_down", id, 1)
}

func (s *Session) shift(cmd, id string, delta int) bool {
	s.mu.Lock()
	defer s.unlockAndNotify()
	tree, ok := blocktree.Shift(s.blocks, id, delta)
	if !ok {
		return false
	}
	s.commitLocked(cmd, tree, true)
	return true
}

// ── Field edits (not checkpointed) ─────────────────────────

// UpdateBlock merges patch into id. Field edits fold into the surrounding
// structural step and get no history entry of their own.
func (s *Session) UpdateBlock(id string, patch domain.BlockPatch) bool {
	s.mu.Lock()
	defer s.unlockAndNotify()
	tree, ok := blocktree.Update(s.blocks, id, patch)
	if !ok {
		return false
	}
	s.commitLocked("update_block", tree, false)
	return true
}

// ToggleVisibility flips the visible flag of id.
func (s *Session) ToggleVisibility(id string) bool {
	s.mu.Lock()
	defer s.unlockAndNotify()
	b, ok := blocktree.FindByID(s.blocks, id)
	if !ok {
		return false
	}
	visible := !b.Visible
	tree, ok := blocktree.Update(s.blocks, id, domain.BlockPatch{Visible: &visible})
	if !ok {
		return false
	}
	s.commitLocked("toggle_visibility", tree, false)
	return true
}

// UpdateSettings shallow-merges patch into the page settings.
func (s *Session) UpdateSettings(patch domain.Settings) {
	if len(patch) == 0 {
		return
	}
	s.mu.Lock()
	defer s.unlockAndNotify()
	settings := blocktree.CloneSettings(s.settings)
	if settings == nil {
		settings = domain.Settings{}
	}
	for k, v := range blocktree.CloneSettings(patch) {
		settings[k] = v
	}
	s.settings = settings
	s.commitLocked("update_settings", s.blocks, false)
}

// ReplaceSettings swaps the page settings wholesale.
func (s *Session) ReplaceSettings(settings domain.Settings) {
	s.mu.Lock()
	defer s.unlockAndNotify()
	s.settings = blocktree.CloneSettings(settings)
	if s.settings == nil {
		s.settings = domain.Settings{}
	}
	s.commitLocked("replace_settings", s.blocks, false)
}

// ── Selection and preview ──────────────────────────────────

// Select makes id the selection. An empty or stale id clears it.
func (s *Session) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" || !blocktree.Contains(s.blocks, id) {
		s.selectedID = ""
		return false
	}
	s.selectedID = id
	return true
}

// SetPreview toggles preview mode. Hidden blocks are skipped in preview.
func (s *Session) SetPreview(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preview = on
}

// ── History ────────────────────────────────────────────────

// Undo restores the previous snapshot and clears the selection.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.unlockAndNotify()
	tree, ok := s.history.undo()
	if !ok {
		return false
	}
	s.restoreLocked("undo", tree)
	return true
}

// Redo restores the next snapshot and clears the selection.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.unlockAndNotify()
	tree, ok := s.history.redo()
	if !ok {
		return false
	}
	s.restoreLocked("redo", tree)
	return true
}

func (s *Session) restoreLocked(cmd string, tree []domain.Block) {
	s.blocks = tree
	s.selectedID = ""
	s.drag = domain.DragState{}
	s.enqueueLocked(cmd, true)
}

// LoadConfiguration replaces the document and pushes it as a new history step.
// Earlier history stays reachable through undo.
func (s *Session) LoadConfiguration(blocks []domain.Block, settings domain.Settings) {
	s.mu.Lock()
	defer s.unlockAndNotify()
	s.settings = blocktree.CloneSettings(settings)
	if s.settings == nil {
		s.settings = domain.Settings{}
	}
	s.selectedID = ""
	s.preview = false
	s.drag = domain.DragState{}
	s.commitLocked("load_configuration", blocktree.Normalize(blocks, s.factory.NewID), true)
}

// ClearCanvas empties the tree and resets history to a single empty snapshot.
func (s *Session) ClearCanvas() {
	s.mu.Lock()
	defer s.unlockAndNotify()
	s.blocks = []domain.Block{}
	s.selectedID = ""
	s.drag = domain.DragState{}
	s.history.reset(s.blocks)
	s.enqueueLocked("clear_canvas", true)
}

// History returns a copy of the snapshot stack and the current index.
func (s *Session) History() ([][]domain.Block, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.export()
}

// RestoreHistory replaces the snapshot stack and moves the tree to entries[index].
func (s *Session) RestoreHistory(entries [][]domain.Block, index int) bool {
	s.mu.Lock()
	defer s.unlockAndNotify()
	if !s.history.restore(entries, index) {
		return false
	}
	s.blocks = blocktree.CloneTree(s.history.entries[s.history.index])
	s.selectedID = ""
	s.drag = domain.DragState{}
	s.enqueueLocked("restore_history", true)
	return true
}

// ── Reads ──────────────────────────────────────────────────

// State returns a deep copy of the whole session state.
func (s *Session) State() domain.EditorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// StateWithHistory returns the state and the snapshot stack read under one
// lock, so entries[index] is the checkpoint of the returned state.
func (s *Session) StateWithHistory() (domain.EditorState, [][]domain.Block, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, index := s.history.export()
	return s.stateLocked(), entries, index
}

func (s *Session) stateLocked() domain.EditorState {
	return domain.EditorState{
		Blocks:          blocktree.CloneTree(s.blocks),
		Settings:        blocktree.CloneSettings(s.settings),
		SelectedBlockID: s.selectedID,
		Preview:         s.preview,
		Drag:            copyDrag(s.drag),
		HistoryIndex:    s.history.index,
		HistoryLength:   len(s.history.entries),
		CanUndo:         s.history.canUndo(),
		CanRedo:         s.history.canRedo(),
	}
}

// Blocks returns a deep copy of the tree.
func (s *Session) Blocks() []domain.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return blocktree.CloneTree(s.blocks)
}

// RenderBlocks returns what the canvas should draw: the full tree while
// editing, only visible blocks in preview.
func (s *Session) RenderBlocks() []domain.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preview {
		return blocktree.CloneTree(blocktree.Visible(s.blocks))
	}
	return blocktree.CloneTree(s.blocks)
}

// Settings returns a deep copy of the page settings.
func (s *Session) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return blocktree.CloneSettings(s.settings)
}

// Block returns a deep copy of id.
func (s *Session) Block(id string) (domain.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := blocktree.FindByID(s.blocks, id)
	if !ok {
		return domain.Block{}, false
	}
	return blocktree.Clone(b), true
}

// SelectedBlockID returns the selection, empty when nothing is selected.
func (s *Session) SelectedBlockID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.canUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.canRedo()
}

// Snapshot returns the current document as observers would see it.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked("snapshot", false)
}

// ── internals ──────────────────────────────────────────────

func (s *Session) commitLocked(cmd string, tree []domain.Block, checkpoint bool) {
	s.blocks = tree
	if checkpoint {
		s.history.push(tree)
	}
	s.enqueueLocked(cmd, checkpoint)
}

func (s *Session) enqueueLocked(cmd string, structural bool) {
	s.seq++
	if len(s.observers) == 0 {
		return
	}
	s.pending = append(s.pending, s.snapshotLocked(cmd, structural))
}

func (s *Session) snapshotLocked(cmd string, structural bool) Snapshot {
	return Snapshot{
		Seq:        s.seq,
		Command:    cmd,
		Structural: structural,
		Blocks:     blocktree.CloneTree(s.blocks),
		Settings:   blocktree.CloneSettings(s.settings),
	}
}

// unlockAndNotify releases the lock, then hands pending snapshots to observers.
func (s *Session) unlockAndNotify() {
	pending := s.pending
	s.pending = nil
	observers := s.observers
	s.mu.Unlock()
	for _, snap := range pending {
		for _, o := range observers {
			o.OnCommit(snap)
		}
	}
}
