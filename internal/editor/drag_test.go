package editor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/editor"
)

func TestDrag_NewBlockCommit(t *testing.T) {
	s := newSession(t)
	a := add(t, s, domain.BlockTypeText)

	require.True(t, s.StartDrag(domain.NewBlockItem(domain.BlockTypeButton)))
	assert.True(t, s.Drag().IsDragging)
	require.True(t, s.UpdateDropPosition(&domain.DropPosition{TargetID: a, Relation: domain.RelationBefore}))

	require.True(t, s.EndDrag())
	tree := s.Blocks()
	require.Len(t, tree, 2)
	assert.Equal(t, domain.BlockTypeButton, tree[0].Type)
	assert.Equal(t, tree[0].ID, s.SelectedBlockID())
	assert.Equal(t, domain.DragState{}, s.Drag())
}

func TestDrag_ExistingBlockCommit(t *testing.T) {
	s := newSession(t)
	rowID := add(t, s, domain.BlockTypeRow)
	img := add(t, s, domain.BlockTypeImage)
	length := s.State().HistoryLength

	require.True(t, s.StartDrag(domain.ExistingBlockItem(img)))
	require.True(t, s.UpdateDropPosition(&domain.DropPosition{TargetID: rowID, Relation: domain.RelationInside}))
	require.True(t, s.EndDrag())

	tree := s.Blocks()
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, img, tree[0].Children[0].ID)
	assert.Equal(t, length+1, s.State().HistoryLength)
	assert.False(t, s.Drag().IsDragging)
}

func TestDrag_LastPositionWins(t *testing.T) {
	s := newSession(t)
	a := add(t, s, domain.BlockTypeText)
	b := add(t, s, domain.BlockTypeText)

	require.True(t, s.StartDrag(domain.NewBlockItem(domain.BlockTypeDivider)))
	require.True(t, s.UpdateDropPosition(&domain.DropPosition{TargetID: a, Relation: domain.RelationBefore}))
	require.True(t, s.UpdateDropPosition(&domain.DropPosition{TargetID: b, Relation: domain.RelationAfter}))
	require.True(t, s.EndDrag())

	tree := s.Blocks()
	require.Len(t, tree, 3)
	assert.Equal(t, domain.BlockTypeDivider, tree[2].Type)
}

func TestDrag_EndWithoutPositionCancels(t *testing.T) {
	s := newSession(t)
	add(t, s, domain.BlockTypeText)
	before := s.Blocks()
	length := s.State().HistoryLength

	require.True(t, s.StartDrag(domain.NewBlockItem(domain.BlockTypeText)))
	require.True(t, s.UpdateDropPosition(&domain.DropPosition{}))
	require.True(t, s.UpdateDropPosition(nil))
	assert.False(t, s.EndDrag())

	assert.Equal(t, before, s.Blocks())
	assert.Equal(t, length, s.State().HistoryLength)
	assert.False(t, s.Drag().IsDragging)
}

func TestDrag_SelfDropIsRefused(t *testing.T) {
	s := newSession(t)
	a := add(t, s, domain.BlockTypeText)

	require.True(t, s.StartDrag(domain.ExistingBlockItem(a)))
	assert.False(t, s.UpdateDropPosition(&domain.DropPosition{TargetID: a, Relation: domain.RelationAfter}))
	assert.Nil(t, s.Drag().DropPosition)
	assert.False(t, s.EndDrag())
}

func TestDrag_StaleOrInvalidStart(t *testing.T) {
	s := newSession(t)
	assert.False(t, s.StartDrag(domain.ExistingBlockItem("ghost")))
	assert.False(t, s.StartDrag(domain.DragItem{Kind: domain.DragKindNew}))
	assert.False(t, s.StartDrag(domain.DragItem{Kind: "teleport", BlockID: "x"}))
	assert.False(t, s.Drag().IsDragging)
}

func TestDrag_PositionIgnoredWhenIdle(t *testing.T) {
	s := newSession(t)
	assert.False(t, s.UpdateDropPosition(&domain.DropPosition{}))
	assert.False(t, s.EndDrag())
}

func TestDrag_Cancel(t *testing.T) {
	s := newSession(t)
	require.True(t, s.StartDrag(domain.NewBlockItem(domain.BlockTypeText)))
	require.True(t, s.UpdateDropPosition(&domain.DropPosition{}))
	s.CancelDrag()
	assert.Equal(t, domain.DragState{}, s.Drag())
	assert.Empty(t, s.Blocks())
}

func TestDrag_ExistingBlockIntoOwnSubtreeRejectedAtCommit(t *testing.T) {
	s := newSession(t)
	outer := add(t, s, domain.BlockTypeRow)
	inner, ok := s.AddBlock(domain.BlockTypeRow, &domain.DropPosition{TargetID: outer, Relation: domain.RelationInside})
	require.True(t, ok)
	before := s.State()

	require.True(t, s.StartDrag(domain.ExistingBlockItem(outer)))
	require.True(t, s.UpdateDropPosition(&domain.DropPosition{TargetID: inner, Relation: domain.RelationInside}))
	assert.False(t, s.EndDrag())

	after := s.State()
	assert.Equal(t, before.Blocks, after.Blocks)
	assert.Equal(t, before.HistoryLength, after.HistoryLength)
	assert.False(t, after.Drag.IsDragging)
}

func TestCanDropOn(t *testing.T) {
	existing := domain.ExistingBlockItem("a")
	fresh := domain.NewBlockItem(domain.BlockTypeText)

	assert.True(t, editor.CanDropOn(&existing, domain.DropPosition{}))
	assert.True(t, editor.CanDropOn(&existing, domain.DropPosition{TargetID: "b", Relation: domain.RelationBefore}))
	assert.False(t, editor.CanDropOn(&existing, domain.DropPosition{TargetID: "a", Relation: domain.RelationBefore}))
	assert.False(t, editor.CanDropOn(&fresh, domain.DropPosition{TargetID: "b", Relation: "sideways"}))
	assert.True(t, editor.CanDropOn(&fresh, domain.DropPosition{TargetID: "b", Relation: domain.RelationInside}))
}
