package blocks_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitebuilder/internal/blocks"
	"sitebuilder/internal/domain"
)

func TestRegistry_HasEveryVariant(t *testing.T) {
	r := blocks.NewRegistry()
	types := r.Types()
	require.Len(t, types, 22)

	info, ok := r.Lookup(domain.BlockTypeRow)
	require.True(t, ok)
	assert.True(t, info.Container)

	for _, ti := range types {
		if ti.Type != domain.BlockTypeRow {
			assert.False(t, ti.Container, "%s should be a leaf", ti.Type)
		}
	}
	assert.Len(t, r.ByCategory(blocks.CategoryBasic), 4)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := blocks.NewRegistry()
	assert.Panics(t, func() {
		r.Register(blocks.TypeInfo{Type: domain.BlockTypeText})
	})
}

func TestFactory_New(t *testing.T) {
	f := blocks.NewFactory(nil, nil)
	for _, info := range blocks.NewRegistry().Types() {
		b, err := f.New(info.Type)
		require.NoError(t, err)
		assert.NotEmpty(t, b.ID)
		assert.Equal(t, info.Type, b.Type)
		assert.Equal(t, domain.WidthAuto, b.Width)
		assert.True(t, b.Visible)
		assert.NotEmpty(t, b.Props, "%s has no default payload", info.Type)
		if info.Container {
			assert.NotNil(t, b.Children)
		} else {
			assert.Nil(t, b.Children)
		}
	}
}

func TestFactory_FreshIdentities(t *testing.T) {
	f := blocks.NewFactory(nil, nil)
	a, err := f.New(domain.BlockTypeText)
	require.NoError(t, err)
	b, err := f.New(domain.BlockTypeText)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	// default payloads are not shared between blocks
	a.Props["text"] = "edited"
	assert.Equal(t, "Write your text here.", b.Props["text"])
}

func TestFactory_UnknownType(t *testing.T) {
	f := blocks.NewFactory(nil, nil)
	_, err := f.New("marquee")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownBlockType))
}

func TestFactory_CustomType(t *testing.T) {
	r := blocks.NewRegistry()
	r.Register(blocks.TypeInfo{Type: "map", Label: "Map", Category: blocks.CategoryMedia})
	n := 0
	f := blocks.NewFactory(r, func() string { n++; return "id-" + string(rune('0'+n)) })

	b, err := f.New("map")
	require.NoError(t, err)
	assert.Equal(t, "id-1", b.ID)
	assert.NotNil(t, b.Props)
}

func TestRegistry_OnlyRowIsAContainer(t *testing.T) {
	r := blocks.NewRegistry()
	assert.Panics(t, func() {
		r.Register(blocks.TypeInfo{Type: "columns", Label: "Columns", Category: blocks.CategoryLayout, Container: true})
	})
	_, ok := r.Lookup("columns")
	assert.False(t, ok)

	r.Register(blocks.TypeInfo{Type: "map", Label: "Map", Category: blocks.CategoryMedia})
	b, err := blocks.NewFactory(r, nil).New("map")
	require.NoError(t, err)
	assert.Nil(t, b.Children)
	assert.False(t, b.IsContainer())
}
