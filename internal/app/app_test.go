package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitebuilder/internal/config"
	"sitebuilder/internal/domain"
	"sitebuilder/internal/draft"
	"sitebuilder/internal/service"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = dir
	cfg.Storage.Path = filepath.Join(dir, "sitebuilder.db")
	cfg.Draft.Path = filepath.Join(dir, "draft.json")
	cfg.Draft.FlushSchedule = "@every 1h"
	cfg.Draft.Watch = false
	return cfg
}

func TestStartup_RestoresDraftAndFlushesOnShutdown(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	require.NoError(t, draft.NewFileCache(cfg.Draft.Path).Save(&domain.Draft{
		Blocks:   []domain.Block{{ID: "kept", Type: domain.BlockTypeHeading, Visible: true, Props: domain.Props{"text": "Back again"}}},
		Settings: domain.Settings{"title": "Restored"},
		SavedAt:  time.Now().UTC(),
	}))

	a := New(cfg, nil)
	emitter := &service.MockEmitter{}
	a.SetEmitter(emitter)
	require.NoError(t, a.Startup(ctx))

	tree := a.Session().Blocks()
	require.Len(t, tree, 1)
	assert.Equal(t, "kept", tree[0].ID)
	assert.Equal(t, "Restored", a.Session().Settings()["title"])
	assert.Equal(t, []string{"draft:restored"}, emitter.Names())
	assert.False(t, a.Autosaver().Pending(), "restoring does not schedule a rewrite")

	_, ok := a.Session().AddBlock(domain.BlockTypeFooter, nil)
	require.True(t, ok)
	a.Shutdown(ctx)

	d, err := draft.NewFileCache(cfg.Draft.Path).Load()
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Len(t, d.Blocks, 2)
}

func TestStartup_SavesSitesToSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a := New(cfg, nil)
	require.NoError(t, a.Startup(ctx))
	a.Session().AddBlock(domain.BlockTypeHero, nil)
	site, err := a.Sites().SaveSession(ctx, service.SaveSiteInput{StudentInfo: domain.StudentInfo{Name: "Ana"}})
	require.NoError(t, err)
	a.Shutdown(ctx)

	// a fresh process sees the record
	b := New(cfg, nil)
	require.NoError(t, b.Startup(ctx))
	defer b.Shutdown(ctx)
	sites, err := b.Sites().ListSites(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, site.ID, sites[0].ID)
}

func TestStartup_BadStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "oracle"
	assert.Error(t, New(cfg, nil).Startup(context.Background()))
}

func TestStartup_ClosesStorageWhenAutosaveCannotStart(t *testing.T) {
	cfg := testConfig(t)
	cfg.Draft.FlushSchedule = "whenever"

	a := New(cfg, nil)
	err := a.Startup(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start autosave")
	assert.Nil(t, a.db, "database left open after a failed startup")

	// the sqlite file is released, so a second app can open it
	cfg.Draft.FlushSchedule = "@every 1h"
	b := New(cfg, nil)
	require.NoError(t, b.Startup(context.Background()))
	b.Shutdown(context.Background())
}
