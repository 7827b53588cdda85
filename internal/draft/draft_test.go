package draft

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/editor"
)

func testBlocks() []domain.Block {
	return []domain.Block{
		{ID: "h1", Type: domain.BlockTypeHeading, Width: domain.WidthAuto, Visible: true, Props: domain.Props{"text": "Hi"}},
	}
}

// ─────────────────────────────────────────────────────────────
// FileCache
// ─────────────────────────────────────────────────────────────

func TestFileCache_RoundTrip(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "sub", "draft.json"))

	d, err := cache.Load()
	require.NoError(t, err)
	assert.Nil(t, d)

	saved := &domain.Draft{Blocks: testBlocks(), Settings: domain.Settings{"title": "T"}, SavedAt: time.Now().UTC()}
	require.NoError(t, cache.Save(saved))

	got, err := cache.Load()
	require.NoError(t, err)
	assert.Equal(t, saved.Blocks, got.Blocks)
	assert.Equal(t, "T", got.Settings["title"])
	assert.True(t, saved.SavedAt.Equal(got.SavedAt))

	entries, err := os.ReadDir(filepath.Dir(cache.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	require.NoError(t, cache.Clear())
	require.NoError(t, cache.Clear())
	d, err = cache.Load()
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestFileCache_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileCache(path).Load()
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────
// Autosaver
// ─────────────────────────────────────────────────────────────

type recordingSaver struct {
	mu     sync.Mutex
	drafts []*domain.Draft
	err    error
}

func (r *recordingSaver) Save(d *domain.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.drafts = append(r.drafts, d)
	return nil
}

func (r *recordingSaver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}

func TestAutosaver_FlushWritesLatestOnly(t *testing.T) {
	saver := &recordingSaver{}
	a := NewAutosaver(saver, "", nil)

	require.NoError(t, a.Flush())
	assert.Zero(t, saver.count(), "nothing committed yet")

	a.OnCommit(editor.Snapshot{Command: "add_block", Blocks: []domain.Block{}})
	a.OnCommit(editor.Snapshot{Command: "add_block", Blocks: testBlocks()})
	assert.True(t, a.Pending())

	require.NoError(t, a.Flush())
	require.Equal(t, 1, saver.count())
	assert.Len(t, saver.drafts[0].Blocks, 1)
	assert.False(t, a.Pending())
	assert.Equal(t, saver.drafts[0].SavedAt, a.LastSaved())

	require.NoError(t, a.Flush())
	assert.Equal(t, 1, saver.count())
}

func TestAutosaver_FailedSaveStaysPending(t *testing.T) {
	saver := &recordingSaver{err: errors.New("disk full")}
	a := NewAutosaver(saver, "", nil)
	a.OnCommit(editor.Snapshot{Blocks: testBlocks()})

	assert.Error(t, a.Flush())
	assert.True(t, a.Pending())

	saver.err = nil
	require.NoError(t, a.Flush())
	assert.False(t, a.Pending())
}

func TestAutosaver_BadSchedule(t *testing.T) {
	a := NewAutosaver(&recordingSaver{}, "every so often", nil)
	assert.Error(t, a.Start())
}

func TestAutosaver_StopFlushes(t *testing.T) {
	saver := &recordingSaver{}
	a := NewAutosaver(saver, "@every 1h", nil)
	require.NoError(t, a.Start())

	a.OnCommit(editor.Snapshot{Blocks: testBlocks()})
	a.Stop()
	assert.Equal(t, 1, saver.count())
}

func TestAutosaver_ScheduledFlush(t *testing.T) {
	saver := &recordingSaver{}
	a := NewAutosaver(saver, "@every 1s", nil)
	require.NoError(t, a.Start())
	defer a.Stop()

	a.OnCommit(editor.Snapshot{Blocks: testBlocks()})
	require.Eventually(t, func() bool { return saver.count() == 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestAutosaver_ObservesSession(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "draft.json"))
	a := NewAutosaver(cache, "", nil)
	s := editor.New(fakeFactory{}, editor.WithObserver(a))

	s.LoadConfiguration(testBlocks(), domain.Settings{"title": "Saved"})
	require.NoError(t, a.Flush())

	d, err := cache.Load()
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "h1", d.Blocks[0].ID)
	assert.Equal(t, "Saved", d.Settings["title"])
}

func TestAutosaver_KeepsNewestSnapshotWhenDeliveriesInterleave(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "draft.json"))
	a := NewAutosaver(cache, "", nil)

	// the first observer holds up delivery of the first commit only
	entered := make(chan struct{})
	release := make(chan struct{})
	var stalled atomic.Bool
	slow := editor.ObserverFunc(func(editor.Snapshot) {
		if stalled.CompareAndSwap(false, true) {
			close(entered)
			<-release
		}
	})
	s := editor.New(fakeFactory{}, editor.WithObserver(slow), editor.WithObserver(a))

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.LoadConfiguration(testBlocks(), nil)
	}()
	<-entered

	two := append(testBlocks(), domain.Block{ID: "p1", Type: domain.BlockTypeText, Width: domain.WidthAuto, Visible: true, Props: domain.Props{}})
	s.LoadConfiguration(two, nil)
	close(release)
	<-done

	require.NoError(t, a.Flush())
	d, err := cache.Load()
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Len(t, s.Blocks(), 2)
	assert.Len(t, d.Blocks, 2, "draft must hold the newest commit")
}

func TestAutosaver_DropsOlderSequence(t *testing.T) {
	saver := &recordingSaver{}
	a := NewAutosaver(saver, "", nil)

	a.OnCommit(editor.Snapshot{Seq: 5, Blocks: testBlocks()})
	a.OnCommit(editor.Snapshot{Seq: 4, Blocks: []domain.Block{}})
	a.OnCommit(editor.Snapshot{Seq: 5, Blocks: []domain.Block{}})

	require.NoError(t, a.Flush())
	require.Equal(t, 1, saver.count())
	assert.Len(t, saver.drafts[0].Blocks, 1)
}

type fakeFactory struct{}

func (fakeFactory) New(t domain.BlockType) (domain.Block, error) {
	return domain.Block{ID: "new", Type: t, Width: domain.WidthAuto, Visible: true, Props: domain.Props{}}, nil
}

func (fakeFactory) NewID() string { return "fresh" }

// ─────────────────────────────────────────────────────────────
// Watcher
// ─────────────────────────────────────────────────────────────

func TestWatcher_ReportsExternalWrites(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "draft.json"))

	var mu sync.Mutex
	var got []*domain.Draft
	w := NewWatcher(cache, func(d *domain.Draft) {
		mu.Lock()
		got = append(got, d)
		mu.Unlock()
	}, nil, nil)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	other := NewFileCache(cache.Path())
	require.NoError(t, other.Save(&domain.Draft{Blocks: testBlocks(), SavedAt: time.Now().UTC()}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 3*time.Second, 50*time.Millisecond)
}

func TestWatcher_SkipsOwnWrites(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "draft.json"))
	stamp := time.Now().UTC()

	var mu sync.Mutex
	calls := 0
	w := NewWatcher(cache, func(*domain.Draft) {
		mu.Lock()
		calls++
		mu.Unlock()
	}, func(savedAt time.Time) bool { return savedAt.Equal(stamp) }, nil)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, cache.Save(&domain.Draft{Blocks: testBlocks(), SavedAt: stamp}))
	time.Sleep(2 * watchDebounce)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, calls)
}
