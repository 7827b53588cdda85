package storage

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitebuilder/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Options{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleBlocks() []domain.Block {
	return []domain.Block{
		{ID: "h1", Type: domain.BlockTypeHeading, Width: domain.WidthAuto, Visible: true, Props: domain.Props{"text": "Hello", "level": float64(1)}},
		{ID: "r1", Type: domain.BlockTypeRow, Width: domain.WidthFull, Visible: true, Props: domain.Props{"gap": "md"}, Children: []domain.Block{
			{ID: "t1", Type: domain.BlockTypeText, Width: domain.WidthHalf, Visible: false, Props: domain.Props{"text": "hidden"}},
		}},
	}
}

// ─────────────────────────────────────────────────────────────
// DB
// ─────────────────────────────────────────────────────────────

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "sites.db")
	db, err := Open(Options{Driver: DriverSQLite, Path: path})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(Options{Driver: DriverSQLite, Path: path})
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(Options{Driver: DriverSQLite})
	assert.Error(t, err)
	_, err = Open(Options{Driver: "oracle"})
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	assert.Equal(t, "UPDATE sites SET a = $1 WHERE id = $2", pg.Rebind("UPDATE sites SET a = ? WHERE id = ?"))

	lite := &DB{driver: DriverSQLite}
	assert.Equal(t, "SELECT ? ", lite.Rebind("SELECT ? "))
}

func TestUpsertDialects(t *testing.T) {
	cols := []string{"id", "v"}
	update := []string{"v"}

	lite := &DB{driver: DriverSQLite}
	assert.Equal(t, "INSERT INTO t (id, v) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET v = excluded.v",
		lite.upsert("t", "id", cols, update))

	pg := &DB{driver: DriverPostgres}
	assert.Equal(t, "INSERT INTO t (id, v) VALUES ($1, $2) ON CONFLICT(id) DO UPDATE SET v = excluded.v",
		pg.upsert("t", "id", cols, update))

	my := &DB{driver: DriverMySQL}
	assert.Equal(t, "INSERT INTO t (id, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)",
		my.upsert("t", "id", cols, update))
}

func TestDSNBuilders(t *testing.T) {
	opts := Options{Host: "db", Database: "sites", Username: "student", Password: "pw"}

	assert.Equal(t, "postgres://student:pw@db:5432/sites?sslmode=disable", PostgresDSN(opts))
	assert.Equal(t, "student:pw@tcp(db:3306)/sites?parseTime=true&charset=utf8mb4", MySQLDSN(opts))
	assert.Equal(t, "mongodb://student:pw@db:27017", MongoURI(opts))

	assert.Equal(t, "u:p@/x?parseTime=true", MySQLDSN(Options{DSN: "u:p@/x"}))
	assert.Equal(t, "u:p@/x?charset=utf8&parseTime=true", MySQLDSN(Options{DSN: "u:p@/x?charset=utf8"}))
	assert.Equal(t, "mongodb+srv://cluster.example", MongoURI(Options{Host: "mongodb+srv://cluster.example"}))
}

func TestPostgresDSN_EscapesCredentials(t *testing.T) {
	opts := Options{Host: "db", Port: 6543, Database: "class sites", Username: "o'neil", Password: "p@ss word/'x", SSLMode: "require"}

	u, err := url.Parse(PostgresDSN(opts))
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db:6543", u.Host)
	assert.Equal(t, "/class sites", u.Path)
	assert.Equal(t, "o'neil", u.User.Username())
	pw, ok := u.User.Password()
	require.True(t, ok)
	assert.Equal(t, "p@ss word/'x", pw)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
}

// ─────────────────────────────────────────────────────────────
// SiteStore
// ─────────────────────────────────────────────────────────────

func TestSiteStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewSiteStore(openTestDB(t))

	site := &domain.Site{
		StudentInfo: domain.StudentInfo{Name: "Ana", Email: "ana@school.org", Class: "7B"},
		Blocks:      sampleBlocks(),
		Settings:    domain.Settings{"title": "Ana's page"},
	}
	require.NoError(t, store.SaveSite(ctx, site))
	require.NotEmpty(t, site.ID)
	assert.False(t, site.CreatedAt.IsZero())

	got, err := store.GetSite(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, site.StudentInfo, got.StudentInfo)
	assert.Equal(t, site.Blocks, got.Blocks)
	assert.Equal(t, "Ana's page", got.Settings["title"])
	assert.False(t, got.EmailSent)
	assert.WithinDuration(t, site.CreatedAt, got.CreatedAt, time.Second)
}

func TestSiteStore_UpdateKeepsCreatedAtAndEmailFlag(t *testing.T) {
	ctx := context.Background()
	store := NewSiteStore(openTestDB(t))

	site := &domain.Site{StudentInfo: domain.StudentInfo{Name: "Bo"}, Blocks: sampleBlocks()}
	require.NoError(t, store.SaveSite(ctx, site))
	created := site.CreatedAt
	require.NoError(t, store.MarkEmailSent(ctx, site.ID))

	site.Blocks = site.Blocks[:1]
	site.EmailSent = false
	require.NoError(t, store.SaveSite(ctx, site))

	got, err := store.GetSite(ctx, site.ID)
	require.NoError(t, err)
	assert.Len(t, got.Blocks, 1)
	assert.True(t, got.EmailSent)
	assert.WithinDuration(t, created, got.CreatedAt, time.Second)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestSiteStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewSiteStore(openTestDB(t))

	empty, err := store.ListSites(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, store.SaveSite(ctx, &domain.Site{ID: id}))
		time.Sleep(5 * time.Millisecond)
	}

	sites, err := store.ListSites(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 3)
	assert.Equal(t, "third", sites[0].ID)
	assert.Equal(t, "first", sites[2].ID)
	assert.NotNil(t, sites[0].Blocks)
}

func TestSiteStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewSiteStore(openTestDB(t))

	_, err := store.GetSite(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.ErrorIs(t, store.DeleteSite(ctx, "missing"), ErrNotFound)
	assert.ErrorIs(t, store.MarkEmailSent(ctx, "missing"), ErrNotFound)
}

func TestSiteStore_DeleteDropsHistory(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewSiteStore(db)
	history := NewHistoryStore(db, 50)

	site := &domain.Site{ID: "s1", Blocks: sampleBlocks()}
	require.NoError(t, store.SaveSite(ctx, site))
	require.NoError(t, history.Replace(ctx, "s1", [][]domain.Block{{}, sampleBlocks()}, 1))

	require.NoError(t, store.DeleteSite(ctx, "s1"))
	entries, _, err := history.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestSiteStore_DeleteRollsBackWhenHistoryCleanupFails(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewSiteStore(db)
	require.NoError(t, store.SaveSite(ctx, &domain.Site{ID: "s1", Blocks: sampleBlocks()}))

	_, err := db.Conn().ExecContext(ctx, `DROP TABLE history_state`)
	require.NoError(t, err)

	err = store.DeleteSite(ctx, "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete history state")

	_, err = store.GetSite(ctx, "s1")
	assert.NoError(t, err, "site must survive a failed delete")
}

// ─────────────────────────────────────────────────────────────
// HistoryStore
// ─────────────────────────────────────────────────────────────

func TestHistoryStore_ReplaceAndLoad(t *testing.T) {
	ctx := context.Background()
	history := NewHistoryStore(openTestDB(t), 50)

	entries, index, err := history.Load(ctx, "none")
	require.NoError(t, err)
	assert.Nil(t, entries)
	assert.Zero(t, index)

	stack := [][]domain.Block{{}, sampleBlocks()[:1], sampleBlocks()}
	require.NoError(t, history.Replace(ctx, "s1", stack, 1))

	entries, index, err = history.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, stack, entries)
	assert.Equal(t, 1, index)

	// replacing overwrites, never appends
	require.NoError(t, history.Replace(ctx, "s1", stack[:1], 0))
	entries, index, err = history.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Zero(t, index)
}

func TestHistoryStore_PrunesToLimit(t *testing.T) {
	ctx := context.Background()
	history := NewHistoryStore(openTestDB(t), 3)

	var stack [][]domain.Block
	for i := 0; i < 5; i++ {
		stack = append(stack, []domain.Block{{ID: string(rune('a' + i)), Type: domain.BlockTypeText, Width: domain.WidthAuto, Visible: true, Props: domain.Props{}}})
	}
	require.NoError(t, history.Replace(ctx, "s1", stack, 4))

	nodes, err := history.Nodes(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	entries, index, err := history.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "c", entries[0][0].ID)
	assert.Equal(t, 2, index)
}

func TestHistoryStore_RejectsBadIndex(t *testing.T) {
	history := NewHistoryStore(openTestDB(t), 50)
	err := history.Replace(context.Background(), "s1", [][]domain.Block{{}}, 3)
	assert.Error(t, err)
}

func TestHistoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	history := NewHistoryStore(openTestDB(t), 50)
	require.NoError(t, history.Replace(ctx, "s1", [][]domain.Block{{}}, 0))
	require.NoError(t, history.Clear(ctx, "s1"))

	entries, _, err := history.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestHistoryStore_ClearReportsFailure(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	history := NewHistoryStore(db, 50)
	require.NoError(t, history.Replace(ctx, "s1", [][]domain.Block{{}, sampleBlocks()}, 1))

	_, err := db.Conn().ExecContext(ctx, `DROP TABLE history_state`)
	require.NoError(t, err)

	require.Error(t, history.Clear(ctx, "s1"))
	nodes, err := history.Nodes(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
}
