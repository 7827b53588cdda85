package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sitebuilder/internal/domain"
)

// HistoryNode is one persisted checkpoint of a site's undo stack.
type HistoryNode struct {
	ID           string    `json:"id"`
	SiteID       string    `json:"siteId"`
	Seq          int       `json:"seq"`
	SnapshotJSON string    `json:"snapshotJson"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HistoryStore keeps the undo stack of each saved site, capped at limit entries.
type HistoryStore struct {
	db    *DB
	limit int
}

func NewHistoryStore(db *DB, limit int) *HistoryStore {
	if limit < 1 {
		limit = 50
	}
	return &HistoryStore{db: db, limit: limit}
}

// Replace stores entries as the site's stack with index as the current step.
// When entries exceed the limit the oldest are dropped and index shifts with them.
func (s *HistoryStore) Replace(ctx context.Context, siteID string, entries [][]domain.Block, index int) error {
	if len(entries) == 0 {
		return s.Clear(ctx, siteID)
	}
	if index < 0 || index >= len(entries) {
		return fmt.Errorf("replace history: index %d out of range", index)
	}
	if over := len(entries) - s.limit; over > 0 {
		entries = entries[over:]
		index -= over
		if index < 0 {
			index = 0
		}
	}

	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback()

	if err := deleteHistory(ctx, tx, s.db, siteID); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	insert := s.db.Rebind(`INSERT INTO history_nodes (id, site_id, seq, snapshot_json, created_at) VALUES (?, ?, ?, ?, ?)`)
	now := time.Now().UTC()
	for i, e := range entries {
		if e == nil {
			e = []domain.Block{}
		}
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode history node: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insert, uuid.New().String(), siteID, i, string(raw), now); err != nil {
			return fmt.Errorf("insert history node: %w", err)
		}
	}
	state := s.db.upsert("history_state", "site_id", []string{"site_id", "current_index"}, []string{"current_index"})
	if _, err := tx.ExecContext(ctx, state, siteID, index); err != nil {
		return fmt.Errorf("update history state: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

// Nodes returns the raw checkpoints of a site in stack order.
func (s *HistoryStore) Nodes(ctx context.Context, siteID string) ([]HistoryNode, error) {
	rows, err := s.db.Conn().QueryContext(ctx, s.db.Rebind(
		`SELECT id, site_id, seq, snapshot_json, created_at
		 FROM history_nodes WHERE site_id = ? ORDER BY seq ASC`), siteID,
	)
	if err != nil {
		return nil, fmt.Errorf("load history nodes: %w", err)
	}
	defer rows.Close()

	var nodes []HistoryNode
	for rows.Next() {
		var n HistoryNode
		if err := rows.Scan(&n.ID, &n.SiteID, &n.Seq, &n.SnapshotJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// Load returns the site's stack and current index. A site without stored
// history yields nil entries and no error.
func (s *HistoryStore) Load(ctx context.Context, siteID string) ([][]domain.Block, int, error) {
	nodes, err := s.Nodes(ctx, siteID)
	if err != nil {
		return nil, 0, err
	}
	if len(nodes) == 0 {
		return nil, 0, nil
	}

	entries := make([][]domain.Block, len(nodes))
	for i, n := range nodes {
		if err := json.Unmarshal([]byte(n.SnapshotJSON), &entries[i]); err != nil {
			return nil, 0, fmt.Errorf("decode history node %s: %w", n.ID, err)
		}
		if entries[i] == nil {
			entries[i] = []domain.Block{}
		}
	}

	index := len(entries) - 1
	var current int
	err = s.db.Conn().QueryRowContext(ctx,
		s.db.Rebind(`SELECT current_index FROM history_state WHERE site_id = ?`), siteID,
	).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, 0, fmt.Errorf("load history state: %w", err)
	case current >= 0 && current < len(entries):
		index = current
	}
	return entries, index, nil
}

// Clear removes all stored history for a site.
func (s *HistoryStore) Clear(ctx context.Context, siteID string) error {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback()

	if err := deleteHistory(ctx, tx, s.db, siteID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

// deleteHistory drops a site's checkpoints and current index inside tx.
func deleteHistory(ctx context.Context, tx *sql.Tx, db *DB, siteID string) error {
	if _, err := tx.ExecContext(ctx, db.Rebind(`DELETE FROM history_state WHERE site_id = ?`), siteID); err != nil {
		return fmt.Errorf("delete history state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, db.Rebind(`DELETE FROM history_nodes WHERE site_id = ?`), siteID); err != nil {
		return fmt.Errorf("delete history nodes: %w", err)
	}
	return nil
}
