package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sitebuilder/internal/domain"
)

// SiteStore implements domain.SiteStore over a SQL DB.
type SiteStore struct {
	db *DB
}

func NewSiteStore(db *DB) *SiteStore {
	return &SiteStore{db: db}
}

var _ domain.SiteStore = (*SiteStore)(nil)

// SaveSite creates the record when it has no id or does not exist yet, and
// overwrites its content otherwise. CreatedAt and EmailSent survive updates.
func (s *SiteStore) SaveSite(ctx context.Context, site *domain.Site) error {
	if site.ID == "" {
		site.ID = uuid.New().String()
	}
	blocksJSON, settingsJSON, err := encodeDocument(site.Blocks, site.Settings)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	existing, err := s.GetSite(ctx, site.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		site.CreatedAt = now
		site.EmailSent = false
	case err != nil:
		return err
	default:
		site.CreatedAt = existing.CreatedAt
		site.EmailSent = existing.EmailSent
	}
	site.UpdatedAt = now

	q := s.db.upsert("sites", "id",
		[]string{"id", "student_name", "student_email", "student_class", "blocks_json", "settings_json", "email_sent", "created_at", "updated_at"},
		[]string{"student_name", "student_email", "student_class", "blocks_json", "settings_json", "updated_at"},
	)
	_, err = s.db.Conn().ExecContext(ctx, q,
		site.ID, site.StudentInfo.Name, site.StudentInfo.Email, site.StudentInfo.Class,
		blocksJSON, settingsJSON, boolToInt(site.EmailSent), site.CreatedAt, site.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save site: %w", err)
	}
	return nil
}

const siteColumns = `id, student_name, student_email, student_class, blocks_json, settings_json, email_sent, created_at, updated_at`

func (s *SiteStore) GetSite(ctx context.Context, id string) (*domain.Site, error) {
	row := s.db.Conn().QueryRowContext(ctx,
		s.db.Rebind(`SELECT `+siteColumns+` FROM sites WHERE id = ?`), id)
	site, err := scanSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get site %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get site: %w", err)
	}
	return site, nil
}

// ListSites returns every record, newest first.
func (s *SiteStore) ListSites(ctx context.Context) ([]domain.Site, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT `+siteColumns+` FROM sites ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	sites := []domain.Site{}
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, *site)
	}
	return sites, rows.Err()
}

// DeleteSite removes the record and its stored history in one transaction.
func (s *SiteStore) DeleteSite(ctx context.Context, id string) error {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.db.Rebind(`DELETE FROM sites WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete site %s: %w", id, ErrNotFound)
	}
	if err := deleteHistory(ctx, tx, s.db, id); err != nil {
		return fmt.Errorf("delete site %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func (s *SiteStore) MarkEmailSent(ctx context.Context, id string) error {
	if _, err := s.GetSite(ctx, id); err != nil {
		return err
	}
	_, err := s.db.Conn().ExecContext(ctx,
		s.db.Rebind(`UPDATE sites SET email_sent = 1, updated_at = ? WHERE id = ?`),
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark email sent: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(row rowScanner) (*domain.Site, error) {
	var (
		site                     domain.Site
		blocksJSON, settingsJSON string
		emailSent                int
	)
	err := row.Scan(&site.ID, &site.StudentInfo.Name, &site.StudentInfo.Email, &site.StudentInfo.Class,
		&blocksJSON, &settingsJSON, &emailSent, &site.CreatedAt, &site.UpdatedAt)
	if err != nil {
		return nil, err
	}
	site.EmailSent = emailSent != 0
	if err := decodeDocument(blocksJSON, settingsJSON, &site.Blocks, &site.Settings); err != nil {
		return nil, err
	}
	return &site, nil
}

func encodeDocument(blocks []domain.Block, settings domain.Settings) (string, string, error) {
	if blocks == nil {
		blocks = []domain.Block{}
	}
	if settings == nil {
		settings = domain.Settings{}
	}
	b, err := json.Marshal(blocks)
	if err != nil {
		return "", "", fmt.Errorf("encode blocks: %w", err)
	}
	st, err := json.Marshal(settings)
	if err != nil {
		return "", "", fmt.Errorf("encode settings: %w", err)
	}
	return string(b), string(st), nil
}

func decodeDocument(blocksJSON, settingsJSON string, blocks *[]domain.Block, settings *domain.Settings) error {
	if err := json.Unmarshal([]byte(blocksJSON), blocks); err != nil {
		return fmt.Errorf("decode blocks: %w", err)
	}
	if settingsJSON != "" {
		if err := json.Unmarshal([]byte(settingsJSON), settings); err != nil {
			return fmt.Errorf("decode settings: %w", err)
		}
	}
	if *blocks == nil {
		*blocks = []domain.Block{}
	}
	if *settings == nil {
		*settings = domain.Settings{}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
