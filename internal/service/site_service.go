package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/editor"
	"sitebuilder/internal/logger"
)

// ─────────────────────────────────────────────────────────────
// Site Service: saved site records for an edit session
// ─────────────────────────────────────────────────────────────

// ErrSaveInProgress is returned when the same site is already being saved.
var ErrSaveInProgress = errors.New("save already in progress")

// HistoryStore persists a site's undo stack. Optional: backends without one
// reopen sites with a fresh history.
type HistoryStore interface {
	Replace(ctx context.Context, siteID string, entries [][]domain.Block, index int) error
	Load(ctx context.Context, siteID string) ([][]domain.Block, int, error)
}

// SiteService moves documents between the edit session and the site store.
// It remembers which record the session was opened from so later saves update it.
type SiteService struct {
	sites   domain.SiteStore
	history HistoryStore
	session *editor.Session
	emitter EventEmitter
	log     *logger.Logger
	saving  saveGuard

	mu        sync.Mutex
	currentID string
}

// NewSiteService creates a SiteService. history may be nil.
func NewSiteService(sites domain.SiteStore, history HistoryStore, session *editor.Session, emitter EventEmitter, log *logger.Logger) *SiteService {
	if log == nil {
		log = logger.Nop()
	}
	return &SiteService{
		sites:   sites,
		history: history,
		session: session,
		emitter: emitter,
		log:     log.With("component", "sites"),
	}
}

// SaveSiteInput names the record to write. An empty ID updates the site the
// session was opened from, or creates a new one.
type SaveSiteInput struct {
	ID          string             `json:"id"`
	StudentInfo domain.StudentInfo `json:"studentInfo"`
}

// CurrentSiteID returns the record the session is bound to, empty for an unsaved document.
func (s *SiteService) CurrentSiteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// SaveSession writes the session's document to the store.
func (s *SiteService) SaveSession(ctx context.Context, in SaveSiteInput) (*domain.Site, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = s.CurrentSiteID()
	}
	release, err := s.saving.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	state, entries, index := s.session.StateWithHistory()
	site := &domain.Site{
		ID:          id,
		StudentInfo: in.StudentInfo,
		Blocks:      state.Blocks,
		Settings:    state.Settings,
	}
	if err := s.sites.SaveSite(ctx, site); err != nil {
		return nil, fmt.Errorf("save site: %w", err)
	}

	if s.history != nil {
		// the saved document includes field edits made since the last checkpoint
		entries[index] = state.Blocks
		if err := s.history.Replace(ctx, site.ID, entries, index); err != nil {
			s.log.Warn("history not persisted", "site_id", site.ID, "error", err)
		}
	}

	s.mu.Lock()
	s.currentID = site.ID
	s.mu.Unlock()

	s.log.Info("site saved", "site_id", site.ID, "blocks", len(site.Blocks), "student_email", site.StudentInfo.Email)
	s.emitter.Emit(ctx, "site:saved", map[string]string{"siteId": site.ID})
	return site, nil
}

// OpenSite loads a record into the session. A stored undo stack is restored
// with it; otherwise the document is loaded as a new history step.
func (s *SiteService) OpenSite(ctx context.Context, id string) (*domain.Site, error) {
	site, err := s.sites.GetSite(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("open site: %w", err)
	}

	restored := false
	if s.history != nil {
		entries, index, err := s.history.Load(ctx, id)
		if err != nil {
			s.log.Warn("stored history unreadable", "site_id", id, "error", err)
		} else if len(entries) > 0 {
			restored = s.session.RestoreHistory(entries, index)
		}
	}
	if restored {
		s.session.ReplaceSettings(site.Settings)
	} else {
		s.session.LoadConfiguration(site.Blocks, site.Settings)
	}

	s.mu.Lock()
	s.currentID = site.ID
	s.mu.Unlock()

	s.log.Info("site opened", "site_id", id, "history_restored", restored)
	s.emitter.Emit(ctx, "site:opened", map[string]string{"siteId": id})
	return site, nil
}

// NewSite detaches the session from any stored record and clears the canvas.
func (s *SiteService) NewSite(ctx context.Context) {
	s.mu.Lock()
	s.currentID = ""
	s.mu.Unlock()
	s.session.ClearCanvas()
	s.session.ReplaceSettings(nil)
	s.emitter.Emit(ctx, "site:new", nil)
}

// ListSites returns all records, newest first.
func (s *SiteService) ListSites(ctx context.Context) ([]domain.Site, error) {
	sites, err := s.sites.ListSites(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	return sites, nil
}

// GetSite returns one record.
func (s *SiteService) GetSite(ctx context.Context, id string) (*domain.Site, error) {
	return s.sites.GetSite(ctx, id)
}

// DeleteSite removes a record. The session keeps its document but is no
// longer bound to the deleted record.
func (s *SiteService) DeleteSite(ctx context.Context, id string) error {
	if err := s.sites.DeleteSite(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	if s.currentID == id {
		s.currentID = ""
	}
	s.mu.Unlock()
	s.emitter.Emit(ctx, "site:deleted", map[string]string{"siteId": id})
	return nil
}

// MarkEmailSent flags that the site was mailed out.
func (s *SiteService) MarkEmailSent(ctx context.Context, id string) error {
	if err := s.sites.MarkEmailSent(ctx, id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, "site:email-sent", map[string]string{"siteId": id})
	return nil
}

// Saving reports whether a save of siteID is in flight. An empty id asks
// about a document that has no record yet.
func (s *SiteService) Saving(siteID string) bool {
	return s.saving.saving(siteID)
}

// WaitSaves blocks until the saves in flight finish, or returns ctx's error.
func (s *SiteService) WaitSaves(ctx context.Context) error {
	if err := s.saving.wait(ctx); err != nil {
		return fmt.Errorf("wait for saves: %w", err)
	}
	return nil
}
