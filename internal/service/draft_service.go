package service

import (
	"context"
	"fmt"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/editor"
	"sitebuilder/internal/logger"
)

// DraftLoader reads the locally cached draft.
type DraftLoader interface {
	Load() (*domain.Draft, error)
}

// DraftService brings the cached working copy back into the session.
type DraftService struct {
	cache   DraftLoader
	session *editor.Session
	emitter EventEmitter
	log     *logger.Logger
}

func NewDraftService(cache DraftLoader, session *editor.Session, emitter EventEmitter, log *logger.Logger) *DraftService {
	if log == nil {
		log = logger.Nop()
	}
	return &DraftService{cache: cache, session: session, emitter: emitter, log: log.With("component", "draft")}
}

// Restore loads the cached draft into the session. An absent or empty draft
// leaves the session untouched and reports false.
func (s *DraftService) Restore(ctx context.Context) (bool, error) {
	d, err := s.cache.Load()
	if err != nil {
		return false, fmt.Errorf("restore draft: %w", err)
	}
	return s.Apply(ctx, d), nil
}

// Apply loads d into the session when it has content.
func (s *DraftService) Apply(ctx context.Context, d *domain.Draft) bool {
	if d.Empty() {
		return false
	}
	s.session.LoadConfiguration(d.Blocks, d.Settings)
	s.log.Info("draft restored", "blocks", len(d.Blocks), "saved_at", d.SavedAt)
	s.emitter.Emit(ctx, "draft:restored", map[string]any{"blocks": len(d.Blocks), "savedAt": d.SavedAt})
	return true
}
