package domain

import (
	"context"
	"time"
)

// Settings is the page-level settings object (title, colors, fonts...).
// The editor passes it through unchanged.
type Settings map[string]any

// StudentInfo identifies the author of a site.
type StudentInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Class string `json:"class"`
}

// Site is a saved website record as kept by the persistence layer.
type Site struct {
	ID          string      `json:"id"`
	StudentInfo StudentInfo `json:"studentInfo"`
	Blocks      []Block     `json:"blocks"`
	Settings    Settings    `json:"settings"`
	EmailSent   bool        `json:"emailSent"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Draft is the shape exchanged with the local cache.
type Draft struct {
	Blocks   []Block   `json:"blocks"`
	Settings Settings  `json:"settings"`
	SavedAt  time.Time `json:"savedAt"`
}

// Empty reports whether the draft has nothing worth restoring.
func (d *Draft) Empty() bool {
	return d == nil || len(d.Blocks) == 0
}

type SiteStore interface {
	SaveSite(ctx context.Context, s *Site) error
	GetSite(ctx context.Context, id string) (*Site, error)
	ListSites(ctx context.Context) ([]Site, error)
	DeleteSite(ctx context.Context, id string) error
	MarkEmailSent(ctx context.Context, id string) error
}
