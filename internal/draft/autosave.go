package draft

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/editor"
	"sitebuilder/internal/logger"
)

// DefaultSchedule flushes pending edits every two seconds.
const DefaultSchedule = "@every 2s"

// Saver persists a draft.
type Saver interface {
	Save(d *domain.Draft) error
}

// Autosaver is an editor.Observer that keeps the latest committed snapshot
// and writes it to the cache on a cron schedule. OnCommit never blocks on I/O.
type Autosaver struct {
	saver    Saver
	schedule string
	log      *logger.Logger
	now      func() time.Time

	mu        sync.Mutex
	latest    *editor.Snapshot
	seq       uint64
	flushed   uint64
	lastSaved time.Time

	flushMu sync.Mutex
	cron    *cron.Cron
}

var _ editor.Observer = (*Autosaver)(nil)

// NewAutosaver creates an Autosaver. An empty schedule uses DefaultSchedule.
func NewAutosaver(saver Saver, schedule string, log *logger.Logger) *Autosaver {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Autosaver{
		saver:    saver,
		schedule: schedule,
		log:      log.With("component", "autosave"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// OnCommit records snap as the newest state to persist. A snapshot older
// than the one already held is dropped.
func (a *Autosaver) OnCommit(snap editor.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.latest != nil && snap.Seq != 0 && snap.Seq <= a.latest.Seq {
		a.log.Debug("stale snapshot dropped", "seq", snap.Seq, "held", a.latest.Seq)
		return
	}
	a.latest = &snap
	a.seq++
}

// Pending reports whether a committed change has not been written yet.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seq != a.flushed
}

// LastSaved returns the SavedAt stamp of the last successful write.
func (a *Autosaver) LastSaved() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSaved
}

// Start schedules periodic flushes.
func (a *Autosaver) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(a.schedule, func() { _ = a.Flush() }); err != nil {
		return fmt.Errorf("schedule autosave %q: %w", a.schedule, err)
	}
	c.Start()
	a.cron = c
	a.log.Debug("autosave started", "schedule", a.schedule)
	return nil
}

// Stop waits for a running flush, stops the schedule and writes anything still pending.
func (a *Autosaver) Stop() {
	if a.cron != nil {
		<-a.cron.Stop().Done()
		a.cron = nil
	}
	if err := a.Flush(); err != nil {
		a.log.Warn("final autosave failed", "error", err)
	}
}

// Flush writes the latest snapshot if it changed since the last write.
func (a *Autosaver) Flush() error {
	a.flushMu.Lock()
	defer a.flushMu.Unlock()

	a.mu.Lock()
	if a.latest == nil || a.seq == a.flushed {
		a.mu.Unlock()
		return nil
	}
	snap := *a.latest
	seq := a.seq
	a.mu.Unlock()

	d := &domain.Draft{Blocks: snap.Blocks, Settings: snap.Settings, SavedAt: a.now()}
	if err := a.saver.Save(d); err != nil {
		a.log.Warn("autosave failed", "error", err)
		return err
	}

	a.mu.Lock()
	a.flushed = seq
	a.lastSaved = d.SavedAt
	a.mu.Unlock()
	a.log.Debug("draft saved", "command", snap.Command, "blocks", len(snap.Blocks))
	return nil
}
