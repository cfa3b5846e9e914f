package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"skycal/internal/calendar"
	appLog "skycal/internal/log"
	"skycal/internal/source"
)

// SnapshotLoader produces the generator inputs. *source.Loader implements it.
type SnapshotLoader interface {
	Load(ctx context.Context) (source.Snapshot, error)
}

// State owns the current Directory and the snapshot it was built from.
// Readers never observe a half-built directory: Refresh builds a new one and
// swaps it in only on success.
type State struct {
	loader  SnapshotLoader
	horizon time.Duration
	now     func() time.Time

	mu        sync.RWMutex
	dir       *calendar.Directory
	snapshot  source.Snapshot
	refreshed time.Time

	refreshMu sync.Mutex
	cron      *cron.Cron
}

// Option customizes a State.
type Option func(*State)

// WithClock overrides the time source used for generation windows.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// NewState returns a State with no directory loaded yet.
func NewState(loader SnapshotLoader, horizon time.Duration, opts ...Option) *State {
	if horizon <= 0 {
		horizon = calendar.DefaultHorizon
	}
	s := &State{
		loader:  loader,
		horizon: horizon,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current time from the state's clock.
func (s *State) Now() time.Time {
	return s.now()
}

// Refresh reloads the snapshot and regenerates the directory. On failure the
// previous directory stays in place.
func (s *State) Refresh(ctx context.Context) error {
	// Serialize refreshes; readers keep using the old directory meanwhile.
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	snap, err := s.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	now := s.now()
	dir, err := calendar.NewDirectory(now, s.horizon, snap.Events, snap.Elections)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	s.mu.Lock()
	s.dir = dir
	s.snapshot = snap
	s.refreshed = now
	s.mu.Unlock()

	appLog.Info("directory refreshed",
		"events", dir.GlobalCalendar().Len(),
		"horizon", s.horizon.String(),
		"took", time.Since(start).Round(time.Millisecond).String(),
	)
	return nil
}

// Directory returns the current directory, or calendar.ErrDataUnavailable
// when no refresh has succeeded yet.
func (s *State) Directory() (*calendar.Directory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dir == nil {
		return nil, calendar.ErrDataUnavailable
	}
	return s.dir, nil
}

// Snapshot returns the inputs of the current directory.
func (s *State) Snapshot() (source.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dir == nil {
		return source.Snapshot{}, calendar.ErrDataUnavailable
	}
	return s.snapshot, nil
}

// RefreshedAt reports when the current directory was generated.
func (s *State) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshed
}

// Generate builds a fresh calendar for [from, to) from the current snapshot.
func (s *State) Generate(from, to time.Time) (*calendar.Calendar, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return calendar.Generate(from, to, snap.Events, snap.Elections)
}

// Start schedules Refresh on the given cron spec (standard 5-field syntax).
func (s *State) Start(ctx context.Context, schedule string) error {
	if s.cron != nil {
		return errors.New("refresh scheduler already started")
	}

	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(schedule, func() {
		if err := s.Refresh(ctx); err != nil {
			appLog.Error("scheduled refresh failed", err, "schedule", schedule)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	s.cron = c
	c.Start()
	appLog.Info("refresh scheduler started", "schedule", schedule)
	return nil
}

// Stop halts the scheduler and waits for a running refresh to finish.
func (s *State) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}
