// Package schedule provides the recurring-trigger registry for PillSpark.
//
// Each armed job is a daily cron entry firing at a medicine's parsed time in
// the deployment's reference timezone. The registry is the sole owner of
// trigger lifecycle: arming a job identifier that already has a live entry
// cancels the old entry before installing the new one.
package schedule

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pillsparkai/pillspark-bot/internal/timeparse"
)

// DefaultTimezone is the reference timezone used to interpret reminder fire
// times when none is configured. It is a deployment constant, never derived
// from user locale.
const DefaultTimezone = "Asia/Kolkata"

// Registry maps stable job identifiers to live cron entries.
//
// The in-memory map is a cache reconstructed from durable user records at
// startup; it is never the source of truth.
type Registry struct {
	cron    *cron.Cron
	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// Opts holds configuration options for the registry.
type Opts struct {
	Location *time.Location
}

// Option defines a configuration option for the registry.
type Option func(*Opts)

// WithLocation sets the reference timezone for all fire times.
func WithLocation(loc *time.Location) Option {
	return func(o *Opts) { o.Location = loc }
}

// NewRegistry creates and starts a registry with the given options.
func NewRegistry(opts ...Option) *Registry {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Location == nil {
		loc, err := time.LoadLocation(DefaultTimezone)
		if err != nil {
			slog.Warn("Registry: failed to load default timezone, falling back to UTC", "timezone", DefaultTimezone, "error", err)
			loc = time.UTC
		}
		cfg.Location = loc
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithLocation(cfg.Location), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	c.Start()
	slog.Debug("Registry created", "timezone", cfg.Location.String())
	return &Registry{
		cron:    c,
		entries: make(map[string]cron.EntryID),
	}
}

// Arm parses the medicine's time string and installs a daily trigger for
// jobID running task at that time. An existing entry for jobID is cancelled
// first, so at most one live trigger exists per identifier.
//
// An unparseable time string returns an error and performs no registration.
func (r *Registry) Arm(jobID, timeSpec string, task func()) (timeparse.Clock, error) {
	clock, err := timeparse.Parse(timeSpec)
	if err != nil {
		slog.Error("Registry.Arm: invalid time spec", "jobID", jobID, "timeSpec", timeSpec, "error", err)
		return timeparse.Clock{}, fmt.Errorf("invalid time for job %s: %w", jobID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.entries[jobID]; exists {
		r.cron.Remove(old)
		delete(r.entries, jobID)
		slog.Debug("Registry.Arm: replaced existing entry", "jobID", jobID)
	}

	id, err := r.cron.AddFunc(clock.CronSpec(), task)
	if err != nil {
		slog.Error("Registry.Arm: failed to add cron entry", "jobID", jobID, "spec", clock.CronSpec(), "error", err)
		return timeparse.Clock{}, fmt.Errorf("failed to schedule job %s: %w", jobID, err)
	}
	r.entries[jobID] = id

	slog.Info("Registry.Arm: trigger armed", "jobID", jobID, "fireTime", clock.String())
	return clock, nil
}

// Disarm cancels and removes the entry for jobID if present. It reports
// whether an entry was armed. Disarming is effective for all future firings;
// an in-flight firing completes.
func (r *Registry) Disarm(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, exists := r.entries[jobID]
	if !exists {
		slog.Debug("Registry.Disarm: no entry", "jobID", jobID)
		return false
	}
	r.cron.Remove(id)
	delete(r.entries, jobID)
	slog.Info("Registry.Disarm: trigger cancelled", "jobID", jobID)
	return true
}

// Armed reports whether jobID has a live entry.
func (r *Registry) Armed(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.entries[jobID]
	return exists
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Stop stops the underlying cron scheduler and waits for running jobs to
// finish.
func (r *Registry) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	slog.Info("Registry stopped")
}
