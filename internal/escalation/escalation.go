// Package escalation watches for reminders that went unanswered and notifies
// the user's guardian.
//
// The monitor sweeps the confirmation table on an interval. A pending record
// older than the grace window is claimed with an atomic status transition, so
// each miss produces at most one guardian alert even across overlapping
// sweeps.
package escalation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pillsparkai/pillspark-bot/internal/i18n"
	"github.com/pillsparkai/pillspark-bot/internal/messaging"
	"github.com/pillsparkai/pillspark-bot/internal/models"
	"github.com/pillsparkai/pillspark-bot/internal/store"
)

const (
	// DefaultGraceWindow is how long a reminder may stay unanswered before
	// the guardian is alerted.
	DefaultGraceWindow = 10 * time.Minute
	// DefaultSweepInterval is how often the monitor scans for overdue
	// confirmations.
	DefaultSweepInterval = time.Minute
)

// Opts holds configuration options for the Monitor.
type Opts struct {
	GraceWindow   time.Duration
	SweepInterval time.Duration
	// SMSSender, when set, carries guardian alerts over a secondary channel
	// in addition to the primary one.
	SMSSender messaging.TextSender
}

// Option defines a configuration option for the Monitor.
type Option func(*Opts)

// WithGraceWindow overrides how long a reminder may stay unanswered.
func WithGraceWindow(d time.Duration) Option {
	return func(o *Opts) { o.GraceWindow = d }
}

// WithSweepInterval overrides the scan interval.
func WithSweepInterval(d time.Duration) Option {
	return func(o *Opts) { o.SweepInterval = d }
}

// WithSMSSender adds a secondary plain-text channel for guardian alerts.
func WithSMSSender(s messaging.TextSender) Option {
	return func(o *Opts) { o.SMSSender = s }
}

// Monitor escalates overdue reminder confirmations to guardians.
type Monitor struct {
	store    store.Store
	msg      messaging.Service
	catalog  *i18n.Catalog
	sms      messaging.TextSender
	grace    time.Duration
	interval time.Duration
}

// NewMonitor creates a Monitor.
func NewMonitor(st store.Store, msg messaging.Service, cat *i18n.Catalog, opts ...Option) *Monitor {
	o := Opts{GraceWindow: DefaultGraceWindow, SweepInterval: DefaultSweepInterval}
	for _, opt := range opts {
		opt(&o)
	}
	return &Monitor{
		store:    st,
		msg:      msg,
		catalog:  cat,
		sms:      o.SMSSender,
		grace:    o.GraceWindow,
		interval: o.SweepInterval,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	slog.Info("Monitor.Run: escalation monitor started", "graceWindow", m.grace, "sweepInterval", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Monitor.Run: escalation monitor stopped")
			return
		case <-ticker.C:
			if err := m.Sweep(ctx); err != nil {
				slog.Error("Monitor.Run: sweep failed", "error", err)
			}
		}
	}
}

// Sweep claims every confirmation whose grace window elapsed and sends one
// aggregated alert per guardian. Records without a guardian snapshot are
// still moved out of pending so they are not rescanned forever.
func (m *Monitor) Sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-m.grace)
	overdue, err := m.store.ListPendingConfirmationsBefore(cutoff)
	if err != nil {
		return fmt.Errorf("failed to list overdue confirmations: %w", err)
	}
	if len(overdue) == 0 {
		return nil
	}

	byGuardian := make(map[string][]models.ConfirmationRecord)
	claimed := 0
	for _, rec := range overdue {
		ok, err := m.store.MarkConfirmationEscalated(rec.ID)
		if err != nil {
			slog.Error("Monitor.Sweep: failed to claim confirmation", "confirmationID", rec.ID, "error", err)
			continue
		}
		if !ok {
			// Already resolved or claimed elsewhere.
			continue
		}
		claimed++
		if rec.GuardianPhone == "" {
			slog.Warn("Monitor.Sweep: missed dose with no guardian", "phone", rec.Phone, "medicine", rec.MedicineName, "confirmationID", rec.ID)
			continue
		}
		byGuardian[rec.GuardianPhone] = append(byGuardian[rec.GuardianPhone], rec)
	}

	for guardian, recs := range byGuardian {
		m.notifyGuardian(ctx, guardian, recs)
	}
	slog.Info("Monitor.Sweep: sweep complete", "overdue", len(overdue), "escalated", claimed, "guardiansNotified", len(byGuardian))
	return nil
}

// notifyGuardian sends one alert covering every missed dose for this
// guardian. Alerts are rendered in the patient's language.
func (m *Monitor) notifyGuardian(ctx context.Context, guardian string, recs []models.ConfirmationRecord) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].SentAt.Before(recs[j].SentAt) })

	lines := make([]string, 0, len(recs))
	for _, rec := range recs {
		lines = append(lines, fmt.Sprintf(
			m.catalog.Lookup(m.userLanguage(rec.Phone), i18n.KeyGuardianAlert),
			m.userDisplayName(rec.Phone), rec.MedicineName,
		))
	}
	body := strings.Join(lines, "\n")

	if err := m.msg.SendText(ctx, guardian, body); err != nil {
		slog.Error("Monitor.notifyGuardian: primary send failed", "guardian", guardian, "error", err)
	}
	if m.sms != nil {
		if err := m.sms.SendText(ctx, guardian, body); err != nil {
			slog.Error("Monitor.notifyGuardian: sms send failed", "guardian", guardian, "error", err)
		}
	}
	slog.Info("Monitor.notifyGuardian: guardian alerted", "guardian", guardian, "missedDoses", len(recs))
}

func (m *Monitor) userDisplayName(phone string) string {
	if u, err := m.store.GetUser(phone); err == nil && u != nil && u.Name != "" {
		return u.Name
	}
	return phone
}

func (m *Monitor) userLanguage(phone string) string {
	if u, err := m.store.GetUser(phone); err == nil && u != nil {
		return u.Language
	}
	return ""
}
