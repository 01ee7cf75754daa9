package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pillsparkai/pillspark-bot/internal/i18n"
	"github.com/pillsparkai/pillspark-bot/internal/messaging"
	"github.com/pillsparkai/pillspark-bot/internal/models"
	"github.com/pillsparkai/pillspark-bot/internal/schedule"
	"github.com/pillsparkai/pillspark-bot/internal/store"
)

// DefaultSnoozeDelay is how long a snoozed reminder waits before re-firing.
const DefaultSnoozeDelay = 10 * time.Minute

// DispatcherOpts holds configuration options for the Dispatcher.
type DispatcherOpts struct {
	SnoozeDelay time.Duration
}

// DispatcherOption defines a configuration option for the Dispatcher.
type DispatcherOption func(*DispatcherOpts)

// WithSnoozeDelay overrides the snooze re-fire delay.
func WithSnoozeDelay(d time.Duration) DispatcherOption {
	return func(o *DispatcherOpts) { o.SnoozeDelay = d }
}

// Dispatcher fires scheduled reminders: it re-reads the user document, sends
// the reminder with its reply buttons, and opens a pending confirmation
// record. It also replays all stored schedules into the registry on startup.
type Dispatcher struct {
	store       store.Store
	msg         messaging.Service
	registry    *schedule.Registry
	timer       Timer
	catalog     *i18n.Catalog
	snoozeDelay time.Duration
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(st store.Store, msg messaging.Service, reg *schedule.Registry, timer Timer, cat *i18n.Catalog, opts ...DispatcherOption) *Dispatcher {
	o := DispatcherOpts{SnoozeDelay: DefaultSnoozeDelay}
	for _, opt := range opts {
		opt(&o)
	}
	return &Dispatcher{
		store:       st,
		msg:         msg,
		registry:    reg,
		timer:       timer,
		catalog:     cat,
		snoozeDelay: o.SnoozeDelay,
	}
}

// SnoozeDelay returns the configured snooze re-fire delay.
func (d *Dispatcher) SnoozeDelay() time.Duration {
	return d.snoozeDelay
}

// Fire delivers one reminder. The user document is re-read at fire time so a
// medicine deleted after arming is silently skipped; stale state is never
// delivered. Fire is the callback armed into the schedule registry and runs
// off the registry's goroutine, so it takes no context from a caller.
func (d *Dispatcher) Fire(phone, medicineID string) {
	ctx := context.Background()

	user, err := d.store.GetUser(phone)
	if err != nil {
		slog.Error("Dispatcher.Fire: failed to load user", "phone", phone, "medicineID", medicineID, "error", err)
		return
	}
	if user == nil {
		slog.Warn("Dispatcher.Fire: user vanished, skipping reminder", "phone", phone, "medicineID", medicineID)
		return
	}
	med := user.MedicineByID(medicineID)
	if med == nil {
		slog.Warn("Dispatcher.Fire: medicine vanished, skipping reminder", "phone", phone, "medicineID", medicineID)
		return
	}

	rec := models.ConfirmationRecord{
		Phone:         phone,
		MedicineID:    med.ID,
		MedicineName:  med.Name,
		GuardianPhone: user.GuardianPhone,
		Status:        models.ConfirmationPending,
		SentAt:        time.Now().UTC(),
	}
	recID, err := d.store.AddConfirmation(rec)
	if err != nil {
		// The reminder still goes out; only the audit trail is degraded.
		slog.Error("Dispatcher.Fire: failed to record confirmation", "phone", phone, "medicineID", medicineID, "error", err)
	}

	lang := user.Language
	body := fmt.Sprintf(d.catalog.Lookup(lang, i18n.KeyReminderBody), med.Name)
	if med.PhotoRef != "" {
		if err := d.msg.SendImage(ctx, phone, med.PhotoRef, ""); err != nil {
			slog.Error("Dispatcher.Fire: failed to send medicine photo", "phone", phone, "medicineID", medicineID, "error", err)
		}
	}
	if err := d.msg.SendButtons(ctx, phone, "", body, reminderButtons(d.catalog, lang, med.ID)); err != nil {
		slog.Error("Dispatcher.Fire: failed to send reminder", "phone", phone, "medicineID", medicineID, "error", err)
		return
	}
	slog.Info("Dispatcher.Fire: reminder sent", "phone", phone, "medicineID", medicineID, "medicine", med.Name, "confirmationID", recID)
}

// Snooze schedules a one-shot re-fire of the reminder after the snooze delay.
// Snoozes live in process memory only and do not survive a restart.
func (d *Dispatcher) Snooze(phone, medicineID string) error {
	_, err := d.timer.ScheduleAfter(d.snoozeDelay, func() {
		d.Fire(phone, medicineID)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule snooze re-fire: %w", err)
	}
	slog.Info("Dispatcher.Snooze: re-fire scheduled", "phone", phone, "medicineID", medicineID, "delay", d.snoozeDelay)
	return nil
}

// RestoreAll re-arms every stored medicine schedule into the registry. It is
// called once at startup and returns how many schedules were armed. Individual
// failures are logged and skipped so one bad record cannot block the rest.
func (d *Dispatcher) RestoreAll() (int, error) {
	users, err := d.store.ListUsersWithMedicines()
	if err != nil {
		return 0, fmt.Errorf("failed to list users for schedule restore: %w", err)
	}

	armed := 0
	for _, u := range users {
		for _, med := range u.Medicines {
			jobID := med.JobID
			if jobID == "" {
				jobID = fmt.Sprintf("%s_%s", u.Phone, med.ID)
			}
			phone, medicineID := u.Phone, med.ID
			if _, err := d.registry.Arm(jobID, med.TimeSpec, func() {
				d.Fire(phone, medicineID)
			}); err != nil {
				slog.Error("Dispatcher.RestoreAll: failed to arm schedule", "phone", u.Phone, "medicineID", med.ID, "timeSpec", med.TimeSpec, "error", err)
				continue
			}
			armed++
		}
	}
	slog.Info("Dispatcher.RestoreAll: schedules restored", "users", len(users), "armed", armed)
	return armed, nil
}
