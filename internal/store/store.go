// Package store provides storage backends for PillSpark.
//
// The bot's durable state is a per-user document (the user record plus its
// medicines, serialized as JSON) and two append-mostly tables for reminder
// confirmations and feedback. SQLite and PostgreSQL backends are provided,
// plus an in-memory store for tests.
package store

import (
	"strings"
	"time"

	"github.com/pillsparkai/pillspark-bot/internal/models"
)

// Store defines the persistence operations the bot core requires.
//
// All user mutations are read-modify-write on the single document keyed by
// phone; no cross-document transaction is assumed.
type Store interface {
	// GetUser returns the user document, or nil if the phone is unseen.
	GetUser(phone string) (*models.User, error)
	// SaveUser upserts the whole user document.
	SaveUser(u models.User) error
	// ListUsersWithMedicines returns all users having at least one medicine,
	// for startup trigger replay.
	ListUsersWithMedicines() ([]models.User, error)
	// ListUserPhones returns every known user address (broadcast).
	ListUserPhones() ([]string, error)
	// CountUsers returns the total number of user documents.
	CountUsers() (int, error)
	// CountMedicines returns the total number of medicines across all users.
	CountMedicines() (int, error)

	// AddConfirmation inserts a confirmation record and returns its ID.
	AddConfirmation(rec models.ConfirmationRecord) (int64, error)
	// MarkConfirmations transitions all pending records for (phone, medicineID)
	// to the given status, returning how many rows changed.
	MarkConfirmations(phone, medicineID string, to models.ConfirmationStatus) (int64, error)
	// MarkConfirmationEscalated atomically transitions one record from pending
	// to escalated. It reports false when the record already left pending.
	MarkConfirmationEscalated(id int64) (bool, error)
	// ListPendingConfirmationsBefore returns pending records sent before cutoff.
	ListPendingConfirmationsBefore(cutoff time.Time) ([]models.ConfirmationRecord, error)
	// ListRecentConfirmations returns the newest records up to limit.
	ListRecentConfirmations(limit int) ([]models.ConfirmationRecord, error)

	// AddFeedback appends a feedback record.
	AddFeedback(f models.FeedbackRecord) error
	// ListFeedback returns the newest feedback entries up to limit.
	ListFeedback(limit int) ([]models.FeedbackRecord, error)

	// Close releases the backend.
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a store backend.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite" based on its shape.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
