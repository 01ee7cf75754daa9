// Package store provides storage backends for PillSpark.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/pillsparkai/pillspark-bot/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// GetUser returns the user document, or nil if the phone is unseen.
func (s *PostgresStore) GetUser(phone string) (*models.User, error) {
	var doc string
	err := s.db.QueryRow(`SELECT document FROM users WHERE phone = $1`, phone).Scan(&doc)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetUser not found", "phone", phone)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetUser failed", "error", err, "phone", phone)
		return nil, fmt.Errorf("failed to query user %s: %w", phone, err)
	}
	return decodeUserDocument(doc)
}

// SaveUser upserts the whole user document.
func (s *PostgresStore) SaveUser(u models.User) error {
	doc, err := encodeUserDocument(u)
	if err != nil {
		slog.Error("PostgresStore SaveUser marshal failed", "error", err, "phone", u.Phone)
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO users (phone, document, medicine_count, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (phone) DO UPDATE SET document = EXCLUDED.document,
			medicine_count = EXCLUDED.medicine_count, updated_at = EXCLUDED.updated_at`,
		u.Phone, doc, len(u.Medicines), time.Now().UTC())
	if err != nil {
		slog.Error("PostgresStore SaveUser failed", "error", err, "phone", u.Phone)
		return fmt.Errorf("failed to save user %s: %w", u.Phone, err)
	}
	slog.Debug("PostgresStore SaveUser succeeded", "phone", u.Phone, "step", u.Step)
	return nil
}

// ListUsersWithMedicines returns users having at least one medicine.
func (s *PostgresStore) ListUsersWithMedicines() ([]models.User, error) {
	rows, err := s.db.Query(`SELECT document FROM users WHERE medicine_count > 0 ORDER BY phone`)
	if err != nil {
		slog.Error("PostgresStore ListUsersWithMedicines query failed", "error", err)
		return nil, fmt.Errorf("failed to query users with medicines: %w", err)
	}
	defer rows.Close()
	return scanUserDocuments(rows)
}

// ListUserPhones returns every known user address.
func (s *PostgresStore) ListUserPhones() ([]string, error) {
	rows, err := s.db.Query(`SELECT phone FROM users ORDER BY phone`)
	if err != nil {
		slog.Error("PostgresStore ListUserPhones query failed", "error", err)
		return nil, fmt.Errorf("failed to query user phones: %w", err)
	}
	defer rows.Close()
	var phones []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan phone row: %w", err)
		}
		phones = append(phones, p)
	}
	return phones, rows.Err()
}

// CountUsers returns the total number of user documents.
func (s *PostgresStore) CountUsers() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// CountMedicines returns the total number of medicines across all users.
func (s *PostgresStore) CountMedicines() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COALESCE(SUM(medicine_count), 0) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count medicines: %w", err)
	}
	return n, nil
}

// AddConfirmation inserts a confirmation record and returns its ID.
func (s *PostgresStore) AddConfirmation(rec models.ConfirmationRecord) (int64, error) {
	var id int64
	err := s.db.QueryRow(`
		INSERT INTO confirmations (phone, medicine_id, medicine_name, guardian_phone, status, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		rec.Phone, rec.MedicineID, rec.MedicineName, nilIfEmpty(rec.GuardianPhone), rec.Status, rec.SentAt.UTC()).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore AddConfirmation failed", "error", err, "phone", rec.Phone)
		return 0, fmt.Errorf("failed to insert confirmation for %s: %w", rec.Phone, err)
	}
	slog.Debug("PostgresStore AddConfirmation succeeded", "id", id, "phone", rec.Phone, "medicine", rec.MedicineName)
	return id, nil
}

// MarkConfirmations transitions all pending records for (phone, medicineID).
func (s *PostgresStore) MarkConfirmations(phone, medicineID string, to models.ConfirmationStatus) (int64, error) {
	res, err := s.db.Exec(`
		UPDATE confirmations SET status = $1
		WHERE phone = $2 AND medicine_id = $3 AND status = $4`,
		to, phone, medicineID, models.ConfirmationPending)
	if err != nil {
		slog.Error("PostgresStore MarkConfirmations failed", "error", err, "phone", phone, "medicineID", medicineID)
		return 0, fmt.Errorf("failed to mark confirmations for %s: %w", phone, err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	slog.Debug("PostgresStore MarkConfirmations succeeded", "phone", phone, "medicineID", medicineID, "to", to, "changed", changed)
	return changed, nil
}

// MarkConfirmationEscalated atomically moves one record pending -> escalated.
func (s *PostgresStore) MarkConfirmationEscalated(id int64) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE confirmations SET status = $1 WHERE id = $2 AND status = $3`,
		models.ConfirmationEscalated, id, models.ConfirmationPending)
	if err != nil {
		slog.Error("PostgresStore MarkConfirmationEscalated failed", "error", err, "id", id)
		return false, fmt.Errorf("failed to escalate confirmation %d: %w", id, err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return changed > 0, nil
}

// ListPendingConfirmationsBefore returns pending records sent before cutoff.
func (s *PostgresStore) ListPendingConfirmationsBefore(cutoff time.Time) ([]models.ConfirmationRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, phone, medicine_id, medicine_name, guardian_phone, status, sent_at
		FROM confirmations WHERE status = $1 AND sent_at < $2 ORDER BY sent_at`,
		models.ConfirmationPending, cutoff.UTC())
	if err != nil {
		slog.Error("PostgresStore ListPendingConfirmationsBefore query failed", "error", err)
		return nil, fmt.Errorf("failed to query pending confirmations: %w", err)
	}
	defer rows.Close()
	return scanConfirmations(rows)
}

// ListRecentConfirmations returns the newest records up to limit.
func (s *PostgresStore) ListRecentConfirmations(limit int) ([]models.ConfirmationRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, phone, medicine_id, medicine_name, guardian_phone, status, sent_at
		FROM confirmations ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		slog.Error("PostgresStore ListRecentConfirmations query failed", "error", err)
		return nil, fmt.Errorf("failed to query recent confirmations: %w", err)
	}
	defer rows.Close()
	return scanConfirmations(rows)
}

// AddFeedback appends a feedback record.
func (s *PostgresStore) AddFeedback(f models.FeedbackRecord) error {
	_, err := s.db.Exec(`INSERT INTO feedback (phone, body, created_at) VALUES ($1, $2, $3)`,
		f.Phone, f.Body, f.CreatedAt.UTC())
	if err != nil {
		slog.Error("PostgresStore AddFeedback failed", "error", err, "phone", f.Phone)
		return fmt.Errorf("failed to insert feedback from %s: %w", f.Phone, err)
	}
	slog.Debug("PostgresStore AddFeedback succeeded", "phone", f.Phone)
	return nil
}

// ListFeedback returns the newest feedback entries up to limit.
func (s *PostgresStore) ListFeedback(limit int) ([]models.FeedbackRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, phone, body, created_at FROM feedback ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		slog.Error("PostgresStore ListFeedback query failed", "error", err)
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()
	return scanFeedback(rows)
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	if err := s.db.Close(); err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
		return err
	}
	return nil
}
