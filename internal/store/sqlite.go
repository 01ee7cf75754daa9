// Package store provides storage backends for PillSpark.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pillsparkai/pillspark-bot/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore is a Store backed by a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given options.
// The DSN is a file path; missing parent directories are created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// GetUser returns the user document, or nil if the phone is unseen.
func (s *SQLiteStore) GetUser(phone string) (*models.User, error) {
	var doc string
	err := s.db.QueryRow(`SELECT document FROM users WHERE phone = ?`, phone).Scan(&doc)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetUser not found", "phone", phone)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetUser failed", "error", err, "phone", phone)
		return nil, fmt.Errorf("failed to query user %s: %w", phone, err)
	}
	return decodeUserDocument(doc)
}

// SaveUser upserts the whole user document.
func (s *SQLiteStore) SaveUser(u models.User) error {
	doc, err := encodeUserDocument(u)
	if err != nil {
		slog.Error("SQLiteStore SaveUser marshal failed", "error", err, "phone", u.Phone)
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO users (phone, document, medicine_count, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(phone) DO UPDATE SET document = excluded.document,
			medicine_count = excluded.medicine_count, updated_at = excluded.updated_at`,
		u.Phone, doc, len(u.Medicines), time.Now().UTC())
	if err != nil {
		slog.Error("SQLiteStore SaveUser failed", "error", err, "phone", u.Phone)
		return fmt.Errorf("failed to save user %s: %w", u.Phone, err)
	}
	slog.Debug("SQLiteStore SaveUser succeeded", "phone", u.Phone, "step", u.Step)
	return nil
}

// ListUsersWithMedicines returns users having at least one medicine.
func (s *SQLiteStore) ListUsersWithMedicines() ([]models.User, error) {
	rows, err := s.db.Query(`SELECT document FROM users WHERE medicine_count > 0 ORDER BY phone`)
	if err != nil {
		slog.Error("SQLiteStore ListUsersWithMedicines query failed", "error", err)
		return nil, fmt.Errorf("failed to query users with medicines: %w", err)
	}
	defer rows.Close()
	return scanUserDocuments(rows)
}

// ListUserPhones returns every known user address.
func (s *SQLiteStore) ListUserPhones() ([]string, error) {
	rows, err := s.db.Query(`SELECT phone FROM users ORDER BY phone`)
	if err != nil {
		slog.Error("SQLiteStore ListUserPhones query failed", "error", err)
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
func (s *SQLiteStore) CountUsers() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// CountMedicines returns the total number of medicines across all users.
func (s *SQLiteStore) CountMedicines() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COALESCE(SUM(medicine_count), 0) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count medicines: %w", err)
	}
	return n, nil
}

// AddConfirmation inserts a confirmation record and returns its ID.
func (s *SQLiteStore) AddConfirmation(rec models.ConfirmationRecord) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO confirmations (phone, medicine_id, medicine_name, guardian_phone, status, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Phone, rec.MedicineID, rec.MedicineName, nilIfEmpty(rec.GuardianPhone), rec.Status, rec.SentAt.UTC())
	if err != nil {
		slog.Error("SQLiteStore AddConfirmation failed", "error", err, "phone", rec.Phone)
		return 0, fmt.Errorf("failed to insert confirmation for %s: %w", rec.Phone, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read confirmation id: %w", err)
	}
	slog.Debug("SQLiteStore AddConfirmation succeeded", "id", id, "phone", rec.Phone, "medicine", rec.MedicineName)
	return id, nil
}

// MarkConfirmations transitions all pending records for (phone, medicineID).
func (s *SQLiteStore) MarkConfirmations(phone, medicineID string, to models.ConfirmationStatus) (int64, error) {
	res, err := s.db.Exec(`
		UPDATE confirmations SET status = ?
		WHERE phone = ? AND medicine_id = ? AND status = ?`,
		to, phone, medicineID, models.ConfirmationPending)
	if err != nil {
		slog.Error("SQLiteStore MarkConfirmations failed", "error", err, "phone", phone, "medicineID", medicineID)
		return 0, fmt.Errorf("failed to mark confirmations for %s: %w", phone, err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	slog.Debug("SQLiteStore MarkConfirmations succeeded", "phone", phone, "medicineID", medicineID, "to", to, "changed", changed)
	return changed, nil
}

// MarkConfirmationEscalated atomically moves one record pending -> escalated.
func (s *SQLiteStore) MarkConfirmationEscalated(id int64) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE confirmations SET status = ? WHERE id = ? AND status = ?`,
		models.ConfirmationEscalated, id, models.ConfirmationPending)
	if err != nil {
		slog.Error("SQLiteStore MarkConfirmationEscalated failed", "error", err, "id", id)
		return false, fmt.Errorf("failed to escalate confirmation %d: %w", id, err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return changed > 0, nil
}

// ListPendingConfirmationsBefore returns pending records sent before cutoff.
func (s *SQLiteStore) ListPendingConfirmationsBefore(cutoff time.Time) ([]models.ConfirmationRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, phone, medicine_id, medicine_name, guardian_phone, status, sent_at
		FROM confirmations WHERE status = ? AND sent_at < ? ORDER BY sent_at`,
		models.ConfirmationPending, cutoff.UTC())
	if err != nil {
		slog.Error("SQLiteStore ListPendingConfirmationsBefore query failed", "error", err)
		return nil, fmt.Errorf("failed to query pending confirmations: %w", err)
	}
	defer rows.Close()
	return scanConfirmations(rows)
}

// ListRecentConfirmations returns the newest records up to limit.
func (s *SQLiteStore) ListRecentConfirmations(limit int) ([]models.ConfirmationRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, phone, medicine_id, medicine_name, guardian_phone, status, sent_at
		FROM confirmations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		slog.Error("SQLiteStore ListRecentConfirmations query failed", "error", err)
		return nil, fmt.Errorf("failed to query recent confirmations: %w", err)
	}
	defer rows.Close()
	return scanConfirmations(rows)
}

// AddFeedback appends a feedback record.
func (s *SQLiteStore) AddFeedback(f models.FeedbackRecord) error {
	_, err := s.db.Exec(`INSERT INTO feedback (phone, body, created_at) VALUES (?, ?, ?)`,
		f.Phone, f.Body, f.CreatedAt.UTC())
	if err != nil {
		slog.Error("SQLiteStore AddFeedback failed", "error", err, "phone", f.Phone)
		return fmt.Errorf("failed to insert feedback from %s: %w", f.Phone, err)
	}
	slog.Debug("SQLiteStore AddFeedback succeeded", "phone", f.Phone)
	return nil
}

// ListFeedback returns the newest feedback entries up to limit.
func (s *SQLiteStore) ListFeedback(limit int) ([]models.FeedbackRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, phone, body, created_at FROM feedback ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		slog.Error("SQLiteStore ListFeedback query failed", "error", err)
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()
	return scanFeedback(rows)
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	if err := s.db.Close(); err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
		return err
	}
	return nil
}

// encodeUserDocument marshals the user record for document storage, and is
// shared with the Postgres backend.
func encodeUserDocument(u models.User) (string, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("failed to marshal user document: %w", err)
	}
	return string(b), nil
}

func decodeUserDocument(doc string) (*models.User, error) {
	var u models.User
	if err := json.Unmarshal([]byte(doc), &u); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user document: %w", err)
	}
	return &u, nil
}

func scanUserDocuments(rows *sql.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		u, err := decodeUserDocument(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func scanConfirmations(rows *sql.Rows) ([]models.ConfirmationRecord, error) {
	var out []models.ConfirmationRecord
	for rows.Next() {
		var r models.ConfirmationRecord
		var guardian sql.NullString
		if err := rows.Scan(&r.ID, &r.Phone, &r.MedicineID, &r.MedicineName, &guardian, &r.Status, &r.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan confirmation row: %w", err)
		}
		r.GuardianPhone = guardian.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanFeedback(rows *sql.Rows) ([]models.FeedbackRecord, error) {
	var out []models.FeedbackRecord
	for rows.Next() {
		var f models.FeedbackRecord
		if err := rows.Scan(&f.ID, &f.Phone, &f.Body, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
