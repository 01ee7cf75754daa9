// Package store provides storage backends for PillSpark.
//
// This file implements an in-memory store used in tests and when no DSN is
// configured.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/pillsparkai/pillspark-bot/internal/models"
)

// InMemoryStore is a mutex-guarded map-backed Store implementation.
type InMemoryStore struct {
	mu            sync.RWMutex
	users         map[string]models.User
	confirmations []models.ConfirmationRecord
	feedback      []models.FeedbackRecord
	nextConfID    int64
	nextFbID      int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:      make(map[string]models.User),
		nextConfID: 1,
		nextFbID:   1,
	}
}

// GetUser returns a copy of the user document, or nil if unseen.
func (s *InMemoryStore) GetUser(phone string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[phone]
	if !ok {
		return nil, nil
	}
	cp := u
	cp.Medicines = append([]models.Medicine(nil), u.Medicines...)
	return &cp, nil
}

// SaveUser upserts the user document.
func (s *InMemoryStore) SaveUser(u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Medicines = append([]models.Medicine(nil), u.Medicines...)
	s.users[u.Phone] = u
	return nil
}

// ListUsersWithMedicines returns users having at least one medicine.
func (s *InMemoryStore) ListUsersWithMedicines() ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, u := range s.users {
		if len(u.Medicines) > 0 {
			cp := u
			cp.Medicines = append([]models.Medicine(nil), u.Medicines...)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phone < out[j].Phone })
	return out, nil
}

// ListUserPhones returns all known addresses sorted.
func (s *InMemoryStore) ListUserPhones() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	phones := make([]string, 0, len(s.users))
	for p := range s.users {
		phones = append(phones, p)
	}
	sort.Strings(phones)
	return phones, nil
}

// CountUsers returns the number of user documents.
func (s *InMemoryStore) CountUsers() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// CountMedicines returns the total number of medicines across users.
func (s *InMemoryStore) CountMedicines() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, u := range s.users {
		total += len(u.Medicines)
	}
	return total, nil
}

// AddConfirmation inserts a confirmation record and returns its ID.
func (s *InMemoryStore) AddConfirmation(rec models.ConfirmationRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.nextConfID
	s.nextConfID++
	s.confirmations = append(s.confirmations, rec)
	return rec.ID, nil
}

// MarkConfirmations transitions all pending records for (phone, medicineID).
func (s *InMemoryStore) MarkConfirmations(phone, medicineID string, to models.ConfirmationStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for i := range s.confirmations {
		r := &s.confirmations[i]
		if r.Phone == phone && r.MedicineID == medicineID && r.Status == models.ConfirmationPending {
			r.Status = to
			changed++
		}
	}
	return changed, nil
}

// MarkConfirmationEscalated atomically moves one record pending -> escalated.
func (s *InMemoryStore) MarkConfirmationEscalated(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.confirmations {
		r := &s.confirmations[i]
		if r.ID == id {
			if r.Status != models.ConfirmationPending {
				return false, nil
			}
			r.Status = models.ConfirmationEscalated
			return true, nil
		}
	}
	return false, nil
}

// ListPendingConfirmationsBefore returns pending records sent before cutoff.
func (s *InMemoryStore) ListPendingConfirmationsBefore(cutoff time.Time) ([]models.ConfirmationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ConfirmationRecord
	for _, r := range s.confirmations {
		if r.Status == models.ConfirmationPending && r.SentAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListRecentConfirmations returns the newest records up to limit.
func (s *InMemoryStore) ListRecentConfirmations(limit int) ([]models.ConfirmationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.ConfirmationRecord(nil), s.confirmations...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AddFeedback appends a feedback record.
func (s *InMemoryStore) AddFeedback(f models.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.nextFbID
	s.nextFbID++
	s.feedback = append(s.feedback, f)
	return nil
}

// ListFeedback returns the newest feedback entries up to limit.
func (s *InMemoryStore) ListFeedback(limit int) ([]models.FeedbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.FeedbackRecord(nil), s.feedback...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
