package schedule

import (
	"testing"
	"time"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(WithLocation(time.UTC))
	t.Cleanup(r.Stop)
	return r
}

func TestArmAndDisarm(t *testing.T) {
	r := newTestRegistry(t)

	clock, err := r.Arm("job1", "8:00 AM", func() {})
	if err != nil {
		t.Fatalf("Arm returned error: %v", err)
	}
	if clock.Hour != 8 || clock.Minute != 0 {
		t.Errorf("Arm normalized time = %v, want 08:00", clock)
	}
	if !r.Armed("job1") {
		t.Error("expected job1 to be armed")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	if !r.Disarm("job1") {
		t.Error("Disarm should report true for armed job")
	}
	if r.Armed("job1") {
		t.Error("job1 still armed after Disarm")
	}
	if r.Disarm("job1") {
		t.Error("Disarm should report false for unknown job")
	}
}

func TestArmInvalidTime(t *testing.T) {
	r := newTestRegistry(t)

	if _, err := r.Arm("job1", "25:00", func() {}); err == nil {
		t.Fatal("expected error for out-of-range time")
	}
	if r.Armed("job1") {
		t.Error("invalid time must not register an entry")
	}
}

func TestArmReplacesExistingEntry(t *testing.T) {
	r := newTestRegistry(t)

	if _, err := r.Arm("job1", "8:00 AM", func() {}); err != nil {
		t.Fatalf("first Arm returned error: %v", err)
	}
	if _, err := r.Arm("job1", "9:00 PM", func() {}); err != nil {
		t.Fatalf("second Arm returned error: %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d after re-arm, want exactly 1 live entry", r.Len())
	}
}

func TestArmDistinctJobs(t *testing.T) {
	r := newTestRegistry(t)

	r.Arm("job1", "8:00", func() {})
	r.Arm("job2", "9:00", func() {})
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	r.Disarm("job1")
	if r.Armed("job1") || !r.Armed("job2") {
		t.Error("Disarm removed the wrong entry")
	}
}
