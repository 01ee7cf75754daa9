package flow

import (
	"testing"
	"time"
)

func TestSimpleTimerFiresAndCleansUp(t *testing.T) {
	timer := NewSimpleTimer()
	defer timer.Stop()

	fired := make(chan struct{})
	if _, err := timer.ScheduleAfter(10*time.Millisecond, func() { close(fired) }); err != nil {
		t.Fatalf("ScheduleAfter: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}

	deadline := time.Now().Add(2 * time.Second)
	for timer.Pending() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("timer entry not cleaned up, pending = %d", timer.Pending())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSimpleTimerCancel(t *testing.T) {
	timer := NewSimpleTimer()
	defer timer.Stop()

	fired := make(chan struct{})
	id, err := timer.ScheduleAfter(50*time.Millisecond, func() { close(fired) })
	if err != nil {
		t.Fatalf("ScheduleAfter: %v", err)
	}
	if err := timer.Cancel(id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(150 * time.Millisecond):
	}
	if timer.Pending() != 0 {
		t.Errorf("pending = %d, want 0 after cancel", timer.Pending())
	}

	// Cancelling an unknown ID is a no-op.
	if err := timer.Cancel("timer_999"); err != nil {
		t.Errorf("Cancel(unknown) = %v, want nil", err)
	}
}

func TestSimpleTimerStopCancelsAll(t *testing.T) {
	timer := NewSimpleTimer()

	for i := 0; i < 3; i++ {
		if _, err := timer.ScheduleAfter(time.Hour, func() {}); err != nil {
			t.Fatalf("ScheduleAfter: %v", err)
		}
	}
	if timer.Pending() != 3 {
		t.Fatalf("pending = %d, want 3", timer.Pending())
	}

	timer.Stop()
	if timer.Pending() != 0 {
		t.Errorf("pending = %d, want 0 after Stop", timer.Pending())
	}
}
