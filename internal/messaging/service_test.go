package messaging

import (
	"context"
	"testing"

	"github.com/pillsparkai/pillspark-bot/internal/whatsapp"
)

func TestCanonicalizePhone(t *testing.T) {
	cases := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"+15551234567", "15551234567", false},
		{"1 (555) 123-4567", "15551234567", false},
		{"919876543210", "919876543210", false},
		{"", "", true},
		{"abc", "", true},
		{"12345", "", true}, // too short
	}
	for _, c := range cases {
		got, err := CanonicalizePhone(c.input)
		if c.wantErr {
			if err == nil {
				t.Errorf("CanonicalizePhone(%q) expected error", c.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("CanonicalizePhone(%q) unexpected error: %v", c.input, err)
			continue
		}
		if got != c.want {
			t.Errorf("CanonicalizePhone(%q) = %q, want %q", c.input, got, c.want)
		}
	}
}

func TestWhatsAppServiceCanonicalizesBeforeSend(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient())
	if err := svc.SendText(context.Background(), "+1 (555) 123-4567", "hello"); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}
	if err := svc.SendText(context.Background(), "bogus", "hello"); err == nil {
		t.Error("expected validation error for non-numeric recipient")
	}
}

func TestRecorderCapturesSends(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()
	r.SendText(ctx, "15551234567", "one")
	r.SendText(ctx, "15559999999", "two")

	if got := len(r.Sent()); got != 2 {
		t.Fatalf("Sent() count = %d, want 2", got)
	}
	to := r.SentTo("15551234567")
	if len(to) != 1 || to[0].Body != "one" {
		t.Errorf("SentTo mismatch: %+v", to)
	}
	r.Reset()
	if len(r.Sent()) != 0 {
		t.Error("Reset did not clear recorded messages")
	}
}
