package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pillsparkai/pillspark-bot/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(
		WithAccessToken("test-token"),
		WithPhoneNumberID("12345"),
		WithBaseURL(srv.URL),
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(WithPhoneNumberID("12345")); err == nil {
		t.Error("expected error without access token")
	}
	if _, err := NewClient(WithAccessToken("tok")); err == nil {
		t.Error("expected error without phone number ID")
	}
}

func TestSendTextPayload(t *testing.T) {
	var captured map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/12345/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := c.SendText(context.Background(), "+15551234567", "hello"); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}
	if captured["messaging_product"] != "whatsapp" || captured["to"] != "+15551234567" {
		t.Errorf("envelope fields wrong: %+v", captured)
	}
	text, _ := captured["text"].(map[string]interface{})
	if text["body"] != "hello" {
		t.Errorf("text body = %v", text["body"])
	}
}

func TestSendInteractiveButtonsPayload(t *testing.T) {
	var captured map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.WriteHeader(http.StatusOK)
	})

	buttons := []models.Button{{ID: "TAKEN:m1", Title: "Taken"}, {ID: "SNOOZE:m1", Title: "Snooze 10 min"}}
	if err := c.SendInteractiveButtons(context.Background(), "+15551234567", "", "Time for Aspirin", buttons); err != nil {
		t.Fatalf("SendInteractiveButtons failed: %v", err)
	}
	interactive, _ := captured["interactive"].(map[string]interface{})
	if interactive["type"] != "button" {
		t.Errorf("interactive type = %v", interactive["type"])
	}
	action, _ := interactive["action"].(map[string]interface{})
	replies, _ := action["buttons"].([]interface{})
	if len(replies) != 2 {
		t.Fatalf("buttons count = %d, want 2", len(replies))
	}
	if _, hasHeader := interactive["header"]; hasHeader {
		t.Error("empty header must be omitted")
	}
}

func TestSendTextErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad token"}`, http.StatusUnauthorized)
	})
	if err := c.SendText(context.Background(), "+15551234567", "hello"); err == nil {
		t.Error("expected error on non-2xx status")
	}
}

func TestSendValidation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be sent for invalid input")
	})
	if err := c.SendText(context.Background(), "", "hello"); err == nil {
		t.Error("expected error for empty recipient")
	}
	if err := c.SendText(context.Background(), "+15551234567", ""); err == nil {
		t.Error("expected error for empty body")
	}
}
