package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pillsparkai/pillspark-bot/internal/messaging"
	"github.com/pillsparkai/pillspark-bot/internal/models"
	"github.com/pillsparkai/pillspark-bot/internal/schedule"
	"github.com/pillsparkai/pillspark-bot/internal/store"
)

// recordingHandler captures normalized messages passed to the flow layer.
type recordingHandler struct {
	mu       sync.Mutex
	messages []models.IncomingMessage
	err      error
}

func (h *recordingHandler) HandleMessage(ctx context.Context, msg models.IncomingMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
	return h.err
}

func (h *recordingHandler) received() []models.IncomingMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.IncomingMessage(nil), h.messages...)
}

type serverEnv struct {
	server   *Server
	store    *store.InMemoryStore
	recorder *messaging.Recorder
	handler  *recordingHandler
}

func newServerEnv(t *testing.T, opts ...Option) *serverEnv {
	t.Helper()
	st := store.NewInMemoryStore()
	rec := messaging.NewRecorder()
	reg := schedule.NewRegistry(schedule.WithLocation(time.UTC))
	t.Cleanup(reg.Stop)
	h := &recordingHandler{}
	return &serverEnv{
		server:   NewServer(st, rec, reg, h, opts...),
		store:    st,
		recorder: rec,
		handler:  h,
	}
}

func (env *serverEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)
	return w
}

const textEnvelope = `{
	"object": "whatsapp_business_account",
	"entry": [{"changes": [{"value": {"messages": [
		{"from": "14165550100", "type": "text", "text": {"body": "hello"}}
	]}}]}]
}`

func TestWebhookVerification(t *testing.T) {
	env := newServerEnv(t, WithVerifyToken("sesame"))

	w := env.do(httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=sesame&hub.challenge=12345", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "12345" {
		t.Errorf("body = %q, want echoed challenge", w.Body.String())
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("status with wrong token = %d, want 403", w.Code)
	}
}

func TestWebhookDeliversTextMessage(t *testing.T) {
	env := newServerEnv(t)

	w := env.do(httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(textEnvelope)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}

	got := env.handler.received()
	if len(got) != 1 {
		t.Fatalf("handler received %d messages, want 1", len(got))
	}
	if got[0].From != "14165550100" || got[0].Type != models.MessageTypeText || got[0].Text != "hello" {
		t.Errorf("message = %+v", got[0])
	}
}

func TestWebhookHandlerErrorStillAcknowledged(t *testing.T) {
	env := newServerEnv(t)
	env.handler.err = context.DeadlineExceeded

	w := env.do(httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(textEnvelope)))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 despite handler error", w.Code)
	}
}

func TestWebhookSignatureVerification(t *testing.T) {
	env := newServerEnv(t, WithAppSecret("topsecret"))

	sign := func(body string) string {
		mac := hmac.New(sha256.New, []byte("topsecret"))
		mac.Write([]byte(body))
		return "sha256=" + hex.EncodeToString(mac.Sum(nil))
	}

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(textEnvelope))
	req.Header.Set("X-Hub-Signature-256", sign(textEnvelope))
	if w := env.do(req); w.Code != http.StatusOK {
		t.Errorf("valid signature: status = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(textEnvelope))
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
	if w := env.do(req); w.Code != http.StatusUnauthorized {
		t.Errorf("bad signature: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(textEnvelope))
	if w := env.do(req); w.Code != http.StatusUnauthorized {
		t.Errorf("missing signature: status = %d, want 401", w.Code)
	}
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	env := newServerEnv(t)

	w := env.do(httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("not json")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestWebhookAcknowledgesStatusOnlyDelivery(t *testing.T) {
	env := newServerEnv(t)

	payload := `{"object": "whatsapp_business_account", "entry": [{"changes": [{"value": {}}]}]}`
	w := env.do(httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload)))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got := env.handler.received(); len(got) != 0 {
		t.Errorf("handler received %d messages, want 0", len(got))
	}
}

func TestParseWebhookPayloadNormalization(t *testing.T) {
	payload := `{
		"object": "whatsapp_business_account",
		"entry": [{"changes": [{"value": {"messages": [
			{"from": "1", "type": "interactive", "interactive": {"type": "list_reply", "list_reply": {"id": "ADD_MED", "title": "Add medicine"}}},
			{"from": "2", "type": "interactive", "interactive": {"type": "button_reply", "button_reply": {"id": "TAKEN:m1", "title": "Taken"}}},
			{"from": "3", "type": "image", "image": {"id": "media-9", "link": "https://cdn.example.com/pic.jpg"}},
			{"from": "4", "type": "audio"}
		]}}]}]
	}`

	msgs, err := parseWebhookPayload([]byte(payload))
	if err != nil {
		t.Fatalf("parseWebhookPayload: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("parsed %d messages, want 3 (audio dropped)", len(msgs))
	}
	if msgs[0].ListReplyID != "ADD_MED" || msgs[0].SelectionID() != "ADD_MED" {
		t.Errorf("list reply = %+v", msgs[0])
	}
	if msgs[1].ButtonReplyID != "TAKEN:m1" {
		t.Errorf("button reply = %+v", msgs[1])
	}
	if msgs[2].Type != models.MessageTypeImage || msgs[2].ImageRef != "https://cdn.example.com/pic.jpg" {
		t.Errorf("image = %+v", msgs[2])
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newServerEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != string(models.APIStatusOK) {
		t.Errorf("response status = %q, want ok", resp.Status)
	}
}

func TestAdminStats(t *testing.T) {
	env := newServerEnv(t)
	now := time.Now().UTC()
	err := env.store.SaveUser(models.User{
		Phone: "14165550100", Step: models.StepIdle, Name: "Asha", Language: "en",
		Medicines: []models.Medicine{{ID: "m1", Name: "Aspirin", TimeSpec: "08:00"}},
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("SaveUser: %v", err)
	}

	w := env.do(httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Status string `json:"status"`
		Result struct {
			Users     int `json:"users"`
			Medicines int `json:"medicines"`
		} `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Result.Users != 1 || resp.Result.Medicines != 1 {
		t.Errorf("stats = %+v, want 1 user and 1 medicine", resp.Result)
	}
}

func TestAdminFeedbackAndConfirmations(t *testing.T) {
	env := newServerEnv(t)
	if err := env.store.AddFeedback(models.FeedbackRecord{Phone: "1", Body: "great", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("AddFeedback: %v", err)
	}
	if _, err := env.store.AddConfirmation(models.ConfirmationRecord{
		Phone: "1", MedicineID: "m1", MedicineName: "Aspirin",
		Status: models.ConfirmationPending, SentAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("AddConfirmation: %v", err)
	}

	w := env.do(httptest.NewRequest(http.MethodGet, "/admin/feedback", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "great") {
		t.Errorf("feedback response = %d %q", w.Code, w.Body.String())
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/admin/confirmations?limit=10", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Aspirin") {
		t.Errorf("confirmations response = %d %q", w.Code, w.Body.String())
	}
}

func TestAdminBroadcast(t *testing.T) {
	env := newServerEnv(t)
	now := time.Now().UTC()
	for _, phone := range []string{"14165550100", "919876543210"} {
		err := env.store.SaveUser(models.User{
			Phone: phone, Step: models.StepIdle, Name: "U", Language: "en",
			Medicines: []models.Medicine{}, CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("SaveUser: %v", err)
		}
	}

	body, _ := json.Marshal(broadcastRequest{Body: "Service window tonight 22:00 UTC"})
	w := env.do(httptest.NewRequest(http.MethodPost, "/admin/broadcast", bytes.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if sent := env.recorder.Sent(); len(sent) != 2 {
		t.Errorf("broadcast sent %d messages, want 2", len(sent))
	}

	w = env.do(httptest.NewRequest(http.MethodPost, "/admin/broadcast", strings.NewReader(`{}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty body: status = %d, want 400", w.Code)
	}
}
