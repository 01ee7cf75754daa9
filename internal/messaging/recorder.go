package messaging

import (
	"context"
	"sync"

	"github.com/pillsparkai/pillspark-bot/internal/models"
)

// SentMessage captures one outbound message for test assertions.
type SentMessage struct {
	Kind     string // "text", "image", "list", "buttons"
	To       string
	Body     string
	Header   string
	Link     string
	Buttons  []models.Button
	Sections []models.ListSection
}

// Recorder implements Service by recording every send (for tests).
// In tests, use NewRecorder() instead of a real transport.
type Recorder struct {
	mu   sync.Mutex
	sent []SentMessage
	// FailSends makes every send return this error when non-nil.
	FailSends error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// ValidateAndCanonicalizeRecipient applies the shared phone canonicalization.
func (r *Recorder) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return CanonicalizePhone(recipient)
}

func (r *Recorder) SendText(ctx context.Context, to, body string) error {
	return r.record(SentMessage{Kind: "text", To: to, Body: body})
}

func (r *Recorder) SendImage(ctx context.Context, to, link, caption string) error {
	return r.record(SentMessage{Kind: "image", To: to, Link: link, Body: caption})
}

func (r *Recorder) SendList(ctx context.Context, to, header, body, buttonLabel string, sections []models.ListSection) error {
	return r.record(SentMessage{Kind: "list", To: to, Header: header, Body: body, Sections: sections})
}

func (r *Recorder) SendButtons(ctx context.Context, to, header, body string, buttons []models.Button) error {
	return r.record(SentMessage{Kind: "buttons", To: to, Header: header, Body: body, Buttons: buttons})
}

func (r *Recorder) record(m SentMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailSends != nil {
		return r.FailSends
	}
	r.sent = append(r.sent, m)
	return nil
}

// Sent returns a copy of everything recorded so far.
func (r *Recorder) Sent() []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentMessage(nil), r.sent...)
}

// SentTo returns recorded messages addressed to the given recipient.
func (r *Recorder) SentTo(to string) []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []SentMessage
	for _, m := range r.sent {
		if m.To == to {
			out = append(out, m)
		}
	}
	return out
}

// Reset clears the recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
