package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pillsparkai/pillspark-bot/internal/models"
)

// webhookEnvelope mirrors the WhatsApp Cloud API webhook payload, reduced to
// the fields the bot consumes.
type webhookEnvelope struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Messages []webhookMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive *struct {
		Type      string `json:"type"`
		ListReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"list_reply"`
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
	} `json:"interactive"`
	Image *struct {
		ID      string `json:"id"`
		Link    string `json:"link"`
		Caption string `json:"caption"`
	} `json:"image"`
}

// parseWebhookPayload extracts the user messages from a webhook delivery.
// Status updates and unsupported message types are dropped; the webhook must
// still be acknowledged for them.
func parseWebhookPayload(body []byte) ([]models.IncomingMessage, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}

	var out []models.IncomingMessage
	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			for _, m := range change.Value.Messages {
				if msg, ok := normalizeMessage(m); ok {
					out = append(out, msg)
				}
			}
		}
	}
	return out, nil
}

func normalizeMessage(m webhookMessage) (models.IncomingMessage, bool) {
	msg := models.IncomingMessage{From: m.From}
	switch m.Type {
	case "text":
		if m.Text == nil {
			return msg, false
		}
		msg.Type = models.MessageTypeText
		msg.Text = m.Text.Body
	case "interactive":
		if m.Interactive == nil {
			return msg, false
		}
		msg.Type = models.MessageTypeInteractive
		if lr := m.Interactive.ListReply; lr != nil {
			msg.ListReplyID = lr.ID
			msg.ListReplyTitle = lr.Title
		}
		if br := m.Interactive.ButtonReply; br != nil {
			msg.ButtonReplyID = br.ID
			msg.ButtonReplyTitle = br.Title
		}
		if msg.SelectionID() == "" {
			return msg, false
		}
	case "image":
		if m.Image == nil {
			return msg, false
		}
		msg.Type = models.MessageTypeImage
		msg.ImageRef = m.Image.Link
		if msg.ImageRef == "" {
			msg.ImageRef = m.Image.ID
		}
	default:
		return msg, false
	}
	return msg, true
}

// verifySignature checks the X-Hub-Signature-256 header against the raw
// request body using the app secret.
func verifySignature(appSecret string, body []byte, header string) bool {
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	expected, err := hex.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}
