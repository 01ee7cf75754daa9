package messaging

import (
	"context"
	"log/slog"

	"github.com/pillsparkai/pillspark-bot/internal/models"
	"github.com/pillsparkai/pillspark-bot/internal/whatsapp"
)

// WhatsAppService implements Service using the Cloud API whatsapp client.
type WhatsAppService struct {
	client whatsapp.Sender
}

// NewWhatsAppService creates a new WhatsAppService wrapping the given Sender.
func NewWhatsAppService(client whatsapp.Sender) *WhatsAppService {
	slog.Debug("Creating WhatsAppService")
	return &WhatsAppService{client: client}
}

// ValidateAndCanonicalizeRecipient validates and canonicalizes a phone number.
func (s *WhatsAppService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	canonical, err := CanonicalizePhone(recipient)
	if err != nil {
		return "", err
	}
	if canonical != recipient {
		slog.Debug("WhatsAppService canonicalized recipient", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}

// SendText sends a plain text message.
func (s *WhatsAppService) SendText(ctx context.Context, to, body string) error {
	canonical, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("WhatsAppService SendText validation error", "error", err, "to", to)
		return err
	}
	if err := s.client.SendText(ctx, canonical, body); err != nil {
		slog.Error("WhatsAppService SendText error", "error", err, "to", canonical)
		return err
	}
	slog.Debug("WhatsAppService text sent", "to", canonical, "body_length", len(body))
	return nil
}

// SendImage sends an image by URL with an optional caption.
func (s *WhatsAppService) SendImage(ctx context.Context, to, link, caption string) error {
	canonical, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("WhatsAppService SendImage validation error", "error", err, "to", to)
		return err
	}
	if err := s.client.SendImage(ctx, canonical, link, caption); err != nil {
		slog.Error("WhatsAppService SendImage error", "error", err, "to", canonical)
		return err
	}
	slog.Debug("WhatsAppService image sent", "to", canonical)
	return nil
}

// SendList sends an interactive list message.
func (s *WhatsAppService) SendList(ctx context.Context, to, header, body, buttonLabel string, sections []models.ListSection) error {
	canonical, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("WhatsAppService SendList validation error", "error", err, "to", to)
		return err
	}
	if err := s.client.SendInteractiveList(ctx, canonical, header, body, buttonLabel, sections); err != nil {
		slog.Error("WhatsAppService SendList error", "error", err, "to", canonical)
		return err
	}
	slog.Debug("WhatsAppService list sent", "to", canonical, "sections", len(sections))
	return nil
}

// SendButtons sends an interactive reply-button message.
func (s *WhatsAppService) SendButtons(ctx context.Context, to, header, body string, buttons []models.Button) error {
	canonical, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("WhatsAppService SendButtons validation error", "error", err, "to", to)
		return err
	}
	if err := s.client.SendInteractiveButtons(ctx, canonical, header, body, buttons); err != nil {
		slog.Error("WhatsAppService SendButtons error", "error", err, "to", canonical)
		return err
	}
	slog.Debug("WhatsAppService buttons sent", "to", canonical, "buttons", len(buttons))
	return nil
}
