// Package messaging provides the message delivery abstraction for PillSpark.
//
// The bot core talks to a Service; concrete implementations wrap the
// WhatsApp Cloud API and, for plain-text guardian notifications, Twilio SMS.
package messaging

import (
	"context"
	"fmt"
	"regexp"

	"github.com/pillsparkai/pillspark-bot/internal/models"
)

// phoneNumberRegex strips every non-digit during canonicalization.
var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// MinPhoneDigits is the minimum number of digits a canonical address must have.
const MinPhoneDigits = 6

// Service defines a pluggable message delivery abstraction.
//
// Send failures are returned to the caller, which logs them and treats
// delivery as best-effort; they never roll back a state transition.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a recipient
	// address, returning the canonical form or an error.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendText sends a plain text message.
	SendText(ctx context.Context, to, body string) error

	// SendImage sends an image by URL with an optional caption.
	SendImage(ctx context.Context, to, link, caption string) error

	// SendList sends an interactive list message.
	SendList(ctx context.Context, to, header, body, buttonLabel string, sections []models.ListSection) error

	// SendButtons sends an interactive reply-button message.
	SendButtons(ctx context.Context, to, header, body string, buttons []models.Button) error
}

// TextSender is the narrow send surface used for guardian notifications that
// may go over a secondary channel (e.g. SMS).
type TextSender interface {
	SendText(ctx context.Context, to, body string) error
}

// CanonicalizePhone validates a phone-like address and reduces it to digits.
func CanonicalizePhone(recipient string) (string, error) {
	if recipient == "" {
		return "", models.ErrEmptyRecipient
	}
	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits found in recipient %q", recipient)
	}
	if len(canonical) < MinPhoneDigits {
		return "", fmt.Errorf("invalid phone number: %q is too short (minimum %d digits required)", canonical, MinPhoneDigits)
	}
	return canonical, nil
}
