// Package models defines the core data structures for PillSpark.
//
// It includes the user and medicine records, reminder confirmation records,
// and the normalized inbound message type shared across modules.
package models

import (
	"errors"
	"time"
)

// StepType identifies the current dialog step of a user.
type StepType string

const (
	// StepIdle is the terminal state between sub-flows; menu selections are handled here.
	StepIdle StepType = "IDLE"
	// StepAskLanguage asks a newly observed user for their preferred language.
	StepAskLanguage StepType = "ASK_LANGUAGE"
	// StepAskUserName asks for the user's display name during onboarding.
	StepAskUserName StepType = "ASK_USER_NAME"
	// StepAskGuardianOnboarding asks for an optional guardian contact during onboarding.
	StepAskGuardianOnboarding StepType = "ASK_GUARDIAN_ONBOARDING"
	// StepAskMed collects the medicine name of a new composition.
	StepAskMed StepType = "ASK_MED"
	// StepAskTime collects the reminder time of a new composition.
	StepAskTime StepType = "ASK_TIME"
	// StepAskPhoto collects an optional medicine photo, or an explicit skip.
	StepAskPhoto StepType = "ASK_PHOTO"
	// StepAskNewGuardian collects a replacement guardian contact from the menu.
	StepAskNewGuardian StepType = "ASK_NEW_GUARDIAN"
	// StepAskFeedback collects a free-text feedback message.
	StepAskFeedback StepType = "ASK_FEEDBACK"
	// StepDeleteMedSelect awaits a deletion pick: a list reply, a 1-based
	// index, or "cancel".
	StepDeleteMedSelect StepType = "DELETE_MED_SELECT"
)

// IsValidStep checks if the given step is one the state machine dispatches on.
func IsValidStep(s StepType) bool {
	switch s {
	case StepIdle, StepAskLanguage, StepAskUserName, StepAskGuardianOnboarding,
		StepAskMed, StepAskTime, StepAskPhoto, StepAskNewGuardian,
		StepAskFeedback, StepDeleteMedSelect:
		return true
	default:
		return false
	}
}

// Medicine is one scheduled reminder owned by a user.
type Medicine struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TimeSpec  string    `json:"time_spec"` // human-entered time string, e.g. "8:00 AM"
	PhotoRef  string    `json:"photo_ref,omitempty"`
	JobID     string    `json:"job_id"`
	CreatedAt time.Time `json:"created_at"`
}

// User is the per-address document the bot mutates on every turn.
//
// The Pending* fields hold an in-progress medicine composition; they belong
// to the user, not to a medicine, until the composition commits. At most one
// composition is in progress at a time.
type User struct {
	Phone         string     `json:"phone"`
	Step          StepType   `json:"step"`
	Name          string     `json:"name,omitempty"`
	Language      string     `json:"language,omitempty"`
	GuardianPhone string     `json:"guardian_phone,omitempty"`
	PendingName   string     `json:"pending_name,omitempty"`
	PendingTime   string     `json:"pending_time,omitempty"`
	PendingPhoto  string     `json:"pending_photo,omitempty"`
	Medicines     []Medicine `json:"medicines"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ClearPending discards the in-progress composition fields.
func (u *User) ClearPending() {
	u.PendingName = ""
	u.PendingTime = ""
	u.PendingPhoto = ""
}

// MedicineByID returns the medicine with the given ID, or nil if absent.
func (u *User) MedicineByID(id string) *Medicine {
	for i := range u.Medicines {
		if u.Medicines[i].ID == id {
			return &u.Medicines[i]
		}
	}
	return nil
}

// ConfirmationStatus tracks the lifecycle of a fired reminder.
type ConfirmationStatus string

const (
	// ConfirmationPending means the reminder fired and no reply has arrived.
	ConfirmationPending ConfirmationStatus = "pending"
	// ConfirmationTaken means the user confirmed the dose.
	ConfirmationTaken ConfirmationStatus = "taken"
	// ConfirmationSnoozed means the user deferred the dose.
	ConfirmationSnoozed ConfirmationStatus = "snoozed"
	// ConfirmationSkipped means the user declined the dose for the day.
	ConfirmationSkipped ConfirmationStatus = "skipped"
	// ConfirmationEscalated means the grace window elapsed and the guardian was notified.
	ConfirmationEscalated ConfirmationStatus = "escalated"
)

// ConfirmationRecord represents one firing of a reminder awaiting a response.
// Records are never deleted; they form the audit trail.
type ConfirmationRecord struct {
	ID            int64              `json:"id"`
	Phone         string             `json:"phone"`
	MedicineID    string             `json:"medicine_id"`
	MedicineName  string             `json:"medicine_name"`
	GuardianPhone string             `json:"guardian_phone,omitempty"` // snapshot taken at fire time
	Status        ConfirmationStatus `json:"status"`
	SentAt        time.Time          `json:"sent_at"`
}

// FeedbackRecord is a standalone free-text feedback entry.
type FeedbackRecord struct {
	ID        int64     `json:"id"`
	Phone     string    `json:"phone"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageType classifies a normalized inbound message.
type MessageType string

const (
	// MessageTypeText is a free-text message.
	MessageTypeText MessageType = "text"
	// MessageTypeInteractive is a list or button reply.
	MessageTypeInteractive MessageType = "interactive"
	// MessageTypeImage is an image attachment.
	MessageTypeImage MessageType = "image"
)

// IncomingMessage is the normalized form of one inbound webhook message.
type IncomingMessage struct {
	From             string      `json:"from"`
	Type             MessageType `json:"type"`
	Text             string      `json:"text,omitempty"`
	ListReplyID      string      `json:"list_reply_id,omitempty"`
	ListReplyTitle   string      `json:"list_reply_title,omitempty"`
	ButtonReplyID    string      `json:"button_reply_id,omitempty"`
	ButtonReplyTitle string      `json:"button_reply_title,omitempty"`
	ImageRef         string      `json:"image_ref,omitempty"`
}

// SelectionID returns whichever interactive reply identifier is present.
func (m IncomingMessage) SelectionID() string {
	if m.ListReplyID != "" {
		return m.ListReplyID
	}
	return m.ButtonReplyID
}

// Button is one reply button of an interactive message.
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListRow is one selectable row of an interactive list message.
type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListSection groups rows of an interactive list message.
type ListSection struct {
	Title string    `json:"title"`
	Rows  []ListRow `json:"rows"`
}

// Error variables shared across modules.
var (
	// ErrUserNotFound indicates the user document does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrMedicineNotFound indicates the medicine vanished between schedule and fire.
	ErrMedicineNotFound = errors.New("medicine not found")
	// ErrEmptyRecipient indicates a send was attempted without a recipient.
	ErrEmptyRecipient = errors.New("recipient cannot be empty")
	// ErrInvalidSelection indicates an out-of-range or non-numeric deletion index.
	ErrInvalidSelection = errors.New("invalid selection")
)
