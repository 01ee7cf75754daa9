// Package flow implements the PillSpark conversation state machine and the
// reminder dispatch path.
//
// Every inbound message resolves to exactly one state handler. Handlers
// mutate the user document, persist it, and only then send replies: a send
// failure never leaves the stored state behind the conversation.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pillsparkai/pillspark-bot/internal/i18n"
	"github.com/pillsparkai/pillspark-bot/internal/messaging"
	"github.com/pillsparkai/pillspark-bot/internal/models"
	"github.com/pillsparkai/pillspark-bot/internal/schedule"
	"github.com/pillsparkai/pillspark-bot/internal/store"
	"github.com/pillsparkai/pillspark-bot/internal/timeparse"
)

// resetKeywords pull an onboarded user back to the idle menu from any state.
var resetKeywords = map[string]bool{
	"hi":    true,
	"hello": true,
	"hey":   true,
	"menu":  true,
	"start": true,
}

// skipKeyword declines an optional prompt (photo, guardian).
const skipKeyword = "SKIP"

// cancelKeyword backs out of the deletion picker.
const cancelKeyword = "CANCEL"

// Opts holds configuration options for the Engine.
type Opts struct {
	BannerImageURL string
}

// Option defines a configuration option for the Engine.
type Option func(*Opts)

// WithBannerImage sets an image URL sent with the first-contact greeting.
func WithBannerImage(url string) Option {
	return func(o *Opts) { o.BannerImageURL = url }
}

// Engine is the conversation state machine. One instance serves all users;
// all per-user state lives in the store.
type Engine struct {
	store      store.Store
	msg        messaging.Service
	registry   *schedule.Registry
	dispatcher *Dispatcher
	catalog    *i18n.Catalog
	banner     string
}

// NewEngine creates the conversation engine.
func NewEngine(st store.Store, msg messaging.Service, reg *schedule.Registry, d *Dispatcher, cat *i18n.Catalog, opts ...Option) *Engine {
	o := Opts{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		store:      st,
		msg:        msg,
		registry:   reg,
		dispatcher: d,
		catalog:    cat,
		banner:     o.BannerImageURL,
	}
}

// HandleMessage processes one inbound message end to end. The returned error
// is for the transport layer's log; the user has already received either a
// state-appropriate reply or the generic error message.
func (e *Engine) HandleMessage(ctx context.Context, msg models.IncomingMessage) error {
	phone, err := messaging.CanonicalizePhone(msg.From)
	if err != nil {
		return fmt.Errorf("failed to canonicalize sender: %w", err)
	}

	user, err := e.store.GetUser(phone)
	if err != nil {
		e.sendRaw(ctx, phone, e.catalog.Lookup("", i18n.KeyGenericError))
		return fmt.Errorf("failed to load user %s: %w", phone, err)
	}
	if user == nil {
		return e.greetNewUser(ctx, phone)
	}

	// Reminder replies are global: they resolve regardless of the dialog
	// state and do not disturb it.
	if id := msg.SelectionID(); id != "" {
		if handled, err := e.handleReminderReply(ctx, user, id); handled {
			return err
		}
	}

	if msg.Type == models.MessageTypeText && e.onboarded(user) && resetKeywords[strings.ToLower(strings.TrimSpace(msg.Text))] {
		return e.resetToMenu(ctx, user)
	}

	switch user.Step {
	case models.StepAskLanguage:
		return e.handleAskLanguage(ctx, user, msg)
	case models.StepAskUserName:
		return e.handleAskUserName(ctx, user, msg)
	case models.StepAskGuardianOnboarding:
		return e.handleAskGuardian(ctx, user, msg, true)
	case models.StepIdle:
		return e.handleIdle(ctx, user, msg)
	case models.StepAskMed:
		return e.handleAskMed(ctx, user, msg)
	case models.StepAskTime:
		return e.handleAskTime(ctx, user, msg)
	case models.StepAskPhoto:
		return e.handleAskPhoto(ctx, user, msg)
	case models.StepAskNewGuardian:
		return e.handleAskGuardian(ctx, user, msg, false)
	case models.StepAskFeedback:
		return e.handleAskFeedback(ctx, user, msg)
	case models.StepDeleteMedSelect:
		return e.handleDeleteSelect(ctx, user, msg)
	default:
		slog.Warn("Engine.HandleMessage: unknown step, resetting", "phone", user.Phone, "step", user.Step)
		return e.resetToMenu(ctx, user)
	}
}

// onboarded reports whether the user finished the initial setup dialog.
func (e *Engine) onboarded(u *models.User) bool {
	return u.Language != "" && u.Name != ""
}

// greetNewUser creates the user document and starts the language dialog.
func (e *Engine) greetNewUser(ctx context.Context, phone string) error {
	now := time.Now().UTC()
	user := models.User{
		Phone:     phone,
		Step:      models.StepAskLanguage,
		Medicines: []models.Medicine{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.saveUser(ctx, &user); err != nil {
		return err
	}
	slog.Info("Engine.greetNewUser: new user", "phone", phone)
	if e.banner != "" {
		e.sendImage(ctx, phone, e.banner, "")
	}
	e.sendLanguagePicker(ctx, phone)
	return nil
}

// handleReminderReply resolves Taken/Snooze/Skip button presses. It returns
// handled=false when the selection is not a reminder reply.
func (e *Engine) handleReminderReply(ctx context.Context, user *models.User, selection string) (bool, error) {
	var status models.ConfirmationStatus
	var ackKey, medicineID string
	switch {
	case strings.HasPrefix(selection, TakenPrefix):
		status, ackKey, medicineID = models.ConfirmationTaken, i18n.KeyTakenAck, strings.TrimPrefix(selection, TakenPrefix)
	case strings.HasPrefix(selection, SnoozePrefix):
		status, ackKey, medicineID = models.ConfirmationSnoozed, i18n.KeySnoozeAck, strings.TrimPrefix(selection, SnoozePrefix)
	case strings.HasPrefix(selection, SkipPrefix):
		status, ackKey, medicineID = models.ConfirmationSkipped, i18n.KeySkipAck, strings.TrimPrefix(selection, SkipPrefix)
	default:
		return false, nil
	}

	changed, err := e.store.MarkConfirmations(user.Phone, medicineID, status)
	if err != nil {
		e.sendKey(ctx, user, i18n.KeyGenericError)
		return true, fmt.Errorf("failed to mark confirmations for %s/%s: %w", user.Phone, medicineID, err)
	}
	slog.Info("Engine.handleReminderReply: confirmation resolved", "phone", user.Phone, "medicineID", medicineID, "status", status, "records", changed)

	name := medicineID
	if med := user.MedicineByID(medicineID); med != nil {
		name = med.Name
	}
	switch status {
	case models.ConfirmationSnoozed:
		if err := e.dispatcher.Snooze(user.Phone, medicineID); err != nil {
			slog.Error("Engine.handleReminderReply: failed to schedule snooze", "phone", user.Phone, "medicineID", medicineID, "error", err)
		}
		minutes := int(e.dispatcher.SnoozeDelay().Minutes())
		e.sendRaw(ctx, user.Phone, fmt.Sprintf(e.catalog.Lookup(user.Language, ackKey), name, minutes))
	default:
		e.sendRaw(ctx, user.Phone, fmt.Sprintf(e.catalog.Lookup(user.Language, ackKey), name))
	}
	return true, nil
}

// resetToMenu returns the user to the idle state and shows the main menu.
func (e *Engine) resetToMenu(ctx context.Context, user *models.User) error {
	user.Step = models.StepIdle
	user.ClearPending()
	if err := e.saveUser(ctx, user); err != nil {
		return err
	}
	e.sendMainMenu(ctx, user)
	return nil
}

func (e *Engine) handleAskLanguage(ctx context.Context, user *models.User, msg models.IncomingMessage) error {
	code := strings.TrimPrefix(msg.SelectionID(), LangPrefix)
	if code == msg.SelectionID() {
		// Not a picker reply; accept the bare code as text.
		code = strings.ToLower(strings.TrimSpace(msg.Text))
	}
	if !e.catalog.Supported(code) {
		e.sendLanguagePicker(ctx, user.Phone)
		return nil
	}

	user.Language = code
	user.Step = models.StepAskUserName
	if err := e.saveUser(ctx, user); err != nil {
		return err
	}
	e.sendKey(ctx, user, i18n.KeyLanguageSaved)
	e.sendKey(ctx, user, i18n.KeyAskName)
	return nil
}

func (e *Engine) handleAskUserName(ctx context.Context, user *models.User, msg models.IncomingMessage) error {
	name := strings.TrimSpace(msg.Text)
	if msg.Type != models.MessageTypeText || name == "" {
		e.sendKey(ctx, user, i18n.KeyAskName)
		return nil
	}

	user.Name = name
	user.Step = models.StepAskGuardianOnboarding
	if err := e.saveUser(ctx, user); err != nil {
		return err
	}
	e.sendRaw(ctx, user.Phone, fmt.Sprintf(e.catalog.Lookup(user.Language, i18n.KeyAskGuardianOnboarding), name))
	return nil
}

// handleAskGuardian serves both the onboarding guardian prompt and the menu's
// set-guardian dialog; only the skip semantics differ.
func (e *Engine) handleAskGuardian(ctx context.Context, user *models.User, msg models.IncomingMessage, onboarding bool) error {
	text := strings.TrimSpace(msg.Text)
	if strings.EqualFold(text, skipKeyword) {
		ack := i18n.KeyGuardianSkipped
		if !onboarding {
			// From the menu, skip means remove the current guardian.
			user.GuardianPhone = ""
			ack = i18n.KeyGuardianRemoved
		}
		user.Step = models.StepIdle
		if err := e.saveUser(ctx, user); err != nil {
			return err
		}
		e.sendKey(ctx, user, ack)
		e.sendMainMenu(ctx, user)
		return nil
	}

	guardian, err := messaging.CanonicalizePhone(text)
	if err != nil {
		e.sendKey(ctx, user, i18n.KeyGuardianInvalid)
		return nil
	}

	user.GuardianPhone = guardian
	user.Step = models.StepIdle
	if err := e.saveUser(ctx, user); err != nil {
		return err
	}
	e.sendKey(ctx, user, i18n.KeyGuardianSaved)
	e.sendMainMenu(ctx, user)
	return nil
}

func (e *Engine) handleIdle(ctx context.Context, user *models.User, msg models.IncomingMessage) error {
	switch msg.SelectionID() {
	case MenuIDAddMed:
		user.Step = models.StepAskMed
		user.ClearPending()
		if err := e.saveUser(ctx, user); err != nil {
			return err
		}
		e.sendKey(ctx, user, i18n.KeyAskMedName)
		return nil

	case MenuIDViewMeds:
		if len(user.Medicines) == 0 {
			e.sendKey(ctx, user, i18n.KeyNoMeds)
			return nil
		}
		e.sendRaw(ctx, user.Phone, medicineListText(e.catalog, user.Language, user.Medicines))
		return nil

	case MenuIDDeleteMed:
		if len(user.Medicines) == 0 {
			e.sendKey(ctx, user, i18n.KeyNoMeds)
			return nil
		}
		user.Step = models.StepDeleteMedSelect
		if err := e.saveUser(ctx, user); err != nil {
			return err
		}
		e.sendList(ctx, user,
			e.catalog.Lookup(user.Language, i18n.KeyDeleteHeader),
			e.catalog.Lookup(user.Language, i18n.KeyDeleteBody),
			deleteSections(user.Medicines))
		return nil

	case MenuIDSetGuardian:
		user.Step = models.StepAskNewGuardian
		if err := e.saveUser(ctx, user); err != nil {
			return err
		}
		e.sendKey(ctx, user, i18n.KeyAskNewGuardian)
		return nil

	case MenuIDFeedback:
		user.Step = models.StepAskFeedback
		if err := e.saveUser(ctx, user); err != nil {
			return err
		}
		e.sendKey(ctx, user, i18n.KeyAskFeedback)
		return nil

	case MenuIDHelp:
		e.sendKey(ctx, user, i18n.KeyHelpText)
		return nil

	default:
		e.sendKey(ctx, user, i18n.KeyNotUnderstood)
		e.sendMainMenu(ctx, user)
		return nil
	}
}

func (e *Engine) handleAskMed(ctx context.Context, user *models.User, msg models.IncomingMessage) error {
	name := strings.TrimSpace(msg.Text)
	if msg.Type != models.MessageTypeText || name == "" {
		e.sendKey(ctx, user, i18n.KeyMedNameInvalid)
		return nil
	}

	user.PendingName = name
	user.Step = models.StepAskTime
	if err := e.saveUser(ctx, user); err != nil {
		return err
	}
	e.sendKey(ctx, user, i18n.KeyAskMedTime)
	return nil
}

func (e *Engine) handleAskTime(ctx context.Context, user *models.User, msg models.IncomingMessage) error {
	clock, err := timeparse.Parse(msg.Text)
	if err != nil {
		e.sendKey(ctx, user, i18n.KeyMedTimeInvalid)
		return nil
	}

	// Stored canonically as 24-hour HH:MM; re-arming after a restart parses
	// this same string.
	user.PendingTime = clock.String()
	user.Step = models.StepAskPhoto
	if err := e.saveUser(ctx, user); err != nil {
		return err
	}
	e.sendKey(ctx, user, i18n.KeyAskMedPhoto)
	return nil
}

func (e *Engine) handleAskPhoto(ctx context.Context, user *models.User, msg models.IncomingMessage) error {
	switch {
	case msg.Type == models.MessageTypeImage && msg.ImageRef != "":
		user.PendingPhoto = msg.ImageRef
	case strings.EqualFold(strings.TrimSpace(msg.Text), skipKeyword):
		user.PendingPhoto = ""
	default:
		e.sendKey(ctx, user, i18n.KeyAskMedPhoto)
		return nil
	}
	return e.commitMedicine(ctx, user)
}

// commitMedicine turns the pending composition into a scheduled medicine.
// The document is persisted before the trigger is armed so a crash between
// the two re-arms on the next startup replay instead of losing the medicine.
func (e *Engine) commitMedicine(ctx context.Context, user *models.User) error {
	med := models.Medicine{
		ID:        uuid.NewString(),
		Name:      user.PendingName,
		TimeSpec:  user.PendingTime,
		PhotoRef:  user.PendingPhoto,
		CreatedAt: time.Now().UTC(),
	}
	med.JobID = fmt.Sprintf("%s_%s", user.Phone, med.ID)

	user.Medicines = append(user.Medicines, med)
	user.ClearPending()
	user.Step = models.StepIdle
	if err := e.saveUser(ctx, user); err != nil {
		return err
	}

	phone, medicineID := user.Phone, med.ID
	if _, err := e.registry.Arm(med.JobID, med.TimeSpec, func() {
		e.dispatcher.Fire(phone, medicineID)
	}); err != nil {
		// The medicine is saved; the startup replay will retry the trigger.
		slog.Error("Engine.commitMedicine: failed to arm trigger", "phone", user.Phone, "medicineID", med.ID, "timeSpec", med.TimeSpec, "error", err)
	}

	slog.Info("Engine.commitMedicine: medicine added", "phone", user.Phone, "medicineID", med.ID, "medicine", med.Name, "timeSpec", med.TimeSpec)
	e.sendRaw(ctx, user.Phone, fmt.Sprintf(e.catalog.Lookup(user.Language, i18n.KeyMedSaved), med.Name, med.TimeSpec))
	e.sendMainMenu(ctx, user)
	return nil
}

func (e *Engine) handleAskFeedback(ctx context.Context, user *models.User, msg models.IncomingMessage) error {
	body := strings.TrimSpace(msg.Text)
	if msg.Type != models.MessageTypeText || body == "" {
		e.sendKey(ctx, user, i18n.KeyAskFeedback)
		return nil
	}

	if err := e.store.AddFeedback(models.FeedbackRecord{
		Phone:     user.Phone,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		e.sendKey(ctx, user, i18n.KeyGenericError)
		return fmt.Errorf("failed to save feedback from %s: %w", user.Phone, err)
	}

	user.Step = models.StepIdle
	if err := e.saveUser(ctx, user); err != nil {
		return err
	}
	e.sendKey(ctx, user, i18n.KeyFeedbackThanks)
	return nil
}

func (e *Engine) handleDeleteSelect(ctx context.Context, user *models.User, msg models.IncomingMessage) error {
	text := strings.TrimSpace(msg.Text)
	if strings.EqualFold(text, cancelKeyword) {
		return e.resetToMenu(ctx, user)
	}

	med := e.resolveDeleteTarget(user, msg)
	if med == nil {
		e.sendKey(ctx, user, i18n.KeyDeleteInvalid)
		e.sendList(ctx, user,
			e.catalog.Lookup(user.Language, i18n.KeyDeleteHeader),
			e.catalog.Lookup(user.Language, i18n.KeyDeleteBody),
			deleteSections(user.Medicines))
		return nil
	}

	// med points into the slice, so capture its fields before compacting.
	medID, name, jobID := med.ID, med.Name, med.JobID
	kept := user.Medicines[:0]
	for _, m := range user.Medicines {
		if m.ID != medID {
			kept = append(kept, m)
		}
	}
	user.Medicines = kept
	user.Step = models.StepIdle
	if err := e.saveUser(ctx, user); err != nil {
		return err
	}

	e.registry.Disarm(jobID)
	slog.Info("Engine.handleDeleteSelect: medicine deleted", "phone", user.Phone, "medicine", name, "jobID", jobID)
	e.sendRaw(ctx, user.Phone, fmt.Sprintf(e.catalog.Lookup(user.Language, i18n.KeyMedDeleted), name))
	e.sendMainMenu(ctx, user)
	return nil
}

// resolveDeleteTarget accepts either a list reply carrying the medicine ID or
// a typed 1-based index into the last shown list.
func (e *Engine) resolveDeleteTarget(user *models.User, msg models.IncomingMessage) *models.Medicine {
	if id := msg.SelectionID(); strings.HasPrefix(id, DeletePrefix) {
		return user.MedicineByID(strings.TrimPrefix(id, DeletePrefix))
	}
	if n, err := strconv.Atoi(strings.TrimSpace(msg.Text)); err == nil && n >= 1 && n <= len(user.Medicines) {
		return &user.Medicines[n-1]
	}
	return nil
}

// saveUser persists the document and, on failure, tells the user something
// went wrong. State transitions never outrun the store.
func (e *Engine) saveUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	if err := e.store.SaveUser(*user); err != nil {
		e.sendRaw(ctx, user.Phone, e.catalog.Lookup(user.Language, i18n.KeyGenericError))
		return fmt.Errorf("failed to save user %s: %w", user.Phone, err)
	}
	return nil
}

// Send helpers are best-effort: failures are logged, never propagated, so a
// delivery hiccup cannot wedge the persisted dialog state.

func (e *Engine) sendKey(ctx context.Context, user *models.User, key string) {
	e.sendRaw(ctx, user.Phone, e.catalog.Lookup(user.Language, key))
}

func (e *Engine) sendRaw(ctx context.Context, phone, body string) {
	if err := e.msg.SendText(ctx, phone, body); err != nil {
		slog.Error("Engine: failed to send text", "phone", phone, "error", err)
	}
}

func (e *Engine) sendImage(ctx context.Context, phone, link, caption string) {
	if err := e.msg.SendImage(ctx, phone, link, caption); err != nil {
		slog.Error("Engine: failed to send image", "phone", phone, "error", err)
	}
}

func (e *Engine) sendList(ctx context.Context, user *models.User, header, body string, sections []models.ListSection) {
	if err := e.msg.SendList(ctx, user.Phone, header, body, e.catalog.Lookup(user.Language, i18n.KeyMenuButton), sections); err != nil {
		slog.Error("Engine: failed to send list", "phone", user.Phone, "error", err)
	}
}

func (e *Engine) sendLanguagePicker(ctx context.Context, phone string) {
	body := e.catalog.Lookup("", i18n.KeyChooseLanguage)
	button := e.catalog.Lookup("", i18n.KeyMenuButton)
	if err := e.msg.SendList(ctx, phone, e.catalog.Lookup("", i18n.KeyMenuHeader), body, button, languageSections(e.catalog)); err != nil {
		slog.Error("Engine: failed to send language picker", "phone", phone, "error", err)
	}
}

func (e *Engine) sendMainMenu(ctx context.Context, user *models.User) {
	e.sendList(ctx, user,
		e.catalog.Lookup(user.Language, i18n.KeyMenuHeader),
		e.catalog.Lookup(user.Language, i18n.KeyMenuBody),
		mainMenuSections(e.catalog, user.Language))
}
