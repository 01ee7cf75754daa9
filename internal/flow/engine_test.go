package flow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pillsparkai/pillspark-bot/internal/i18n"
	"github.com/pillsparkai/pillspark-bot/internal/messaging"
	"github.com/pillsparkai/pillspark-bot/internal/models"
	"github.com/pillsparkai/pillspark-bot/internal/schedule"
	"github.com/pillsparkai/pillspark-bot/internal/store"
)

const testPhone = "14165550100"

type testEnv struct {
	engine     *Engine
	dispatcher *Dispatcher
	store      *store.InMemoryStore
	recorder   *messaging.Recorder
	registry   *schedule.Registry
	timer      *SimpleTimer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := store.NewInMemoryStore()
	rec := messaging.NewRecorder()
	reg := schedule.NewRegistry(schedule.WithLocation(time.UTC))
	t.Cleanup(reg.Stop)
	timer := NewSimpleTimer()
	t.Cleanup(timer.Stop)
	cat := i18n.NewCatalog()
	d := NewDispatcher(st, rec, reg, timer, cat, WithSnoozeDelay(time.Hour))
	return &testEnv{
		engine:     NewEngine(st, rec, reg, d, cat),
		dispatcher: d,
		store:      st,
		recorder:   rec,
		registry:   reg,
		timer:      timer,
	}
}

// seedUser stores an onboarded English-speaking user.
func (env *testEnv) seedUser(t *testing.T, meds ...models.Medicine) {
	t.Helper()
	now := time.Now().UTC()
	if meds == nil {
		meds = []models.Medicine{}
	}
	err := env.store.SaveUser(models.User{
		Phone:     testPhone,
		Step:      models.StepIdle,
		Name:      "Asha",
		Language:  "en",
		Medicines: meds,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seedUser: %v", err)
	}
}

func (env *testEnv) mustUser(t *testing.T) *models.User {
	t.Helper()
	u, err := env.store.GetUser(testPhone)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u == nil {
		t.Fatalf("GetUser: user %s not found", testPhone)
	}
	return u
}

func (env *testEnv) handle(t *testing.T, msg models.IncomingMessage) {
	t.Helper()
	if err := env.engine.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage(%+v): %v", msg, err)
	}
}

func (env *testEnv) lastSent(t *testing.T) messaging.SentMessage {
	t.Helper()
	sent := env.recorder.Sent()
	if len(sent) == 0 {
		t.Fatal("no messages sent")
	}
	return sent[len(sent)-1]
}

func textMsg(text string) models.IncomingMessage {
	return models.IncomingMessage{From: testPhone, Type: models.MessageTypeText, Text: text}
}

func listReply(id string) models.IncomingMessage {
	return models.IncomingMessage{From: testPhone, Type: models.MessageTypeInteractive, ListReplyID: id}
}

func buttonReply(id string) models.IncomingMessage {
	return models.IncomingMessage{From: testPhone, Type: models.MessageTypeInteractive, ButtonReplyID: id}
}

func imageMsg(ref string) models.IncomingMessage {
	return models.IncomingMessage{From: testPhone, Type: models.MessageTypeImage, ImageRef: ref}
}

func TestFirstContactStartsOnboarding(t *testing.T) {
	env := newTestEnv(t)

	env.handle(t, textMsg("hi"))

	u := env.mustUser(t)
	if u.Step != models.StepAskLanguage {
		t.Errorf("step = %s, want %s", u.Step, models.StepAskLanguage)
	}
	last := env.lastSent(t)
	if last.Kind != "list" {
		t.Fatalf("last message kind = %s, want list", last.Kind)
	}
	if rows := last.Sections[0].Rows; len(rows) != 3 {
		t.Errorf("language picker has %d rows, want 3", len(rows))
	}
}

func TestOnboardingCompletesToMenu(t *testing.T) {
	env := newTestEnv(t)

	env.handle(t, textMsg("hello"))
	env.handle(t, listReply(LangPrefix+"en"))
	if u := env.mustUser(t); u.Step != models.StepAskUserName || u.Language != "en" {
		t.Fatalf("after language pick: step=%s language=%q", u.Step, u.Language)
	}

	env.handle(t, textMsg("Asha"))
	if u := env.mustUser(t); u.Step != models.StepAskGuardianOnboarding || u.Name != "Asha" {
		t.Fatalf("after name: step=%s name=%q", u.Step, u.Name)
	}

	env.handle(t, textMsg("+1 (416) 555-0199"))
	u := env.mustUser(t)
	if u.Step != models.StepIdle {
		t.Errorf("step = %s, want %s", u.Step, models.StepIdle)
	}
	if u.GuardianPhone != "14165550199" {
		t.Errorf("guardian = %q, want canonical digits", u.GuardianPhone)
	}
	if last := env.lastSent(t); last.Kind != "list" {
		t.Errorf("expected main menu list after onboarding, got %s", last.Kind)
	}
}

func TestOnboardingGuardianSkip(t *testing.T) {
	env := newTestEnv(t)

	env.handle(t, textMsg("hi"))
	env.handle(t, listReply(LangPrefix+"en"))
	env.handle(t, textMsg("Asha"))
	env.handle(t, textMsg("skip"))

	u := env.mustUser(t)
	if u.Step != models.StepIdle {
		t.Errorf("step = %s, want %s", u.Step, models.StepIdle)
	}
	if u.GuardianPhone != "" {
		t.Errorf("guardian = %q, want empty after skip", u.GuardianPhone)
	}
}

func TestAddMedicineFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t)

	env.handle(t, listReply(MenuIDAddMed))
	if u := env.mustUser(t); u.Step != models.StepAskMed {
		t.Fatalf("step = %s, want %s", u.Step, models.StepAskMed)
	}

	env.handle(t, textMsg("Aspirin"))
	if u := env.mustUser(t); u.Step != models.StepAskTime || u.PendingName != "Aspirin" {
		t.Fatalf("after name: step=%s pendingName=%q", u.Step, u.PendingName)
	}

	env.handle(t, textMsg("8:00 PM"))
	if u := env.mustUser(t); u.Step != models.StepAskPhoto || u.PendingTime != "20:00" {
		t.Fatalf("after time: step=%s pendingTime=%q", u.Step, u.PendingTime)
	}

	env.handle(t, textMsg("skip"))
	u := env.mustUser(t)
	if u.Step != models.StepIdle {
		t.Errorf("step = %s, want %s", u.Step, models.StepIdle)
	}
	if len(u.Medicines) != 1 {
		t.Fatalf("medicines = %d, want 1", len(u.Medicines))
	}
	med := u.Medicines[0]
	if med.Name != "Aspirin" || med.TimeSpec != "20:00" {
		t.Errorf("medicine = %+v, want Aspirin at 20:00", med)
	}
	if med.ID == "" || med.JobID == "" {
		t.Errorf("medicine missing identifiers: %+v", med)
	}
	if u.PendingName != "" || u.PendingTime != "" {
		t.Errorf("pending fields not cleared: %+v", u)
	}
	if !env.registry.Armed(med.JobID) {
		t.Errorf("trigger %s not armed after commit", med.JobID)
	}
}

func TestAddMedicineWithPhoto(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t)

	env.handle(t, listReply(MenuIDAddMed))
	env.handle(t, textMsg("Metformin"))
	env.handle(t, textMsg("9:30"))
	env.handle(t, imageMsg("https://cdn.example.com/metformin.jpg"))

	u := env.mustUser(t)
	if len(u.Medicines) != 1 {
		t.Fatalf("medicines = %d, want 1", len(u.Medicines))
	}
	if got := u.Medicines[0].PhotoRef; got != "https://cdn.example.com/metformin.jpg" {
		t.Errorf("photo = %q", got)
	}
}

func TestAddMedicineRejectsBadTime(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t)

	env.handle(t, listReply(MenuIDAddMed))
	env.handle(t, textMsg("Aspirin"))
	env.handle(t, textMsg("25:99"))

	if u := env.mustUser(t); u.Step != models.StepAskTime {
		t.Errorf("step = %s, want to stay in %s after invalid time", u.Step, models.StepAskTime)
	}
	if env.registry.Len() != 0 {
		t.Errorf("registry has %d entries, want 0", env.registry.Len())
	}
}

func TestResetKeywordAbandonsComposition(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t)

	env.handle(t, listReply(MenuIDAddMed))
	env.handle(t, textMsg("Aspirin"))
	env.handle(t, textMsg("menu"))

	u := env.mustUser(t)
	if u.Step != models.StepIdle {
		t.Errorf("step = %s, want %s", u.Step, models.StepIdle)
	}
	if u.PendingName != "" {
		t.Errorf("pending composition survived reset: %q", u.PendingName)
	}
	if len(u.Medicines) != 0 {
		t.Errorf("abandoned composition was committed: %+v", u.Medicines)
	}
}

func TestViewMedicines(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t)

	env.handle(t, listReply(MenuIDViewMeds))
	if last := env.lastSent(t); !strings.Contains(last.Body, "no medicines") {
		t.Errorf("empty list reply = %q, want no-medicines text", last.Body)
	}

	env.seedUser(t, models.Medicine{ID: "m1", Name: "Aspirin", TimeSpec: "08:00", JobID: testPhone + "_m1"})
	env.handle(t, listReply(MenuIDViewMeds))
	last := env.lastSent(t)
	if !strings.Contains(last.Body, "1. Aspirin - 08:00") {
		t.Errorf("list body = %q, want numbered Aspirin entry", last.Body)
	}
}

func TestDeleteMedicineByListReply(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, models.Medicine{ID: "m1", Name: "Aspirin", TimeSpec: "08:00", JobID: testPhone + "_m1"})
	env.registry.Arm(testPhone+"_m1", "08:00", func() {})

	env.handle(t, listReply(MenuIDDeleteMed))
	if u := env.mustUser(t); u.Step != models.StepDeleteMedSelect {
		t.Fatalf("step = %s, want %s", u.Step, models.StepDeleteMedSelect)
	}
	if last := env.lastSent(t); last.Kind != "list" || last.Sections[0].Rows[0].ID != DeletePrefix+"m1" {
		t.Fatalf("delete picker not sent: %+v", last)
	}

	env.handle(t, listReply(DeletePrefix+"m1"))
	u := env.mustUser(t)
	if len(u.Medicines) != 0 {
		t.Errorf("medicines = %+v, want empty", u.Medicines)
	}
	if u.Step != models.StepIdle {
		t.Errorf("step = %s, want %s", u.Step, models.StepIdle)
	}
	if env.registry.Armed(testPhone + "_m1") {
		t.Error("trigger still armed after delete")
	}
}

func TestDeleteMedicineByIndexAndCancel(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t,
		models.Medicine{ID: "m1", Name: "Aspirin", TimeSpec: "08:00", JobID: testPhone + "_m1"},
		models.Medicine{ID: "m2", Name: "Metformin", TimeSpec: "21:00", JobID: testPhone + "_m2"},
	)

	env.handle(t, listReply(MenuIDDeleteMed))
	env.handle(t, textMsg("cancel"))
	if u := env.mustUser(t); u.Step != models.StepIdle || len(u.Medicines) != 2 {
		t.Fatalf("after cancel: step=%s medicines=%d", u.Step, len(u.Medicines))
	}

	env.handle(t, listReply(MenuIDDeleteMed))
	env.handle(t, textMsg("2"))
	u := env.mustUser(t)
	if len(u.Medicines) != 1 || u.Medicines[0].ID != "m1" {
		t.Errorf("medicines after index delete = %+v, want only m1", u.Medicines)
	}
}

func TestDeleteMedicineInvalidSelection(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, models.Medicine{ID: "m1", Name: "Aspirin", TimeSpec: "08:00", JobID: testPhone + "_m1"})

	env.handle(t, listReply(MenuIDDeleteMed))
	env.handle(t, textMsg("9"))

	u := env.mustUser(t)
	if u.Step != models.StepDeleteMedSelect {
		t.Errorf("step = %s, want to stay in picker", u.Step)
	}
	if len(u.Medicines) != 1 {
		t.Errorf("medicines = %d, want 1", len(u.Medicines))
	}
}

func TestSetGuardianFromMenu(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t)

	env.handle(t, listReply(MenuIDSetGuardian))
	env.handle(t, textMsg("919876543210"))
	if u := env.mustUser(t); u.GuardianPhone != "919876543210" || u.Step != models.StepIdle {
		t.Fatalf("after set: guardian=%q step=%s", u.GuardianPhone, u.Step)
	}

	// Skip from the menu dialog removes the guardian.
	env.handle(t, listReply(MenuIDSetGuardian))
	env.handle(t, textMsg("SKIP"))
	if u := env.mustUser(t); u.GuardianPhone != "" {
		t.Errorf("guardian = %q, want removed", u.GuardianPhone)
	}
}

func TestGuardianRejectsNonNumbers(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t)

	env.handle(t, listReply(MenuIDSetGuardian))
	env.handle(t, textMsg("my cousin ravi"))

	if u := env.mustUser(t); u.Step != models.StepAskNewGuardian || u.GuardianPhone != "" {
		t.Errorf("after invalid guardian: step=%s guardian=%q", u.Step, u.GuardianPhone)
	}
}

func TestFeedbackFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t)

	env.handle(t, listReply(MenuIDFeedback))
	env.handle(t, textMsg("Love the reminders, add weekly schedules!"))

	if u := env.mustUser(t); u.Step != models.StepIdle {
		t.Errorf("step = %s, want %s", u.Step, models.StepIdle)
	}
	entries, err := env.store.ListFeedback(10)
	if err != nil {
		t.Fatalf("ListFeedback: %v", err)
	}
	if len(entries) != 1 || entries[0].Body != "Love the reminders, add weekly schedules!" {
		t.Errorf("feedback = %+v, want one saved entry", entries)
	}
}

func TestUnknownIdleInputShowsMenu(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t)

	env.handle(t, textMsg("what can you do"))

	last := env.lastSent(t)
	if last.Kind != "list" {
		t.Errorf("last message kind = %s, want main menu list", last.Kind)
	}
}

func TestReminderReplyTaken(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, models.Medicine{ID: "m1", Name: "Aspirin", TimeSpec: "08:00", JobID: testPhone + "_m1"})
	if _, err := env.store.AddConfirmation(models.ConfirmationRecord{
		Phone: testPhone, MedicineID: "m1", MedicineName: "Aspirin",
		Status: models.ConfirmationPending, SentAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("AddConfirmation: %v", err)
	}

	env.handle(t, buttonReply(TakenPrefix+"m1"))

	recs, err := env.store.ListRecentConfirmations(10)
	if err != nil {
		t.Fatalf("ListRecentConfirmations: %v", err)
	}
	if len(recs) != 1 || recs[0].Status != models.ConfirmationTaken {
		t.Fatalf("confirmations = %+v, want one taken record", recs)
	}
	if last := env.lastSent(t); !strings.Contains(last.Body, "Aspirin") {
		t.Errorf("ack = %q, want medicine name", last.Body)
	}
	// Reminder replies must not disturb the dialog state.
	if u := env.mustUser(t); u.Step != models.StepIdle {
		t.Errorf("step = %s, want unchanged %s", u.Step, models.StepIdle)
	}
}

func TestReminderReplySnoozeSchedulesRefire(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, models.Medicine{ID: "m1", Name: "Aspirin", TimeSpec: "08:00", JobID: testPhone + "_m1"})
	if _, err := env.store.AddConfirmation(models.ConfirmationRecord{
		Phone: testPhone, MedicineID: "m1", MedicineName: "Aspirin",
		Status: models.ConfirmationPending, SentAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("AddConfirmation: %v", err)
	}

	env.handle(t, buttonReply(SnoozePrefix+"m1"))

	recs, _ := env.store.ListRecentConfirmations(10)
	if len(recs) != 1 || recs[0].Status != models.ConfirmationSnoozed {
		t.Fatalf("confirmations = %+v, want one snoozed record", recs)
	}
	if env.timer.Pending() != 1 {
		t.Errorf("timer has %d pending callbacks, want 1 re-fire", env.timer.Pending())
	}
}

func TestReminderReplySkip(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, models.Medicine{ID: "m1", Name: "Aspirin", TimeSpec: "08:00", JobID: testPhone + "_m1"})
	if _, err := env.store.AddConfirmation(models.ConfirmationRecord{
		Phone: testPhone, MedicineID: "m1", MedicineName: "Aspirin",
		Status: models.ConfirmationPending, SentAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("AddConfirmation: %v", err)
	}

	env.handle(t, buttonReply(SkipPrefix+"m1"))

	recs, _ := env.store.ListRecentConfirmations(10)
	if len(recs) != 1 || recs[0].Status != models.ConfirmationSkipped {
		t.Errorf("confirmations = %+v, want one skipped record", recs)
	}
	if env.timer.Pending() != 0 {
		t.Errorf("skip must not schedule a re-fire, found %d", env.timer.Pending())
	}
}

func TestEndToEndFirstContactToArmedReminder(t *testing.T) {
	env := newTestEnv(t)

	env.handle(t, textMsg("hi"))
	env.handle(t, listReply(LangPrefix+"en"))
	env.handle(t, textMsg("Asha"))
	env.handle(t, textMsg("skip"))
	env.handle(t, listReply(MenuIDAddMed))
	env.handle(t, textMsg("Aspirin"))
	env.handle(t, textMsg("8:00 AM"))
	env.handle(t, textMsg("skip"))

	u := env.mustUser(t)
	if len(u.Medicines) != 1 {
		t.Fatalf("medicines = %d, want 1", len(u.Medicines))
	}
	med := u.Medicines[0]
	if med.Name != "Aspirin" || med.TimeSpec != "08:00" {
		t.Errorf("medicine = %+v, want Aspirin at 08:00", med)
	}
	if !env.registry.Armed(med.JobID) {
		t.Errorf("trigger %s not armed", med.JobID)
	}
}

func TestHelpKeepsState(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t)

	env.handle(t, listReply(MenuIDHelp))

	if u := env.mustUser(t); u.Step != models.StepIdle {
		t.Errorf("step = %s, want %s", u.Step, models.StepIdle)
	}
	if last := env.lastSent(t); last.Kind != "text" || last.Body == "" {
		t.Errorf("help reply = %+v, want text", last)
	}
}
