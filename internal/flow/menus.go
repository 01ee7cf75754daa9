package flow

import (
	"fmt"
	"strings"

	"github.com/pillsparkai/pillspark-bot/internal/i18n"
	"github.com/pillsparkai/pillspark-bot/internal/models"
)

// Interactive reply identifiers. List and button replies carry these IDs back
// through the webhook; prefixed IDs embed the target after the colon.
const (
	MenuIDAddMed      = "ADD_MED"
	MenuIDViewMeds    = "VIEW_MEDS"
	MenuIDDeleteMed   = "DELETE_MED"
	MenuIDSetGuardian = "SET_GUARDIAN"
	MenuIDFeedback    = "FEEDBACK"
	MenuIDHelp        = "HELP"

	LangPrefix   = "LANG:"
	DeletePrefix = "DELETE:"
	TakenPrefix  = "TAKEN:"
	SnoozePrefix = "SNOOZE:"
	SkipPrefix   = "SKIP:"
)

// languageSections builds the onboarding language picker.
func languageSections(cat *i18n.Catalog) []models.ListSection {
	langs := cat.Languages()
	rows := make([]models.ListRow, 0, len(langs))
	for _, l := range langs {
		rows = append(rows, models.ListRow{ID: LangPrefix + l.Code, Title: l.Name})
	}
	return []models.ListSection{{Rows: rows}}
}

// mainMenuSections builds the idle-state command list for the user's language.
func mainMenuSections(cat *i18n.Catalog, lang string) []models.ListSection {
	rows := []models.ListRow{
		{ID: MenuIDAddMed, Title: cat.Lookup(lang, i18n.KeyMenuAddMed), Description: cat.Lookup(lang, i18n.KeyMenuAddMedDesc)},
		{ID: MenuIDViewMeds, Title: cat.Lookup(lang, i18n.KeyMenuViewMeds), Description: cat.Lookup(lang, i18n.KeyMenuViewMedsDesc)},
		{ID: MenuIDDeleteMed, Title: cat.Lookup(lang, i18n.KeyMenuDeleteMed), Description: cat.Lookup(lang, i18n.KeyMenuDeleteMedDesc)},
		{ID: MenuIDSetGuardian, Title: cat.Lookup(lang, i18n.KeyMenuSetGuardian), Description: cat.Lookup(lang, i18n.KeyMenuSetGuardianDesc)},
		{ID: MenuIDFeedback, Title: cat.Lookup(lang, i18n.KeyMenuFeedback), Description: cat.Lookup(lang, i18n.KeyMenuFeedbackDesc)},
		{ID: MenuIDHelp, Title: cat.Lookup(lang, i18n.KeyMenuHelp), Description: cat.Lookup(lang, i18n.KeyMenuHelpDesc)},
	}
	return []models.ListSection{{Rows: rows}}
}

// deleteSections builds the deletion picker over the user's medicines.
func deleteSections(meds []models.Medicine) []models.ListSection {
	rows := make([]models.ListRow, 0, len(meds))
	for _, m := range meds {
		rows = append(rows, models.ListRow{ID: DeletePrefix + m.ID, Title: m.Name, Description: m.TimeSpec})
	}
	return []models.ListSection{{Rows: rows}}
}

// reminderButtons builds the Taken/Snooze/Skip reply buttons for one medicine.
func reminderButtons(cat *i18n.Catalog, lang, medicineID string) []models.Button {
	return []models.Button{
		{ID: TakenPrefix + medicineID, Title: cat.Lookup(lang, i18n.KeyReminderTaken)},
		{ID: SnoozePrefix + medicineID, Title: cat.Lookup(lang, i18n.KeyReminderSnooze)},
		{ID: SkipPrefix + medicineID, Title: cat.Lookup(lang, i18n.KeyReminderSkip)},
	}
}

// medicineListText renders the numbered view-medicines summary.
func medicineListText(cat *i18n.Catalog, lang string, meds []models.Medicine) string {
	var b strings.Builder
	b.WriteString(cat.Lookup(lang, i18n.KeyMedListHeader))
	for i, m := range meds {
		fmt.Fprintf(&b, "\n%d. %s - %s", i+1, m.Name, m.TimeSpec)
	}
	return b.String()
}
