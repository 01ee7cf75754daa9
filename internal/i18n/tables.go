package i18n

// Message keys used by the conversation engine, reminder dispatcher, and
// escalation monitor. Every key must exist in the "en" table; translations
// that lag behind fall back to English.
const (
	KeyChooseLanguage        = "choose_language"
	KeyLanguageSaved         = "language_saved"
	KeyAskName               = "ask_name"
	KeyAskGuardianOnboarding = "ask_guardian_onboarding"
	KeyGuardianSaved         = "guardian_saved"
	KeyGuardianSkipped       = "guardian_skipped"
	KeyGuardianRemoved       = "guardian_removed"
	KeyGuardianInvalid       = "guardian_invalid"
	KeyMenuHeader            = "menu_header"
	KeyMenuBody              = "menu_body"
	KeyMenuButton            = "menu_button"
	KeyMenuAddMed            = "menu_add_med"
	KeyMenuAddMedDesc        = "menu_add_med_desc"
	KeyMenuViewMeds          = "menu_view_meds"
	KeyMenuViewMedsDesc      = "menu_view_meds_desc"
	KeyMenuDeleteMed         = "menu_delete_med"
	KeyMenuDeleteMedDesc     = "menu_delete_med_desc"
	KeyMenuSetGuardian       = "menu_set_guardian"
	KeyMenuSetGuardianDesc   = "menu_set_guardian_desc"
	KeyMenuFeedback          = "menu_feedback"
	KeyMenuFeedbackDesc      = "menu_feedback_desc"
	KeyMenuHelp              = "menu_help"
	KeyMenuHelpDesc          = "menu_help_desc"
	KeyAskMedName            = "ask_med_name"
	KeyMedNameInvalid        = "med_name_invalid"
	KeyAskMedTime            = "ask_med_time"
	KeyMedTimeInvalid        = "med_time_invalid"
	KeyAskMedPhoto           = "ask_med_photo"
	KeyMedSaved              = "med_saved"
	KeyNoMeds                = "no_meds"
	KeyMedListHeader         = "med_list_header"
	KeyDeleteHeader          = "delete_header"
	KeyDeleteBody            = "delete_body"
	KeyDeleteInvalid         = "delete_invalid"
	KeyMedDeleted            = "med_deleted"
	KeyAskNewGuardian        = "ask_new_guardian"
	KeyAskFeedback           = "ask_feedback"
	KeyFeedbackThanks        = "feedback_thanks"
	KeyHelpText              = "help_text"
	KeyNotUnderstood         = "not_understood"
	KeyGenericError          = "generic_error"
	KeyReminderBody          = "reminder_body"
	KeyReminderTaken         = "reminder_taken"
	KeyReminderSnooze        = "reminder_snooze"
	KeyReminderSkip          = "reminder_skip"
	KeyTakenAck              = "taken_ack"
	KeySnoozeAck             = "snooze_ack"
	KeySkipAck               = "skip_ack"
	KeyGuardianAlert         = "guardian_alert"
)

var builtinTables = map[string]map[string]string{
	"en": {
		KeyChooseLanguage:        "Welcome to PillSpark! 💊 I can remind you to take your medicines on time. First, please choose your language.",
		KeyLanguageSaved:         "Language set to English.",
		KeyAskName:               "Great! What should I call you?",
		KeyAskGuardianOnboarding: "Nice to meet you, %s! If you miss a reminder, I can alert a family member. Send me their phone number with country code, or reply SKIP.",
		KeyGuardianSaved:         "Guardian saved. I will alert them if you miss a medicine.",
		KeyGuardianSkipped:       "No problem, you can set a guardian later from the menu.",
		KeyGuardianRemoved:       "Guardian removed. I will no longer send missed-dose alerts.",
		KeyGuardianInvalid:       "That doesn't look like a phone number. Please send digits with country code, or reply SKIP.",
		KeyMenuHeader:            "PillSpark",
		KeyMenuBody:              "What would you like to do?",
		KeyMenuButton:            "Open menu",
		KeyMenuAddMed:            "Add medicine",
		KeyMenuAddMedDesc:        "Set a daily reminder",
		KeyMenuViewMeds:          "My medicines",
		KeyMenuViewMedsDesc:      "List your reminders",
		KeyMenuDeleteMed:         "Delete medicine",
		KeyMenuDeleteMedDesc:     "Remove a reminder",
		KeyMenuSetGuardian:       "Set guardian",
		KeyMenuSetGuardianDesc:   "Who to alert if you miss a dose",
		KeyMenuFeedback:          "Send feedback",
		KeyMenuFeedbackDesc:      "Tell us what to improve",
		KeyMenuHelp:              "Help",
		KeyMenuHelpDesc:          "How PillSpark works",
		KeyAskMedName:            "What is the name of the medicine?",
		KeyMedNameInvalid:        "Please send the medicine name as text.",
		KeyAskMedTime:            "At what time should I remind you? Send a time like 8:00 AM or 20:30.",
		KeyMedTimeInvalid:        "I couldn't read that time. Please send it like 8:00 AM or 20:30.",
		KeyAskMedPhoto:           "Optionally send a photo of the medicine so I can include it in reminders, or reply SKIP.",
		KeyMedSaved:              "Done! I will remind you to take %s every day at %s.",
		KeyNoMeds:                "You have no medicines saved yet. Choose \"Add medicine\" from the menu to create one.",
		KeyMedListHeader:         "Your medicines:",
		KeyDeleteHeader:          "Delete medicine",
		KeyDeleteBody:            "Which medicine should I stop reminding you about?",
		KeyDeleteInvalid:         "I couldn't find that medicine. Please pick one from the list.",
		KeyMedDeleted:            "Deleted %s. I will no longer remind you about it.",
		KeyAskNewGuardian:        "Send the guardian's phone number with country code, or reply SKIP to remove the current guardian.",
		KeyAskFeedback:           "I'm listening! Send your feedback as a message.",
		KeyFeedbackThanks:        "Thank you for the feedback! 🙏",
		KeyHelpText:              "PillSpark reminds you to take your medicines every day at the times you choose. When a reminder arrives, tap Taken, Snooze, or Skip. If you don't respond, I can alert your guardian. Send \"menu\" anytime to start over.",
		KeyNotUnderstood:         "Sorry, I didn't understand that. Send \"menu\" to see what I can do.",
		KeyGenericError:          "Something went wrong on my side. Please try again in a moment.",
		KeyReminderBody:          "⏰ Time to take your medicine: %s",
		KeyReminderTaken:         "Taken ✅",
		KeyReminderSnooze:        "Snooze ⏰",
		KeyReminderSkip:          "Skip ❌",
		KeyTakenAck:              "Great! Marked %s as taken. 💪",
		KeySnoozeAck:             "Okay, I'll remind you about %s again in %d minutes.",
		KeySkipAck:               "Okay, skipping %s for today.",
		KeyGuardianAlert:         "PillSpark alert: %s has not confirmed taking %s. Please check on them.",
	},
	"hi": {
		KeyChooseLanguage:        "PillSpark में आपका स्वागत है! 💊 मैं आपको समय पर दवा लेने की याद दिला सकता हूँ। पहले अपनी भाषा चुनें।",
		KeyLanguageSaved:         "भाषा हिन्दी में सेट हो गई है।",
		KeyAskName:               "बहुत बढ़िया! मैं आपको किस नाम से बुलाऊँ?",
		KeyAskGuardianOnboarding: "आपसे मिलकर अच्छा लगा, %s! अगर आप कोई रिमाइंडर चूक जाएँ तो मैं परिवार के किसी सदस्य को सूचित कर सकता हूँ। उनका नंबर देश कोड के साथ भेजें, या SKIP लिखें।",
		KeyGuardianSaved:         "अभिभावक सेव हो गए। दवा छूटने पर मैं उन्हें सूचित करूँगा।",
		KeyGuardianSkipped:       "कोई बात नहीं, आप बाद में मेनू से अभिभावक सेट कर सकते हैं।",
		KeyGuardianRemoved:       "अभिभावक हटा दिए गए। अब मैं छूटी दवा की सूचना नहीं भेजूँगा।",
		KeyGuardianInvalid:       "यह फ़ोन नंबर जैसा नहीं लगता। देश कोड के साथ अंक भेजें, या SKIP लिखें।",
		KeyMenuHeader:            "PillSpark",
		KeyMenuBody:              "आप क्या करना चाहेंगे?",
		KeyMenuButton:            "मेनू खोलें",
		KeyMenuAddMed:            "दवा जोड़ें",
		KeyMenuAddMedDesc:        "दैनिक रिमाइंडर सेट करें",
		KeyMenuViewMeds:          "मेरी दवाइयाँ",
		KeyMenuViewMedsDesc:      "अपने रिमाइंडर देखें",
		KeyMenuDeleteMed:         "दवा हटाएँ",
		KeyMenuDeleteMedDesc:     "रिमाइंडर हटाएँ",
		KeyMenuSetGuardian:       "अभिभावक सेट करें",
		KeyMenuSetGuardianDesc:   "दवा छूटने पर किसे सूचित करें",
		KeyMenuFeedback:          "प्रतिक्रिया भेजें",
		KeyMenuFeedbackDesc:      "हमें बताएं क्या सुधारें",
		KeyMenuHelp:              "सहायता",
		KeyMenuHelpDesc:          "PillSpark कैसे काम करता है",
		KeyAskMedName:            "दवा का नाम क्या है?",
		KeyMedNameInvalid:        "कृपया दवा का नाम टेक्स्ट में भेजें।",
		KeyAskMedTime:            "मैं आपको किस समय याद दिलाऊँ? समय ऐसे भेजें: 8:00 AM या 20:30।",
		KeyMedTimeInvalid:        "मैं वह समय समझ नहीं पाया। कृपया ऐसे भेजें: 8:00 AM या 20:30।",
		KeyAskMedPhoto:           "चाहें तो दवा की फोटो भेजें ताकि मैं उसे रिमाइंडर में जोड़ सकूँ, या SKIP लिखें।",
		KeyMedSaved:              "हो गया! मैं आपको रोज़ %s लेने की याद %s बजे दिलाऊँगा।",
		KeyNoMeds:                "अभी कोई दवा सेव नहीं है। मेनू से \"दवा जोड़ें\" चुनें।",
		KeyMedListHeader:         "आपकी दवाइयाँ:",
		KeyDeleteHeader:          "दवा हटाएँ",
		KeyDeleteBody:            "किस दवा का रिमाइंडर बंद करूँ?",
		KeyDeleteInvalid:         "वह दवा नहीं मिली। कृपया सूची में से चुनें।",
		KeyMedDeleted:            "%s हटा दी गई। अब मैं उसकी याद नहीं दिलाऊँगा।",
		KeyAskNewGuardian:        "अभिभावक का नंबर देश कोड के साथ भेजें, या मौजूदा अभिभावक हटाने के लिए SKIP लिखें।",
		KeyAskFeedback:           "मैं सुन रहा हूँ! अपनी प्रतिक्रिया संदेश में भेजें।",
		KeyFeedbackThanks:        "प्रतिक्रिया के लिए धन्यवाद! 🙏",
		KeyHelpText:              "PillSpark आपको हर दिन आपके चुने हुए समय पर दवा लेने की याद दिलाता है। रिमाइंडर आने पर Taken, Snooze या Skip दबाएँ। जवाब न देने पर मैं आपके अभिभावक को सूचित कर सकता हूँ। कभी भी \"menu\" भेजें।",
		KeyNotUnderstood:         "माफ़ कीजिए, मैं समझ नहीं पाया। \"menu\" भेजकर देखें कि मैं क्या कर सकता हूँ।",
		KeyGenericError:          "मेरी तरफ़ से कुछ गड़बड़ हो गई। कृपया थोड़ी देर में फिर कोशिश करें।",
		KeyReminderBody:          "⏰ दवा लेने का समय हो गया: %s",
		KeyReminderTaken:         "ले ली ✅",
		KeyReminderSnooze:        "थोड़ी देर में ⏰",
		KeyReminderSkip:          "आज नहीं ❌",
		KeyTakenAck:              "बहुत बढ़िया! %s ली हुई दर्ज कर दी। 💪",
		KeySnoozeAck:             "ठीक है, %s की याद %d मिनट बाद फिर दिलाऊँगा।",
		KeySkipAck:               "ठीक है, आज %s छोड़ रहे हैं।",
		KeyGuardianAlert:         "PillSpark सूचना: %s ने %s लेने की पुष्टि नहीं की है। कृपया उनका हाल पूछें।",
	},
	"es": {
		KeyChooseLanguage:        "¡Bienvenido a PillSpark! 💊 Puedo recordarte tomar tus medicinas a tiempo. Primero, elige tu idioma.",
		KeyLanguageSaved:         "Idioma configurado en español.",
		KeyAskName:               "¡Genial! ¿Cómo debo llamarte?",
		KeyAskGuardianOnboarding: "¡Mucho gusto, %s! Si no respondes a un recordatorio, puedo avisar a un familiar. Envíame su número con código de país, o responde SKIP.",
		KeyGuardianSaved:         "Tutor guardado. Le avisaré si no confirmas una medicina.",
		KeyGuardianSkipped:       "No hay problema, puedes configurar un tutor más tarde desde el menú.",
		KeyGuardianRemoved:       "Tutor eliminado. Ya no enviaré alertas de dosis olvidadas.",
		KeyGuardianInvalid:       "Eso no parece un número de teléfono. Envía dígitos con código de país, o responde SKIP.",
		KeyMenuHeader:            "PillSpark",
		KeyMenuBody:              "¿Qué te gustaría hacer?",
		KeyMenuButton:            "Abrir menú",
		KeyMenuAddMed:            "Agregar medicina",
		KeyMenuAddMedDesc:        "Crear un recordatorio diario",
		KeyMenuViewMeds:          "Mis medicinas",
		KeyMenuViewMedsDesc:      "Ver tus recordatorios",
		KeyMenuDeleteMed:         "Eliminar medicina",
		KeyMenuDeleteMedDesc:     "Quitar un recordatorio",
		KeyMenuSetGuardian:       "Configurar tutor",
		KeyMenuSetGuardianDesc:   "A quién avisar si olvidas una dosis",
		KeyMenuFeedback:          "Enviar comentarios",
		KeyMenuFeedbackDesc:      "Dinos qué mejorar",
		KeyMenuHelp:              "Ayuda",
		KeyMenuHelpDesc:          "Cómo funciona PillSpark",
		KeyAskMedName:            "¿Cómo se llama la medicina?",
		KeyMedNameInvalid:        "Por favor envía el nombre de la medicina como texto.",
		KeyAskMedTime:            "¿A qué hora debo recordarte? Envía una hora como 8:00 AM o 20:30.",
		KeyMedTimeInvalid:        "No entendí esa hora. Envíala como 8:00 AM o 20:30.",
		KeyAskMedPhoto:           "Si quieres, envía una foto de la medicina para incluirla en los recordatorios, o responde SKIP.",
		KeyMedSaved:              "¡Listo! Te recordaré tomar %s todos los días a las %s.",
		KeyNoMeds:                "Aún no tienes medicinas guardadas. Elige \"Agregar medicina\" en el menú.",
		KeyMedListHeader:         "Tus medicinas:",
		KeyDeleteHeader:          "Eliminar medicina",
		KeyDeleteBody:            "¿De qué medicina dejo de recordarte?",
		KeyDeleteInvalid:         "No encontré esa medicina. Elige una de la lista.",
		KeyMedDeleted:            "%s eliminada. Ya no te la recordaré.",
		KeyAskNewGuardian:        "Envía el número del tutor con código de país, o responde SKIP para quitar el tutor actual.",
		KeyAskFeedback:           "¡Te escucho! Envía tus comentarios en un mensaje.",
		KeyFeedbackThanks:        "¡Gracias por tus comentarios! 🙏",
		KeyHelpText:              "PillSpark te recuerda tomar tus medicinas cada día a las horas que elijas. Cuando llegue un recordatorio, toca Taken, Snooze o Skip. Si no respondes, puedo avisar a tu tutor. Envía \"menu\" en cualquier momento.",
		KeyNotUnderstood:         "Perdón, no entendí. Envía \"menu\" para ver lo que puedo hacer.",
		KeyGenericError:          "Algo salió mal de mi lado. Inténtalo de nuevo en un momento.",
		KeyReminderBody:          "⏰ Hora de tomar tu medicina: %s",
		KeyReminderTaken:         "Tomada ✅",
		KeyReminderSnooze:        "Posponer ⏰",
		KeyReminderSkip:          "Omitir ❌",
		KeyTakenAck:              "¡Muy bien! %s marcada como tomada. 💪",
		KeySnoozeAck:             "De acuerdo, te recordaré %s de nuevo en %d minutos.",
		KeySkipAck:               "De acuerdo, omitimos %s por hoy.",
		KeyGuardianAlert:         "Alerta de PillSpark: %s no ha confirmado tomar %s. Por favor comprueba cómo está.",
	},
}
