// Package i18n provides the per-language message catalog for PillSpark.
//
// The catalog is a lookup table keyed by (language, message key) with a
// defined fallback language. The conversation engine only calls Lookup; the
// string tables themselves are plain data.
package i18n

import "log/slog"

// FallbackLanguage is used when a language or key has no entry.
const FallbackLanguage = "en"

// Language is one selectable language of the catalog.
type Language struct {
	Code string
	Name string
}

// Catalog resolves message keys per language with fallback.
type Catalog struct {
	tables map[string]map[string]string
}

// NewCatalog creates a catalog with the built-in string tables.
func NewCatalog() *Catalog {
	return &Catalog{tables: builtinTables}
}

// Languages returns the selectable languages in display order.
func (c *Catalog) Languages() []Language {
	return []Language{
		{Code: "en", Name: "English"},
		{Code: "hi", Name: "हिन्दी"},
		{Code: "es", Name: "Español"},
	}
}

// Supported reports whether the language code has a table.
func (c *Catalog) Supported(lang string) bool {
	_, ok := c.tables[lang]
	return ok
}

// Lookup returns the message for (lang, key), falling back to the fallback
// language, then to the key itself so a missing entry is visible rather
// than silent.
func (c *Catalog) Lookup(lang, key string) string {
	if table, ok := c.tables[lang]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := c.tables[FallbackLanguage][key]; ok {
		if lang != FallbackLanguage {
			slog.Debug("i18n falling back to default language", "lang", lang, "key", key)
		}
		return msg
	}
	slog.Warn("i18n missing message key", "lang", lang, "key", key)
	return key
}
