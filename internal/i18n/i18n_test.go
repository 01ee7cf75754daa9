package i18n

import "testing"

func TestLookupFallsBackToEnglish(t *testing.T) {
	c := NewCatalog()

	if got := c.Lookup("en", KeyMenuBody); got == "" || got == KeyMenuBody {
		t.Fatalf("Lookup(en, %q) = %q, want a message", KeyMenuBody, got)
	}
	// Unknown language resolves via the fallback table.
	if got, want := c.Lookup("fr", KeyMenuBody), c.Lookup("en", KeyMenuBody); got != want {
		t.Errorf("Lookup(fr) = %q, want English fallback %q", got, want)
	}
	// Unknown key returns the key itself so the hole is visible.
	if got := c.Lookup("en", "no_such_key"); got != "no_such_key" {
		t.Errorf("Lookup(en, no_such_key) = %q, want key echoed", got)
	}
}

func TestAllLanguagesCoverEnglishKeys(t *testing.T) {
	c := NewCatalog()
	for _, lang := range c.Languages() {
		if !c.Supported(lang.Code) {
			t.Errorf("language %s advertised but not supported", lang.Code)
		}
		for key := range builtinTables[FallbackLanguage] {
			if _, ok := builtinTables[lang.Code][key]; !ok {
				t.Errorf("language %s missing key %s", lang.Code, key)
			}
		}
	}
}
