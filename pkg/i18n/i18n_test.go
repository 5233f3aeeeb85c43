package i18n

import (
	"testing"
)

func TestLang(t *testing.T) {
	l := NewLocalizer("ru", "en")

	if got := l.Get("en", ERROR_BUSY); got == ERROR_BUSY {
		t.Fatalf("expected localized message for %s, got raw id", ERROR_BUSY)
	}
	if got := l.Get("ru", MESSAGE_MODEL_OFFLINE_FALLBACK); got == MESSAGE_MODEL_OFFLINE_FALLBACK {
		t.Fatalf("expected localized message for %s, got raw id", MESSAGE_MODEL_OFFLINE_FALLBACK)
	}

	// unknown language falls back to the id
	if got := l.Get("fr", ERROR_BUSY); got != ERROR_BUSY {
		t.Fatalf("expected raw id for unknown lang, got %s", got)
	}
}
