package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("invalid_convert", map[string]string{"target": "byte"}); msg != "cannot convert value to byte" {
		t.Fatalf("unexpected english message %q", msg)
	}

	SetLanguage("ja")
	defer SetLanguage("en")
	if msg := T("invalid_convert", map[string]string{"target": "byte"}); msg != "byte に変換できません" {
		t.Fatalf("expected japanese message, got %q", msg)
	}
}

func TestTranslator_UnknownCodeFallsBack(t *testing.T) {
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("expected code echo, got %q", msg)
	}
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator_Custom(t *testing.T) {
	SetTranslator(upper{})
	defer SetTranslator(nil)
	if msg := T("arity", nil); msg != "X:arity" {
		t.Fatalf("custom translator not used: %q", msg)
	}
}
