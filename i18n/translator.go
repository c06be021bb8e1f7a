package i18n

import (
	"strings"
	"sync/atomic"
)

// Translator retrieves localized messages for error codes.
// data provides optional metadata to embed in the message; placeholders are
// written as {name}.
type Translator interface {
	Message(code string, data map[string]string) string
}

var en = map[string]string{
	"invalid_convert":   "cannot convert value to {target}",
	"odd_pairs":         "odd number of key/value elements for {target}",
	"unhashable_key":    "map key is not comparable in {target}",
	"arity":             "element count mismatch for {target}",
	"codec_generate":    "codec generation failed for {target}",
	"codec_instantiate": "codec instantiation failed for {target}",
	"parse_error":       "parse error",
	"unknown_schema":    "unknown schema {target}",
}

var ja = map[string]string{
	"invalid_convert":   "{target} に変換できません",
	"odd_pairs":         "{target} のキーと値の要素数が奇数です",
	"unhashable_key":    "{target} のマップキーが比較可能ではありません",
	"arity":             "{target} の要素数が一致しません",
	"codec_generate":    "{target} のコーデック生成に失敗しました",
	"codec_instantiate": "{target} のコーデック生成後のインスタンス化に失敗しました",
	"parse_error":       "解析エラー",
	"unknown_schema":    "未知のスキーマ {target} です",
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ dict map[string]string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := t.dict[code]
	if !ok {
		return code
	}
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	args := make([]string, 0, len(data)*2)
	for k, v := range data {
		args = append(args, "{"+k+"}", v)
	}
	return strings.NewReplacer(args...).Replace(msg)
}

type holder struct{ tr Translator }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{tr: dictTranslator{dict: en}}) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang == "ja" {
		current.Store(&holder{tr: dictTranslator{dict: ja}})
		return
	}
	current.Store(&holder{tr: dictTranslator{dict: en}})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores English.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{dict: en}
	}
	current.Store(&holder{tr: tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	return current.Load().tr.Message(code, data)
}
