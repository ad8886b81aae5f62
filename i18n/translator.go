package i18n

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Translator retrieves localized messages for structural issue codes.
// data provides optional values to embed in the message (for example, "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"invalid_type":    "Invalid type",
		"required":        "Required",
		"unknown_key":     "Unrecognized key: {key}",
		"custom":          "Invalid value",
		"no_union_match":  "No union variant matched",
		"no_switch_match": "No switch case matched",
		"tuple_length":    "Expected {expected} items",
		"unhandled_error": "Unhandled error",
	},
	"ja": {
		"invalid_type":    "型が不正です",
		"required":        "必須項目です",
		"unknown_key":     "未知のキーです: {key}",
		"custom":          "値が不正です",
		"no_union_match":  "一致するバリアントがありません",
		"no_switch_match": "一致するケースがありません",
		"tuple_length":    "要素数は{expected}である必要があります",
		"unhandled_error": "予期しないエラーです",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
	matcher                      = language.NewMatcher([]language.Tag{language.English, language.Japanese})
)

// SetLanguage switches the built-in Translator language. Any BCP 47 tag is
// accepted and matched against the supported languages ("en", "ja").
func SetLanguage(lang string) {
	tag, _, _ := matcher.Match(language.Make(lang))
	base, _ := tag.Base()
	code := base.String()
	if _, ok := dictionaries[code]; !ok {
		code = "en"
	}
	SetTranslator(dictTranslator{lang: code})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
