package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	assert.Equal(t, "Required", T("required", nil))

	SetLanguage("ja-JP")
	assert.Equal(t, "必須項目です", T("required", nil))

	SetLanguage("fr")
	assert.Equal(t, "Required", T("required", nil), "unsupported languages fall back to English")

	SetLanguage("en")
}

func TestTranslator_Placeholders(t *testing.T) {
	assert.Equal(t, "Unrecognized key: extra", T("unknown_key", map[string]string{"key": "extra"}))
	assert.Equal(t, "no_such_code", T("no_such_code", nil))
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator(t *testing.T) {
	SetTranslator(upper{})
	defer SetTranslator(nil)
	assert.Equal(t, "X:required", T("required", nil))
}
