package skema

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MessageContext is passed to message producers.
type MessageContext struct {
	Label    string
	Value    any
	Path     Path
	DataType DataType
	User     any
	Args     any
	Schema   Schema
	Rule     string
}

// MessageFunc produces an issue message.
type MessageFunc func(MessageContext) string

// Text adapts a fixed string to a MessageFunc.
func Text(s string) MessageFunc { return func(MessageContext) string { return s } }

// Sprintf builds a message with the label as the first argument.
func Sprintf(format string, args ...any) MessageFunc {
	return func(m MessageContext) string { return fmt.Sprintf(format, append([]any{m.Label}, args...)...) }
}

// defaultLabel capitalizes the data type name. Casers are stateful, so each
// call gets its own.
func defaultLabel(dt DataType) string { return cases.Title(language.Und).String(string(dt)) }

// resolveMessage tries each candidate in order and falls back to a generic
// message naming the data type and rule.
func resolveMessage(mc MessageContext, candidates ...MessageFunc) string {
	for _, fn := range candidates {
		if fn != nil {
			return fn(mc)
		}
	}
	return fmt.Sprintf("Validation failed for %s.%s", mc.DataType, mc.Rule)
}
