package script

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// ErrorType categorizes script failures.
type ErrorType string

const (
	ErrorTypeSyntax  ErrorType = "syntax_error"
	ErrorTypeRuntime ErrorType = "runtime_error"
	ErrorTypeTimeout ErrorType = "timeout_error"
)

// ErrPoolClosed is returned when an engine is used after Close.
var ErrPoolClosed = errors.New("script: engine closed")

// Error is a structured script failure.
type Error struct {
	Type    ErrorType
	Message string
	Source  string
	Err     error
}

func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("[%s] %s (in %q)", e.Type, e.Message, e.Source)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// wrap classifies a goja error.
func wrap(src string, err error) error {
	if err == nil {
		return nil
	}
	var ie *goja.InterruptedError
	if errors.As(err, &ie) {
		return &Error{Type: ErrorTypeTimeout, Message: ie.String(), Source: src, Err: err}
	}
	var ce *goja.CompilerSyntaxError
	if errors.As(err, &ce) {
		return &Error{Type: ErrorTypeSyntax, Message: ce.Error(), Source: src, Err: err}
	}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return &Error{Type: ErrorTypeRuntime, Message: ex.Value().String(), Source: src, Err: err}
	}
	return &Error{Type: ErrorTypeRuntime, Message: err.Error(), Source: src, Err: err}
}
