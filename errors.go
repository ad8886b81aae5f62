package skema

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention).
// Named validators report their rule name as the code.
const (
	CodeInvalidType    = "invalid_type"
	CodeRequired       = "required"
	CodeUnknownKey     = "unknown_key"
	CodeCustom         = "custom"
	CodeNoUnionMatch   = "no_union_match"
	CodeNoSwitchMatch  = "no_switch_match"
	CodeTupleLength    = "tuple_length"
	CodeUnhandledError = "unhandled_error"
)

var (
	// ErrUnknownRule is returned at construction when a config names a rule the
	// registry does not know for the schema's data type.
	ErrUnknownRule = errors.New("skema: unknown rule")
	// ErrUnresolvedRef is reported when a named reference has no definition.
	ErrUnresolvedRef = errors.New("skema: unresolved reference")
	// ErrServiceMissing is reported when a required context service is absent.
	ErrServiceMissing = errors.New("skema: service not provided")
)

// Issue represents a single validation entry.
type Issue struct {
	Path    Path           `json:"path"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Rule    string         `json:"rule,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
	Cause   error          `json:"-"`
}

// Issues is the aggregate validation error. It is never empty when returned
// as an error.
type Issues []Issue

// Error returns the first issue's message so generic error handling that reads
// a single message keeps working.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	return iss[0].Message
}

// Summary renders the first few issues as "code at path: message".
func (iss Issues) Summary() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		fmt.Fprintf(b, "%s at %s: %s", it.Code, it.Path.Pointer(), it.Message)
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// Unwrap exposes issue causes to errors.Is/errors.As.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// UnhandledError carries a failure from user code that is not a validation
// outcome, together with the path where it happened.
type UnhandledError struct {
	Path Path
	Err  error
}

func (e *UnhandledError) Error() string {
	return fmt.Sprintf("skema: unhandled error at %s: %v", e.Path.Pointer(), e.Err)
}

func (e *UnhandledError) Unwrap() error { return e.Err }

// unhandled wraps err unless it is already classified.
func unhandled(p Path, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsIssues(err); ok {
		return err
	}
	var ue *UnhandledError
	if errors.As(err, &ue) {
		return err
	}
	return &UnhandledError{Path: p, Err: err}
}

// Classify splits an error returned from a pipeline stage into its issues, or
// reports it as unexpected.
func Classify(err error) (Issues, error) {
	if err == nil {
		return nil, nil
	}
	if iss, ok := AsIssues(err); ok {
		return iss, nil
	}
	return nil, err
}

// Guard runs fn, converting panics and unclassified errors into an
// UnhandledError at p. Composite schemas use it around user callbacks.
func Guard(p Path, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = &UnhandledError{Path: p, Err: fmt.Errorf("panic: %w", e)}
				return
			}
			err = &UnhandledError{Path: p, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return unhandled(p, fn())
}
