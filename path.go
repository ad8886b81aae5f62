package skema

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// PathKey is one segment of a Path: an object property name or a collection index.
type PathKey struct {
	name    string
	index   int
	isIndex bool
}

// Key returns a property segment.
func Key(name string) PathKey { return PathKey{name: name} }

// Index returns a collection index segment.
func Index(i int) PathKey { return PathKey{index: i, isIndex: true} }

// IsIndex reports whether the segment addresses a collection element.
func (k PathKey) IsIndex() bool { return k.isIndex }

// Value returns the segment as a string or an int.
func (k PathKey) Value() any {
	if k.isIndex {
		return k.index
	}
	return k.name
}

func (k PathKey) String() string {
	if k.isIndex {
		return strconv.Itoa(k.index)
	}
	return k.name
}

// Path is an ordered sequence of keys from the root value.
type Path []PathKey

// Field returns a new path extended by a property segment.
func (p Path) Field(name string) Path { return p.Append(Key(name)) }

// Index returns a new path extended by an index segment.
func (p Path) Index(i int) Path { return p.Append(Index(i)) }

// Append returns a copy of p extended by keys. The receiver is never modified,
// so sibling branches can share a parent path.
func (p Path) Append(keys ...PathKey) Path {
	out := make(Path, 0, len(p)+len(keys))
	out = append(out, p...)
	return append(out, keys...)
}

// Keys returns the raw segments (string or int).
func (p Path) Keys() []any {
	out := make([]any, len(p))
	for i, k := range p {
		out[i] = k.Value()
	}
	return out
}

// Pointer renders the path as an RFC 6901 JSON Pointer.
func (p Path) Pointer() string {
	if len(p) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, k := range p {
		b.WriteByte('/')
		// escape '~' -> '~0', '/' -> '~1' per RFC6901
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(k.String(), "~", "~0"), "/", "~1"))
	}
	return b.String()
}

func (p Path) String() string { return p.Pointer() }

// Equal reports whether both paths address the same location.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the path as an array of strings and numbers.
func (p Path) MarshalJSON() ([]byte, error) { return json.Marshal(p.Keys()) }

// Issue creates an Issue at p. kv is an alternating key/value list stored in Params.
func (p Path) Issue(code, msg string, kv ...any) Issue {
	var m map[string]any
	if len(kv) > 1 {
		m = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			m[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	return Issue{Path: p, Code: code, Message: msg, Params: m}
}

// ParsePointer converts a JSON Pointer into a Path. Numeric segments become
// index keys.
func ParsePointer(ptr string) Path {
	if ptr == "" || ptr == "/" {
		return nil
	}
	var out Path
	for _, seg := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		if n, err := strconv.Atoi(seg); err == nil && n >= 0 {
			out = append(out, Index(n))
			continue
		}
		out = append(out, Key(seg))
	}
	return out
}
