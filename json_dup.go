package skema

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// CodeDuplicateKey marks an object key that appears more than once in raw
// JSON. Decoding into a map keeps only the last occurrence, so duplicates must
// be detected on the token stream.
const CodeDuplicateKey = "duplicate_key"

type dupFrame struct {
	object bool
	keys   map[string]struct{}
	path   Path
	key    string // pending key of an object frame
	index  int    // next element index of an array frame
	expect bool   // object frame expects a key next
}

// DuplicateKeys scans raw JSON and reports every duplicated object key, in
// document order. maxIssues <= 0 means unlimited. Malformed JSON is returned
// as an error.
func DuplicateKeys(data []byte, maxIssues int) (Issues, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var iss Issues
	var stack []*dupFrame

	// childPath returns the path of the value that starts at the current token
	// and advances the parent frame.
	childPath := func() Path {
		if len(stack) == 0 {
			return nil
		}
		top := stack[len(stack)-1]
		if top.object {
			top.expect = true
			return top.path.Field(top.key)
		}
		p := top.path.Index(top.index)
		top.index++
		return p
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return iss, nil
		}
		if err != nil {
			return iss, fmt.Errorf("skema: scanning json: %w", err)
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				p := childPath()
				stack = append(stack, &dupFrame{object: d == '{', keys: map[string]struct{}{}, path: p, expect: true})
			case '}', ']':
				stack = stack[:len(stack)-1]
			}
			continue
		}
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.object && top.expect {
				key, _ := tok.(string)
				if _, dup := top.keys[key]; dup {
					iss = append(iss, Issue{
						Path:    top.path.Field(key),
						Code:    CodeDuplicateKey,
						Message: fmt.Sprintf("key %q is duplicated", key),
						Params:  map[string]any{"key": key},
					})
					if maxIssues > 0 && len(iss) >= maxIssues {
						return iss, nil
					}
				}
				top.keys[key] = struct{}{}
				top.key = key
				top.expect = false
				continue
			}
		}
		childPath()
	}
}
