package skema

import (
	"fmt"
	"reflect"

	json "github.com/goccy/go-json"
)

// Set is an insertion-ordered collection of unique values. Comparable values
// are deduplicated by equality; maps and slices by their JSON encoding.
type Set struct {
	items []any
	cmp   map[any]struct{}
	enc   map[string]struct{}
}

// NewSet builds a set from items, collapsing duplicates.
func NewSet(items ...any) *Set {
	s := &Set{cmp: map[any]struct{}{}, enc: map[string]struct{}{}}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add inserts v and reports whether it was new.
func (s *Set) Add(v any) bool {
	if s.cmp == nil {
		s.cmp = map[any]struct{}{}
		s.enc = map[string]struct{}{}
	}
	if hashable(v) {
		if _, ok := s.cmp[v]; ok {
			return false
		}
		s.cmp[v] = struct{}{}
		s.items = append(s.items, v)
		return true
	}
	k := encodedKey(v)
	if _, ok := s.enc[k]; ok {
		return false
	}
	s.enc[k] = struct{}{}
	s.items = append(s.items, v)
	return true
}

// hashable reports whether v can key a map. Interface fields holding slices
// or maps make an otherwise comparable struct type panic as a key.
func hashable(v any) bool {
	return v == nil || reflect.ValueOf(v).Comparable()
}

// Has reports membership.
func (s *Set) Has(v any) bool {
	if s == nil {
		return false
	}
	if hashable(v) {
		_, ok := s.cmp[v]
		return ok
	}
	_, ok := s.enc[encodedKey(v)]
	return ok
}

// Len returns the number of members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns the members in insertion order.
func (s *Set) Items() []any {
	if s == nil {
		return nil
	}
	return append([]any(nil), s.items...)
}

func encodedKey(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T:%p", v, v)
	}
	return fmt.Sprintf("%T:%s", v, b)
}
