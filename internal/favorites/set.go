// internal/favorites/set.go
package favorites

import (
	"encoding/json"
	"fmt"
)

// Set is an insertion-ordered set of product ids. Its methods never modify
// the receiver.
type Set struct {
	ids []string
}

func NewSet(ids ...string) Set {
	s := Set{}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	return s
}

func (s Set) Has(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

func (s Set) Len() int {
	return len(s.ids)
}

// IDs returns a copy of the ids in insertion order.
func (s Set) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Toggled returns a copy with id removed if present, appended otherwise.
func (s Set) Toggled(id string) Set {
	out := make([]string, 0, len(s.ids)+1)
	found := false
	for _, v := range s.ids {
		if v == id {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, id)
	}
	return Set{ids: out}
}

// Encode serializes the set as a JSON array of strings; the empty set is [].
func (s Set) Encode() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// Decode parses a JSON array of ids, keeping the first of any duplicates.
func Decode(raw []byte) (Set, error) {
	if len(raw) == 0 {
		return Set{}, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return Set{}, fmt.Errorf("favorites record is not a list of ids: %w", err)
	}
	return NewSet(ids...), nil
}
