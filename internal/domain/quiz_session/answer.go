package quizsession

import (
	"bytes"
	"encoding/json"
	"slices"
	"sort"
)

type answerKind uint8

const (
	answerNone answerKind = iota
	answerSingle
	answerSet
)

// Answer is a user's response to one question: nothing, a single option key,
// or a set of option keys. Sets serialize as sorted JSON arrays and single
// keys as JSON strings.
type Answer struct {
	kind answerKind
	key  string
	keys []string
}

func NoAnswer() Answer {
	return Answer{}
}

func Single(key string) Answer {
	return Answer{kind: answerSingle, key: key}
}

// SetOf builds a set answer; duplicate keys collapse.
func SetOf(keys ...string) Answer {
	set := slices.Clone(keys)
	sort.Strings(set)
	set = slices.Compact(set)
	if set == nil {
		set = []string{}
	}
	return Answer{kind: answerSet, keys: set}
}

func (a Answer) IsNone() bool { return a.kind == answerNone }
func (a Answer) IsSingle() bool { return a.kind == answerSingle }
func (a Answer) IsSet() bool { return a.kind == answerSet }

// Key returns the single option key.
func (a Answer) Key() (string, bool) {
	return a.key, a.kind == answerSingle
}

// Keys returns the members of a set answer in sorted order.
func (a Answer) Keys() []string {
	if a.kind != answerSet {
		return nil
	}
	return slices.Clone(a.keys)
}

func (a Answer) Has(key string) bool {
	switch a.kind {
	case answerSingle:
		return a.key == key
	case answerSet:
		_, found := slices.BinarySearch(a.keys, key)
		return found
	}
	return false
}

func (a Answer) Equal(b Answer) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case answerSingle:
		return a.key == b.key
	case answerSet:
		return slices.Equal(a.keys, b.keys)
	}
	return true
}

// Coerce reconciles a decoded answer with the current shape of its question.
// Arrays survive only for multi-select questions; anything else becomes a
// single key or nothing.
func (a Answer) Coerce(multiSelect bool) Answer {
	if a.kind == answerSet && !multiSelect {
		return NoAnswer()
	}
	return a
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case answerSingle:
		return json.Marshal(a.key)
	case answerSet:
		return json.Marshal(a.keys)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts null, a string, or an array. Non-string array members
// are skipped and any other JSON value decodes to no answer.
func (a *Answer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*a = NoAnswer()
		return nil
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Single(s)
	case '[':
		var raw []any
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		keys := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok {
				keys = append(keys, s)
			}
		}
		*a = SetOf(keys...)
	default:
		*a = NoAnswer()
	}
	return nil
}
