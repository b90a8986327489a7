package assignments

import (
	"fmt"

	"github.com/redox-os/ion-sub003/core/ranges"
	"github.com/redox-os/ion-sub003/core/words"
)

// Action assigns one value expression to one key.
type Action struct {
	Key   Key
	Op    Operator
	Value string
	// Array is set if Value expands to an array.
	Array bool
}

// ArityError is returned when keys and values don't pair up.
type ArityError struct {
	Keys   int
	Values int
}

func (e *ArityError) Error() string {
	switch {
	case e.Keys == 0:
		return "no keys supplied"
	case e.Values == 0:
		return "no values supplied"
	case e.Values > e.Keys:
		return fmt.Sprintf("extra values supplied: %d keys, %d values", e.Keys, e.Values)
	default:
		return fmt.Sprintf("extra keys supplied: %d keys, %d values", e.Keys, e.Values)
	}
}

// RepeatedKeyError is returned when a statement assigns a name twice.
type RepeatedKeyError struct {
	Name string
}

func (e *RepeatedKeyError) Error() string {
	return fmt.Sprintf("%q appears more than once", e.Name)
}

// TypeError is returned when a value doesn't fit the type of its key.
type TypeError struct {
	Key   string
	Want  Primitive
	Value string
}

func (e *TypeError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("expected %s, got %q", e.Want, e.Value)
	}
	return fmt.Sprintf("%s: expected %s, got %q", e.Key, e.Want, e.Value)
}

// Actions pairs every key of stmt with its value expression. A statement
// without an operator declares its keys and yields actions without values.
func Actions(stmt Statement) ([]Action, error) {
	keys, err := ParseKeys(stmt.Keys)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, key := range keys {
		id := key.String()
		if seen[id] {
			return nil, &RepeatedKeyError{Name: key.Name}
		}
		seen[id] = true
	}

	if !stmt.HasOp {
		if len(keys) == 0 {
			return nil, nil
		}
		out := make([]Action, len(keys))
		for i, key := range keys {
			out[i] = Action{Key: key, Op: Equal}
		}
		return out, nil
	}

	values := words.SplitArguments(stmt.Value)
	if len(keys) == 0 || len(values) != len(keys) {
		return nil, &ArityError{Keys: len(keys), Values: len(values)}
	}

	out := make([]Action, len(keys))
	for i, key := range keys {
		array := IsArray(values[i])
		if key.Kind.Kind != Any && key.Kind.Kind != Indexed && key.Kind.IsArray() != array {
			return nil, &TypeError{Key: key.Name, Want: key.Kind, Value: values[i]}
		}
		out[i] = Action{Key: key, Op: stmt.Op, Value: values[i], Array: array}
	}
	return out, nil
}

// IsArray reports whether a value expression expands to an array: an
// array literal, array variable, array process or array method, unless it
// selects a single element.
func IsArray(value string) bool {
	segs, err := words.Segments(value, false)
	if err != nil || len(segs) != 1 {
		return false
	}
	seg := segs[0]
	switch seg.Kind {
	case words.ArrayLiteral, words.ArrayVariable, words.ArrayProcess, words.ArrayMethod:
	default:
		return false
	}
	if seg.Quoted {
		return false
	}
	if !seg.HasSelection {
		return true
	}
	switch ranges.ParseSelect(seg.Selection).Kind {
	case ranges.SelectIndex, ranges.SelectKey:
		return false
	}
	return true
}
