// Package types holds the values produced by expansion and stored in
// variables.
package types

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/redox-os/ion-sub003/core/ranges"
)

// Kind is the variant held by a Value.
type Kind int

const (
	KindNone Kind = iota
	KindStr
	KindAlias
	KindArray
	KindHashMap
	KindBTreeMap
	KindFunction
)

var kindNames = map[Kind]string{
	KindNone:     "none",
	KindStr:      "str",
	KindAlias:    "alias",
	KindArray:    "array",
	KindHashMap:  "hmap",
	KindBTreeMap: "bmap",
	KindFunction: "function",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Function describes a user defined shell function.
type Function struct {
	Name        string
	Args        []string
	Description string
	Body        string
}

// Value is the result of an expansion: a string, an alias, a nested array, a
// map, a function or nothing. The zero value is None.
type Value struct {
	kind  Kind
	str   string
	items []Value
	m     *Map
	fn    *Function
}

// None is the empty value.
var None = Value{}

// Str creates a string value.
func Str(s string) Value {
	return Value{kind: KindStr, str: s}
}

// Alias creates an alias value.
func Alias(s string) Value {
	return Value{kind: KindAlias, str: s}
}

// Array creates an array of values.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, items: items}
}

// Strings creates an array of string values.
func Strings(items ...string) Value {
	out := make([]Value, len(items))
	for i, s := range items {
		out[i] = Str(s)
	}
	return Array(out...)
}

// HashMap wraps an insertion ordered map.
func HashMap(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindHashMap, m: m}
}

// BTreeMap wraps a map whose iteration order is sorted by key.
func BTreeMap(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindBTreeMap, m: m}
}

// Func wraps a function definition.
func Func(f *Function) Value {
	return Value{kind: KindFunction, fn: f}
}

// Kind returns the variant of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNone reports whether v holds nothing.
func (v Value) IsNone() bool {
	return v.kind == KindNone
}

// IsArray reports whether v is an array or map, things that expand to many
// words.
func (v Value) IsArray() bool {
	switch v.kind {
	case KindArray, KindHashMap, KindBTreeMap:
		return true
	}
	return false
}

// Items returns the elements of an array, or the values of a map in its
// iteration order. Scalars yield nil.
func (v Value) Items() []Value {
	switch v.kind {
	case KindArray:
		return v.items
	case KindHashMap:
		return v.m.Values()
	case KindBTreeMap:
		return v.m.SortedValues()
	}
	return nil
}

// Map returns the backing map of a HashMap or BTreeMap.
func (v Value) Map() *Map {
	return v.m
}

// Function returns the function held by v, if any.
func (v Value) Function() *Function {
	return v.fn
}

// Keys returns the keys of a map value in iteration order.
func (v Value) Keys() []string {
	switch v.kind {
	case KindHashMap:
		return v.m.Keys()
	case KindBTreeMap:
		return v.m.SortedKeys()
	}
	return nil
}

// Len is the number of elements of an array or map, or the number of
// characters of a string.
func (v Value) Len() int {
	switch v.kind {
	case KindStr, KindAlias:
		return utf8.RuneCountInString(v.str)
	case KindArray:
		return len(v.items)
	case KindHashMap, KindBTreeMap:
		return v.m.Len()
	}
	return 0
}

// Words flattens the value into argument words. Nested arrays contribute their
// string form as a single word.
func (v Value) Words() []string {
	switch v.kind {
	case KindNone:
		return nil
	case KindArray, KindHashMap, KindBTreeMap:
		items := v.Items()
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.String()
		}
		return out
	}
	return []string{v.String()}
}

// String renders the value as a single word, arrays are joined by spaces.
func (v Value) String() string {
	switch v.kind {
	case KindStr, KindAlias:
		return v.str
	case KindArray, KindHashMap, KindBTreeMap:
		return strings.Join(v.Words(), " ")
	case KindFunction:
		if v.fn != nil {
			return v.fn.Name
		}
	}
	return ""
}

// Select filters the value. Arrays select by position, strings by character
// and maps by key. Selecting every element of a map yields its values.
func (v Value) Select(sel ranges.Select) Value {
	switch v.kind {
	case KindStr, KindAlias:
		if sel.Kind == ranges.SelectAll {
			return v
		}
		if sel.Kind == ranges.SelectKey {
			return None
		}
		return Str(string(ranges.Apply([]rune(v.str), sel)))

	case KindArray:
		return Array(ranges.Apply(v.items, sel)...)

	case KindHashMap, KindBTreeMap:
		if sel.Kind == ranges.SelectKey {
			if item, ok := v.m.Get(sel.Key); ok {
				return item
			}
			return None
		}
		return Array(ranges.Apply(v.Items(), sel)...)
	}
	return None
}

// Map is a string keyed map remembering insertion order.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Set stores value under key, keeping the original position of existing keys.
func (m *Map) Set(key string, value Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get looks up key.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Delete removes key.
func (m *Map) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len is the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Keys returns keys in insertion order.
func (m *Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

// SortedKeys returns keys in sorted order.
func (m *Map) SortedKeys() []string {
	keys := m.Keys()
	sort.Strings(keys)
	return keys
}

// Values returns values in insertion order.
func (m *Map) Values() []Value {
	out := make([]Value, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.values[k])
	}
	return out
}

// SortedValues returns values in key order.
func (m *Map) SortedValues() []Value {
	keys := m.SortedKeys()
	out := make([]Value, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.values[k])
	}
	return out
}
