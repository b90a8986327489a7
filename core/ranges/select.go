package ranges

import "strconv"

// SelectKind identifies the variant held by a Select.
type SelectKind int

const (
	// SelectAll picks every element.
	SelectAll SelectKind = iota
	// SelectIndex picks a single element by position.
	SelectIndex
	// SelectRange picks a span of elements.
	SelectRange
	// SelectKey picks a map entry by key.
	SelectKey
)

// Select is a filter over a vector-like or map value.
type Select struct {
	Kind  SelectKind
	Index Index
	Range Range
	Key   string
}

// All selects everything.
func All() Select {
	return Select{Kind: SelectAll}
}

// At selects a single index.
func At(i Index) Select {
	return Select{Kind: SelectIndex, Index: i}
}

// Span selects a range.
func Span(r Range) Select {
	return Select{Kind: SelectRange, Range: r}
}

// Key selects a map entry.
func Key(k string) Select {
	return Select{Kind: SelectKey, Key: k}
}

// ParseSelect interprets the text between the brackets of a `[...]` suffix.
// Anything that isn't "..", an integer or an index range is a key.
func ParseSelect(text string) Select {
	if text == ".." {
		return All()
	}
	if n, err := strconv.Atoi(text); err == nil {
		return At(NewIndex(n))
	}
	if r, ok := ParseIndexRange(text); ok {
		return Span(r)
	}
	return Key(text)
}

func (s Select) String() string {
	switch s.Kind {
	case SelectIndex:
		return s.Index.String()
	case SelectRange:
		return s.Range.String()
	case SelectKey:
		return s.Key
	default:
		return ".."
	}
}

// Apply filters items by the selection, preserving order. Keys are
// meaningless against a plain sequence and select nothing.
func Apply[T any](items []T, s Select) []T {
	switch s.Kind {
	case SelectAll:
		return append([]T(nil), items...)

	case SelectIndex:
		var pos int
		if s.Index.IsBackward() {
			if s.Index.Offset() >= len(items) {
				return nil
			}
			pos = len(items) - 1 - s.Index.Offset()
		} else {
			pos = s.Index.Offset()
		}
		if pos < 0 || pos >= len(items) {
			return nil
		}
		return []T{items[pos]}

	case SelectRange:
		start, count, ok := s.Range.Bounds(len(items))
		if !ok || start >= len(items) {
			return nil
		}
		if count > len(items)-start {
			count = len(items) - start
		}
		return append([]T(nil), items[start:start+count]...)

	default:
		return nil
	}
}
