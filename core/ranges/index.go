// Package ranges implements positional and keyed addressing of arrays and maps:
// indexes that count from either end, ranges of indexes and the Select
// expressions parsed from `[...]` suffixes.
package ranges

import "strconv"

// Index is a position in a vector-like value, counted from the front or the
// back. Backward(0) is the last element.
type Index struct {
	backward bool
	offset   int
}

// Forward returns the index n elements from the start.
func Forward(n int) Index {
	return Index{offset: n}
}

// Backward returns the index n elements from the end, 0 being the last element.
func Backward(n int) Index {
	return Index{backward: true, offset: n}
}

// NewIndex converts a signed integer into an Index: non-negative values count
// from the front and negative values from the back, so -1 is the last element.
func NewIndex(n int) Index {
	if n >= 0 {
		return Forward(n)
	}
	return Backward(-n - 1)
}

// IsBackward reports whether the index counts from the end.
func (i Index) IsBackward() bool {
	return i.backward
}

// Offset is the distance from the end the index counts from.
func (i Index) Offset() int {
	return i.offset
}

// Resolve returns the absolute offset of the index in a vector of the given
// length. Forward indexes always resolve, bounds checking is left to the
// caller. Backward indexes past the start don't resolve.
func (i Index) Resolve(length int) (int, bool) {
	if !i.backward {
		return i.offset, true
	}
	if i.offset < length {
		return length - (i.offset + 1), true
	}
	return 0, false
}

func (i Index) String() string {
	if i.backward {
		return strconv.Itoa(-(i.offset + 1))
	}
	return strconv.Itoa(i.offset)
}
