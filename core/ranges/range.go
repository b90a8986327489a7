package ranges

import (
	"fmt"
	"math"
)

// Range is a span of indexes, either half open [Start, End) or closed
// [Start, End].
type Range struct {
	Start     Index
	End       Index
	Inclusive bool
}

// Exclusive creates the half open range [start, end).
func Exclusive(start, end Index) Range {
	return Range{Start: start, End: end}
}

// Inclusive creates the closed range [start, end].
func Inclusive(start, end Index) Range {
	return Range{Start: start, End: end, Inclusive: true}
}

// From creates a range from start through the last element.
func From(start Index) Range {
	return Inclusive(start, NewIndex(-1))
}

// To creates a range from the first element up to, but excluding, end.
func To(end Index) Range {
	return Exclusive(NewIndex(0), end)
}

// Bounds returns the starting offset and number of elements the range covers
// in a vector of the given length. It returns false if either end can't be
// resolved or the end comes before the start.
func (r Range) Bounds(length int) (start, count int, ok bool) {
	start, ok = r.Start.Resolve(length)
	if !ok {
		return 0, 0, false
	}
	end, ok := r.End.Resolve(length)
	if !ok || end < start {
		return 0, 0, false
	}

	count = end - start
	if r.Inclusive && count < math.MaxInt {
		count++
	}
	return start, count, true
}

func (r Range) String() string {
	op := ".."
	if r.Inclusive {
		op = "..."
	}
	return fmt.Sprintf("%s%s%s", r.Start, op, r.End)
}
