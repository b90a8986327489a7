package ranges

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseIndexRange parses `start..end`, `start...end`, `start..=end`, `..end`
// and `start..` where both ends are signed integers.
func ParseIndexRange(text string) (Range, bool) {
	i := 0
	for i < len(text) && (isDigit(text[i]) || text[i] == '-') {
		i++
	}
	if i == len(text) || text[i] != '.' {
		return Range{}, false
	}

	dots := 0
	for j := i; j < len(text) && text[j] == '.'; j++ {
		dots++
	}
	if dots < 2 || dots > 3 {
		return Range{}, false
	}

	first := text[:i]
	rest := text[i+dots:]
	inclusive := dots == 3
	if dots == 2 && strings.HasPrefix(rest, "=") {
		inclusive = true
		rest = rest[1:]
	}

	switch {
	case first == "" && rest == "":
		return Range{}, false
	case first == "":
		end, err := strconv.Atoi(rest)
		if err != nil {
			return Range{}, false
		}
		if inclusive {
			return Inclusive(NewIndex(0), NewIndex(end)), true
		}
		return To(NewIndex(end)), true
	case rest == "":
		start, err := strconv.Atoi(first)
		if err != nil {
			return Range{}, false
		}
		return From(NewIndex(start)), true
	}

	start, err := strconv.Atoi(first)
	if err != nil {
		return Range{}, false
	}
	end, err := strconv.Atoi(rest)
	if err != nil {
		return Range{}, false
	}
	if inclusive {
		return Inclusive(NewIndex(start), NewIndex(end)), true
	}
	return Exclusive(NewIndex(start), NewIndex(end)), true
}

// Sequence is a brace range such as `1..10`, `a...e` or `00..2..10`.
type Sequence struct {
	start, end int
	step       int
	inclusive  bool
	chars      bool
	width      int
}

// ParseSequence parses the body of a `{start..end}` brace range:
//
//	{start..end}         exclusive
//	{start...end}        inclusive, also {start..=end}
//	{start..step..end}   exclusive, stepped
//	{start..step...end}  inclusive, stepped
//
// Both ends are integers or both are single ASCII letters. The sign of the
// step is ignored, the direction comes from the ends.
func ParseSequence(text string) (Sequence, bool) {
	parts := strings.Split(text, "..")
	last := len(parts) - 1
	if last < 1 || last > 2 {
		return Sequence{}, false
	}

	inclusive := strings.HasPrefix(parts[last], ".") || strings.HasPrefix(parts[last], "=")
	if inclusive {
		parts[last] = parts[last][1:]
	}

	step := 1
	if last == 2 {
		n, err := strconv.Atoi(parts[1])
		if err != nil || n == 0 {
			return Sequence{}, false
		}
		if n < 0 {
			n = -n
		}
		if n < 0 {
			return Sequence{}, false
		}
		step = n
	}

	startText, endText := parts[0], parts[last]
	start, startErr := strconv.Atoi(startText)
	end, endErr := strconv.Atoi(endText)
	if startErr == nil && endErr == nil {
		width := minimumDigits(startText)
		if w := minimumDigits(endText); w > width {
			width = w
		}
		return Sequence{start: start, end: end, step: step, inclusive: inclusive, width: width}, true
	}

	if len(startText) != 1 || len(endText) != 1 || !isLetter(startText[0]) || !isLetter(endText[0]) {
		return Sequence{}, false
	}
	return Sequence{
		start:     int(startText[0]),
		end:       int(endText[0]),
		step:      step,
		inclusive: inclusive,
		chars:     true,
	}, true
}

// Len is the number of items the sequence produces. Sequences longer than
// math.MaxInt report math.MaxInt.
func (s Sequence) Len() int {
	var dist uint64
	if s.end >= s.start {
		dist = uint64(s.end) - uint64(s.start)
	} else {
		dist = uint64(s.start) - uint64(s.end)
	}
	if dist == 0 {
		if s.inclusive {
			return 1
		}
		return 0
	}

	step := uint64(s.step)
	var q uint64
	if s.inclusive {
		q = dist / step
	} else {
		q = (dist - 1) / step
	}
	if q >= math.MaxInt {
		return math.MaxInt
	}
	return int(q) + 1
}

// Each calls fn with every item of the sequence in order until fn returns
// false.
func (s Sequence) Each(fn func(string) bool) {
	dir := 1
	if s.end < s.start {
		dir = -1
	}
	v := s.start
	for i, n := 0, s.Len(); i < n; i++ {
		if !fn(s.format(v)) {
			return
		}
		v += dir * s.step
	}
}

// Items collects the sequence.
func (s Sequence) Items() []string {
	out := make([]string, 0, s.Len())
	s.Each(func(item string) bool {
		out = append(out, item)
		return true
	})
	return out
}

func (s Sequence) format(v int) string {
	if s.chars {
		return string(rune(v))
	}
	if s.width > 0 {
		return fmt.Sprintf("%0*d", s.width, v)
	}
	return strconv.Itoa(v)
}

// minimumDigits returns the padded width of a zero-prefixed integer such as
// "007" or "-05", or 0 if the number isn't padded.
func minimumDigits(num string) int {
	digits := strings.TrimPrefix(num, "-")
	if len(digits) > 1 && digits[0] == '0' {
		return len(num)
	}
	return 0
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
