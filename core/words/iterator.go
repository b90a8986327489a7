package words

import (
	"fmt"
	"io"
	"strings"

	"github.com/redox-os/ion-sub003/core/ranges"
)

// SegmentKind identifies what a Segment holds.
type SegmentKind int

const (
	// Normal is literal text with quotes removed and escapes resolved.
	Normal SegmentKind = iota
	// Whitespace is unquoted whitespace.
	Whitespace
	// Brace is `{a,b,c}` or a `{start..end}` sequence.
	Brace
	// ArrayLiteral is `[a b c]`.
	ArrayLiteral
	// Variable is `$name` or `${name}`.
	Variable
	// ArrayVariable is `@name` or `@{name}`.
	ArrayVariable
	// Process is `$(command)`.
	Process
	// ArrayProcess is `@(command)`.
	ArrayProcess
	// StringMethod is `$method(receiver, args)`.
	StringMethod
	// ArrayMethod is `@method(receiver, args)`.
	ArrayMethod
	// Arithmetic is `$((expression))`.
	Arithmetic
)

var segmentKindNames = []string{
	Normal:        "normal",
	Whitespace:    "whitespace",
	Brace:         "brace",
	ArrayLiteral:  "array",
	Variable:      "variable",
	ArrayVariable: "array-variable",
	Process:       "process",
	ArrayProcess:  "array-process",
	StringMethod:  "string-method",
	ArrayMethod:   "array-method",
	Arithmetic:    "arithmetic",
}

func (k SegmentKind) String() string {
	if int(k) < len(segmentKindNames) {
		return segmentKindNames[k]
	}
	return "unknown"
}

// Segment is one piece of a word.
type Segment struct {
	Kind SegmentKind

	// Text is the literal for Normal and Whitespace segments, the name of a
	// variable, the command of a process, the expression of an arithmetic
	// segment and the receiver of a method.
	Text string
	// Pattern is Text in glob syntax: characters that were quoted or escaped
	// are backslash escaped. Only set for Normal segments.
	Pattern string
	// Elements are the alternatives of a brace or the items of an array
	// literal, unexpanded. A brace with a single element is a sequence.
	Elements []string

	// Method is the name of a StringMethod or ArrayMethod and Args the raw
	// text after the first comma.
	Method  string
	Args    string
	HasArgs bool

	// Quoted is set for text inside quotes and expansions inside double
	// quotes.
	Quoted bool
	// Glob is set if a Normal segment holds an unquoted glob metacharacter.
	Glob bool
	// Tilde is set if a Normal segment starts the word with an unquoted ~.
	Tilde bool

	// Selection is the raw text of a `[...]` suffix.
	Selection    string
	HasSelection bool
}

// Select parses the selection suffix, All if there is none. The selection
// text must already be expanded.
func (s Segment) Select() ranges.Select {
	if !s.HasSelection {
		return ranges.All()
	}
	return ranges.ParseSelect(s.Selection)
}

// UnterminatedError reports an expansion or quote left open in a word.
type UnterminatedError struct {
	Construct string
	Pos       int
}

func (e *UnterminatedError) Error() string {
	return fmt.Sprintf("unterminated %s at position %d", e.Construct, e.Pos)
}

// Iterator lazily breaks a word into segments.
type Iterator struct {
	data string
	pos  int
	glob bool

	squote, dquote bool
	quoteAt        int
	quoteEmitted   int
	emitted        int

	lit        strings.Builder
	pat        strings.Builder
	litStarted bool
	litQuoted  bool
	litGlob    bool
	litTilde   bool
	wordStart  bool

	queue []Segment
	done  bool
}

// NewIterator creates an Iterator over word. Glob metacharacters are only
// flagged if glob is true.
func NewIterator(word string, glob bool) *Iterator {
	return &Iterator{data: word, glob: glob, wordStart: true}
}

// Next returns the next segment or io.EOF.
func (it *Iterator) Next() (Segment, error) {
	for len(it.queue) == 0 {
		if it.done {
			return Segment{}, io.EOF
		}
		if err := it.step(); err != nil {
			it.done = true
			it.queue = nil
			return Segment{}, err
		}
	}

	seg := it.queue[0]
	it.queue = it.queue[1:]
	return seg, nil
}

// Segments collects every segment of word.
func Segments(word string, glob bool) ([]Segment, error) {
	var out []Segment
	it := NewIterator(word, glob)
	for {
		seg, err := it.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
}

func (it *Iterator) emit(seg Segment) {
	it.queue = append(it.queue, seg)
	it.emitted++
	it.wordStart = seg.Kind == Whitespace
}

// closeQuote flushes quoted text. Empty quotes still produce a segment so
// that a pair of empty quotes expands to an empty word.
func (it *Iterator) closeQuote() {
	it.flush()
	if it.emitted == it.quoteEmitted {
		it.emit(Segment{Kind: Normal, Quoted: true})
	}
}

func (it *Iterator) flush() {
	if !it.litStarted {
		return
	}
	it.emit(Segment{
		Kind:    Normal,
		Text:    it.lit.String(),
		Pattern: it.pat.String(),
		Quoted:  it.litQuoted,
		Glob:    it.litGlob,
		Tilde:   it.litTilde,
	})
	it.lit.Reset()
	it.pat.Reset()
	it.litStarted, it.litQuoted, it.litGlob, it.litTilde = false, false, false, false
}

// literal appends a character that has no special meaning.
func (it *Iterator) literal(c byte) {
	if it.squote || it.dquote {
		if it.litStarted && !it.litQuoted {
			it.flush()
		}
		it.litQuoted = true
	}
	it.litStarted = true
	it.lit.WriteByte(c)
	if isGlobMeta(c) {
		it.pat.WriteByte('\\')
	}
	it.pat.WriteByte(c)
}

// meta appends an unquoted glob metacharacter or class.
func (it *Iterator) meta(text string) {
	if !it.glob {
		for i := 0; i < len(text); i++ {
			it.literal(text[i])
		}
		return
	}
	it.litStarted = true
	it.litGlob = true
	it.lit.WriteString(text)
	it.pat.WriteString(text)
}

func (it *Iterator) at(i int) byte {
	if i < len(it.data) {
		return it.data[i]
	}
	return 0
}

func (it *Iterator) step() error {
	if it.pos >= len(it.data) {
		if it.squote || it.dquote {
			name := "single quote"
			if it.dquote {
				name = "double quote"
			}
			return &UnterminatedError{Construct: name, Pos: it.quoteAt}
		}
		it.flush()
		it.done = true
		return nil
	}

	c := it.data[it.pos]

	switch {
	case it.squote:
		if c == '\'' {
			it.closeQuote()
			it.squote = false
		} else {
			it.literal(c)
		}
		it.pos++
		return nil

	case it.dquote:
		switch c {
		case '"':
			it.closeQuote()
			it.dquote = false
			it.pos++
		case '\\':
			next := it.at(it.pos + 1)
			switch next {
			case '$', '@', '"', '\\', '`':
				it.literal(next)
				it.pos += 2
			case '\n':
				it.pos += 2
			default:
				it.literal(c)
				it.pos++
			}
		case '$', '@':
			return it.expansion(true)
		default:
			it.literal(c)
			it.pos++
		}
		return nil
	}

	switch {
	case c == '\'' || c == '"':
		it.flush()
		it.quoteEmitted = it.emitted
		it.squote = c == '\''
		it.dquote = c == '"'
		it.quoteAt = it.pos
		it.pos++

	case c == '\\':
		if it.pos+1 < len(it.data) {
			it.literal(it.data[it.pos+1])
			it.pos += 2
		} else {
			it.literal(c)
			it.pos++
		}

	case isSpace(c):
		it.flush()
		start := it.pos
		for it.pos < len(it.data) && isSpace(it.data[it.pos]) {
			it.pos++
		}
		it.emit(Segment{Kind: Whitespace, Text: it.data[start:it.pos]})

	case c == '~' && it.wordStart && !it.litStarted:
		it.litTilde = true
		it.literal(c)
		it.pos++

	case c == '*' || c == '?':
		it.meta(string(c))
		it.pos++

	case c == '{':
		if !it.braces() {
			it.literal(c)
			it.pos++
		}

	case c == '[':
		return it.bracket()

	case c == '$' || c == '@':
		return it.expansion(false)

	default:
		it.literal(c)
		it.pos++
	}
	if it.litStarted {
		it.wordStart = false
	}
	return nil
}

// braces consumes a brace expansion, reporting false if the brace at the
// current position is literal.
func (it *Iterator) braces() bool {
	end, ok := matchClose(it.data, it.pos)
	if !ok {
		return false
	}
	inner := it.data[it.pos+1 : end]
	elements := SplitTopLevel(inner, ',')
	if len(elements) == 1 {
		if _, ok := ranges.ParseSequence(inner); !ok {
			return false
		}
	}

	it.flush()
	it.emit(Segment{Kind: Brace, Elements: elements})
	it.pos = end + 1
	return true
}

// bracket handles `[`: an array literal at the start of a word, otherwise
// a glob character class.
func (it *Iterator) bracket() error {
	end, ok := matchClose(it.data, it.pos)
	if !ok {
		it.literal('[')
		it.pos++
		return nil
	}

	next := it.at(end + 1)
	startsWord := it.wordStart && !it.litStarted
	if !startsWord || (next != 0 && next != '[' && !isSpace(next)) {
		it.meta(it.data[it.pos : end+1])
		it.pos = end + 1
		it.wordStart = false
		return nil
	}

	seg := Segment{
		Kind:     ArrayLiteral,
		Elements: SplitArguments(it.data[it.pos+1 : end]),
	}
	if seg.Elements == nil {
		seg.Elements = []string{}
	}
	it.pos = end + 1
	if err := it.selection(&seg); err != nil {
		return err
	}
	it.flush()
	it.emit(seg)
	return nil
}

// expansion handles `$` and `@`.
func (it *Iterator) expansion(quoted bool) error {
	sigil := it.data[it.pos]
	start := it.pos
	next := it.at(it.pos + 1)

	seg := Segment{Quoted: quoted}

	switch {
	case next == '(' && sigil == '$' && it.at(it.pos+2) == '(':
		if expr, end, ok := arithmetic(it.data, it.pos+1); ok {
			seg.Kind = Arithmetic
			seg.Text = expr
			it.pos = end
			break
		}
		fallthrough

	case next == '(':
		end, ok := matchClose(it.data, it.pos+1)
		if !ok {
			return &UnterminatedError{Construct: "command substitution", Pos: start}
		}
		seg.Kind = Process
		if sigil == '@' {
			seg.Kind = ArrayProcess
		}
		seg.Text = it.data[it.pos+2 : end]
		it.pos = end + 1

	case next == '{':
		end, ok := matchClose(it.data, it.pos+1)
		if !ok {
			return &UnterminatedError{Construct: "braced variable", Pos: start}
		}
		seg.Kind = Variable
		if sigil == '@' {
			seg.Kind = ArrayVariable
		}
		name := it.data[it.pos+2 : end]
		if i := strings.IndexByte(name, '['); i >= 0 && strings.HasSuffix(name, "]") {
			seg.Selection = name[i+1 : len(name)-1]
			seg.HasSelection = true
			name = name[:i]
		}
		seg.Text = name
		it.pos = end + 1

	case isIdent(next):
		nameEnd := it.pos + 1
		for nameEnd < len(it.data) && isIdent(it.data[nameEnd]) {
			nameEnd++
		}
		name := it.data[it.pos+1 : nameEnd]

		if it.at(nameEnd) == '(' {
			end, ok := matchClose(it.data, nameEnd)
			if !ok {
				return &UnterminatedError{Construct: "method", Pos: start}
			}
			seg.Kind = StringMethod
			if sigil == '@' {
				seg.Kind = ArrayMethod
			}
			seg.Method = name
			parts := SplitTopLevel(it.data[nameEnd+1:end], ',')
			seg.Text = strings.TrimSpace(parts[0])
			if len(parts) > 1 {
				seg.HasArgs = true
				seg.Args = strings.TrimSpace(strings.Join(parts[1:], ","))
			}
			it.pos = end + 1
			break
		}

		seg.Kind = Variable
		if sigil == '@' {
			seg.Kind = ArrayVariable
		}
		seg.Text = name
		it.pos = nameEnd

	case sigil == '$' && strings.IndexByte("?$!#", next) >= 0 && next != 0:
		seg.Kind = Variable
		seg.Text = string(next)
		it.pos += 2

	default:
		it.literal(sigil)
		it.pos++
		return nil
	}

	if err := it.selection(&seg); err != nil {
		return err
	}
	it.flush()
	it.emit(seg)
	return nil
}

// selection consumes an optional `[...]` suffix.
func (it *Iterator) selection(seg *Segment) error {
	if it.at(it.pos) != '[' {
		return nil
	}
	end, ok := matchClose(it.data, it.pos)
	if !ok {
		return &UnterminatedError{Construct: "selection", Pos: it.pos}
	}
	seg.Selection = it.data[it.pos+1 : end]
	seg.HasSelection = true
	it.pos = end + 1
	return nil
}

// arithmetic parses `((expr))` starting at the first paren, returning the
// expression and the position after the closing parens.
func arithmetic(data string, open int) (string, int, bool) {
	inner := open + 1
	end, ok := matchClose(data, inner)
	if !ok || end+1 >= len(data) || data[end+1] != ')' {
		return "", 0, false
	}
	return data[inner+1 : end], end + 2, true
}

// matchClose finds the bracket closing the one at data[open]. Quotes are
// skipped and every bracket kind nests.
func matchClose(data string, open int) (int, bool) {
	stack := []byte{closerOf(data[open])}
	var squote, dquote bool

	for i := open + 1; i < len(data); i++ {
		c := data[i]
		switch {
		case squote:
			if c == '\'' {
				squote = false
			}
		case c == '\\':
			i++
		case dquote:
			if c == '"' {
				dquote = false
			}
		case c == '\'':
			squote = true
		case c == '"':
			dquote = true
		case c == '(' || c == '[' || c == '{':
			stack = append(stack, closerOf(c))
		case c == ')' || c == ']' || c == '}':
			if c != stack[len(stack)-1] {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// SplitTopLevel splits data at sep outside quotes and brackets.
func SplitTopLevel(data string, sep byte) []string {
	var (
		out            []string
		start, depth   int
		squote, dquote bool
	)
	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case squote:
			if c == '\'' {
				squote = false
			}
		case c == '\\':
			i++
		case dquote:
			if c == '"' {
				dquote = false
			}
		case c == '\'':
			squote = true
		case c == '"':
			dquote = true
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			out = append(out, data[start:i])
			start = i + 1
		}
	}
	return append(out, data[start:])
}

func closerOf(c byte) byte {
	switch c {
	case '(':
		return ')'
	case '[':
		return ']'
	default:
		return '}'
	}
}

func isIdent(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isGlobMeta(c byte) bool {
	switch c {
	case '*', '?', '[', ']', '\\':
		return true
	}
	return false
}
