// Package terminator finds the end of logical statements in a stream of shell
// input. A statement may span several physical lines when quotes, brackets,
// heredocs, line continuations or trailing && and || are open.
package terminator

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// QuoteState is the lexical mode the scanner is in.
type QuoteState int

const (
	Unquoted QuoteState = iota
	Single
	Double
	// BackslashEscape holds for the single byte after a backslash.
	BackslashEscape
	// HereString lasts from `<<<` to the end of the word.
	HereString
	// HereDoc consumes body lines until every pending tag line is seen.
	HereDoc
)

var quoteStateNames = []string{
	Unquoted:        "unquoted",
	Single:          "single quote",
	Double:          "double quote",
	BackslashEscape: "escape",
	HereString:      "herestring",
	HereDoc:         "heredoc",
}

func (q QuoteState) String() string {
	if int(q) < len(quoteStateNames) {
		return quoteStateNames[q]
	}
	return "unknown"
}

// Status is the outcome of a call to Next.
type Status int

const (
	// Complete means Result.Statement holds a full statement.
	Complete Status = iota
	// NeedMoreInput means the buffered input ends inside a statement, or no
	// input is buffered yet. Write more and call Next again.
	NeedMoreInput
	// Exhausted means the input was closed and everything was consumed.
	Exhausted
)

func (s Status) String() string {
	switch s {
	case Complete:
		return "complete"
	case NeedMoreInput:
		return "need more input"
	default:
		return "exhausted"
	}
}

// Result is a statement found by the Terminator.
type Result struct {
	Status    Status
	Statement string
	// Offset is where the statement starts in the stream.
	Offset int
}

// UnterminatedError is returned when the input is closed while a construct is
// still open.
type UnterminatedError struct {
	// Construct is a human readable name of what was left open, e.g. "double
	// quote" or "subshell".
	Construct string
	// Offset is the stream position of the byte that opened the construct.
	Offset int
}

func (e *UnterminatedError) Error() string {
	return fmt.Sprintf("unterminated %s starting at byte %d", e.Construct, e.Offset)
}

// Terminator buffers input until it contains a full statement.
type Terminator struct {
	buf    []byte
	base   int
	closed bool
}

// New creates an empty Terminator.
func New() *Terminator {
	return &Terminator{}
}

// Write buffers more input. It never fails.
func (t *Terminator) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	return len(p), nil
}

// WriteString buffers more input.
func (t *Terminator) WriteString(s string) (int, error) {
	t.buf = append(t.buf, s...)
	return len(s), nil
}

// Close marks the end of input. Statements still open afterwards are
// malformed.
func (t *Terminator) Close() error {
	t.closed = true
	return nil
}

// Buffered is the number of bytes not yet returned in a statement.
func (t *Terminator) Buffered() int {
	return len(t.buf)
}

// Reset discards buffered input, e.g. after the user interrupts a partial
// statement.
func (t *Terminator) Reset() {
	t.base += len(t.buf)
	t.buf = nil
	t.closed = false
}

// Next returns the next statement from the buffered input.
func (t *Terminator) Next() (Result, error) {
	s := scanner{buf: t.buf, closed: t.closed, base: t.base}
	res, consumed, err := s.scan()
	if err != nil {
		return Result{}, err
	}
	if consumed > 0 {
		t.buf = t.buf[consumed:]
		t.base += consumed
	}
	return res, nil
}

// Statements reads r until EOF and returns every statement in it.
func Statements(r io.Reader) ([]string, error) {
	t := New()
	var out []string

	br := bufio.NewReader(r)
	for {
		line, readErr := br.ReadBytes('\n')
		t.Write(line)
		if readErr == io.EOF {
			t.Close()
		} else if readErr != nil {
			return out, readErr
		}

		for {
			res, err := t.Next()
			if err != nil {
				return out, err
			}
			if res.Status != Complete {
				break
			}
			out = append(out, res.Statement)
		}

		if readErr == io.EOF {
			return out, nil
		}
	}
}

// Split returns every statement in input.
func Split(input string) ([]string, error) {
	return Statements(strings.NewReader(input))
}

type opener struct {
	kind   byte
	offset int
}

type heredoc struct {
	tag    string
	offset int
}

// scanner holds the state of a single Next call.
type scanner struct {
	buf    []byte
	base   int
	closed bool

	pos   int
	start int
	out   bytes.Buffer

	quote   QuoteState
	quoteAt int
	// escaped is the state a BackslashEscape returns to.
	escaped QuoteState
	stack   []opener

	heredocs  []heredoc
	andOr     bool
	andOrAt   int
	started   bool
	wordStart bool
}

func (s *scanner) needMore() (Result, int, error) {
	return Result{Status: NeedMoreInput}, 0, nil
}

func (s *scanner) complete(end int) (Result, int, error) {
	return Result{Status: Complete, Statement: s.out.String(), Offset: s.base + s.start}, end, nil
}

func (s *scanner) peek(n int) (byte, bool) {
	if s.pos+n < len(s.buf) {
		return s.buf[s.pos+n], true
	}
	return 0, false
}

func (s *scanner) scan() (Result, int, error) {
	s.wordStart = true

	for s.pos < len(s.buf) {
		c := s.buf[s.pos]

		switch s.quote {
		case Single:
			s.out.WriteByte(c)
			s.pos++
			if c == '\'' {
				s.quote = Unquoted
			}
			continue

		case BackslashEscape:
			s.quote = s.escaped
			s.pos++
			if c == '\n' {
				// Line continuation.
				continue
			}
			if s.quote == Double {
				s.out.WriteByte('\\')
			} else {
				s.write('\\')
			}
			s.out.WriteByte(c)
			continue

		case HereDoc:
			if !s.heredocBodies() {
				if !s.closed {
					return s.needMore()
				}
				return Result{}, 0, &UnterminatedError{Construct: HereDoc.String(), Offset: s.base + s.heredocs[0].offset}
			}
			s.quote = Unquoted
			// The newline ending the last tag line terminates the statement.
			if len(s.stack) == 0 && !s.andOr {
				return s.complete(s.pos)
			}
			s.out.WriteByte('\n')
			s.wordStart = true
			continue

		case Double:
			if c == '\\' {
				s.escaped = Double
				s.quote = BackslashEscape
				s.pos++
				continue
			}
			s.out.WriteByte(c)
			s.pos++
			if c == '"' {
				s.quote = Unquoted
			}
			continue
		}

		switch {
		case c == '\\':
			s.escaped = s.quote
			s.quote = BackslashEscape
			s.pos++

		case c == '\'' || c == '"':
			s.quote = Single
			if c == '"' {
				s.quote = Double
			}
			s.quoteAt = s.pos
			s.write(c)
			s.pos++

		case c == '#' && s.wordStart && s.quote != HereString:
			eol := bytes.IndexByte(s.buf[s.pos:], '\n')
			if !s.started {
				// A line holding only a comment is dropped entirely.
				if eol < 0 {
					if !s.closed {
						return s.needMore()
					}
					s.pos = len(s.buf)
				} else {
					s.pos += eol + 1
				}
				s.out.Reset()
				s.start = s.pos
				continue
			}
			if eol < 0 {
				s.pos = len(s.buf)
			} else {
				s.pos += eol
			}

		case (c == '$' || c == '@'):
			next, ok := s.peek(1)
			if !ok && !s.closed {
				return s.needMore()
			}
			s.write(c)
			s.pos++
			if next == '(' || next == '{' {
				s.stack = append(s.stack, opener{kind: next, offset: s.pos - 1})
				s.out.WriteByte(next)
				s.pos++
			}

		case c == '(' && s.top() == '(':
			s.stack = append(s.stack, opener{kind: '(', offset: s.pos})
			s.write(c)
			s.pos++

		case c == '[':
			s.stack = append(s.stack, opener{kind: '[', offset: s.pos})
			s.write(c)
			s.pos++

		case c == '{' && s.top() == '{':
			s.stack = append(s.stack, opener{kind: '{', offset: s.pos})
			s.write(c)
			s.pos++

		case (c == ')' && s.top() == '(') || (c == ']' && s.top() == '[') || (c == '}' && s.top() == '{'):
			s.stack = s.stack[:len(s.stack)-1]
			s.write(c)
			s.pos++

		case c == '<' && bytes.HasPrefix(s.buf[s.pos:], []byte("<<<")):
			s.write(c)
			s.out.WriteString("<<")
			s.pos += 3
			s.quote = HereString

		case c == '<' && bytes.HasPrefix(s.buf[s.pos:], []byte("<<")):
			if len(s.buf)-s.pos < 3 && !s.closed {
				return s.needMore()
			}
			s.heredocTag()

		case (c == '&' || c == '|'):
			next, ok := s.peek(1)
			if !ok && !s.closed {
				return s.needMore()
			}
			s.write(c)
			s.pos++
			if next == c {
				s.out.WriteByte(next)
				s.andOr = true
				s.andOrAt = s.pos - 1
				s.pos++
			}

		case c == ';' && len(s.stack) == 0:
			return s.complete(s.pos + 1)

		case c == '\n':
			s.quote = Unquoted
			if len(s.heredocs) > 0 {
				s.out.WriteByte('\n')
				s.pos++
				s.quote = HereDoc
				s.quoteAt = s.heredocs[0].offset
				continue
			}
			if len(s.stack) == 0 && !s.andOr {
				return s.complete(s.pos + 1)
			}
			s.out.WriteByte('\n')
			s.pos++
			s.wordStart = true

		case c == ' ' || c == '\t' || c == '\r':
			s.out.WriteByte(c)
			s.pos++
			s.wordStart = true
			s.quote = Unquoted

		default:
			s.write(c)
			s.pos++
		}
	}

	if !s.closed {
		return s.needMore()
	}

	if s.quote == BackslashEscape {
		// A trailing backslash is kept literally.
		s.quote = s.escaped
		if s.quote == Double {
			s.out.WriteByte('\\')
		} else {
			s.write('\\')
		}
	}
	if s.quote == HereString {
		s.quote = Unquoted
	}

	switch {
	case s.quote != Unquoted:
		return Result{}, 0, &UnterminatedError{Construct: s.quote.String(), Offset: s.base + s.quoteAt}
	case len(s.stack) > 0:
		top := s.stack[len(s.stack)-1]
		return Result{}, 0, &UnterminatedError{Construct: openerName(top.kind), Offset: s.base + top.offset}
	case len(s.heredocs) > 0:
		return Result{}, 0, &UnterminatedError{Construct: HereDoc.String(), Offset: s.base + s.heredocs[0].offset}
	case s.andOr:
		return Result{}, 0, &UnterminatedError{Construct: "and/or list", Offset: s.base + s.andOrAt}
	case s.start == len(s.buf):
		return Result{Status: Exhausted}, len(s.buf), nil
	}
	return s.complete(len(s.buf))
}

// write records a significant byte.
func (s *scanner) write(c byte) {
	s.out.WriteByte(c)
	s.started = true
	s.wordStart = false
	s.andOr = false
}

func (s *scanner) top() byte {
	if len(s.stack) == 0 {
		return 0
	}
	return s.stack[len(s.stack)-1].kind
}

// heredocTag consumes `<<TAG`, the tag may be quoted.
func (s *scanner) heredocTag() {
	at := s.pos
	s.write('<')
	s.out.WriteByte('<')
	s.pos += 2

	for s.pos < len(s.buf) && (s.buf[s.pos] == ' ' || s.buf[s.pos] == '\t') {
		s.out.WriteByte(s.buf[s.pos])
		s.pos++
	}

	tagStart := s.pos
	for s.pos < len(s.buf) && !isTagEnd(s.buf[s.pos]) {
		s.pos++
	}
	raw := string(s.buf[tagStart:s.pos])
	s.out.WriteString(raw)

	tag := strings.Trim(raw, `'"`)
	if tag != "" {
		s.heredocs = append(s.heredocs, heredoc{tag: tag, offset: at})
	}
}

// heredocBodies consumes lines verbatim until every pending tag line is seen.
// It reports false if the input runs out first.
func (s *scanner) heredocBodies() bool {
	for len(s.heredocs) > 0 {
		if s.pos >= len(s.buf) {
			return false
		}
		eol := bytes.IndexByte(s.buf[s.pos:], '\n')
		var line []byte
		if eol < 0 {
			if !s.closed {
				return false
			}
			line = s.buf[s.pos:]
			s.pos = len(s.buf)
		} else {
			line = s.buf[s.pos : s.pos+eol]
			s.pos += eol + 1
		}

		s.out.Write(line)
		if string(line) == s.heredocs[0].tag {
			s.heredocs = s.heredocs[1:]
			if len(s.heredocs) > 0 {
				s.out.WriteByte('\n')
			}
			continue
		}
		s.out.WriteByte('\n')
	}
	return true
}

func isTagEnd(c byte) bool {
	switch c {
	case ' ', '\t', '\n', ';', '|', '&', '<', '>', '(', ')':
		return true
	}
	return false
}

func openerName(kind byte) string {
	switch kind {
	case '(':
		return "subshell"
	case '[':
		return "array"
	default:
		return "braced variable"
	}
}
