// Package statement splits a logical statement into the sub-statements
// separated by `;`, `&&`, `||`, `|` and `&`. Heredoc bodies are kept verbatim
// in the piece they follow.
package statement

import (
	"fmt"
	"io"
	"strings"
)

// Kind is the control operator that ended a Piece.
type Kind int

const (
	// End marks the last piece of the statement.
	End Kind = iota
	// Sequence is `;`.
	Sequence
	// And is `&&`.
	And
	// Or is `||`.
	Or
	// Pipe is `|`, or `&|` which pipes stdout and stderr.
	Pipe
	// Background is a trailing `&`.
	Background
)

var kindNames = []string{
	End:        "end",
	Sequence:   "sequence",
	And:        "and",
	Or:         "or",
	Pipe:       "pipe",
	Background: "background",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Delimiter is the operator following a piece, Text holds its exact spelling.
type Delimiter struct {
	Kind Kind
	Text string
}

func (d Delimiter) String() string {
	return d.Text
}

// Piece is one sub-statement. Text is a slice of the original statement,
// whitespace included.
type Piece struct {
	Text      string
	Delimiter Delimiter
	Offset    int
}

// ErrorKind classifies a SyntaxError.
type ErrorKind int

const (
	// UnbalancedCloser is a closing bracket without a matching opener.
	UnbalancedCloser ErrorKind = iota
	// Unterminated is an opener or quote still open at the end.
	Unterminated
)

// SyntaxError reports malformed nesting.
type SyntaxError struct {
	Kind ErrorKind
	// Pos is the offending byte for UnbalancedCloser and the opener for
	// Unterminated.
	Pos  int
	Char byte
}

func (e *SyntaxError) Error() string {
	if e.Kind == UnbalancedCloser {
		return fmt.Sprintf("unbalanced %q at position %d", e.Char, e.Pos)
	}
	return fmt.Sprintf("unterminated %s opened at position %d", describe(e.Char), e.Pos)
}

func describe(c byte) string {
	switch c {
	case '\'':
		return "single quote"
	case '"':
		return "double quote"
	case '(':
		return "parenthesis"
	case '[':
		return "bracket"
	default:
		return "brace"
	}
}

type frame struct {
	kind byte
	pos  int
}

// Splitter lazily yields the pieces of one statement. It can't be restarted.
type Splitter struct {
	data  string
	read  int
	done  bool
	stack []frame
	// heredocs holds the tags of `<<TAG` redirections whose bodies start
	// after the next newline.
	heredocs []string
}

// NewSplitter creates a Splitter over stmt.
func NewSplitter(stmt string) *Splitter {
	return &Splitter{data: stmt}
}

// Next returns the next piece, io.EOF when there are no more, or a
// *SyntaxError once if the nesting is malformed.
func (s *Splitter) Next() (Piece, error) {
	if s.done {
		return Piece{}, io.EOF
	}

	for i := s.read; i < len(s.data); i++ {
		c := s.data[i]
		top := s.top()

		if top == '\'' {
			if c == '\'' {
				s.pop()
			}
			continue
		}
		if c == '\\' {
			i++
			continue
		}
		if top == '"' {
			switch {
			case c == '"':
				s.pop()
			case (c == '$' || c == '@') && s.at(i+1) == '(':
				s.push('(', i+1)
				i++
			case c == '$' && s.at(i+1) == '{':
				s.push('{', i+1)
				i++
			}
			continue
		}

		switch {
		case c == '<' && s.at(i+1) == '<' && s.at(i+2) == '<':
			i += 2
			continue
		case c == '<' && s.at(i+1) == '<':
			i = s.heredocTag(i+2) - 1
			continue
		case c == '\n' && len(s.heredocs) > 0:
			i = s.heredocBodies(i+1) - 1
			continue
		}

		switch c {
		case '\'', '"', '(', '[', '{':
			s.push(c, i)
			continue
		case ')', ']', '}':
			if top != openerOf(c) {
				s.done = true
				return Piece{}, &SyntaxError{Kind: UnbalancedCloser, Pos: i, Char: c}
			}
			s.pop()
			continue
		}

		if len(s.stack) > 0 {
			continue
		}

		if d, ok := s.delimiterAt(i); ok {
			piece := Piece{Text: s.data[s.read:i], Delimiter: d, Offset: s.read}
			s.read = i + len(d.Text)
			return piece, nil
		}
	}

	s.done = true
	if len(s.stack) > 0 {
		open := s.stack[len(s.stack)-1]
		return Piece{}, &SyntaxError{Kind: Unterminated, Pos: open.pos, Char: open.kind}
	}
	if s.read == len(s.data) {
		return Piece{}, io.EOF
	}
	return Piece{Text: s.data[s.read:], Delimiter: Delimiter{Kind: End}, Offset: s.read}, nil
}

func (s *Splitter) delimiterAt(i int) (Delimiter, bool) {
	switch s.data[i] {
	case ';':
		return Delimiter{Kind: Sequence, Text: ";"}, true
	case '|':
		if s.at(i+1) == '|' {
			return Delimiter{Kind: Or, Text: "||"}, true
		}
		return Delimiter{Kind: Pipe, Text: "|"}, true
	case '&':
		switch {
		case s.at(i+1) == '&':
			return Delimiter{Kind: And, Text: "&&"}, true
		case s.at(i+1) == '|':
			return Delimiter{Kind: Pipe, Text: "&|"}, true
		case s.at(i+1) == '>' || (i > 0 && s.data[i-1] == '>'):
			// Redirections: &> and >&.
			return Delimiter{}, false
		}
		return Delimiter{Kind: Background, Text: "&"}, true
	}
	return Delimiter{}, false
}

// heredocTag records the tag starting at i and returns the offset after it.
func (s *Splitter) heredocTag(i int) int {
	for i < len(s.data) && (s.data[i] == ' ' || s.data[i] == '\t') {
		i++
	}
	start := i
	for i < len(s.data) && !isTagEnd(s.data[i]) {
		i++
	}
	if tag := strings.Trim(s.data[start:i], `'"`); tag != "" {
		s.heredocs = append(s.heredocs, tag)
	}
	return i
}

// heredocBodies skips body lines from i until every pending tag line is seen
// and returns the offset after the last one.
func (s *Splitter) heredocBodies(i int) int {
	for len(s.heredocs) > 0 && i < len(s.data) {
		line := s.data[i:]
		if eol := strings.IndexByte(line, '\n'); eol >= 0 {
			line = line[:eol]
			i += eol + 1
		} else {
			i = len(s.data)
		}
		if line == s.heredocs[0] {
			s.heredocs = s.heredocs[1:]
		}
	}
	return i
}

func isTagEnd(c byte) bool {
	switch c {
	case ' ', '\t', '\n', ';', '|', '&', '<', '>', '(', ')':
		return true
	}
	return false
}

func (s *Splitter) at(i int) byte {
	if i < len(s.data) {
		return s.data[i]
	}
	return 0
}

func (s *Splitter) top() byte {
	if len(s.stack) == 0 {
		return 0
	}
	return s.stack[len(s.stack)-1].kind
}

func (s *Splitter) push(kind byte, pos int) {
	s.stack = append(s.stack, frame{kind: kind, pos: pos})
}

func (s *Splitter) pop() {
	s.stack = s.stack[:len(s.stack)-1]
}

func openerOf(closer byte) byte {
	switch closer {
	case ')':
		return '('
	case ']':
		return '['
	default:
		return '{'
	}
}

// Split collects every piece of stmt.
func Split(stmt string) ([]Piece, error) {
	var out []Piece
	s := NewSplitter(stmt)
	for {
		p, err := s.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, p)
	}
}

// Join rebuilds the statement the pieces were split from.
func Join(pieces []Piece) string {
	var sb strings.Builder
	for _, p := range pieces {
		sb.WriteString(p.Text)
		sb.WriteString(p.Delimiter.Text)
	}
	return sb.String()
}
