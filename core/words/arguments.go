// Package words breaks sub-statements into argument words and words into the
// segments the expansion engine evaluates. Nothing here evaluates anything.
package words

import "strings"

// Kind classifies a Word.
type Kind int

const (
	// Plain words contain no quotes, escapes or expansion syntax.
	Plain Kind = iota
	// Quoted words are a single quoted string. They are never split or
	// globbed.
	Quoted
	// Composite words mix literal text with expansions or quotes.
	Composite
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Quoted:
		return "quoted"
	default:
		return "composite"
	}
}

// Word is one unexpanded argument.
type Word struct {
	Text   string
	Kind   Kind
	Offset int
}

// ArgumentSplitter yields the whitespace separated arguments of a
// sub-statement. Whitespace inside quotes, parentheses, brackets or braces
// doesn't split.
type ArgumentSplitter struct {
	data string
	read int
}

// NewArgumentSplitter creates a splitter over data.
func NewArgumentSplitter(data string) *ArgumentSplitter {
	return &ArgumentSplitter{data: data}
}

// Next returns the next word, or false when the input is exhausted.
func (a *ArgumentSplitter) Next() (Word, bool) {
	for a.read < len(a.data) && isSpace(a.data[a.read]) {
		a.read++
	}
	if a.read >= len(a.data) {
		return Word{}, false
	}

	start := a.read
	var (
		squote, dquote bool
		parens, array  int
		braces         int
	)

scan:
	for ; a.read < len(a.data); a.read++ {
		c := a.data[a.read]
		switch {
		case squote:
			if c == '\'' {
				squote = false
			}
		case c == '\\':
			a.read++
		case dquote:
			if c == '"' {
				dquote = false
			}
		case c == '\'':
			squote = true
		case c == '"':
			dquote = true
		case c == '(':
			parens++
		case c == ')':
			if parens > 0 {
				parens--
			}
		case c == '[':
			array++
		case c == ']':
			if array > 0 {
				array--
			}
		case c == '{':
			braces++
		case c == '}':
			if braces > 0 {
				braces--
			}
		case isSpace(c) && parens == 0 && array == 0 && braces == 0:
			break scan
		}
	}

	if a.read > len(a.data) {
		a.read = len(a.data)
	}
	text := a.data[start:a.read]
	return Word{Text: text, Kind: classify(text), Offset: start}, true
}

// Split returns every word of data.
func Split(data string) []Word {
	var out []Word
	a := NewArgumentSplitter(data)
	for {
		w, ok := a.Next()
		if !ok {
			return out
		}
		out = append(out, w)
	}
}

// SplitArguments returns the text of every word of data.
func SplitArguments(data string) []string {
	var out []string
	a := NewArgumentSplitter(data)
	for {
		w, ok := a.Next()
		if !ok {
			return out
		}
		out = append(out, w.Text)
	}
}

func classify(text string) Kind {
	if len(text) >= 2 {
		q := text[0]
		if (q == '\'' || q == '"') && closingQuote(text, q) == len(text)-1 {
			return Quoted
		}
	}
	if strings.ContainsAny(text, "$@{}[]~*?'\"\\") {
		return Composite
	}
	return Plain
}

// closingQuote returns the index of the quote closing the one at text[0].
func closingQuote(text string, q byte) int {
	for i := 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			if q == '"' {
				i++
			}
		case q:
			return i
		}
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
