// Package expand turns words into fully expanded values: tilde, braces,
// variables, command substitution, arithmetic, methods, selections and
// globbing, in that order.
package expand

import (
	"context"
	"errors"

	"github.com/redox-os/ion-sub003/core/types"
)

// ErrInterrupted is returned by an Expander when a command substitution was
// stopped by a signal. The engine propagates it instead of treating the
// command as having printed nothing.
var ErrInterrupted = errors.New("interrupted")

// Expander is the execution environment the engine draws values from.
type Expander interface {
	// Tilde expands a leading `~` or `~user` fragment, returning it
	// unchanged if it can't be resolved.
	Tilde(fragment string) string
	// Variable looks up a variable. A missing variable isn't an error, it
	// expands to nothing.
	Variable(name string, quoted bool) (types.Value, bool)
	// Command runs command and returns its output as lines when quoted and
	// as whitespace separated fields otherwise.
	Command(ctx context.Context, command string, quoted bool) ([]string, error)
	// Arithmetic evaluates an integer expression.
	Arithmetic(expr string) (string, error)
}

// Pattern is the argument of a method like split or join.
type Pattern struct {
	// Whitespace is set if no argument was given.
	Whitespace bool
	Literal    string
}

// WhitespacePattern is the pattern of a method called without arguments.
var WhitespacePattern = Pattern{Whitespace: true}

// LiteralPattern matches text exactly.
func LiteralPattern(text string) Pattern {
	return Pattern{Literal: text}
}
