package expand

import (
	"errors"
	"fmt"
)

var (
	// ErrTooManyWords is returned when brace expansion would produce more
	// words than the configured limit.
	ErrTooManyWords = errors.New("brace expansion produces too many words")
	// ErrTooDeep is returned when nesting exceeds the configured depth.
	ErrTooDeep = errors.New("expansion nested too deeply")
)

// UnknownMethodError is returned for a method name that doesn't exist.
type UnknownMethodError struct {
	Name string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("%q is an unknown method", e.Name)
}

// ArgCountError is returned when a method gets fewer arguments than it needs.
type ArgCountError struct {
	Method string
	Want   int
	Got    int
	// Exact is set if more than Want arguments are an error too.
	Exact bool
}

func (e *ArgCountError) Error() string {
	qualifier := "at least"
	if e.Exact {
		qualifier = "exactly"
	}
	return fmt.Sprintf("%s: requires %s %d argument(s), got %d", e.Method, qualifier, e.Want, e.Got)
}

// ArgTypeError is returned when a method argument or receiver has the wrong
// shape.
type ArgTypeError struct {
	Method string
	Reason string
}

func (e *ArgTypeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Reason)
}

// RegexError carries the compilation error of an invalid regular expression.
type RegexError struct {
	Method  string
	Pattern string
	Err     error
}

func (e *RegexError) Error() string {
	return fmt.Sprintf("%s: error in regular expression %q: %v", e.Method, e.Pattern, e.Err)
}

func (e *RegexError) Unwrap() error {
	return e.Err
}

// ContextError is returned when an array method is used where a string is
// expected, or the other way around.
type ContextError struct {
	Method string
	// Array is set if an array method was used in a string context.
	Array bool
}

func (e *ContextError) Error() string {
	if e.Array {
		return fmt.Sprintf("%s: array method used in a string context, try @%s", e.Method, e.Method)
	}
	return fmt.Sprintf("%s: string method used in an array context, try $%s", e.Method, e.Method)
}

// SelectError is returned for an index that doesn't exist or a range whose
// end comes before its start.
type SelectError struct {
	Selection string
	Len       int
}

func (e *SelectError) Error() string {
	return fmt.Sprintf("cannot select [%s] from a value of length %d", e.Selection, e.Len)
}

// CommandError wraps a failed command substitution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command substitution %q: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ArithmeticError wraps a failed arithmetic expansion.
type ArithmeticError struct {
	Expr string
	Err  error
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic %q: %v", e.Expr, e.Err)
}

func (e *ArithmeticError) Unwrap() error {
	return e.Err
}

// WordError attributes an error to one word of a statement.
type WordError struct {
	Word   string
	Offset int
	Err    error
}

func (e *WordError) Error() string {
	return fmt.Sprintf("expanding %q at position %d: %v", e.Word, e.Offset, e.Err)
}

func (e *WordError) Unwrap() error {
	return e.Err
}
