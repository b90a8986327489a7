// Package vostest holds deterministic stand-ins for the vos Expander.
package vostest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/redox-os/ion-sub003/core/types"
)

// Result is the canned output of a command substitution.
type Result struct {
	Out []string
	Err error
}

// Expander answers lookups from maps and never touches the host.
type Expander struct {
	Vars     map[string]types.Value
	Commands map[string]Result

	Home   string
	Pwd    string
	OldPwd string

	// Arithmetic evaluates $((...)). If nil, the expression must be an
	// integer.
	ArithmeticFunc func(expr string) (string, error)

	mu    sync.Mutex
	calls []string
}

// NewExpander creates an Expander with HOME set to /home/redox.
func NewExpander() *Expander {
	return &Expander{
		Vars:     make(map[string]types.Value),
		Commands: make(map[string]Result),
		Home:     "/home/redox",
		Pwd:      "/home/redox/src",
		OldPwd:   "/tmp",
	}
}

// Set stores a string variable.
func (e *Expander) Set(name, value string) *Expander {
	e.Vars[name] = types.Str(value)
	return e
}

// SetArray stores an array variable.
func (e *Expander) SetArray(name string, items ...string) *Expander {
	e.Vars[name] = types.Strings(items...)
	return e
}

// SetCommand stores the output lines of a command.
func (e *Expander) SetCommand(command string, lines ...string) *Expander {
	e.Commands[command] = Result{Out: lines}
	return e
}

// Calls returns the commands run so far, in order.
func (e *Expander) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *Expander) Tilde(fragment string) string {
	switch fragment {
	case "~":
		return e.Home
	case "~+":
		return e.Pwd
	case "~-":
		return e.OldPwd
	}
	return fragment
}

func (e *Expander) Variable(name string, quoted bool) (types.Value, bool) {
	v, ok := e.Vars[name]
	return v, ok
}

// Command returns the canned lines for quoted substitutions and their
// whitespace separated fields otherwise. Unknown commands fail.
func (e *Expander) Command(ctx context.Context, command string, quoted bool) ([]string, error) {
	e.mu.Lock()
	e.calls = append(e.calls, command)
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, ok := e.Commands[command]
	if !ok {
		return nil, fmt.Errorf("%s: command not found", command)
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if quoted {
		return res.Out, nil
	}
	return strings.Fields(strings.Join(res.Out, "\n")), nil
}

func (e *Expander) Arithmetic(expr string) (string, error) {
	if e.ArithmeticFunc != nil {
		return e.ArithmeticFunc(expr)
	}
	n, err := strconv.Atoi(strings.TrimSpace(expr))
	if err != nil {
		return "", fmt.Errorf("not a number: %q", expr)
	}
	return strconv.Itoa(n), nil
}
