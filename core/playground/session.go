// Package playground is an interactive front end to the expansion engine.
// Each statement read is split, expanded and printed; `let` statements
// assign variables and lines starting with ':' are meta-commands.
package playground

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"

	"github.com/redox-os/ion-sub003/core/assignments"
	"github.com/redox-os/ion-sub003/core/config"
	"github.com/redox-os/ion-sub003/core/expand"
	"github.com/redox-os/ion-sub003/core/logger"
	"github.com/redox-os/ion-sub003/core/statement"
	"github.com/redox-os/ion-sub003/core/terminator"
	"github.com/redox-os/ion-sub003/core/types"
	"github.com/redox-os/ion-sub003/core/vos"
	"github.com/redox-os/ion-sub003/core/words"
)

// Mode selects what the session prints for each statement.
type Mode string

const (
	// ModeExpand prints the expanded arguments of every sub-statement.
	ModeExpand Mode = "expand"
	// ModeSplit prints the sub-statements and their delimiters.
	ModeSplit Mode = "split"
	// ModeWords prints the unexpanded words of every sub-statement.
	ModeWords Mode = "words"
)

var modes = []Mode{ModeExpand, ModeSplit, ModeWords}

func parseMode(s string) (Mode, bool) {
	for _, m := range modes {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// LineReader reads one line of input at a time. *readline.Instance
// satisfies it.
type LineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
}

var (
	colorError  = color.New(color.FgRed)
	colorPrompt = color.New(color.FgGreen, color.Bold)
)

// Session holds the state of one playground.
type Session struct {
	cfg    *config.Configuration
	vars   *vos.Vars
	shell  *vos.Shell
	engine *expand.Engine
	log    *logger.SessionLogger

	engineOpts []expand.Option

	out    io.Writer
	errOut io.Writer
	mode   Mode
}

// Option configures a Session.
type Option func(*Session)

// WithOutput sets where results and errors are written.
func WithOutput(out, errOut io.Writer) Option {
	return func(s *Session) {
		s.out = out
		s.errOut = errOut
	}
}

// WithVars starts the session with an existing variable store.
func WithVars(vars *vos.Vars) Option {
	return func(s *Session) {
		s.vars = vars
	}
}

// WithLogger records the session's events.
func WithLogger(l *logger.SessionLogger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// WithMode sets the initial output mode.
func WithMode(mode Mode) Option {
	return func(s *Session) {
		s.mode = mode
	}
}

// WithEngineOptions passes extra options to the expansion engine, e.g. a
// filesystem for globbing.
func WithEngineOptions(opts ...expand.Option) Option {
	return func(s *Session) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// NewSession creates a session in expand mode.
func NewSession(cfg *config.Configuration, opts ...Option) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Session{
		cfg:    cfg,
		out:    io.Discard,
		errOut: io.Discard,
		mode:   ModeExpand,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.vars == nil {
		s.vars = vos.NewVars()
	}
	s.shell = vos.NewShell(s.vars, cfg.Playground)
	s.shell.Stderr = s.errOut

	engineOpts := append([]expand.Option{
		expand.WithConfig(cfg.Expansion),
		expand.WithLogger(s.log),
	}, s.engineOpts...)
	s.engine = expand.New(s.shell, engineOpts...)
	return s
}

// Mode returns the current output mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// Vars returns the session's variables.
func (s *Session) Vars() *vos.Vars {
	return s.vars
}

// Run reads statements from rl until EOF. The continuation prompt is shown
// while a statement is incomplete and an interrupt discards it.
func (s *Session) Run(ctx context.Context, rl LineReader) error {
	term := terminator.New()
	prompt := colorPrompt.Sprint(s.cfg.Playground.Prompt)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if term.Buffered() > 0 {
			rl.SetPrompt(s.cfg.Playground.ContinuationPrompt)
		} else {
			rl.SetPrompt(prompt)
		}

		line, err := rl.Readline()
		switch {
		case errors.Is(err, io.EOF):
			term.Close()
			s.drain(ctx, term)
			return nil

		case errors.Is(err, readline.ErrInterrupt):
			term.Reset()
			continue

		case err != nil:
			return err
		}

		if term.Buffered() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			if err := s.Meta(strings.TrimSpace(line)); err != nil {
				s.printError(err)
			}
			continue
		}

		term.WriteString(line + "\n")
		s.drain(ctx, term)
	}
}

func (s *Session) drain(ctx context.Context, term *terminator.Terminator) {
	for {
		res, err := term.Next()
		if err != nil {
			s.printError(err)
			term.Reset()
			return
		}
		if res.Status != terminator.Complete {
			return
		}
		if err := s.Eval(ctx, res.Statement); err != nil {
			s.printError(err)
		}
	}
}

func (s *Session) printError(err error) {
	colorError.Fprintf(s.errOut, "error: %v\n", err)
}

// Eval processes one complete statement.
func (s *Session) Eval(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}

	pieces, err := statement.Split(stmt)
	if err != nil {
		return err
	}

	var errs []error
	for _, piece := range pieces {
		if err := s.evalPiece(ctx, piece); err != nil {
			errs = append(errs, err)
			if errors.Is(err, expand.ErrInterrupted) {
				break
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Session) evalPiece(ctx context.Context, piece statement.Piece) error {
	text := strings.TrimSpace(piece.Text)

	switch s.mode {
	case ModeSplit:
		fmt.Fprintf(s.out, "%q\t%s\n", text, piece.Delimiter.Kind)
		return nil
	case ModeWords:
		for _, w := range words.Split(text) {
			fmt.Fprintf(s.out, "%d\t%s\t%s\n", w.Offset, w.Kind, w.Text)
		}
		return nil
	}

	if rest, ok := cutKeyword(text, "let"); ok {
		return s.let(ctx, rest)
	}

	values, err := s.engine.ExpandStatement(ctx, text)
	if err != nil {
		return err
	}
	var argv []string
	for _, v := range values {
		argv = append(argv, v.Words()...)
	}
	if len(argv) > 0 {
		fmt.Fprintf(s.out, "%q\n", argv)
	}
	return nil
}

func cutKeyword(text, keyword string) (string, bool) {
	if text == keyword {
		return "", true
	}
	if strings.HasPrefix(text, keyword) && len(text) > len(keyword) {
		switch text[len(keyword)] {
		case ' ', '\t':
			return strings.TrimSpace(text[len(keyword):]), true
		}
	}
	return "", false
}

// let assigns variables. Without an operator it prints the named
// variables, and without any keys it prints them all.
func (s *Session) let(ctx context.Context, stmt string) error {
	if stmt == "" {
		s.printVars(false)
		return nil
	}

	lexed := assignments.Lex(stmt)
	actions, err := assignments.Actions(lexed)
	if err != nil {
		return err
	}

	if !lexed.HasOp {
		for _, action := range actions {
			value, ok := s.vars.Lookup(action.Key.Name)
			if !ok {
				return fmt.Errorf("%s: not defined", action.Key.Name)
			}
			fmt.Fprintf(s.out, "%s = %s\n", action.Key.Name, formatValue(value))
		}
		return nil
	}

	for _, action := range actions {
		value, err := s.assignedValue(ctx, action)
		if err != nil {
			return err
		}
		if action.Key.Kind.Kind == assignments.Indexed {
			index, err := s.engine.ExpandString(ctx, action.Key.Index)
			if err != nil {
				return err
			}
			action.Key.Index = strings.Join(index, " ")
		}
		if err := s.vars.Assign(action, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) assignedValue(ctx context.Context, action assignments.Action) (types.Value, error) {
	values, err := s.engine.ExpandWord(ctx, action.Value)
	if err != nil {
		return types.None, err
	}
	if action.Array {
		return types.Array(values...), nil
	}
	if len(values) == 1 {
		return values[0], nil
	}
	var parts []string
	for _, v := range values {
		parts = append(parts, v.String())
	}
	return types.Str(strings.Join(parts, " ")), nil
}

func formatValue(v types.Value) string {
	switch v.Kind() {
	case types.KindHashMap, types.KindBTreeMap:
		var parts []string
		m := v.Map()
		keys := m.Keys()
		if v.Kind() == types.KindBTreeMap {
			keys = m.SortedKeys()
		}
		for _, k := range keys {
			val, _ := m.Get(k)
			parts = append(parts, fmt.Sprintf("%s=%s", k, val.String()))
		}
		return "{" + strings.Join(parts, " ") + "}"
	case types.KindArray:
		return fmt.Sprintf("%q", v.Words())
	}
	return v.String()
}

func (s *Session) printVars(exported bool) {
	if exported {
		for _, kv := range s.vars.Environ() {
			fmt.Fprintln(s.out, kv)
		}
		return
	}
	for _, name := range s.vars.Names() {
		value, _ := s.vars.Lookup(name)
		fmt.Fprintf(s.out, "%s = %s\n", name, formatValue(value))
	}
}
