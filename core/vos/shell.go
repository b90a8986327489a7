package vos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/user"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anmitsu/go-shlex"
	shexpand "mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"

	"github.com/redox-os/ion-sub003/core/config"
	"github.com/redox-os/ion-sub003/core/expand"
	"github.com/redox-os/ion-sub003/core/types"
)

// Shell is an expand.Expander backed by a variable store. Command
// substitutions run as host processes.
type Shell struct {
	Vars *Vars
	// Home is used for ~ when $HOME is unset.
	Home string
	// Dir is the working directory of command substitutions.
	Dir string
	// Timeout bounds every command substitution, zero means no limit.
	Timeout time.Duration
	// Stderr of command substitutions, discarded if nil.
	Stderr io.Writer
}

var _ expand.Expander = (*Shell)(nil)

// NewShell creates a Shell using the playground settings.
func NewShell(vars *Vars, cfg config.Playground) *Shell {
	if vars == nil {
		vars = NewVars()
	}
	return &Shell{
		Vars:    vars,
		Home:    cfg.Home,
		Timeout: cfg.Timeout(),
	}
}

// Tilde implements expand.Expander.
func (s *Shell) Tilde(fragment string) string {
	switch fragment {
	case "~":
		if home := s.Vars.Getenv(EnvHome); home != "" {
			return home
		}
		if s.Home != "" {
			return s.Home
		}
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return fragment

	case "~+":
		if pwd := s.Vars.Getenv(EnvPWD); pwd != "" {
			return pwd
		}
		if s.Dir != "" {
			return s.Dir
		}
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
		return fragment

	case "~-":
		if old := s.Vars.Getenv(EnvOldPWD); old != "" {
			return old
		}
		return fragment
	}

	if !strings.HasPrefix(fragment, "~") {
		return fragment
	}
	u, err := user.Lookup(fragment[1:])
	if err != nil {
		return fragment
	}
	return u.HomeDir
}

// Variable implements expand.Expander.
func (s *Shell) Variable(name string, quoted bool) (types.Value, bool) {
	if v, ok := s.Vars.Lookup(name); ok {
		return v, true
	}
	if name == "$" {
		return types.Str(strconv.Itoa(os.Getpid())), true
	}
	return types.None, false
}

// Command implements expand.Expander. The command line is split with POSIX
// quoting rules after $VAR references are replaced. Output that isn't valid
// UTF-8 is an error.
func (s *Shell) Command(ctx context.Context, command string, quoted bool) ([]string, error) {
	argv, err := shlex.Split(s.Vars.ExpandEnv(command), true)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, nil
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = s.Vars.Environ()
	cmd.Dir = s.Dir
	cmd.Stderr = s.Stderr

	out, err := cmd.Output()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %v", expand.ErrInterrupted, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == -1 {
			return nil, fmt.Errorf("%w: %v", expand.ErrInterrupted, err)
		}
		return nil, err
	}
	if !utf8.Valid(out) {
		return nil, fmt.Errorf("%s: output is not valid UTF-8", argv[0])
	}

	return splitOutput(string(out), quoted), nil
}

func splitOutput(out string, quoted bool) []string {
	if !quoted {
		return strings.Fields(out)
	}
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return nil
	}
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Arithmetic implements expand.Expander. Expressions are evaluated with
// POSIX shell arithmetic, names resolve to string variables.
func (s *Shell) Arithmetic(expr string) (string, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(": $(("+expr+"))"), "")
	if err != nil {
		return "", err
	}

	var arith *syntax.ArithmExp
	syntax.Walk(file, func(node syntax.Node) bool {
		if n, ok := node.(*syntax.ArithmExp); ok && arith == nil {
			arith = n
			return false
		}
		return true
	})
	if arith == nil || arith.X == nil {
		return "", fmt.Errorf("empty arithmetic expression %q", expr)
	}

	cfg := &shexpand.Config{Env: shexpand.ListEnviron(s.Vars.Environ()...)}
	n, err := shexpand.Arithm(cfg, arith.X)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(n), nil
}
