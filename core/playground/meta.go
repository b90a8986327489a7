package playground

import (
	"fmt"
	"sort"
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/pborman/getopt/v2"

	"github.com/redox-os/ion-sub003/core/types"
)

type metaCommand struct {
	help string
	run  func(s *Session, args []string) error
}

var metaCommands map[string]metaCommand

func init() {
	metaCommands = map[string]metaCommand{
		":mode":  {"show or change what is printed for each statement", (*Session).metaMode},
		":set":   {"set a variable without expanding its value", (*Session).metaSet},
		":vars":  {"list variables", (*Session).metaVars},
		":unset": {"remove variables", (*Session).metaUnset},
		":help":  {"list meta-commands", (*Session).metaHelp},
	}
}

// UsageError is returned when a meta-command is called incorrectly.
type UsageError struct {
	Command string
	Usage   string
	Err     error
}

func (e *UsageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v\nusage: %s", e.Command, e.Err, e.Usage)
	}
	return "usage: " + e.Usage
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// Meta runs a meta-command line such as `:mode split`.
func (s *Session) Meta(line string) error {
	args, err := shlex.Split(line, true)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	cmd, ok := metaCommands[args[0]]
	if !ok {
		return fmt.Errorf("%s: unknown meta-command, try :help", args[0])
	}
	return cmd.run(s, args)
}

func newOpts(args []string, params string) (*getopt.Set, *bool) {
	opts := getopt.New()
	opts.SetProgram(args[0])
	opts.SetParameters(params)
	help := opts.BoolLong("help", 'h', "show help and exit")
	return opts, help
}

func (s *Session) usage(opts *getopt.Set, err error) error {
	usage := opts.Program()
	if line := opts.UsageLine(); line != "" {
		usage += " " + line
	}
	if params := opts.Parameters(); params != "" {
		usage += " " + params
	}
	return &UsageError{Command: opts.Program(), Usage: usage, Err: err}
}

func (s *Session) metaMode(args []string) error {
	opts, help := newOpts(args, "[expand|split|words]")
	if err := opts.Getopt(args, nil); err != nil || *help || opts.NArgs() > 1 {
		return s.usage(opts, err)
	}

	if opts.NArgs() == 0 {
		fmt.Fprintln(s.out, s.mode)
		return nil
	}
	mode, ok := parseMode(opts.Arg(0))
	if !ok {
		return s.usage(opts, fmt.Errorf("unknown mode %q", opts.Arg(0)))
	}
	s.mode = mode
	return nil
}

func (s *Session) metaSet(args []string) error {
	opts, help := newOpts(args, "NAME [VALUE...]")
	array := opts.Bool('a', "store the values as an array")
	local := opts.Bool('l', "define the variable in the innermost scope")
	if err := opts.Getopt(args, nil); err != nil || *help || opts.NArgs() == 0 {
		return s.usage(opts, err)
	}

	rest := opts.Args()
	name, values := rest[0], rest[1:]
	value := types.Str(strings.Join(values, " "))
	if *array {
		value = types.Strings(values...)
	}

	if *local {
		s.vars.SetLocal(name, value)
	} else {
		s.vars.Set(name, value)
	}
	return nil
}

func (s *Session) metaVars(args []string) error {
	opts, help := newOpts(args, "")
	exported := opts.Bool('e', "only list variables exported to commands")
	if err := opts.Getopt(args, nil); err != nil || *help || opts.NArgs() > 0 {
		return s.usage(opts, err)
	}

	s.printVars(*exported)
	return nil
}

func (s *Session) metaUnset(args []string) error {
	opts, help := newOpts(args, "NAME...")
	if err := opts.Getopt(args, nil); err != nil || *help || opts.NArgs() == 0 {
		return s.usage(opts, err)
	}

	var missing []string
	for _, name := range opts.Args() {
		if !s.vars.Unset(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("not defined: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (s *Session) metaHelp(args []string) error {
	var names []string
	for name := range metaCommands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(s.out, "%-8s %s\n", name, metaCommands[name].help)
	}
	return nil
}
