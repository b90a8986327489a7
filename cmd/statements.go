package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/redox-os/ion-sub003/core/logger"
	"github.com/redox-os/ion-sub003/core/playground"
	"github.com/redox-os/ion-sub003/core/terminator"
	"github.com/redox-os/ion-sub003/core/vos"
)

var showWords bool

// splitCmd prints the sub-statements of every statement
var splitCmd = &cobra.Command{
	Use:   "split [FILE]",
	Short: "Split input into statements and sub-statements.",
	Long: `Reads FILE, or standard input if it's omitted, and prints every
sub-statement with the operator that ends it. Nothing is expanded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := playground.ModeSplit
		if showWords {
			mode = playground.ModeWords
		}
		return runStatements(cmd, args, mode)
	},
}

// expandCmd prints the expanded arguments of every statement
var expandCmd = &cobra.Command{
	Use:   "expand [FILE]",
	Short: "Expand every statement of the input.",
	Long: `Reads FILE, or standard input if it's omitted, and prints the fully
expanded arguments of every sub-statement. Variables start out as the
process environment and command substitutions run on the host.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatements(cmd, args, playground.ModeExpand)
	},
}

func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(args[0])
}

func runStatements(cmd *cobra.Command, args []string, mode playground.Mode) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfigOrDefault(log.New(cmd.ErrOrStderr(), "", 0))
	if err != nil {
		return err
	}

	in, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer in.Close()

	logFd, err := cfg.OpenAppLog()
	if err != nil {
		return err
	}
	defer logFd.Close()

	session := playground.NewSession(cfg,
		playground.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		playground.WithVars(vos.NewVarsFrom(vos.EnvList(os.Environ()))),
		playground.WithLogger(logger.NewJsonLinesLogRecorder(logFd).NewSession()),
		playground.WithMode(mode),
	)

	term := terminator.New()
	if _, err := io.Copy(term, in); err != nil {
		return err
	}
	term.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	red := color.New(color.FgRed)
	failed := 0
	for {
		res, err := term.Next()
		if err != nil {
			return err
		}
		if res.Status != terminator.Complete {
			break
		}
		if err := session.Eval(ctx, res.Statement); err != nil {
			failed++
			red.Fprintf(cmd.ErrOrStderr(), "byte %d: %v\n", res.Offset, err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d statement(s) failed", failed)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(expandCmd)

	splitCmd.Flags().BoolVarP(&showWords, "words", "w", false, "print the words of each sub-statement instead")
}
