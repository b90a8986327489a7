package cmd

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/spf13/cobra"

	"github.com/redox-os/ion-sub003/core/config"
	"github.com/redox-os/ion-sub003/core/logger"
	"github.com/redox-os/ion-sub003/core/playground"
	"github.com/redox-os/ion-sub003/core/vos"
)

var cleanEnv bool

// playgroundCmd runs an interactive expansion session
var playgroundCmd = &cobra.Command{
	Use:   "playground",
	Short: "Interactively split and expand statements.",
	Long: `Reads statements interactively and prints their expansion. Use "let" to
assign variables and ":help" to list the meta-commands.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		playgroundLogger := log.New(cmd.ErrOrStderr(), "[playground] ", 0)

		dir := cfgPath
		cfg, err := config.Load(cfgPath)
		if errors.Is(err, fs.ErrNotExist) {
			dir, err = os.MkdirTemp("", "playground")
			if err != nil {
				return err
			}
			defer os.RemoveAll(dir)
			cfg, err = config.Initialize(dir, playgroundLogger)
		}
		if err != nil {
			return err
		}

		logFd, err := cfg.OpenAppLog()
		if err != nil {
			return err
		}
		defer logFd.Close()
		logRecorder := logger.NewJsonLinesLogRecorder(logFd)

		playgroundLogger.Printf("Logging to: file://%s\n", dir)
		playgroundLogger.Printf("See logs with: tail -f %s\n", filepath.Join(dir, logFd.Name()))
		playgroundLogger.Println(strings.Repeat("=", 80))

		rl, err := readline.NewEx(&readline.Config{
			Prompt:          cfg.Playground.Prompt,
			HistoryFile:     cfg.HistoryPath(),
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
			Stdin:           readline.NewCancelableStdin(cmd.InOrStdin()),
			Stdout:          cmd.OutOrStdout(),
			Stderr:          cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		defer rl.Close()

		vars := vos.NewVars()
		if !cleanEnv {
			vars = vos.NewVarsFrom(vos.EnvList(os.Environ()))
		}

		session := playground.NewSession(cfg,
			playground.WithOutput(rl.Stdout(), rl.Stderr()),
			playground.WithVars(vars),
			playground.WithLogger(logRecorder.NewSession()),
		)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return session.Run(ctx, rl)
	},
}

func init() {
	rootCmd.AddCommand(playgroundCmd)

	playgroundCmd.Flags().BoolVar(&cleanEnv, "clean-env", false, "start without the process environment")
}
