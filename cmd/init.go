package cmd

import (
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/redox-os/ion-sub003/core/config"
)

// initCmd writes the default configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the --config directory.",
	Long: `Writes config.yaml with the built-in expansion limits (brace words,
nesting depth, globbing) and playground settings. An existing config.yaml
is validated and left untouched. Later runs append events to events.log
in the same directory.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger := log.New(cmd.ErrOrStderr(), "", 0)

		cfg, err := config.Initialize(cfgPath, logger)
		if err != nil {
			return err
		}

		logger.Printf("Events are logged to %s\n", filepath.Join(cfgPath, config.AppLogName))
		if history := cfg.HistoryPath(); history != "" {
			logger.Printf("Playground history is kept in %s\n", history)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
