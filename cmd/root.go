package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/redox-os/ion-sub003/core/config"
)

var cfgPath string

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// loadConfigOrDefault falls back to the built-in configuration when none has
// been initialized.
func loadConfigOrDefault(logger *log.Logger) (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Printf("No configuration in %q, using defaults\n", cfgPath)
		return config.Default(), nil
	}
	return configuration, err
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ionlex",
	Short: "Ion shell lexer and expansion playground",
	Long: `Splits shell input into statements and words and expands them the way
the Ion shell does: braces, variables, methods, arithmetic, command
substitution and globs.`,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
}
