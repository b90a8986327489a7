package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"
	"sigs.k8s.io/yaml"

	"github.com/redox-os/ion-sub003/core/logger"
)

var (
	eventSession string
	eventFilter  string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the expansion event log.",
	Long: `The expand, split and playground commands append one JSON line per
statement, glob, command substitution, limit hit and error to the event log
in the --config directory. These commands read it back.`,
}

// readEvents calls fn for every logged event that passes the --session and
// --event filters.
func readEvents(fn func(le *structpb.Struct)) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	fd, err := config.ReadAppLog()
	if err != nil {
		return err
	}
	defer fd.Close()

	names := make(map[string]bool)
	for _, name := range strings.Split(eventFilter, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names[name] = true
		}
	}

	return logger.ReadJSONLinesLog(fd, func(le *structpb.Struct) {
		if eventSession != "" && logger.SessionID(le) != eventSession {
			return
		}
		if len(names) > 0 && !names[logger.Event(le)] {
			return
		}
		fn(le)
	})
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Summarize events: commands run, globs matched, limits hit and errors.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		report := logger.NewReport()
		if err := readEvents(report.Update); err != nil {
			return err
		}

		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		return nil
	},
}

var listCommand = &cobra.Command{
	Use:   "list",
	Short: "Print events one per line as SESSION, EVENT and JSON data.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		var writeErr error
		err := readEvents(func(le *structpb.Struct) {
			if writeErr != nil {
				return
			}
			data, err := json.Marshal(le.GetFields()[logger.FieldData].GetStructValue().AsMap())
			if err != nil {
				writeErr = err
				return
			}
			_, writeErr = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", logger.SessionID(le), logger.Event(le), data)
		})
		if err != nil {
			return err
		}
		return writeErr
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
	eventsCmd.AddCommand(listCommand)

	eventsCmd.PersistentFlags().StringVar(&eventSession, "session", "", "only include events of this session")
	eventsCmd.PersistentFlags().StringVar(&eventFilter, "event", "", "only include these comma separated events, e.g. glob,command")
}
