package cmd

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/dictionary/internal/config"
	"github.com/Aman-CERP/dictionary/internal/logging"
)

func newLogsCmd() *cobra.Command {
	var (
		file    string
		lines   int
		follow  bool
		level   string
		pattern string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View the service log file",
		Long: `Logs pretty-prints the JSON log file written when LOG_FILE is set.

Examples:
  dictionary logs                 # last 50 entries
  dictionary logs -f              # follow new entries
  dictionary logs --level warn    # warnings and errors only
  dictionary logs --grep consumer # entries matching a pattern`,
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				file = os.Getenv(config.EnvLogFile)
			}
			if file == "" {
				return errors.New("no log file: pass --file or set " + config.EnvLogFile)
			}

			viewerCfg := logging.ViewerConfig{Level: level, NoColor: noColor}
			if pattern != "" {
				re, err := regexp.Compile(pattern)
				if err != nil {
					return fmt.Errorf("invalid --grep pattern: %w", err)
				}
				viewerCfg.Pattern = re
			}

			out := cmd.OutOrStdout()
			if f, ok := out.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
				viewerCfg.NoColor = true
			}
			viewer := logging.NewViewer(viewerCfg, out)

			entries, err := viewer.Tail(file, lines)
			if err != nil {
				return err
			}
			viewer.Print(entries)

			if !follow {
				return nil
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			ch := make(chan logging.Entry, 64)
			errc := make(chan error, 1)
			go func() {
				errc <- viewer.Follow(ctx, file, ch)
				close(ch)
			}()
			for e := range ch {
				viewer.Print([]logging.Entry{e})
			}
			return <-errc
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Log file (default: $LOG_FILE)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow new entries")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&pattern, "grep", "", "Only show lines matching this regular expression")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colors")

	return cmd
}
