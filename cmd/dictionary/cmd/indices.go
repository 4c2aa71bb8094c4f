package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/dictionary/internal/store"
)

func newIndicesCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "indices",
		Short: "List the search indices in the data directory",
		Long: `Indices lists every index the configured backend holds. The Bleve
backend locks its data directory, so stop a running server first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, backend := opts.cfg.Search.DataDir, opts.cfg.Search.Backend
			if found := store.DetectBackend(dir); dir != "" && found != "" && string(found) != backend {
				fmt.Fprintf(cmd.ErrOrStderr(),
					"warning: %s holds %s indices but the configured backend is %s\n", dir, found, backend)
			}

			gw, err := openGateway(cmd.Context(), opts.cfg, gatewayRetry)
			if err != nil {
				return err
			}
			defer func() { _ = gw.Close() }()

			names, err := gw.Indices(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list indices: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				if names == nil {
					names = []string{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(names)
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as a JSON array")

	return cmd
}
