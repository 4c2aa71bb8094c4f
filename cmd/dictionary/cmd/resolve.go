package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/dictionary/internal/document"
	"github.com/Aman-CERP/dictionary/internal/query"
	"github.com/Aman-CERP/dictionary/internal/tenant"
)

func newResolveCmd(opts *rootOptions) *cobra.Command {
	var (
		tc       tenant.Context
		existing bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <kind>",
		Short: "Print the index names a request would read",
		Long: `Resolve prints the index name for a kind and tenant context, followed
by the fallback candidates a query tries in order, deepest first.

With --existing the configured data directory is opened and the index a
list request would actually read is printed as well.

Kinds: menu, form, process, browser, window.`,
		Example: `  dictionary resolve menu --language en --client 7 --role 102
  dictionary resolve window --language es --existing`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := document.ParseKind(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			base := kind.IndexBase()
			fmt.Fprintf(out, "index: %s (%s level)\n", tenant.Resolve(base, tc), tc.Depth())
			fmt.Fprintln(out, "candidates:")
			for i, name := range tenant.Candidates(base, tc) {
				fmt.Fprintf(out, "  %d. %s\n", i+1, name)
			}
			if !existing {
				return nil
			}

			gw, err := openGateway(cmd.Context(), opts.cfg, gatewayRetry)
			if err != nil {
				return err
			}
			defer func() { _ = gw.Close() }()

			index, ok, err := query.NewService(gw, query.Options{}).ResolveIndex(cmd.Context(), kind, tc)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "reads: none (no candidate index exists)")
				return nil
			}
			fmt.Fprintf(out, "reads: %s\n", index)
			return nil
		},
	}

	cmd.Flags().StringVar(&tc.Language, "language", "", "Language code")
	cmd.Flags().StringVar(&tc.ClientID, "client", "", "Client id")
	cmd.Flags().StringVar(&tc.RoleID, "role", "", "Role id")
	cmd.Flags().StringVar(&tc.UserID, "user", "", "User id")
	cmd.Flags().BoolVar(&existing, "existing", false, "Open the data directory and print the index actually read")

	return cmd
}
