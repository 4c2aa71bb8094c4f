package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	var showDefaults bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Config prints the configuration after merging the YAML file, the .env
file and the environment. The output can be used as a config file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if showDefaults {
				for _, key := range opts.cfg.Defaulted() {
					fmt.Fprintf(out, "# %s not set, using default\n", key)
				}
			}
			return opts.cfg.WriteYAML(out)
		},
	}

	cmd.Flags().BoolVar(&showDefaults, "defaults", false, "List the variables that fell back to defaults")

	return cmd
}
