package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Norgate-AV/protogen/internal/config"
	"github.com/Norgate-AV/protogen/internal/sourceroot"
)

func newRootsCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "roots [main|test]",
		Short:        "List the generated source roots recorded for the build",
		Args:         cobra.MaximumNArgs(1),
		ValidArgs:    []string{"main", "test"},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 0 {
				name = args[0]
			}

			kind, err := sourceroot.ParseKind(name)
			if err != nil {
				return invalid(err, "failed to parse source root kind")
			}

			cfg, err := config.NewLoader().LoadForCache(cmd)
			if err != nil {
				return invalid(err, "failed to load configuration")
			}

			roots, err := sourceroot.NewManifest(afero.NewOsFs(), cfg.ManifestPath()).Roots(kind)
			if err != nil {
				return err
			}

			for _, dir := range roots {
				fmt.Fprintln(cmd.OutOrStdout(), dir)
			}

			return nil
		},
	}
}
