package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/protogen/internal/config"
	"github.com/Norgate-AV/protogen/internal/repository"
)

func newCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear downloaded compilers and plugins",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:          "stats",
		Short:        "Show how many artifacts have been downloaded",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := openRepository(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			count, size, err := repo.Stats()
			if err != nil {
				return fmt.Errorf("failed to read cache statistics: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Repository: %s\n", repo.Local())
			fmt.Fprintf(out, "Artifacts:  %d\n", count)
			fmt.Fprintf(out, "Size:       %s\n", formatBytes(size))

			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:          "clean",
		Short:        "Delete every artifact protogen downloaded",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := openRepository(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			count, _, err := repo.Stats()
			if err != nil {
				return fmt.Errorf("failed to read cache statistics: %w", err)
			}

			if err := repo.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d artifact(s) from %s\n", count, repo.Local())

			return nil
		},
	})

	return cacheCmd
}

func openRepository(cmd *cobra.Command) (*repository.Repository, error) {
	cfg, err := config.NewLoader().LoadForCache(cmd)
	if err != nil {
		return nil, invalid(err, "failed to load configuration")
	}

	opts := cfg.RepositoryOptions()
	opts.Logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	repo, err := repository.New(opts)
	if err != nil {
		return nil, invalid(err, "failed to open local repository")
	}

	return repo, nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
