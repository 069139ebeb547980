package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Norgate-AV/protogen/internal/codes"
	"github.com/Norgate-AV/protogen/internal/sourceroot"
	"github.com/Norgate-AV/protogen/internal/version"
)

// NewRootCommand builds the protogen command tree. Running the root command
// on its own generates main sources.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "protogen",
		Short: "Resolve and run protoc",
		Long: `Resolve a protoc compiler and its plugins from PATH or a Maven repository,
compile the project's .proto files and record the generated source roots.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, sourceroot.Main)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", version.Version, version.Commit, version.BuildTime)
	rootCmd.PersistentFlags().String("protoc-version", "", `protoc version: "PATH", an exact version or a range such as [3.5.0,4.0.0)`)
	rootCmd.PersistentFlags().StringSlice("source-dir", []string{}, "Directories containing .proto files to compile")
	rootCmd.PersistentFlags().StringSlice("import-path", []string{}, "Additional directories searched for imports")
	rootCmd.PersistentFlags().String("output-dir", "", "Directory generated sources are written to")
	rootCmd.PersistentFlags().Bool("lite", false, "Generate lite runtime code")
	rootCmd.PersistentFlags().Bool("kotlin", false, "Also generate Kotlin wrappers")
	rootCmd.PersistentFlags().Bool("fatal-warnings", false, "Fail when protoc reports warnings")
	rootCmd.PersistentFlags().String("base-dir", "", "Project root (defaults to the working directory)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Kill protoc after this long")
	rootCmd.PersistentFlags().Bool("offline", false, "Never contact the remote repository")
	rootCmd.PersistentFlags().BoolP("silent", "s", false, "Suppress console output from protoc")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(newGenerateCommand(sourceroot.Main), newGenerateCommand(sourceroot.Test), newCacheCommand(), newRootsCommand())

	return rootCmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := NewRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil {
		printError(os.Stderr, err, viper.GetBool("silent"))
		os.Exit(codes.ExitCode(err))
	}
}

// printError reports a failure. Captured compiler output is repeated only when
// it was not already streamed to the console.
func printError(w io.Writer, err error, silent bool) {
	_, _ = color.New(color.FgRed, color.Bold).Fprintf(w, "Error: %s\n", err)

	var cerr *codes.Error
	if !silent || !errors.As(err, &cerr) {
		return
	}

	for _, line := range cerr.Diagnostics {
		_, _ = fmt.Fprintf(w, "  %s\n", line)
	}
}
