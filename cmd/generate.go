package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Norgate-AV/protogen/internal/codes"
	"github.com/Norgate-AV/protogen/internal/compiler"
	"github.com/Norgate-AV/protogen/internal/config"
	"github.com/Norgate-AV/protogen/internal/generate"
	"github.com/Norgate-AV/protogen/internal/repository"
	"github.com/Norgate-AV/protogen/internal/sourceroot"
)

func newGenerateCommand(kind sourceroot.Kind) *cobra.Command {
	use, short := "generate", "Generate sources from src/main/protobuf"
	if kind == sourceroot.Test {
		use, short = "generate-test", "Generate test sources from src/test/protobuf"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, kind)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
}

func runGenerate(cmd *cobra.Command, kind sourceroot.Kind) error {
	cfg, err := config.NewLoader().LoadForGenerate(cmd, kind)
	if err != nil {
		return invalid(err, "failed to load configuration")
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	req, err := cfg.Request(kind)
	if err != nil {
		return err
	}

	opts := cfg.RepositoryOptions()
	opts.Logger = logger

	repo, err := repository.New(opts)
	if err != nil {
		return invalid(err, "failed to open local repository")
	}
	defer repo.Close()

	runner := compiler.NewRunner(logger)
	if !cfg.Silent {
		runner.OnLine = newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr()).Line
	}

	manifest := sourceroot.NewManifest(afero.NewOsFs(), cfg.ManifestPath())

	gen := generate.New(repo, manifest,
		generate.WithLogger(logger),
		generate.WithRunner(runner),
	)

	return gen.Generate(cmd.Context(), req)
}

// invalid tags untyped configuration errors as invalid requests
func invalid(err error, msg string) error {
	if codes.KindOf(err) != codes.KindUnknown {
		return err
	}

	return codes.Wrap(codes.KindInvalidRequest, err, "%s", msg)
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	logger := &logrus.Logger{
		Out:       w,
		Formatter: &logrus.TextFormatter{DisableTimestamp: true},
		Hooks:     make(logrus.LevelHooks),
		Level:     logrus.InfoLevel,
	}

	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	return logger
}

// printer echoes compiler output, coloured by severity
type printer struct {
	mu   sync.Mutex
	out  io.Writer
	err  io.Writer
	warn *color.Color
	fail *color.Color
}

func newPrinter(out, err io.Writer) *printer {
	return &printer{
		out:  out,
		err:  err,
		warn: color.New(color.FgYellow),
		fail: color.New(color.FgRed),
	}
}

func (p *printer) Line(l compiler.Line) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch l.Severity {
	case compiler.SeverityWarning:
		_, _ = p.warn.Fprintln(p.err, l.Text)
	case compiler.SeverityError:
		_, _ = p.fail.Fprintln(p.err, l.Text)
	default:
		if l.Stream == compiler.Stderr {
			_, _ = fmt.Fprintln(p.err, l.Text)
			return
		}

		_, _ = fmt.Fprintln(p.out, l.Text)
	}
}
