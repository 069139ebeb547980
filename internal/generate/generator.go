// Package generate runs protoc for one source root: it resolves the compiler
// and plugins, invokes the compiler and registers the generated sources.
package generate

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/Norgate-AV/protogen/internal/artifact"
	"github.com/Norgate-AV/protogen/internal/codes"
	"github.com/Norgate-AV/protogen/internal/compiler"
	"github.com/Norgate-AV/protogen/internal/imports"
	"github.com/Norgate-AV/protogen/internal/platform"
	"github.com/Norgate-AV/protogen/internal/plugins"
	"github.com/Norgate-AV/protogen/internal/sourceroot"
	"github.com/Norgate-AV/protogen/internal/sources"
	"github.com/Norgate-AV/protogen/internal/utils"
)

type options struct {
	logger   logrus.FieldLogger
	fs       afero.Fs
	lookPath utils.PathLookup
	classify platform.Classifier
	runner   *compiler.Runner
}

// Option configures a Generator
type Option func(*options)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) { o.logger = logger }
}

// WithFs sets the file system used for schema discovery and the output directory
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

func WithLookPath(lookPath utils.PathLookup) Option {
	return func(o *options) { o.lookPath = lookPath }
}

func WithClassifier(classify platform.Classifier) Option {
	return func(o *options) { o.classify = classify }
}

// WithRunner sets the runner template; a request's timeout overrides its own
func WithRunner(r *compiler.Runner) Option {
	return func(o *options) { o.runner = r }
}

// Generator is the engine entry point. It may be used for any number of
// requests; resolved compilers are remembered for its lifetime.
type Generator struct {
	compilers *compiler.Locator
	plugins   *plugins.Locator
	imports   *imports.Unpacker
	builder   *compiler.CommandBuilder
	registrar sourceroot.Registrar
	runner    compiler.Runner
	fs        afero.Fs
	logger    logrus.FieldLogger
}

// New creates a generator resolving artifacts through resolver and reporting
// generated directories to registrar
func New(resolver artifact.Resolver, registrar sourceroot.Registrar, opts ...Option) *Generator {
	o := options{
		logger:   logrus.StandardLogger(),
		fs:       afero.NewOsFs(),
		lookPath: utils.LookPath,
		classify: platform.Host,
	}

	for _, opt := range opts {
		opt(&o)
	}

	runner := compiler.Runner{}
	if o.runner != nil {
		runner = *o.runner
	}

	if runner.Logger == nil {
		runner.Logger = o.logger
	}

	return &Generator{
		compilers: compiler.NewLocator(resolver, o.classify, o.lookPath, o.logger),
		plugins:   plugins.NewLocator(resolver, o.classify, o.lookPath, o.logger),
		imports:   imports.NewUnpacker(resolver, o.fs, o.logger),
		builder:   compiler.NewCommandBuilder(),
		registrar: registrar,
		runner:    runner,
		fs:        o.fs,
		logger:    o.logger,
	}
}

// Generate runs the compiler for req. It either fully succeeds, leaving the
// output directory registered as a source root, or returns a *codes.Error.
func (g *Generator) Generate(ctx context.Context, req Request) error {
	log := g.logger.WithFields(logrus.Fields{"kind": req.Kind(), "output": req.OutputDir()})

	schemas, err := sources.Discover(g.fs, req.SourceDirs())
	if err != nil {
		return codes.Wrap(codes.KindInvalidRequest, err, "failed to discover proto files")
	}

	if len(schemas) == 0 {
		log.Info("No proto files found, skipping")
		return nil
	}

	log.WithField("files", len(schemas)).Debug("Discovered proto files")

	protoc, resolved, err := g.resolve(ctx, req)
	if err != nil {
		return err
	}

	importDirs := req.ImportDirs()
	if deps := req.ImportDependencies(); len(deps) > 0 {
		root, err := afero.TempDir(g.fs, "", "protogen-imports-")
		if err != nil {
			return codes.Wrap(codes.KindInvalidRequest, err, "failed to create directory for import dependencies")
		}

		defer func() {
			if err := g.fs.RemoveAll(root); err != nil {
				log.WithError(err).Warn("Failed to remove unpacked import dependencies")
			}
		}()

		unpacked, err := g.imports.Unpack(ctx, deps, root)
		if err != nil {
			return err
		}

		importDirs = append(importDirs, unpacked...)
	}

	if err := g.fs.MkdirAll(req.OutputDir(), 0o755); err != nil {
		return codes.Wrap(codes.KindInvalidRequest, err, "failed to create output directory %s", req.OutputDir())
	}

	cmd, err := g.builder.BuildCommand(compiler.Invocation{
		Compiler:      protoc,
		SourceDirs:    req.SourceDirs(),
		ImportDirs:    importDirs,
		OutputDir:     req.OutputDir(),
		Plugins:       resolved,
		SchemaFiles:   schemas,
		Lite:          req.Lite(),
		Kotlin:        req.Kotlin(),
		FatalWarnings: req.FatalWarnings(),
		WorkDir:       req.BaseDir(),
	})
	if err != nil {
		return codes.Wrap(codes.KindInvalidRequest, err, "failed to build compiler command")
	}

	runner := g.runner
	if req.Timeout() > 0 {
		runner.Timeout = req.Timeout()
	}

	outcome, err := runner.Run(ctx, cmd)
	if err != nil {
		return err
	}

	if !outcome.Succeeded(req.FatalWarnings()) {
		return failure(outcome)
	}

	if err := g.registrar.Register(req.OutputDir(), req.Kind()); err != nil {
		return fmt.Errorf("failed to register source root %s: %w", req.OutputDir(), err)
	}

	log.WithFields(logrus.Fields{
		"files":    len(schemas),
		"warnings": len(outcome.Warnings()),
		"duration": outcome.Duration,
	}).Info("Generated sources")

	return nil
}

// resolve locates the compiler and plugins in parallel and waits for both.
// A compiler failure is reported ahead of plugin failures.
func (g *Generator) resolve(ctx context.Context, req Request) (utils.Binary, []plugins.Resolved, error) {
	var (
		eg        errgroup.Group
		protoc    utils.Binary
		resolved  []plugins.Resolved
		compErr   error
		pluginErr error
	)

	eg.Go(func() error {
		protoc, compErr = g.compilers.Locate(ctx, req.ProtocVersion())
		return nil
	})

	eg.Go(func() error {
		resolved, pluginErr = g.plugins.LocateAll(ctx, req.Plugins())
		return nil
	})

	_ = eg.Wait()

	if compErr != nil {
		return utils.Binary{}, nil, compErr
	}

	if pluginErr != nil {
		return utils.Binary{}, nil, pluginErr
	}

	return protoc, resolved, nil
}

func failure(outcome *compiler.Outcome) error {
	var err *codes.Error
	if outcome.ExitCode != 0 {
		err = codes.New(codes.KindCompilationFailed, "protoc exited with code %d", outcome.ExitCode)
	} else {
		err = codes.New(codes.KindCompilationFailed, "protoc reported %d warning(s) and fatal warnings are enabled", len(outcome.Warnings()))
	}

	return err.WithDiagnostics(outcome.Diagnostics())
}
