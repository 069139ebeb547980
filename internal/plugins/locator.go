package plugins

import (
	"context"
	"errors"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Norgate-AV/protogen/internal/artifact"
	"github.com/Norgate-AV/protogen/internal/codes"
	"github.com/Norgate-AV/protogen/internal/platform"
	"github.com/Norgate-AV/protogen/internal/utils"
	"github.com/Norgate-AV/protogen/internal/versions"
)

// DefaultConcurrency bounds parallel plugin resolution
const DefaultConcurrency = 4

// Locator resolves plugin beans
type Locator struct {
	resolver    artifact.Resolver
	classify    platform.Classifier
	lookPath    utils.PathLookup
	logger      logrus.FieldLogger
	concurrency int
}

// NewLocator creates a plugin locator. Nil arguments fall back to the host
// classifier, exec.LookPath and the standard logger.
func NewLocator(resolver artifact.Resolver, classify platform.Classifier, lookPath utils.PathLookup, logger logrus.FieldLogger) *Locator {
	if classify == nil {
		classify = platform.Host
	}

	if lookPath == nil {
		lookPath = utils.LookPath
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Locator{
		resolver:    resolver,
		classify:    classify,
		lookPath:    lookPath,
		logger:      logger,
		concurrency: DefaultConcurrency,
	}
}

// LocateAll resolves every bean, preserving declaration order. Identifiers
// and bean shapes are validated before any lookup. Every failing bean is
// reported, not just the first.
func (l *Locator) LocateAll(ctx context.Context, beans []Bean) ([]Resolved, error) {
	if err := CheckUnique(beans); err != nil {
		return nil, err
	}

	var invalid *multierror.Error
	for _, b := range beans {
		if err := b.Validate(); err != nil {
			invalid = multierror.Append(invalid, err)
		}
	}

	if invalid != nil {
		invalid.ErrorFormat = listFormat
		return nil, codes.Wrap(codes.KindInvalidRequest, invalid, "invalid plugin declarations")
	}

	results := make([]Resolved, len(beans))
	errs := make([]error, len(beans))

	var g errgroup.Group
	g.SetLimit(l.concurrency)

	for i, b := range beans {
		g.Go(func() error {
			results[i], errs[i] = l.Locate(ctx, b)
			return nil
		})
	}

	_ = g.Wait()

	var failed *multierror.Error
	for _, err := range errs {
		if err != nil {
			failed = multierror.Append(failed, err)
		}
	}

	if failed != nil {
		failed.ErrorFormat = listFormat
		return nil, codes.Wrap(failureKind(failed.Errors), failed, "failed to resolve %d of %d plugins", failed.Len(), len(beans))
	}

	return results, nil
}

// failureKind picks the kind reported for a batch of failures. A lookup miss
// is the least specific kind, so any other kind present takes precedence.
func failureKind(errs []error) codes.Kind {
	for _, err := range errs {
		if kind := codes.KindOf(err); kind != codes.KindPluginNotFound && kind != codes.KindUnknown {
			return kind
		}
	}

	return codes.KindPluginNotFound
}

// Locate resolves a single bean
func (l *Locator) Locate(ctx context.Context, bean Bean) (Resolved, error) {
	if err := bean.Validate(); err != nil {
		return Resolved{}, err
	}

	var (
		bin utils.Binary
		err error
	)

	if bean.Dependency != nil {
		bin, err = l.locateDependency(ctx, bean)
	} else {
		bin, err = l.locateExecutable(bean)
	}

	if err != nil {
		return Resolved{}, err
	}

	l.logger.WithFields(logrus.Fields{"plugin": bean.ID, "path": bin.Path}).Debug("Resolved plugin")

	return Resolved{ID: bean.ID, Binary: bin}, nil
}

// Coordinates applies the type and classifier defaults to a bean's dependency
func (l *Locator) Coordinates(bean Bean) (artifact.Coordinates, error) {
	coords := *bean.Dependency
	if coords.Type == "" {
		coords.Type = artifact.DefaultType
	}

	if coords.Classifier == "" {
		p, err := l.classify()
		if err != nil {
			return artifact.Coordinates{}, err
		}

		coords.Classifier = p.String()
	}

	return coords, nil
}

func (l *Locator) locateDependency(ctx context.Context, bean Bean) (utils.Binary, error) {
	coords, err := l.Coordinates(bean)
	if err != nil {
		return utils.Binary{}, err
	}

	if versions.IsRange(coords.Version) {
		rng, err := versions.ParseRange(coords.Version)
		if err != nil {
			return utils.Binary{}, codes.Wrap(codes.KindInvalidRequest, err, "plugin %q", bean.ID)
		}

		catalog, err := l.resolver.ListAvailableVersions(ctx, coords)
		if err != nil {
			return utils.Binary{}, codes.Wrap(codes.KindPluginNotFound, err, "failed to list versions of plugin %q", bean.ID)
		}

		version, err := versions.Select(rng, catalog)
		if err != nil {
			return utils.Binary{}, codes.Wrap(codes.KindPluginNotFound, err, "plugin %q", bean.ID)
		}

		coords = coords.WithVersion(version)
	}

	path, err := l.resolver.ResolveArtifact(ctx, coords)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return utils.Binary{}, codes.Wrap(codes.KindPluginNotFound, err, "plugin artifact not found for %q (%s)", bean.ID, coords)
		}

		return utils.Binary{}, codes.Wrap(codes.KindPluginNotFound, err, "failed to resolve plugin %q (%s)", bean.ID, coords)
	}

	bin, err := utils.MakeExecutable(path)
	if err != nil {
		return utils.Binary{}, codes.Wrap(codes.KindNotExecutable, err, "failed to prepare plugin %q", bean.ID)
	}

	return bin, nil
}

func (l *Locator) locateExecutable(bean Bean) (utils.Binary, error) {
	name := strings.TrimSpace(bean.ExecutableName)

	path, err := l.lookPath(name)
	if err != nil {
		return utils.Binary{}, codes.Wrap(codes.KindPluginNotFound, err, "plugin executable not found for %q: %s", bean.ID, name)
	}

	bin, err := utils.MakeExecutable(path)
	if err != nil {
		return utils.Binary{}, codes.Wrap(codes.KindNotExecutable, err, "failed to prepare plugin %q", bean.ID)
	}

	return bin, nil
}

func listFormat(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}

	return strings.Join(msgs, "; ")
}
