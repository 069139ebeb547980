package compiler

import (
	"context"
	"errors"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/Norgate-AV/protogen/internal/artifact"
	"github.com/Norgate-AV/protogen/internal/codes"
	"github.com/Norgate-AV/protogen/internal/platform"
	"github.com/Norgate-AV/protogen/internal/utils"
	"github.com/Norgate-AV/protogen/internal/versions"
)

// CacheSize bounds how many resolved compilers a Locator remembers
const CacheSize = 32

// Locator resolves a version specifier to an executable protoc. Results are
// cached in memory per specifier and platform for the Locator's lifetime; a
// cached binary that has since been deleted is resolved again.
type Locator struct {
	resolver artifact.Resolver
	classify platform.Classifier
	lookPath utils.PathLookup
	logger   logrus.FieldLogger
	cache    *lru.Cache[cacheKey, utils.Binary]
}

type cacheKey struct {
	spec     string
	platform string
}

// NewLocator creates a compiler locator. Nil arguments fall back to the host
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

	// only fails for a non-positive size
	cache, _ := lru.New[cacheKey, utils.Binary](CacheSize)

	return &Locator{
		resolver: resolver,
		classify: classify,
		lookPath: lookPath,
		logger:   logger,
		cache:    cache,
	}
}

// Coordinates returns the protoc artifact for a version and platform
func Coordinates(version string, p platform.Platform) artifact.Coordinates {
	return artifact.Coordinates{
		GroupID:    GroupID,
		ArtifactID: ArtifactID,
		Version:    version,
		Type:       artifact.DefaultType,
		Classifier: p.String(),
	}
}

// Locate resolves spec, which is "PATH", an exact version or a version range
func (l *Locator) Locate(ctx context.Context, spec string) (utils.Binary, error) {
	parsed, err := versions.ParseSpecifier(spec)
	if err != nil {
		return utils.Binary{}, codes.Wrap(codes.KindInvalidRequest, err, "invalid protoc version")
	}

	if parsed.Kind == versions.KindPath {
		return l.cached(cacheKey{spec: versions.PathLiteral}, func() (utils.Binary, error) {
			return l.locateOnPath()
		})
	}

	p, err := l.classify()
	if err != nil {
		return utils.Binary{}, err
	}

	key := cacheKey{spec: parsed.Raw, platform: p.String()}

	return l.cached(key, func() (utils.Binary, error) {
		return l.locateArtifact(ctx, parsed, p)
	})
}

func (l *Locator) cached(key cacheKey, resolve func() (utils.Binary, error)) (utils.Binary, error) {
	if bin, ok := l.cache.Get(key); ok {
		if _, err := os.Stat(bin.Path); err == nil {
			l.logger.WithFields(logrus.Fields{"spec": key.spec, "path": bin.Path}).Debug("Using cached protoc")
			return bin, nil
		}

		l.cache.Remove(key)
	}

	bin, err := resolve()
	if err != nil {
		return utils.Binary{}, err
	}

	l.cache.Add(key, bin)

	return bin, nil
}

func (l *Locator) locateOnPath() (utils.Binary, error) {
	path, err := l.lookPath(ExecutableName)
	if err != nil {
		return utils.Binary{}, codes.Wrap(codes.KindCompilerNotFound, err, "%s not found on PATH", ExecutableName)
	}

	bin, err := utils.MakeExecutable(path)
	if err != nil {
		return utils.Binary{}, codes.Wrap(codes.KindNotExecutable, err, "protoc found on PATH is not usable")
	}

	l.logger.WithField("path", bin.Path).Debug("Resolved protoc from PATH")

	return bin, nil
}

func (l *Locator) locateArtifact(ctx context.Context, spec versions.Specifier, p platform.Platform) (utils.Binary, error) {
	log := l.logger.WithFields(logrus.Fields{"spec": spec.Raw, "platform": p.String()})
	version := spec.Raw

	if spec.Kind == versions.KindRange {
		catalog, err := l.resolver.ListAvailableVersions(ctx, Coordinates("", p))
		if err != nil {
			return utils.Binary{}, codes.Wrap(codes.KindCompilerNotFound, err, "failed to list protoc versions")
		}

		version, err = versions.Select(spec.Range, catalog)
		if err != nil {
			return utils.Binary{}, codes.Wrap(codes.KindCompilerNotFound, err, "no protoc version satisfies %s", spec.Raw)
		}

		log.WithField("version", version).Debug("Selected protoc version from range")
	}

	coords := Coordinates(version, p)

	path, err := l.resolver.ResolveArtifact(ctx, coords)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return utils.Binary{}, codes.Wrap(codes.KindCompilerNotFound, err, "protoc artifact not found for %s", coords)
		}

		return utils.Binary{}, codes.Wrap(codes.KindCompilerNotFound, err, "failed to resolve protoc artifact %s", coords)
	}

	bin, err := utils.MakeExecutable(path)
	if err != nil {
		return utils.Binary{}, codes.Wrap(codes.KindNotExecutable, err, "failed to prepare protoc %s", coords)
	}

	log.WithField("path", bin.Path).Debug("Resolved protoc artifact")

	return bin, nil
}
