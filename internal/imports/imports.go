// Package imports unpacks the schema files shipped inside dependency archives
// so the compiler can import them.
package imports

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/Norgate-AV/protogen/internal/artifact"
	"github.com/Norgate-AV/protogen/internal/codes"
	"github.com/Norgate-AV/protogen/internal/sources"
	"github.com/Norgate-AV/protogen/internal/versions"
)

// DefaultType is the packaging assumed when a dependency omits its type
const DefaultType = "jar"

// Unpacker resolves dependency archives and extracts their schema files
type Unpacker struct {
	resolver artifact.Resolver
	fs       afero.Fs
	logger   logrus.FieldLogger
}

// NewUnpacker creates an unpacker reading archives from and writing schema
// files to fs
func NewUnpacker(resolver artifact.Resolver, fs afero.Fs, logger logrus.FieldLogger) *Unpacker {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Unpacker{resolver: resolver, fs: fs, logger: logger}
}

// Unpack extracts the .proto entries of each dependency into its own
// directory under root and returns those directories in declaration order
func (u *Unpacker) Unpack(ctx context.Context, deps []artifact.Coordinates, root string) ([]string, error) {
	dirs := make([]string, 0, len(deps))

	for i, dep := range deps {
		coords, err := u.resolve(ctx, dep)
		if err != nil {
			return nil, err
		}

		jar, err := u.resolver.ResolveArtifact(ctx, coords)
		if err != nil {
			if errors.Is(err, artifact.ErrNotFound) {
				return nil, codes.Wrap(codes.KindInvalidRequest, err, "import dependency not found: %s", coords)
			}

			return nil, codes.Wrap(codes.KindInvalidRequest, err, "failed to resolve import dependency %s", coords)
		}

		dir := filepath.Join(root, strconv.Itoa(i)+"-"+coords.ArtifactID)

		count, err := u.extract(jar, dir)
		if err != nil {
			return nil, codes.Wrap(codes.KindInvalidRequest, err, "failed to unpack import dependency %s", coords)
		}

		log := u.logger.WithFields(logrus.Fields{"dependency": coords.String(), "dir": dir})
		if count == 0 {
			log.Warn("Import dependency contains no proto files")
		} else {
			log.WithField("files", count).Debug("Unpacked import dependency")
		}

		dirs = append(dirs, dir)
	}

	return dirs, nil
}

// resolve applies the type default and pins a version range
func (u *Unpacker) resolve(ctx context.Context, dep artifact.Coordinates) (artifact.Coordinates, error) {
	if err := dep.Validate(); err != nil {
		return artifact.Coordinates{}, codes.Wrap(codes.KindInvalidRequest, err, "invalid import dependency")
	}

	if dep.Type == "" {
		dep.Type = DefaultType
	}

	if !versions.IsRange(dep.Version) {
		return dep, nil
	}

	rng, err := versions.ParseRange(dep.Version)
	if err != nil {
		return artifact.Coordinates{}, codes.Wrap(codes.KindInvalidRequest, err, "import dependency %s", dep)
	}

	catalog, err := u.resolver.ListAvailableVersions(ctx, dep)
	if err != nil {
		return artifact.Coordinates{}, codes.Wrap(codes.KindInvalidRequest, err, "failed to list versions of import dependency %s", dep)
	}

	version, err := versions.Select(rng, catalog)
	if err != nil {
		return artifact.Coordinates{}, codes.Wrap(codes.KindInvalidRequest, err, "import dependency %s", dep)
	}

	return dep.WithVersion(version), nil
}

func (u *Unpacker) extract(archive, dir string) (int, error) {
	f, err := u.fs.Open(archive)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	// insecure names are rejected per entry below
	zr, err := zip.NewReader(f, info.Size())
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return 0, fmt.Errorf("failed to read archive %s: %w", archive, err)
	}

	if err := u.fs.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() || !strings.EqualFold(path.Ext(entry.Name), sources.Extension) {
			continue
		}

		name := filepath.FromSlash(entry.Name)
		if !filepath.IsLocal(name) {
			return 0, fmt.Errorf("archive entry %q escapes the extraction directory", entry.Name)
		}

		if err := u.write(entry, filepath.Join(dir, name)); err != nil {
			return 0, err
		}

		count++
	}

	return count, nil
}

func (u *Unpacker) write(entry *zip.File, dest string) error {
	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", entry.Name, err)
	}
	defer src.Close()

	if err := u.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	out, err := u.fs.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, src)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", entry.Name, err)
	}

	return nil
}
