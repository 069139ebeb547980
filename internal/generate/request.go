package generate

import (
	"os"
	"path/filepath"
	"time"

	"github.com/Norgate-AV/protogen/internal/artifact"
	"github.com/Norgate-AV/protogen/internal/codes"
	"github.com/Norgate-AV/protogen/internal/plugins"
	"github.com/Norgate-AV/protogen/internal/sourceroot"
	"github.com/Norgate-AV/protogen/internal/versions"
)

// Layout supplies the conventional directories for each kind of source root
type Layout struct {
	Sources func(kind sourceroot.Kind) string
	Output  func(kind sourceroot.Kind) string
}

// DefaultLayout returns the Maven conventional layout rooted at base
func DefaultLayout(base string) Layout {
	return Layout{
		Sources: func(kind sourceroot.Kind) string {
			if kind == sourceroot.Test {
				return filepath.Join(base, "src", "test", "protobuf")
			}

			return filepath.Join(base, "src", "main", "protobuf")
		},
		Output: func(kind sourceroot.Kind) string {
			if kind == sourceroot.Test {
				return filepath.Join(base, "target", "generated-test-sources", "protobuf")
			}

			return filepath.Join(base, "target", "generated-sources", "protobuf")
		},
	}
}

// Request describes one generation run. It is built once by RequestBuilder and
// not modified afterwards; slice accessors return copies.
type Request struct {
	protocVersion string
	sourceDirs    []string
	importDirs    []string
	importDeps    []artifact.Coordinates
	outputDir     string
	plugins       []plugins.Bean
	lite          bool
	kotlin        bool
	fatalWarnings bool
	kind          sourceroot.Kind
	baseDir       string
	timeout       time.Duration
}

func (r Request) ProtocVersion() string { return r.protocVersion }
func (r Request) SourceDirs() []string  { return append([]string(nil), r.sourceDirs...) }
func (r Request) ImportDirs() []string  { return append([]string(nil), r.importDirs...) }
func (r Request) OutputDir() string     { return r.outputDir }
func (r Request) Lite() bool            { return r.lite }
func (r Request) Kotlin() bool          { return r.kotlin }
func (r Request) FatalWarnings() bool   { return r.fatalWarnings }
func (r Request) Kind() sourceroot.Kind { return r.kind }
func (r Request) BaseDir() string       { return r.baseDir }

// ImportDependencies returns the archives whose schema files are importable
func (r Request) ImportDependencies() []artifact.Coordinates {
	return append([]artifact.Coordinates(nil), r.importDeps...)
}

// Timeout bounds the compiler run; zero means no limit
func (r Request) Timeout() time.Duration { return r.timeout }

// Plugins returns the plugin declarations in order
func (r Request) Plugins() []plugins.Bean {
	out := make([]plugins.Bean, len(r.plugins))
	for i, b := range r.plugins {
		if b.Dependency != nil {
			dep := *b.Dependency
			b.Dependency = &dep
		}

		out[i] = b
	}

	return out
}

// RequestBuilder assembles a Request
type RequestBuilder struct {
	req    Request
	layout *Layout
}

// NewRequestBuilder starts a request for the given kind of source root
func NewRequestBuilder(kind sourceroot.Kind) *RequestBuilder {
	return &RequestBuilder{req: Request{kind: kind}}
}

func (b *RequestBuilder) ProtocVersion(spec string) *RequestBuilder {
	b.req.protocVersion = spec
	return b
}

func (b *RequestBuilder) SourceDirs(dirs ...string) *RequestBuilder {
	b.req.sourceDirs = append([]string(nil), dirs...)
	return b
}

func (b *RequestBuilder) ImportDirs(dirs ...string) *RequestBuilder {
	b.req.importDirs = append([]string(nil), dirs...)
	return b
}

// ImportDependencies adds archives whose .proto entries may be imported but
// are not compiled
func (b *RequestBuilder) ImportDependencies(deps ...artifact.Coordinates) *RequestBuilder {
	b.req.importDeps = append([]artifact.Coordinates(nil), deps...)
	return b
}

func (b *RequestBuilder) OutputDir(dir string) *RequestBuilder {
	b.req.outputDir = dir
	return b
}

func (b *RequestBuilder) Plugins(beans ...plugins.Bean) *RequestBuilder {
	b.req.plugins = append([]plugins.Bean(nil), beans...)
	return b
}

func (b *RequestBuilder) Lite(v bool) *RequestBuilder {
	b.req.lite = v
	return b
}

func (b *RequestBuilder) Kotlin(v bool) *RequestBuilder {
	b.req.kotlin = v
	return b
}

func (b *RequestBuilder) FatalWarnings(v bool) *RequestBuilder {
	b.req.fatalWarnings = v
	return b
}

// BaseDir sets the build root; relative paths are resolved against it
func (b *RequestBuilder) BaseDir(dir string) *RequestBuilder {
	b.req.baseDir = dir
	return b
}

func (b *RequestBuilder) Timeout(d time.Duration) *RequestBuilder {
	b.req.timeout = d
	return b
}

// Layout overrides the default directories; DefaultLayout(base) otherwise
func (b *RequestBuilder) Layout(l Layout) *RequestBuilder {
	b.layout = &l
	return b
}

// Build validates the request and fills in defaults
func (b *RequestBuilder) Build() (Request, error) {
	req := b.req

	if _, err := versions.ParseSpecifier(req.protocVersion); err != nil {
		return Request{}, codes.Wrap(codes.KindInvalidRequest, err, "invalid protoc version")
	}

	if req.timeout < 0 {
		return Request{}, codes.New(codes.KindInvalidRequest, "timeout must not be negative")
	}

	base := req.baseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Request{}, codes.Wrap(codes.KindInvalidRequest, err, "failed to determine working directory")
		}

		base = wd
	}

	base, err := filepath.Abs(base)
	if err != nil {
		return Request{}, codes.Wrap(codes.KindInvalidRequest, err, "failed to resolve base directory")
	}

	req.baseDir = base

	layout := DefaultLayout(base)
	if b.layout != nil {
		layout = *b.layout
	}

	if len(req.sourceDirs) == 0 {
		req.sourceDirs = []string{layout.Sources(req.kind)}
	}

	if req.outputDir == "" {
		req.outputDir = layout.Output(req.kind)
	}

	if req.outputDir == "" {
		return Request{}, codes.New(codes.KindInvalidRequest, "output directory not specified")
	}

	req.sourceDirs = resolveAll(base, req.sourceDirs)
	req.importDirs = resolveAll(base, req.importDirs)
	req.outputDir = resolve(base, req.outputDir)

	if err := plugins.CheckUnique(req.plugins); err != nil {
		return Request{}, err
	}

	for _, p := range req.plugins {
		if err := p.Validate(); err != nil {
			return Request{}, err
		}
	}

	for _, dep := range req.importDeps {
		if err := dep.Validate(); err != nil {
			return Request{}, codes.Wrap(codes.KindInvalidRequest, err, "invalid import dependency")
		}
	}

	// detach from the builder so later builder calls cannot alias the request
	req.plugins = Request{plugins: req.plugins}.Plugins()
	req.importDeps = Request{importDeps: req.importDeps}.ImportDependencies()

	return req, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(base, path)
}

func resolveAll(base string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}

		out = append(out, resolve(base, p))
	}

	return out
}
