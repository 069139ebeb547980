package compiler

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/protogen/internal/artifact"
	"github.com/Norgate-AV/protogen/internal/codes"
	"github.com/Norgate-AV/protogen/internal/platform"
)

// fakeResolver serves artifacts from a map of coordinates to files
type fakeResolver struct {
	mu        sync.Mutex
	files     map[string]string
	catalog   []string
	listErr   error
	resolved  []artifact.Coordinates
	listCalls int
}

func (f *fakeResolver) ResolveArtifact(_ context.Context, c artifact.Coordinates) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resolved = append(f.resolved, c)
	if path, ok := f.files[c.String()]; ok {
		return path, nil
	}

	return "", artifact.ErrNotFound
}

func (f *fakeResolver) ListAvailableVersions(_ context.Context, _ artifact.Coordinates) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	return f.catalog, f.listErr
}

func writeFile(t *testing.T, mode os.FileMode) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "protoc.exe")
	require.NoError(t, os.WriteFile(path, []byte("binary"), mode))

	return path
}

var linux64 = platform.Platform{OS: "linux", Arch: "x86_64"}

func newTestLocator(r artifact.Resolver, lookPath func(string) (string, error)) *Locator {
	logger, _ := test.NewNullLogger()
	return NewLocator(r, platform.Fixed(linux64), lookPath, logger)
}

func TestLocator_Exact(t *testing.T) {
	path := writeFile(t, 0o644)
	coords := Coordinates("3.25.3", linux64)
	r := &fakeResolver{files: map[string]string{coords.String(): path}}

	bin, err := newTestLocator(r, nil).Locate(context.Background(), "3.25.3")
	require.NoError(t, err)

	assert.Equal(t, path, bin.Path)
	require.Len(t, r.resolved, 1)
	assert.Equal(t, "com.google.protobuf:protoc:3.25.3:exe:linux-x86_64", r.resolved[0].String())
	assert.Zero(t, r.listCalls)
}

func TestLocator_Range(t *testing.T) {
	path := writeFile(t, 0o755)
	r := &fakeResolver{
		catalog: []string{"3.4.0", "3.5.0", "3.9.1", "4.0.0"},
		files:   map[string]string{Coordinates("3.9.1", linux64).String(): path},
	}

	bin, err := newTestLocator(r, nil).Locate(context.Background(), "[3.5.0,4.0.0)")
	require.NoError(t, err)

	assert.Equal(t, path, bin.Path)
	assert.Equal(t, 1, r.listCalls)
}

func TestLocator_Errors(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		resolver *fakeResolver
		wantKind codes.Kind
		contains string
	}{
		{
			name:     "malformed range",
			spec:     "[3.0,",
			resolver: &fakeResolver{},
			wantKind: codes.KindInvalidRequest,
		},
		{
			name:     "artifact missing",
			spec:     "9.9.9",
			resolver: &fakeResolver{},
			wantKind: codes.KindCompilerNotFound,
			contains: "protoc artifact not found",
		},
		{
			name:     "no version in range",
			spec:     "[5.0,6.0)",
			resolver: &fakeResolver{catalog: []string{"3.4.0"}},
			wantKind: codes.KindCompilerNotFound,
		},
		{
			name:     "metadata unavailable",
			spec:     "[3.0,4.0)",
			resolver: &fakeResolver{listErr: errors.New("offline")},
			wantKind: codes.KindCompilerNotFound,
			contains: "failed to list protoc versions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestLocator(tt.resolver, nil).Locate(context.Background(), tt.spec)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, codes.KindOf(err), "got %v", err)

			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestLocator_Path(t *testing.T) {
	path := writeFile(t, 0o755)
	lookups := 0

	lookPath := func(name string) (string, error) {
		lookups++
		assert.Equal(t, ExecutableName, name)
		return path, nil
	}

	l := newTestLocator(&fakeResolver{}, lookPath)

	for _, spec := range []string{"PATH", "path"} {
		bin, err := l.Locate(context.Background(), spec)
		require.NoError(t, err)
		assert.Equal(t, path, bin.Path)
	}

	assert.Equal(t, 1, lookups)
}

func TestLocator_PathMissing(t *testing.T) {
	lookPath := func(string) (string, error) { return "", exec.ErrNotFound }

	_, err := newTestLocator(&fakeResolver{}, lookPath).Locate(context.Background(), "PATH")
	require.Error(t, err)
	assert.True(t, codes.Is(err, codes.KindCompilerNotFound))
	assert.Contains(t, err.Error(), "protoc not found on PATH")
}

func TestLocator_CachesResolvedArtifacts(t *testing.T) {
	path := writeFile(t, 0o755)
	r := &fakeResolver{files: map[string]string{Coordinates("3.25.3", linux64).String(): path}}
	l := newTestLocator(r, nil)

	for range 3 {
		_, err := l.Locate(context.Background(), "3.25.3")
		require.NoError(t, err)
	}

	assert.Len(t, r.resolved, 1)
}

func TestLocator_CachedBinaryRemoved(t *testing.T) {
	path := writeFile(t, 0o755)
	r := &fakeResolver{files: map[string]string{Coordinates("3.25.3", linux64).String(): path}}
	l := newTestLocator(r, nil)

	_, err := l.Locate(context.Background(), "3.25.3")
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	require.NoError(t, os.WriteFile(path, []byte("protoc"), 0o755))

	_, err = l.Locate(context.Background(), "3.25.3")
	require.NoError(t, err)
	assert.Len(t, r.resolved, 1)

	require.NoError(t, os.Remove(path))

	_, err = l.Locate(context.Background(), "3.25.3")
	require.Error(t, err)
	assert.Len(t, r.resolved, 2)
}

func TestLocator_NotExecutable(t *testing.T) {
	dir := t.TempDir()
	r := &fakeResolver{files: map[string]string{Coordinates("3.25.3", linux64).String(): dir}}

	_, err := newTestLocator(r, nil).Locate(context.Background(), "3.25.3")
	require.Error(t, err)
	assert.True(t, codes.Is(err, codes.KindNotExecutable))
}

func TestLocator_UnsupportedPlatform(t *testing.T) {
	logger, _ := test.NewNullLogger()
	classify := func() (platform.Platform, error) { return platform.Classify("plan9", "mips") }

	_, err := NewLocator(&fakeResolver{}, classify, nil, logger).Locate(context.Background(), "3.25.3")
	require.Error(t, err)
	assert.True(t, codes.Is(err, codes.KindUnsupportedPlatform))
}
