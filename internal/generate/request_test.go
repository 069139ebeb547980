package generate

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/protogen/internal/artifact"
	"github.com/Norgate-AV/protogen/internal/codes"
	"github.com/Norgate-AV/protogen/internal/plugins"
	"github.com/Norgate-AV/protogen/internal/sourceroot"
)

func TestRequestBuilder_Defaults(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name       string
		kind       sourceroot.Kind
		wantSource string
		wantOutput string
	}{
		{
			name:       "main",
			kind:       sourceroot.Main,
			wantSource: filepath.Join(base, "src", "main", "protobuf"),
			wantOutput: filepath.Join(base, "target", "generated-sources", "protobuf"),
		},
		{
			name:       "test",
			kind:       sourceroot.Test,
			wantSource: filepath.Join(base, "src", "test", "protobuf"),
			wantOutput: filepath.Join(base, "target", "generated-test-sources", "protobuf"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewRequestBuilder(tt.kind).ProtocVersion("PATH").BaseDir(base).Build()
			require.NoError(t, err)

			assert.Equal(t, []string{tt.wantSource}, req.SourceDirs())
			assert.Equal(t, tt.wantOutput, req.OutputDir())
			assert.Empty(t, req.ImportDirs())
			assert.Empty(t, req.Plugins())
			assert.Equal(t, tt.kind, req.Kind())
			assert.Equal(t, base, req.BaseDir())
			assert.False(t, req.Lite())
			assert.False(t, req.Kotlin())
			assert.False(t, req.FatalWarnings())
			assert.Zero(t, req.Timeout())
		})
	}
}

func TestRequestBuilder_ResolvesRelativePaths(t *testing.T) {
	base := t.TempDir()

	req, err := NewRequestBuilder(sourceroot.Main).
		ProtocVersion("3.25.3").
		BaseDir(base).
		SourceDirs("protos", filepath.Join(base, "more")).
		ImportDirs("include", "").
		OutputDir("gen").
		Lite(true).
		Kotlin(true).
		FatalWarnings(true).
		Timeout(time.Minute).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(base, "protos"), filepath.Join(base, "more")}, req.SourceDirs())
	assert.Equal(t, []string{filepath.Join(base, "include")}, req.ImportDirs())
	assert.Equal(t, filepath.Join(base, "gen"), req.OutputDir())
	assert.True(t, req.Lite())
	assert.True(t, req.Kotlin())
	assert.True(t, req.FatalWarnings())
	assert.Equal(t, time.Minute, req.Timeout())
}

func TestRequestBuilder_CustomLayout(t *testing.T) {
	layout := Layout{
		Sources: func(sourceroot.Kind) string { return "/schemas" },
		Output:  func(sourceroot.Kind) string { return "/generated" },
	}

	req, err := NewRequestBuilder(sourceroot.Test).ProtocVersion("PATH").BaseDir("/project").Layout(layout).Build()
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Clean("/schemas")}, req.SourceDirs())
	assert.Equal(t, filepath.Clean("/generated"), req.OutputDir())
}

func TestRequestBuilder_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		builder  *RequestBuilder
		wantKind codes.Kind
	}{
		{
			name:     "missing version",
			builder:  NewRequestBuilder(sourceroot.Main),
			wantKind: codes.KindInvalidRequest,
		},
		{
			name:     "malformed range",
			builder:  NewRequestBuilder(sourceroot.Main).ProtocVersion("[3.0"),
			wantKind: codes.KindInvalidRequest,
		},
		{
			name:     "negative timeout",
			builder:  NewRequestBuilder(sourceroot.Main).ProtocVersion("PATH").Timeout(-time.Second),
			wantKind: codes.KindInvalidRequest,
		},
		{
			name: "duplicate plugin ids",
			builder: NewRequestBuilder(sourceroot.Main).ProtocVersion("PATH").Plugins(
				plugins.Bean{ID: "grpc", ExecutableName: "a"},
				plugins.Bean{ID: "grpc", ExecutableName: "b"},
			),
			wantKind: codes.KindDuplicatePluginIdentifier,
		},
		{
			name:     "plugin without source",
			builder:  NewRequestBuilder(sourceroot.Main).ProtocVersion("PATH").Plugins(plugins.Bean{ID: "grpc"}),
			wantKind: codes.KindInvalidRequest,
		},
		{
			name:     "import dependency without version",
			builder:  NewRequestBuilder(sourceroot.Main).ProtocVersion("PATH").ImportDependencies(artifact.Coordinates{GroupID: "g", ArtifactID: "a"}),
			wantKind: codes.KindInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.BaseDir(t.TempDir()).Build()
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, codes.KindOf(err), "got %v", err)
		})
	}
}

func TestRequest_IsImmutable(t *testing.T) {
	dep := &artifact.Coordinates{GroupID: "g", ArtifactID: "a", Version: "1.0"}
	dirs := []string{"/src"}

	b := NewRequestBuilder(sourceroot.Main).ProtocVersion("PATH").BaseDir("/p").SourceDirs(dirs...).Plugins(plugins.Bean{ID: "x", Dependency: dep})

	req, err := b.Build()
	require.NoError(t, err)

	dirs[0] = "/changed"
	dep.Version = "2.0"
	b.SourceDirs("/other")
	req.SourceDirs()[0] = "/changed"
	req.Plugins()[0].Dependency.Version = "3.0"
	b.ImportDependencies(*dep)

	assert.Equal(t, []string{filepath.Clean("/src")}, req.SourceDirs())
	assert.Equal(t, "1.0", req.Plugins()[0].Dependency.Version)
	assert.Empty(t, req.ImportDependencies())
}

func TestRequestBuilder_ImportDependencies(t *testing.T) {
	deps := []artifact.Coordinates{{GroupID: "com.acme", ArtifactID: "billing-protos", Version: "1.4.0"}}

	req, err := NewRequestBuilder(sourceroot.Main).ProtocVersion("PATH").BaseDir(t.TempDir()).ImportDependencies(deps...).Build()
	require.NoError(t, err)

	deps[0].Version = "9.9.9"
	got := req.ImportDependencies()
	got[0].Version = "0.0.1"

	assert.Equal(t, "1.4.0", req.ImportDependencies()[0].Version)
}
