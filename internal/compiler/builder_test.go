package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/protogen/internal/plugins"
	"github.com/Norgate-AV/protogen/internal/utils"
)

func TestCommandBuilder_BuildCommandArgs(t *testing.T) {
	tests := []struct {
		name        string
		inv         Invocation
		wantArgs    []string
		wantErr     bool
		errContains string
	}{
		{
			name: "single source directory, no plugins",
			inv: Invocation{
				SourceDirs:  []string{"/p/src/main/protobuf"},
				OutputDir:   "/p/target/generated-sources/protobuf",
				SchemaFiles: []string{"/p/src/main/protobuf/a.proto"},
			},
			wantArgs: []string{
				"--proto_path=/p/src/main/protobuf",
				"--java_out=/p/target/generated-sources/protobuf",
				"/p/src/main/protobuf/a.proto",
			},
		},
		{
			name: "import paths follow sources and duplicates are dropped",
			inv: Invocation{
				SourceDirs:  []string{"/p/src", "/p/src/"},
				ImportDirs:  []string{"/p/include", "/p/src", ""},
				OutputDir:   "/out",
				SchemaFiles: []string{"/p/src/a.proto"},
			},
			wantArgs: []string{
				"--proto_path=/p/src",
				"--proto_path=/p/include",
				"--java_out=/out",
				"/p/src/a.proto",
			},
		},
		{
			name: "lite applies to java and kotlin",
			inv: Invocation{
				SourceDirs:  []string{"/src"},
				OutputDir:   "/out",
				Lite:        true,
				Kotlin:      true,
				SchemaFiles: []string{"/src/a.proto"},
			},
			wantArgs: []string{
				"--proto_path=/src",
				"--java_out=lite:/out",
				"--kotlin_out=lite:/out",
				"/src/a.proto",
			},
		},
		{
			name: "plugins in declaration order then flags",
			inv: Invocation{
				SourceDirs: []string{"/src"},
				OutputDir:  "/out",
				Plugins: []plugins.Resolved{
					{ID: "reactor", Binary: utils.Binary{Path: "/bin/reactor"}},
					{ID: "grpc", Binary: utils.Binary{Path: "/bin/grpc"}},
				},
				Kotlin:        true,
				FatalWarnings: true,
				SchemaFiles:   []string{"/src/a.proto", "/src/b.proto"},
			},
			wantArgs: []string{
				"--proto_path=/src",
				"--java_out=/out",
				"--plugin=protoc-gen-reactor=/bin/reactor",
				"--reactor_out=/out",
				"--plugin=protoc-gen-grpc=/bin/grpc",
				"--grpc_out=/out",
				"--kotlin_out=/out",
				"--fatal_warnings",
				"/src/a.proto",
				"/src/b.proto",
			},
		},
		{
			name:        "missing output directory",
			inv:         Invocation{SourceDirs: []string{"/src"}},
			wantErr:     true,
			errContains: "output directory not specified",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewCommandBuilder()
			args, err := cb.BuildCommandArgs(tt.inv)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestCommandBuilder_BuildCommand(t *testing.T) {
	inv := Invocation{
		Compiler:    utils.Binary{Path: "/usr/bin/protoc"},
		SourceDirs:  []string{"/src"},
		OutputDir:   "/out",
		SchemaFiles: []string{"/src/a.proto"},
		WorkDir:     "/project",
	}

	cb := NewCommandBuilder()

	first, err := cb.BuildCommand(inv)
	require.NoError(t, err)

	second, err := cb.BuildCommand(inv)
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/protoc", first.Path())
	assert.Equal(t, "/project", first.Dir())
	assert.Equal(t, first.Args(), second.Args(), "same invocation must give the same command")
	assert.Equal(t, "/usr/bin/protoc --proto_path=/src --java_out=/out /src/a.proto", first.String())

	t.Run("missing compiler", func(t *testing.T) {
		inv := inv
		inv.Compiler = utils.Binary{}

		_, err := cb.BuildCommand(inv)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "compiler path not specified")
	})
}

func TestCommand_IsImmutable(t *testing.T) {
	args := []string{"--java_out=/out", "a.proto"}
	cmd := NewCommand("protoc", args, "")

	args[0] = "changed"
	got := cmd.Args()
	got[1] = "changed"

	assert.Equal(t, []string{"--java_out=/out", "a.proto"}, cmd.Args())
}
