package compiler

import (
	"fmt"
	"path/filepath"

	"github.com/Norgate-AV/protogen/internal/plugins"
	"github.com/Norgate-AV/protogen/internal/utils"
)

// Invocation holds everything needed to assemble a compiler command
type Invocation struct {
	Compiler utils.Binary

	// SourceDirs are compiled and importable; ImportDirs are importable only
	SourceDirs []string
	ImportDirs []string

	OutputDir   string
	Plugins     []plugins.Resolved
	SchemaFiles []string

	Lite          bool
	Kotlin        bool
	FatalWarnings bool

	// WorkDir is the build root the compiler runs in
	WorkDir string
}

// CommandBuilder handles building compiler commands
type CommandBuilder struct{}

// NewCommandBuilder creates a new command builder
func NewCommandBuilder() *CommandBuilder {
	return &CommandBuilder{}
}

// BuildCommandArgs builds the compiler arguments in a fixed order:
// import paths, output, plugins, feature flags, schema files
func (cb *CommandBuilder) BuildCommandArgs(inv Invocation) ([]string, error) {
	if inv.OutputDir == "" {
		return nil, fmt.Errorf("output directory not specified")
	}

	var cmdArgs []string

	seen := make(map[string]struct{})
	for _, dir := range append(append([]string{}, inv.SourceDirs...), inv.ImportDirs...) {
		if dir == "" {
			continue
		}

		clean := filepath.Clean(dir)
		if _, dup := seen[clean]; dup {
			continue
		}

		seen[clean] = struct{}{}
		cmdArgs = append(cmdArgs, "--proto_path="+clean)
	}

	cmdArgs = append(cmdArgs, "--java_out="+outputSpec(inv.Lite, inv.OutputDir))

	for _, p := range inv.Plugins {
		cmdArgs = append(cmdArgs,
			"--plugin=protoc-gen-"+p.ID+"="+p.Binary.Path,
			"--"+p.ID+"_out="+inv.OutputDir,
		)
	}

	if inv.Kotlin {
		cmdArgs = append(cmdArgs, "--kotlin_out="+outputSpec(inv.Lite, inv.OutputDir))
	}

	if inv.FatalWarnings {
		cmdArgs = append(cmdArgs, "--fatal_warnings")
	}

	cmdArgs = append(cmdArgs, inv.SchemaFiles...)

	return cmdArgs, nil
}

// BuildCommand assembles the full command for inv
func (cb *CommandBuilder) BuildCommand(inv Invocation) (Command, error) {
	if inv.Compiler.Path == "" {
		return Command{}, fmt.Errorf("compiler path not specified")
	}

	cmdArgs, err := cb.BuildCommandArgs(inv)
	if err != nil {
		return Command{}, err
	}

	return NewCommand(inv.Compiler.Path, cmdArgs, inv.WorkDir), nil
}

func outputSpec(lite bool, dir string) string {
	if lite {
		return "lite:" + dir
	}

	return dir
}
