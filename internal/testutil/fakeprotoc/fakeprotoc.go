// Package fakeprotoc lets a test binary stand in for protoc. A package's
// TestMain calls Intercept first; when the binary was re-executed by the code
// under test with ModeEnv set, it behaves like the selected protoc scenario
// and exits instead of running the tests.
package fakeprotoc

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ModeEnv selects the scenario the re-executed binary plays
const ModeEnv = "PROTOGEN_FAKE_PROTOC"

const (
	ModeSuccess  = "success"
	ModeWarning  = "warning"
	ModeFailure  = "failure"
	ModeSleep    = "sleep"
	ModeLongLine = "long-line"
	ModeEcho     = "echo"
	ModeGenerate = "generate"
	ModeImports  = "imports"
)

// Warning and error lines in protoc's format
const (
	WarningLine = "example.proto:1:1: warning: Import other.proto is unused."
	ErrorLine   = `example.proto:3:5: Expected ";".`
)

// LongLineLength is the size of the line printed by ModeLongLine
const LongLineLength = 256 * 1024

// Env returns the environment entry selecting mode
func Env(mode string) string {
	return ModeEnv + "=" + mode
}

// Intercept runs the fake and exits when the process was launched as a fake protoc
func Intercept() {
	mode := os.Getenv(ModeEnv)
	if mode == "" {
		return
	}

	os.Exit(run(mode, os.Args[1:]))
}

func run(mode string, args []string) int {
	switch mode {
	case ModeSuccess:
		fmt.Println("protoc finished")
		return 0

	case ModeWarning:
		fmt.Fprintln(os.Stderr, WarningLine)
		return 0

	case ModeFailure:
		fmt.Fprintln(os.Stderr, WarningLine)
		fmt.Fprintln(os.Stderr, ErrorLine)
		return 1

	case ModeSleep:
		fmt.Println("starting")
		time.Sleep(30 * time.Second)
		return 0

	case ModeLongLine:
		fmt.Println(strings.Repeat("x", LongLineLength))
		fmt.Fprint(os.Stderr, "no trailing newline")
		return 0

	case ModeEcho:
		wd, _ := os.Getwd()
		fmt.Println("cwd=" + wd)
		for _, a := range args {
			fmt.Println(a)
		}

		return 0

	case ModeGenerate:
		return generate(args)

	case ModeImports:
		return listImports(args)

	default:
		fmt.Fprintf(os.Stderr, "unknown fake protoc mode %q\n", mode)
		return 2
	}
}

// generate writes one file per schema into the --java_out directory
func generate(args []string) int {
	var out string
	var schemas []string

	for _, a := range args {
		switch {
		case strings.HasPrefix(a, "--java_out="):
			out = strings.TrimPrefix(a, "--java_out=")
			out = strings.TrimPrefix(out, "lite:")
		case strings.HasPrefix(a, "--"):
		default:
			schemas = append(schemas, a)
		}
	}

	if out == "" {
		fmt.Fprintln(os.Stderr, "Missing output directives.")
		return 1
	}

	for _, s := range schemas {
		name := strings.TrimSuffix(filepath.Base(s), filepath.Ext(s)) + ".java"
		if err := os.WriteFile(filepath.Join(out, name), []byte("// generated\n"), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	return 0
}

// ImportsFile is written by ModeImports into the --java_out directory
const ImportsFile = "imports.txt"

// listImports records every schema reachable through --proto_path as
// "<import dir>\t<relative path>" lines
func listImports(args []string) int {
	var out string
	var lines []string

	for _, a := range args {
		switch {
		case strings.HasPrefix(a, "--java_out="):
			out = strings.TrimPrefix(a, "--java_out=")
		case strings.HasPrefix(a, "--proto_path="):
			dir := strings.TrimPrefix(a, "--proto_path=")
			_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() || filepath.Ext(path) != ".proto" {
					return nil
				}

				rel, _ := filepath.Rel(dir, path)
				lines = append(lines, dir+"\t"+filepath.ToSlash(rel))
				return nil
			})
		}
	}

	if out == "" {
		fmt.Fprintln(os.Stderr, "Missing output directives.")
		return 1
	}

	if err := os.WriteFile(filepath.Join(out, ImportsFile), []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	return 0
}
