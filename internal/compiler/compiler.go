// Package compiler locates protoc, assembles its command line and runs it.
package compiler

import (
	"strings"
)

const (
	// GroupID and ArtifactID identify protoc on Maven Central
	GroupID    = "com.google.protobuf"
	ArtifactID = "protoc"

	// ExecutableName is looked up on PATH when the version is "PATH"
	ExecutableName = "protoc"
)

// Command is an assembled compiler invocation. It is never modified after
// construction; accessors return copies.
type Command struct {
	path string
	args []string
	dir  string
}

// NewCommand creates a command running path with args in dir
func NewCommand(path string, args []string, dir string) Command {
	return Command{
		path: path,
		args: append([]string(nil), args...),
		dir:  dir,
	}
}

// Path returns the executable
func (c Command) Path() string {
	return c.path
}

// Args returns the arguments, excluding the executable
func (c Command) Args() []string {
	return append([]string(nil), c.args...)
}

// Dir returns the working directory
func (c Command) Dir() string {
	return c.dir
}

// String renders the command line for logs
func (c Command) String() string {
	return strings.Join(append([]string{c.path}, c.args...), " ")
}
