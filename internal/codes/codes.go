// Package codes defines the failure kinds a generation run can end with and
// the process exit codes the CLI reports for them.
package codes

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the reason a generation run failed
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidRequest
	KindUnsupportedPlatform
	KindCompilerNotFound
	KindPluginNotFound
	KindDuplicatePluginIdentifier
	KindNotExecutable
	KindProcessLaunchFailure
	KindCompilationFailed
	KindTimeout
)

// ExitCodes maps failure kinds to the exit code the CLI terminates with
var ExitCodes = map[Kind]int{
	KindUnknown:                   1,
	KindInvalidRequest:            2,
	KindUnsupportedPlatform:       3,
	KindCompilerNotFound:          4,
	KindPluginNotFound:            5,
	KindDuplicatePluginIdentifier: 6,
	KindNotExecutable:             7,
	KindProcessLaunchFailure:      8,
	KindCompilationFailed:         9,
	KindTimeout:                   10,
}

// Descriptions maps failure kinds to a human readable summary
var Descriptions = map[Kind]string{
	KindUnknown:                   "Unknown error",
	KindInvalidRequest:            "Invalid generation request",
	KindUnsupportedPlatform:       "Unsupported platform",
	KindCompilerNotFound:          "Compiler not found",
	KindPluginNotFound:            "Plugin not found",
	KindDuplicatePluginIdentifier: "Duplicate plugin identifier",
	KindNotExecutable:             "Resolved file could not be made executable",
	KindProcessLaunchFailure:      "Compiler process could not be launched",
	KindCompilationFailed:         "Compilation failed",
	KindTimeout:                   "Compiler timed out",
}

func (k Kind) String() string {
	return Describe(k)
}

// Error is a failure attributed to exactly one Kind
type Error struct {
	Kind Kind
	Msg  string
	Err  error

	// Diagnostics holds compiler output lines relevant to the failure
	Diagnostics []string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Msg)

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind wrapping cause
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// WithDiagnostics attaches compiler output to the error
func (e *Error) WithDiagnostics(lines []string) *Error {
	e.Diagnostics = append([]string(nil), lines...)
	return e
}

// KindOf returns the kind of the first *Error in the chain, or KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode returns the exit code for err, 0 when err is nil
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	if code, ok := ExitCodes[KindOf(err)]; ok {
		return code
	}

	return 1
}

// Describe returns the description for a kind, or a generic message if unknown
func Describe(kind Kind) string {
	if msg, ok := Descriptions[kind]; ok {
		return msg
	}

	return "Unknown error"
}
