package compiler

import (
	"strings"
)

// Stream identifies which output stream a line was read from
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}

	return "stdout"
}

// Severity is the heuristic classification of an output line
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Line is one line of compiler output
type Line struct {
	Stream   Stream
	Text     string
	Severity Severity
}

// Classify applies protoc's diagnostic format. protoc reports warnings as
// "file:line:col: warning: ..." and logs "[libprotobuf WARNING ...]"; errors
// carry no marker of their own and go to stderr, so any other stderr text is
// treated as an error.
func Classify(stream Stream, text string) Severity {
	t := strings.TrimSpace(text)
	if t == "" {
		return SeverityInfo
	}

	lower := strings.ToLower(t)

	switch {
	case strings.HasPrefix(t, "[libprotobuf WARNING"), strings.Contains(lower, "warning:"):
		return SeverityWarning
	case strings.HasPrefix(t, "[libprotobuf ERROR"),
		strings.HasPrefix(t, "[libprotobuf FATAL"),
		strings.Contains(lower, "error:"):
		return SeverityError
	case stream == Stderr:
		return SeverityError
	}

	return SeverityInfo
}
