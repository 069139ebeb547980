package compiler

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Norgate-AV/protogen/internal/codes"
)

// DefaultWaitDelay bounds how long output is drained after the compiler exits
// or is killed, in case a plugin it spawned still holds the pipes open
const DefaultWaitDelay = 5 * time.Second

// Outcome is the result of one compiler run
type Outcome struct {
	ExitCode int
	Lines    []Line
	Duration time.Duration
}

// Warnings returns the lines classified as warnings
func (o *Outcome) Warnings() []Line {
	return o.filter(SeverityWarning)
}

// Errors returns the lines classified as errors
func (o *Outcome) Errors() []Line {
	return o.filter(SeverityError)
}

// Succeeded reports whether the run counts as a success under the warning policy
func (o *Outcome) Succeeded(fatalWarnings bool) bool {
	if o.ExitCode != 0 {
		return false
	}

	return !fatalWarnings || len(o.Warnings()) == 0
}

// Diagnostics returns the text of every non-blank line in output order
func (o *Outcome) Diagnostics() []string {
	var out []string
	for _, l := range o.Lines {
		if l.Text != "" {
			out = append(out, l.Text)
		}
	}

	return out
}

func (o *Outcome) filter(s Severity) []Line {
	var out []Line
	for _, l := range o.Lines {
		if l.Severity == s {
			out = append(out, l)
		}
	}

	return out
}

// LineHandler receives each output line as soon as it is complete
type LineHandler func(Line)

// Runner executes compiler commands
type Runner struct {
	// Timeout kills the compiler after this long; zero disables it
	Timeout time.Duration

	// Env is appended to the inherited environment
	Env []string

	// OnLine, if set, is called for every line while the compiler runs
	OnLine LineHandler

	WaitDelay time.Duration
	Logger    logrus.FieldLogger
}

// NewRunner creates a runner with no timeout
func NewRunner(logger logrus.FieldLogger) *Runner {
	return &Runner{Logger: logger}
}

// Run executes cmd and waits for it. A non-zero exit is reported in the
// Outcome, not as an error; errors are reserved for launch failures,
// timeouts and cancellation.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Outcome, error) {
	logger := r.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Path(), cmd.Args()...)
	c.Dir = cmd.Dir()
	if len(r.Env) > 0 {
		c.Env = append(os.Environ(), r.Env...)
	}

	c.WaitDelay = r.WaitDelay
	if c.WaitDelay <= 0 {
		c.WaitDelay = DefaultWaitDelay
	}

	col := &collector{onLine: r.OnLine}
	stdout := &lineWriter{stream: Stdout, sink: col}
	stderr := &lineWriter{stream: Stderr, sink: col}
	c.Stdout = stdout
	c.Stderr = stderr

	log := logger.WithFields(logrus.Fields{"compiler": cmd.Path(), "dir": cmd.Dir()})
	log.WithField("command", cmd.String()).Debug("Running compiler")

	start := time.Now()
	if err := c.Start(); err != nil {
		return nil, codes.Wrap(codes.KindProcessLaunchFailure, err, "failed to launch %s", cmd.Path())
	}

	err := c.Wait()
	stdout.flush()
	stderr.flush()

	outcome := &Outcome{Lines: col.snapshot(), Duration: time.Since(start)}

	if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
		outcome.ExitCode = -1
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return outcome, codes.Wrap(codes.KindTimeout, ctxErr, "compiler timed out after %s", outcome.Duration.Round(time.Millisecond)).
				WithDiagnostics(outcome.Diagnostics())
		}

		return outcome, codes.Wrap(codes.KindUnknown, ctxErr, "compiler run cancelled")
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			outcome.ExitCode = exitErr.ExitCode()
		case errors.Is(err, exec.ErrWaitDelay):
			log.Warn("Compiler exited but its output was still open after the wait delay")
		default:
			return outcome, codes.Wrap(codes.KindProcessLaunchFailure, err, "failed waiting for %s", cmd.Path())
		}
	}

	log.WithFields(logrus.Fields{
		"exit_code": outcome.ExitCode,
		"warnings":  len(outcome.Warnings()),
		"errors":    len(outcome.Errors()),
		"duration":  outcome.Duration,
	}).Debug("Compiler finished")

	return outcome, nil
}

// collector gathers lines from both streams in arrival order
type collector struct {
	mu     sync.Mutex
	lines  []Line
	onLine LineHandler
}

func (c *collector) add(stream Stream, text string) {
	line := Line{Stream: stream, Text: text, Severity: Classify(stream, text)}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = append(c.lines, line)
	if c.onLine != nil {
		c.onLine(line)
	}
}

func (c *collector) snapshot() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Line(nil), c.lines...)
}

// lineWriter splits a stream into lines without any length limit
type lineWriter struct {
	stream Stream
	sink   *collector
	buf    []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}

		w.sink.add(w.stream, string(bytes.TrimSuffix(w.buf[:i], []byte("\r"))))
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *lineWriter) flush() {
	if len(w.buf) > 0 {
		w.sink.add(w.stream, string(bytes.TrimSuffix(w.buf, []byte("\r"))))
		w.buf = nil
	}
}
