// Package runner executes external commands with bounded output capture.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/google/uuid"
)

// DefaultMaxOutput is the capture limit used when MaxOutput is zero.
const DefaultMaxOutput = 1 << 20

// Runner executes commands and waits for them to finish. There is no timeout;
// a run ends when the process exits or ctx is cancelled.
type Runner struct {
	Dir       string    // working directory, empty for the current one
	MaxOutput int       // bytes of combined output to capture
	Stdout    io.Writer // live stdout, os.Stdout when nil
	Stderr    io.Writer // live stderr, os.Stderr when nil
	Quiet     bool      // capture only, do not stream
}

// Run executes argv with env as its complete environment (the current one when
// env is nil). The first element is the binary name, resolved via PATH.
func (r *Runner) Run(ctx context.Context, argv []string, env []string) (*Result, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty argv")
	}

	maxOutput := r.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}

	runID := uuid.New().String()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	cmd.Env = env

	var output bytes.Buffer
	capture := &limitWriter{buf: &output, limit: maxOutput}
	cmd.Stdout = r.stream(capture, r.Stdout, os.Stdout)
	cmd.Stderr = r.stream(capture, r.Stderr, os.Stderr)

	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			// Binary not found or other exec error.
			return nil, fmt.Errorf("executing %s: %w", argv[0], runErr)
		}
	}

	return &Result{
		RunID:     runID,
		ExitCode:  exitCode,
		Output:    output.Bytes(),
		Truncated: capture.dropped,
	}, nil
}

func (r *Runner) stream(capture io.Writer, w, fallback io.Writer) io.Writer {
	if r.Quiet {
		return capture
	}
	if w == nil {
		w = fallback
	}
	return io.MultiWriter(w, capture)
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
// It is shared by the stdout and stderr copiers.
type limitWriter struct {
	mu      sync.Mutex
	buf     *bytes.Buffer
	limit   int
	dropped bool
}

func (w *limitWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		w.dropped = w.dropped || len(p) > 0
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Write only what fits, but report all bytes as consumed
		// to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		w.dropped = true
		return len(p), nil
	}
	return w.buf.Write(p)
}
