package outcome

import (
	"errors"
	"fmt"

	"github.com/deixis/steward/internal/report"
)

// ExitError is a failure that should end the process with Code.
type ExitError struct {
	Code   int
	Reason string
}

func (e *ExitError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return fmt.Sprintf("exit status %d: %s", e.Code, e.Reason)
}

// ExitCode returns the process exit code.
func (e *ExitError) ExitCode() int { return e.Code }

// ContinueError reports a failure caused only by unreachable hosts. It unwraps
// to an *ExitError, so code that does not handle it still sees a fatal error.
type ContinueError struct {
	Command  string
	ExitCode int
	Report   *report.Report
}

func (e *ContinueError) Error() string {
	n := 0
	if e.Report != nil {
		n = e.Report.NumUnreachable
	}
	return fmt.Sprintf("%s exited %d with %d unreachable hosts", e.Command, e.ExitCode, n)
}

func (e *ContinueError) Unwrap() error {
	return &ExitError{Code: e.ExitCode, Reason: "unreachable hosts"}
}

// Err converts d to an error: nil for Success, *ExitError for Fatal and
// *ContinueError for RecoverableUnreachable.
func Err(d Decision) error {
	switch d := d.(type) {
	case Fatal:
		return &ExitError{Code: d.ExitCode, Reason: d.Reason}
	case RecoverableUnreachable:
		return &ContinueError{Command: d.Command, ExitCode: d.ExitCode, Report: d.Report}
	default:
		return nil
	}
}

// ExitCodeOf returns the process exit code for err: 0 for nil, the carried
// code for exit errors and 1 otherwise.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
