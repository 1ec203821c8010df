// Package history persists the outcome of every kolla-ansible invocation so a
// run can be inspected after the process that made it has exited.
package history

import (
	"fmt"
	"time"

	"github.com/deixis/steward/internal/outcome"
	"github.com/deixis/steward/internal/report"
)

// Store persists and retrieves records.
type Store interface {
	Save(rec *Record) error
	Load(id string) (*Record, error)
}

// Record is the stored outcome of one stage.
type Record struct {
	ID       string         `json:"id"`
	RunID    string         `json:"run_id,omitempty"` // pipeline run the stage belonged to
	Stage    string         `json:"stage"`
	Command  string         `json:"command"`
	ExitCode int            `json:"exit_code"`
	Decision string         `json:"decision"`
	Reason   string         `json:"reason,omitempty"`
	Report   *report.Report `json:"report,omitempty"`
	Error    string         `json:"error,omitempty"` // set when the command could not be run
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
}

// Apply copies the fields of d into r.
func (r *Record) Apply(d outcome.Decision) {
	r.Decision = outcome.Name(d)
	switch d := d.(type) {
	case outcome.Success:
		r.ExitCode = 0
	case outcome.Fatal:
		r.ExitCode = d.ExitCode
		r.Reason = d.Reason
	case outcome.RecoverableUnreachable:
		r.ExitCode = d.ExitCode
		r.Command = d.Command
		r.Report = d.Report
	}
}

// Duration returns how long the stage ran.
func (r *Record) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// String returns a one-line description of the record.
func (r *Record) String() string {
	s := fmt.Sprintf("%s %s exit=%d %s", r.ID, r.Stage, r.ExitCode, r.Decision)
	if r.Reason != "" {
		s += " (" + r.Reason + ")"
	}
	if r.Report != nil {
		s += ": " + r.Report.Summary()
	}
	return s
}
