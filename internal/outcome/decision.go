// Package outcome decides what a failed kolla-ansible invocation means for the
// rest of the workflow: stop, or carry on past hosts that could not be reached.
package outcome

import (
	"github.com/sirupsen/logrus"

	"github.com/deixis/steward/internal/report"
)

// Decision is the result of one invocation. It is one of Success, Fatal or
// RecoverableUnreachable.
type Decision interface {
	decision()
}

// Success means the command exited 0.
type Success struct{}

// Fatal means the command failed and the workflow must stop with ExitCode.
type Fatal struct {
	ExitCode int
	Reason   string
}

// RecoverableUnreachable means the command failed only because some hosts were
// unreachable and the caller asked to continue in that case.
type RecoverableUnreachable struct {
	Command  string
	ExitCode int
	Report   *report.Report
}

func (Success) decision()                {}
func (Fatal) decision()                  {}
func (RecoverableUnreachable) decision() {}

// Reasons recorded on Fatal decisions.
const (
	ReasonNotOptedIn         = "continuation not requested"
	ReasonReportUnavailable  = "run report unavailable"
	ReasonFailures           = "hosts failed"
	ReasonEndedEarly         = "no hosts remaining"
	ReasonNothingUnreachable = "no unreachable hosts"
)

// Input describes a finished invocation.
type Input struct {
	Name                  string // short label for logs, Command when empty
	Command               string
	ExitCode              int
	ContinueOnUnreachable bool
	// Load reads the invocation's run report. It is only called for a non-zero
	// exit when ContinueOnUnreachable is set.
	Load func() *report.Report
}

// Decide classifies a finished invocation.
func Decide(log logrus.FieldLogger, in Input) Decision {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if in.ExitCode == 0 {
		return Success{}
	}

	name := in.Name
	if name == "" {
		name = in.Command
	}
	log = log.WithFields(logrus.Fields{"command": name, "exit_code": in.ExitCode})
	log.Errorf("%s exited %d", name, in.ExitCode)

	if !in.ContinueOnUnreachable {
		return Fatal{ExitCode: in.ExitCode, Reason: ReasonNotOptedIn}
	}

	var r *report.Report
	if in.Load != nil {
		r = in.Load()
	}
	if r == nil {
		return Fatal{ExitCode: in.ExitCode, Reason: ReasonReportUnavailable}
	}

	switch {
	case r.NumFailures > 0:
		return Fatal{ExitCode: in.ExitCode, Reason: ReasonFailures}
	case r.NoHostsRemaining:
		return Fatal{ExitCode: in.ExitCode, Reason: ReasonEndedEarly}
	case r.NumUnreachable == 0:
		return Fatal{ExitCode: in.ExitCode, Reason: ReasonNothingUnreachable}
	}

	log.WithField("unreachable", r.Unreachable).
		Infof("Continuing with %d unreachable hosts", r.NumUnreachable)
	return RecoverableUnreachable{Command: in.Command, ExitCode: in.ExitCode, Report: r}
}

// Name returns a short label for d, used in history records and summaries.
func Name(d Decision) string {
	switch d.(type) {
	case Success:
		return "success"
	case Fatal:
		return "fatal"
	case RecoverableUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}
