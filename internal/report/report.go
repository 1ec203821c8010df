// Package report holds the run report written by the kolla-ansible stats hook
// and the loader that reads it back after the subprocess exits.
//
// The report is the only channel between the external run and the decision
// logic, so an unavailable report is represented as a nil *Report and never as
// a zero-valued one: "no host failed" and "nothing is known" must stay distinct.
package report

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Report is the aggregated outcome of one multi-host kolla-ansible run.
type Report struct {
	NumFailures      int      `json:"num_failures"`
	NumUnreachable   int      `json:"num_unreachable"`
	Failures         []string `json:"failures"`
	Unreachable      []string `json:"unreachable"`
	NoHostsRemaining bool     `json:"no_hosts_remaining"` // a play ended with no hosts left
}

// New returns an empty report with non-nil host lists.
func New() *Report {
	return &Report{
		Failures:    []string{},
		Unreachable: []string{},
	}
}

// ToJSON encodes every field, including zero counts and empty lists.
func (r *Report) ToJSON() ([]byte, error) {
	out := *r
	if out.Failures == nil {
		out.Failures = []string{}
	}
	if out.Unreachable == nil {
		out.Unreachable = []string{}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encoding run report: %w", err)
	}
	return data, nil
}

// CompletedWithoutFailures reports whether the run reached the end without a
// task failure. Unreachable hosts do not count as failures.
func (r *Report) CompletedWithoutFailures() bool {
	return r.NumFailures == 0 && !r.NoHostsRemaining
}

// AddFailure records a host with at least one failed task.
func (r *Report) AddFailure(host string) {
	if slices.Contains(r.Failures, host) {
		return
	}
	r.Failures = append(r.Failures, host)
	r.NumFailures++
}

// AddUnreachable records a host that could not be contacted.
func (r *Report) AddUnreachable(host string) {
	if slices.Contains(r.Unreachable, host) {
		return
	}
	r.Unreachable = append(r.Unreachable, host)
	r.NumUnreachable++
}

// Summary returns a one-line description of the report.
func (r *Report) Summary() string {
	s := fmt.Sprintf("%d failed, %d unreachable", r.NumFailures, r.NumUnreachable)
	if r.NoHostsRemaining {
		s += ", ended early"
	}
	return s
}
