// Package workflow runs the configured kolla-ansible stages in order. It is
// consumed by both the MCP server and the CLI commands.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/deixis/steward/internal/config"
	"github.com/deixis/steward/internal/history"
	"github.com/deixis/steward/internal/kolla"
	"github.com/deixis/steward/internal/outcome"
)

// Invoker runs one kolla-ansible command. Implemented by kolla.Invoker.
type Invoker interface {
	Run(ctx context.Context, opts kolla.Options, req kolla.Request) (outcome.Decision, error)
}

// Stage statuses.
const (
	StatusPass        = "pass"
	StatusUnreachable = "unreachable"
	StatusFail        = "fail"
	StatusError       = "error" // the command could not be run
	StatusSkipped     = "skipped"
)

// Engine holds shared dependencies for pipeline runs.
type Engine struct {
	Config    *config.Config
	Options   kolla.Options // kolla-ansible settings shared by every stage
	Invoker   Invoker
	Store     history.Store // optional
	Log       logrus.FieldLogger
	Verbosity int

	now func() time.Time
}

// StageResult holds the outcome of a single stage.
type StageResult struct {
	Name        string
	Status      string
	RecordID    string
	ExitCode    int
	Reason      string
	Unreachable []string
	Detail      string // error text when the stage could not run
}

// Summary holds the outcome of a pipeline run.
type Summary struct {
	RunID       string
	Stages      []StageResult
	Unreachable []string // every unreachable host, first-seen order
	ExitCode    int
}

// Select returns the configured stages with the given names, in the order
// given, or every configured stage when names is empty.
func (e *Engine) Select(names []string) ([]config.Stage, error) {
	if len(names) == 0 {
		if len(e.Config.Stages) == 0 {
			return nil, fmt.Errorf("no stages configured")
		}
		return e.Config.Stages, nil
	}
	stages := make([]config.Stage, 0, len(names))
	for _, name := range names {
		s, ok := e.Config.Stage(name)
		if !ok {
			return nil, fmt.Errorf("unknown stage %q", name)
		}
		stages = append(stages, s)
	}
	return stages, nil
}

// Run executes stages in sequence. A stage that fails only because of
// unreachable hosts (and opted in to continuing) does not stop the pipeline;
// any other failure does, and the remaining stages are skipped.
//
// The summary is returned even when err is non-nil. err carries the exit
// code: an *outcome.ExitError for a fatal stage, or an *outcome.ContinueError
// for the first recoverable stage unless unreachable hosts are allowed.
func (e *Engine) Run(ctx context.Context, stages []config.Stage) (*Summary, error) {
	sum := &Summary{RunID: uuid.New().String()}
	log := e.log().WithField("run_id", sum.RunID)

	results := make([]StageResult, len(stages))
	for i, s := range stages {
		results[i] = StageResult{Name: s.Name, Status: StatusSkipped}
	}
	sum.Stages = results

	var firstRecoverable outcome.Decision
	seen := make(map[string]bool)

	for i, s := range stages {
		stageLog := log.WithField("stage", s.Name)
		stageLog.Infof("Running stage %s", s.Name)

		rec := &history.Record{
			ID:      uuid.New().String(),
			RunID:   sum.RunID,
			Stage:   s.Name,
			Command: "kolla-ansible " + s.Command,
			Started: e.clock(),
		}
		d, err := e.Invoker.Run(ctx, e.Options, e.request(s))
		rec.Finished = e.clock()
		results[i].RecordID = rec.ID

		if err != nil {
			rec.Decision = StatusError
			rec.ExitCode = 1
			rec.Error = err.Error()
			e.save(stageLog, rec)
			results[i].Status = StatusError
			results[i].ExitCode = 1
			results[i].Detail = err.Error()
			sum.ExitCode = 1
			return sum, fmt.Errorf("stage %s: %w", s.Name, err)
		}

		rec.Apply(d)
		e.save(stageLog, rec)
		results[i].ExitCode = rec.ExitCode
		results[i].Reason = rec.Reason

		switch d := d.(type) {
		case outcome.Success:
			results[i].Status = StatusPass
		case outcome.RecoverableUnreachable:
			results[i].Status = StatusUnreachable
			results[i].Unreachable = d.Report.Unreachable
			for _, host := range d.Report.Unreachable {
				if !seen[host] {
					seen[host] = true
					sum.Unreachable = append(sum.Unreachable, host)
				}
			}
			if firstRecoverable == nil {
				firstRecoverable = d
			}
			stageLog.WithField("hosts", d.Report.Unreachable).Warnf("Stage %s left %d hosts unreachable", s.Name, d.Report.NumUnreachable)
		case outcome.Fatal:
			results[i].Status = StatusFail
			sum.ExitCode = d.ExitCode
			stageLog.WithField("reason", d.Reason).Errorf("Stage %s failed", s.Name)
			return sum, &outcome.ExitError{Code: d.ExitCode, Reason: fmt.Sprintf("stage %s: %s", s.Name, d.Reason)}
		}
	}

	if firstRecoverable != nil && !e.Config.AllowUnreachable {
		err := outcome.Err(firstRecoverable)
		sum.ExitCode = outcome.ExitCodeOf(err)
		return sum, err
	}
	return sum, nil
}

func (e *Engine) request(s config.Stage) kolla.Request {
	return kolla.Request{
		Command:               s.Command,
		InventoryName:         s.InventoryName(),
		ExtraVars:             s.ExtraVars,
		Tags:                  s.Tags,
		Limit:                 s.Limit,
		Verbosity:             e.Verbosity,
		ExtraArgs:             s.ExtraArgs,
		ContinueOnUnreachable: s.ContinueOnUnreachable,
	}
}

func (e *Engine) save(log logrus.FieldLogger, rec *history.Record) {
	if e.Store == nil {
		return
	}
	if err := e.Store.Save(rec); err != nil {
		log.WithError(err).Warn("Could not save run record")
	}
}

func (e *Engine) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

func (e *Engine) log() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}
