package kolla

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/deixis/steward/internal/outcome"
	"github.com/deixis/steward/internal/report"
	"github.com/deixis/steward/internal/runner"
)

// CommandRunner executes argv with env and waits for it to exit.
type CommandRunner interface {
	Run(ctx context.Context, argv []string, env []string) (*runner.Result, error)
}

// Invoker runs kolla-ansible through a shell.
type Invoker struct {
	Runner  CommandRunner
	Loader  *report.Loader     // NewLoader(Log) when nil
	Log     logrus.FieldLogger // standard logger when nil
	TempDir string             // parent for run report directories, os.TempDir when empty
	Env     []string           // base environment, os.Environ when nil
}

// Run validates opts, runs the command described by req and decides the
// outcome. When req.ContinueOnUnreachable is set a private directory is created
// for the run report and removed before Run returns, whatever the outcome.
// The error is non-nil only when the command could not be run at all.
func (i *Invoker) Run(ctx context.Context, opts Options, req Request) (outcome.Decision, error) {
	log := i.log().WithFields(logrus.Fields{
		"command":   req.Command,
		"inventory": req.InventoryName,
	})

	if err := opts.Validate(req.InventoryName); err != nil {
		log.WithError(err).Error("Invalid kolla-ansible options")
		return nil, err
	}

	argv, err := BuildArgs(opts, req)
	if err != nil {
		return nil, err
	}

	var statsPath string
	if req.ContinueOnUnreachable {
		dir, err := os.MkdirTemp(i.TempDir, "steward-stats-*")
		if err != nil {
			return nil, fmt.Errorf("creating run report directory: %w", err)
		}
		defer func() {
			if err := os.RemoveAll(dir); err != nil {
				log.WithError(err).WithField("dir", dir).Warn("Could not remove run report directory")
			}
		}()
		statsPath = filepath.Join(dir, "stats.json")
	}

	base := i.Env
	if base == nil {
		base = os.Environ()
	}
	env := Environment(base, opts, statsPath)

	cmdline := strings.Join(argv, " ")
	log.WithField("cmdline", cmdline).Debug("Running kolla-ansible")

	res, err := i.Runner.Run(ctx, []string{"/bin/sh", "-c", cmdline}, env)
	if err != nil {
		return nil, fmt.Errorf("running kolla-ansible %s: %w", req.Command, err)
	}

	loader := i.Loader
	if loader == nil {
		loader = report.NewLoader(i.Log)
	}
	return outcome.Decide(log, outcome.Input{
		Name:                  "kolla-ansible " + req.Command,
		Command:               cmdline,
		ExitCode:              res.ExitCode,
		ContinueOnUnreachable: req.ContinueOnUnreachable,
		Load:                  func() *report.Report { return loader.Load(statsPath) },
	}), nil
}

// RunSeed runs command against the seed inventory.
func (i *Invoker) RunSeed(ctx context.Context, opts Options, req Request) (outcome.Decision, error) {
	req.InventoryName = InventorySeed
	return i.Run(ctx, opts, req)
}

// RunOvercloud runs command against the overcloud inventory.
func (i *Invoker) RunOvercloud(ctx context.Context, opts Options, req Request) (outcome.Decision, error) {
	req.InventoryName = InventoryOvercloud
	return i.Run(ctx, opts, req)
}

func (i *Invoker) log() logrus.FieldLogger {
	if i.Log == nil {
		return logrus.StandardLogger()
	}
	return i.Log
}
