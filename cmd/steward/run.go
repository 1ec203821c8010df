package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/deixis/steward/internal/history"
	"github.com/deixis/steward/internal/kolla"
	"github.com/deixis/steward/internal/outcome"
	"github.com/deixis/steward/internal/runner"
	"github.com/deixis/steward/internal/workflow"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <command> [-- extra args...]",
		Short: "Run one kolla-ansible command",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCommand,
	}
	addKollaFlags(cmd.Flags())
	cmd.Flags().Bool("seed", false, "use the seed inventory instead of the overcloud")
	cmd.Flags().Bool("continue-on-unreachable", false, "treat a failure caused only by unreachable hosts as recoverable")
	return cmd
}

func newStagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stages [name...]",
		Short: "Run the configured stages in order",
		RunE:  runStages,
	}
	addKollaFlags(cmd.Flags())
	cmd.Flags().Bool("list", false, "list the configured stages and exit")
	return cmd
}

// newInvoker returns an invoker streaming kolla-ansible output to cmd unless
// quiet is set.
func newInvoker(cmd *cobra.Command, a *app, quiet bool) *kolla.Invoker {
	return &kolla.Invoker{
		Runner: &runner.Runner{
			MaxOutput: a.cfg.MaxOutputBytes(),
			Stdout:    cmd.OutOrStdout(),
			Stderr:    cmd.ErrOrStderr(),
			Quiet:     quiet,
		},
		Log: a.log,
	}
}

func options(cmd *cobra.Command, a *app) (kolla.Options, error) {
	opts := a.cfg.Options()
	if err := applyKollaFlags(cmd.Flags(), &opts); err != nil {
		return opts, err
	}
	return opts, nil
}

func allowUnreachable(cmd *cobra.Command, a *app) bool {
	allow, _ := cmd.Flags().GetBool("allow-unreachable")
	return allow || a.cfg.AllowUnreachable
}

func runCommand(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	opts, err := options(cmd, a)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	quiet, _ := flags.GetBool("quiet")
	inv := newInvoker(cmd, a, quiet)
	seed, _ := flags.GetBool("seed")
	cont, _ := flags.GetBool("continue-on-unreachable")

	req := kolla.Request{
		Command:               args[0],
		InventoryName:         kolla.InventoryOvercloud,
		Verbosity:             a.verbosity,
		ExtraArgs:             args[1:],
		ContinueOnUnreachable: cont,
	}
	if seed {
		req.InventoryName = kolla.InventorySeed
	}

	rec := &history.Record{
		ID:      uuid.New().String(),
		Stage:   args[0],
		Command: "kolla-ansible " + args[0],
		Started: time.Now(),
	}
	d, err := inv.Run(cmd.Context(), opts, req)
	rec.Finished = time.Now()
	if err != nil {
		rec.Decision = workflow.StatusError
		rec.ExitCode = 1
		rec.Error = err.Error()
		saveRecord(a, rec)
		return err
	}
	rec.Apply(d)
	saveRecord(a, rec)

	if r, ok := d.(outcome.RecoverableUnreachable); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", rec.Stage, r.Report.Summary())
		if allowUnreachable(cmd, a) {
			return nil
		}
	}
	return outcome.Err(d)
}

func saveRecord(a *app, rec *history.Record) {
	if err := a.store.Save(rec); err != nil {
		a.log.WithError(err).Warn("Could not save run record")
		return
	}
	a.log.WithField("record_id", rec.ID).Debug("Saved run record")
}

func runStages(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}

	engine := &workflow.Engine{
		Config:    a.cfg,
		Store:     a.store,
		Log:       a.log,
		Verbosity: a.verbosity,
	}
	if list, _ := cmd.Flags().GetBool("list"); list {
		for _, s := range a.cfg.Stages {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tkolla-ansible %s\t%s\n", s.Name, s.Command, s.InventoryName())
		}
		return nil
	}

	stages, err := engine.Select(args)
	if err != nil {
		return err
	}
	if engine.Options, err = options(cmd, a); err != nil {
		return err
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	engine.Invoker = newInvoker(cmd, a, quiet)
	if allowUnreachable(cmd, a) {
		cfg := *a.cfg
		cfg.AllowUnreachable = true
		engine.Config = &cfg
	}

	sum, err := engine.Run(cmd.Context(), stages)
	if sum != nil {
		fmt.Fprint(cmd.OutOrStdout(), sum.String())
		if f := sum.Failed(); f != nil {
			a.log.WithField("record_id", f.RecordID).Errorf("Stage %s stopped the run, see steward history %s", f.Name, f.RecordID)
		}
	}
	return err
}
