package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deixis/steward/internal/outcome"
	"github.com/deixis/steward/internal/report"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <path>",
		Short: "Load a run report and show how a failure would be judged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			r := report.NewLoader(a.log).Load(args[0])
			if r == nil {
				return &outcome.ExitError{Code: 1, Reason: "run report unavailable"}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, r.Summary())
			fmt.Fprintf(out, "completed without failures: %t\n", r.CompletedWithoutFailures())
			fmt.Fprintf(out, "can continue: %t\n", r.NumUnreachable > 0 && r.CompletedWithoutFailures())
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [record-id]",
		Short: "List run records, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				rec, err := a.store.Load(args[0])
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(rec, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			dir, err := a.store.Dir()
			if err != nil {
				return err
			}
			recs, err := a.store.List()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "History: %s (%d records)\n", dir, len(recs))
			for _, rec := range recs {
				fmt.Fprintln(out, rec.String())
			}
			return nil
		},
	}
}
