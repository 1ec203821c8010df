package main

import (
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/deixis/steward"
	"github.com/deixis/steward/internal/history"
	stewardmcp "github.com/deixis/steward/internal/mcp"
	"github.com/deixis/steward/internal/report"
	"github.com/deixis/steward/internal/workflow"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		RunE:  mcpMain,
	}
	addKollaFlags(cmd.Flags())
	cmd.Flags().Bool("instructions", false, "print model instructions and exit")
	return cmd
}

func mcpMain(cmd *cobra.Command, _ []string) error {
	if ok, _ := cmd.Flags().GetBool("instructions"); ok {
		fmt.Fprint(cmd.OutOrStdout(), stewardmcp.Instructions)
		return nil
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	opts, err := options(cmd, a)
	if err != nil {
		return err
	}

	// stdout carries the protocol, so kolla-ansible output is captured only.
	inv := newInvoker(cmd, a, true)

	store := history.NewLRUStore(16, a.store)
	engine := &workflow.Engine{
		Config:    a.cfg,
		Options:   opts,
		Invoker:   inv,
		Store:     store,
		Log:       a.log,
		Verbosity: a.verbosity,
	}

	a.log.WithField("version", steward.Version).Info("Starting MCP server")
	server := stewardmcp.NewServer(engine, store, report.NewLoader(a.log))
	return server.Run(cmd.Context(), &mcpsdk.StdioTransport{})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), steward.Version)
		},
	}
}
