package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/steward/internal/outcome"
	"github.com/deixis/steward/internal/workflow"
)

type stagesParams struct{}

func (h *handler) stagesHandler(ctx context.Context, req *mcp.CallToolRequest, params stagesParams) (*mcp.CallToolResult, any, error) {
	stages := h.engine.Config.Stages
	if len(stages) == 0 {
		return textResult("No stages configured.")
	}

	var b strings.Builder
	for _, s := range stages {
		fmt.Fprintf(&b, "%s: kolla-ansible %s (%s)", s.Name, s.Command, s.InventoryName())
		if s.ContinueOnUnreachable {
			b.WriteString(" continue_on_unreachable")
		}
		b.WriteByte('\n')
	}
	return textResult(b.String())
}

type runParams struct {
	Stages []string `json:"stages,omitempty" jsonschema:"names of the stages to run, in order. Defaults to every configured stage."`
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	stages, err := h.engine.Select(params.Stages)
	if err != nil {
		return errorResult(err.Error())
	}

	sum, err := h.engine.Run(ctx, stages)
	if sum == nil {
		return errorResult(fmt.Sprintf("run failed: %v", err))
	}

	text := formatRun(sum, err)
	var contErr *outcome.ContinueError
	if err != nil && !errors.As(err, &contErr) {
		return errorResult(text)
	}
	return textResult(text)
}

func formatRun(sum *workflow.Summary, err error) string {
	var contErr *outcome.ContinueError
	var b strings.Builder
	switch {
	case err == nil && len(sum.Unreachable) == 0:
		fmt.Fprintln(&b, "Status: PASS")
	case err == nil || errors.As(err, &contErr):
		fmt.Fprintln(&b, "Status: PASS WITH UNREACHABLE HOSTS")
	default:
		fmt.Fprintln(&b, "Status: FAIL")
	}
	b.WriteString(sum.String())
	if err != nil {
		fmt.Fprintf(&b, "\nError: %v\n", err)
	}
	return b.String()
}
