package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/steward/internal/history"
)

type inspectParams struct {
	RecordID string `json:"record_id" jsonschema:"the record ID of a stage from a steward_run result"`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RecordID == "" {
		return errorResult("record_id is required")
	}

	rec, err := h.store.Load(params.RecordID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load record %s: %v", params.RecordID, err))
	}
	return textResult(formatRecord(rec))
}

func formatRecord(rec *history.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Record: %s\n", rec.ID)
	if rec.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", rec.RunID)
	}
	fmt.Fprintf(&b, "Stage: %s\n", rec.Stage)
	fmt.Fprintf(&b, "Command: %s\n", rec.Command)
	fmt.Fprintf(&b, "Decision: %s (exit %d)\n", rec.Decision, rec.ExitCode)
	if rec.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", rec.Reason)
	}
	if rec.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", rec.Error)
	}
	if !rec.Started.IsZero() {
		fmt.Fprintf(&b, "Duration: %s\n", rec.Duration())
	}
	if r := rec.Report; r != nil {
		fmt.Fprintf(&b, "Report: %s\n", r.Summary())
		if len(r.Unreachable) > 0 {
			fmt.Fprintf(&b, "Unreachable: %s\n", strings.Join(r.Unreachable, ", "))
		}
		if len(r.Failures) > 0 {
			fmt.Fprintf(&b, "Failed: %s\n", strings.Join(r.Failures, ", "))
		}
	}
	return b.String()
}
