package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/steward/internal/report"
)

type reportParams struct {
	Path string `json:"path" jsonschema:"absolute path to a run report JSON file"`
}

func (h *handler) reportHandler(ctx context.Context, req *mcp.CallToolRequest, params reportParams) (*mcp.CallToolResult, any, error) {
	if params.Path == "" {
		return errorResult("path is required")
	}

	r := h.loader.Load(params.Path)
	if r == nil {
		return errorResult(fmt.Sprintf("Run report %s is unavailable; a failure would be treated as fatal.", params.Path))
	}
	return textResult(formatReport(params.Path, r))
}

func formatReport(path string, r *report.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report: %s\n", path)
	fmt.Fprintf(&b, "Failures: %d%s\n", r.NumFailures, hostList(r.Failures))
	fmt.Fprintf(&b, "Unreachable: %d%s\n", r.NumUnreachable, hostList(r.Unreachable))
	fmt.Fprintf(&b, "No hosts remaining: %t\n", r.NoHostsRemaining)
	fmt.Fprintf(&b, "Completed without failures: %t\n", r.CompletedWithoutFailures())

	if r.NumUnreachable > 0 && r.CompletedWithoutFailures() {
		fmt.Fprintln(&b, "Verdict: can continue past unreachable hosts")
	} else {
		fmt.Fprintln(&b, "Verdict: a failure would be fatal")
	}
	return b.String()
}

func hostList(hosts []string) string {
	if len(hosts) == 0 {
		return ""
	}
	return " (" + strings.Join(hosts, ", ") + ")"
}
