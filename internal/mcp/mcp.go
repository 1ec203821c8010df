// Package mcp provides the Steward MCP server, registering all tools
// and publishing model instructions.
package mcp

import (
	_ "embed"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/steward"
	"github.com/deixis/steward/internal/history"
	"github.com/deixis/steward/internal/report"
	"github.com/deixis/steward/internal/workflow"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	engine *workflow.Engine
	store  history.Store
	loader *report.Loader
}

// NewServer creates an MCP server with all Steward tools registered.
func NewServer(engine *workflow.Engine, store history.Store, loader *report.Loader) *mcp.Server {
	if loader == nil {
		loader = report.NewLoader(engine.Log)
	}
	h := &handler{
		engine: engine,
		store:  store,
		loader: loader,
	}

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "steward", Version: steward.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "steward_stages",
		Description: "List the configured kolla-ansible stages in pipeline order.",
	}, h.stagesHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "steward_run",
		Description: `Run the configured kolla-ansible stages in order and stop on the first fatal failure.

Stages that set continue_on_unreachable carry on when the only failures were unreachable hosts.
Each stage is stored for drill-down via steward_inspect.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "steward_inspect",
		Description: `Show the stored record for one stage of a steward_run.

Use a record ID from the steward_run output.`,
	}, h.inspectHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "steward_report",
		Description: "Load a kolla-ansible run report file and show whether its failure could be continued past.",
	}, h.reportHandler)

	return s
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
