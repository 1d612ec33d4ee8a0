// Package mcp provides the repack MCP server, registering all tools
// and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"net/url"
	"time"

	"github.com/deixis/repack"
	"github.com/deixis/repack/internal/config"
	"github.com/deixis/repack/internal/report"
	"github.com/deixis/repack/internal/runner"
	"github.com/deixis/repack/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	engine *workflow.Engine
	store  report.Store
}

// NewServer creates an MCP server with all repack tools registered.
// r is the command runner the engine executes tools through; tests
// substitute a stub so no external binary is required.
func NewServer(cfg *config.Config, r workflow.CommandRunner, store report.Store, workspace string) *mcp.Server {
	h := &handler{
		engine: &workflow.Engine{
			Config:    cfg,
			Runner:    r,
			Workspace: workspace,
		},
		store: store,
	}

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateWorkspaceFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "repack", Version: repack.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "apk_decompile",
		Description: `Decompile an APK into editable smali/resource form with apktool.

Results are stored for drill-down via apk_inspect.`,
	}, h.decompileHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "apk_build",
		Description: `Rebuild an APK from a decompiled directory with apktool.

When a keystore is configured in .repack, the rebuilt APK is then signed
(apksigner) and aligned (zipalign), stopping at the first failing stage.
Results are stored for drill-down via apk_inspect.`,
	}, h.buildHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "apk_sign",
		Description: `Sign an APK in place with apksigner.

The keystore password is read from the configured environment variable
(REPACK_KS_PASS by default) on the server side; it is never accepted as
a tool argument.`,
	}, h.signHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "apk_align",
		Description: "Page-align an APK with zipalign. Without an output path the input is aligned in place.",
	}, h.alignHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "apk_framework_install",
		Description: "Install a framework resource APK into apktool's framework directory (required for some system/OEM APKs).",
	}, h.frameworkInstallHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "apk_framework_empty",
		Description: "Empty apktool's framework directory.",
	}, h.frameworkEmptyHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "apk_doctor",
		Description: "Probe apktool, apksigner, and zipalign and report availability, resolved paths, and versions.",
	}, h.doctorHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "apk_inspect",
		Description: "Drill into a stored run from any apk_* tool using its run_id: per-stage status and the raw tool output.",
	}, h.inspectHandler)

	return s
}

// updateWorkspaceFromRoots queries the client for MCP roots and updates
// the engine, runner, and config if a valid root is returned. Called
// during session initialization, before any tool calls.
func (h *handler) updateWorkspaceFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil {
		return
	}
	if len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}
	workspace := u.Path

	loaded, err := config.Load(workspace)
	if err != nil {
		return
	}

	if r, ok := h.engine.Runner.(*runner.Runner); ok {
		r.Workspace = workspace
		r.Timeout = loaded.Config.Timeout()
		r.MaxOutput = loaded.Config.MaxOutputBytes()
	}

	h.engine.Config = loaded.Config
	h.engine.Workspace = workspace
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
