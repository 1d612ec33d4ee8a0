package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/deixis/repack/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type inspectParams struct {
	RunID string `json:"run_id" jsonschema:"the run ID from any apk_* tool result"`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}

	rr, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}

	return textResult(formatInspectOutput(rr))
}

func formatInspectOutput(rr *report.RunResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s (%s)\n", rr.ID, rr.Kind)
	if rr.OK {
		fmt.Fprintf(&b, "Result: ok, artifact %s\n", rr.Artifact)
	} else {
		fmt.Fprintf(&b, "Result: %s\n", rr.FailureKind)
	}
	fmt.Fprintln(&b)

	for _, s := range rr.Stages {
		fmt.Fprintf(&b, "%s: %s\n", s.Name, s.Status)
		if s.Output != "" {
			for _, line := range strings.Split(strings.TrimRight(s.Output, "\n"), "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
	}

	if !rr.OK && len(rr.Stages) == 0 {
		fmt.Fprintln(&b, "Output:")
		for _, line := range strings.Split(strings.TrimRight(rr.Message, "\n"), "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	if rr.File != "" {
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "File: %s\n", rr.File)
	}

	return b.String()
}
