package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type doctorParams struct{}

func (h *handler) doctorHandler(ctx context.Context, req *mcp.CallToolRequest, _ doctorParams) (*mcp.CallToolResult, any, error) {
	statuses := h.engine.Doctor(ctx)

	var b strings.Builder
	missing := 0
	for _, s := range statuses {
		if s.Available {
			if s.Version != "" {
				fmt.Fprintf(&b, "%s: ok (%s) via %s\n", s.Tool, s.Version, s.Invoke)
			} else {
				fmt.Fprintf(&b, "%s: ok via %s\n", s.Tool, s.Invoke)
			}
		} else {
			missing++
			fmt.Fprintf(&b, "%s: MISSING\n", s.Tool)
			for _, line := range strings.Split(s.Detail, "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
	}

	if missing > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "%d of %d tools unavailable; operations depending on them will fail.\n", missing, len(statuses))
		return errorResult(b.String())
	}
	return textResult(b.String())
}
