package workflow

import (
	"context"
	"strings"
)

// ToolStatus reports the availability of one external tool.
type ToolStatus struct {
	Tool      Tool
	Invoke    string // the string repack would invoke (override or bare name)
	Available bool
	Version   string // first line of the tool's version output, when known
	Detail    string // launch failure or install hint when unavailable
}

// probeArgs returns the argv suffix used to probe each tool. zipalign
// has no version flag; invoking it bare prints usage and exits non-zero,
// which still proves the binary launches.
func probeArgs(t Tool) []string {
	switch t {
	case Apktool:
		return []string{"--version"}
	case Apksigner:
		return []string{"version"}
	default:
		return nil
	}
}

// Doctor probes each external tool and reports its status. A tool counts
// as available when it launches, even if the probe exits non-zero.
func (e *Engine) Doctor(ctx context.Context) []ToolStatus {
	tools := []Tool{Apktool, Apksigner, Zipalign}
	statuses := make([]ToolStatus, 0, len(tools))

	for _, t := range tools {
		invoke := e.tool(t)
		status := ToolStatus{Tool: t, Invoke: invoke}

		argv := append([]string{invoke}, probeArgs(t)...)
		res, err := e.Runner.Run(ctx, argv, "", nil)
		if err != nil {
			if launchNotFound(err) {
				status.Detail = notFoundMessage(t)
			} else {
				// Present but unstartable (permissions and the like):
				// an install hint would mislead, relay the real error.
				status.Detail = err.Error()
			}
			statuses = append(statuses, status)
			continue
		}

		status.Available = true
		if res.ExitCode == 0 {
			out := strings.TrimSpace(string(res.Stdout))
			if out == "" {
				out = strings.TrimSpace(string(res.Stderr))
			}
			if i := strings.IndexByte(out, '\n'); i >= 0 {
				out = out[:i]
			}
			status.Version = out
		}
		statuses = append(statuses, status)
	}

	return statuses
}
