package workflow

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// alignment is the byte boundary passed to zipalign. 4 is the value the
// Android runtime expects for uncompressed entries.
const alignment = "4"

// AlignRequest holds the typed inputs for an align operation.
type AlignRequest struct {
	APK    string
	Output string // optional; when empty the input is aligned in place
}

// AlignArgs builds the zipalign argv. Pure. zipalign refuses to write
// over its input, so out must differ from req.APK.
func AlignArgs(tool string, req AlignRequest, out string) []string {
	return []string{tool, "-f", "-p", alignment, req.APK, out}
}

// Align runs zipalign on the given APK. With an explicit output the
// aligned copy is written there; otherwise zipalign writes to a sibling
// temp name which then replaces the input.
func (e *Engine) Align(ctx context.Context, req AlignRequest) *Outcome {
	if req.APK == "" {
		return e.failure(InvalidInput, "input apk path is empty", "")
	}

	out := req.Output
	inPlace := out == ""
	if inPlace {
		out = strings.TrimSuffix(req.APK, ".apk") + "-aligned.apk"
	}

	res, err := e.Runner.Run(ctx, AlignArgs(e.tool(Zipalign), req, out), "", nil)
	outcome := e.finish(Zipalign, res, err, req.APK, out)
	if !outcome.OK || !inPlace {
		return outcome
	}

	if err := os.Rename(e.abs(out), e.abs(req.APK)); err != nil {
		return e.failure(ToolExecutionError, fmt.Sprintf("replacing input with aligned output: %v", err), req.APK)
	}
	return Success(req.APK)
}
