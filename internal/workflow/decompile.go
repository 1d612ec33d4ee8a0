package workflow

import (
	"context"
	"path/filepath"
	"strings"
)

// DecompileRequest holds the typed inputs for a decompile operation.
type DecompileRequest struct {
	APK       string // path to the APK file
	OutputDir string // optional; apktool derives a directory from the filename when empty
	Force     bool   // overwrite existing output
	Verbose   bool
}

// DecompileArgs builds the apktool argv for a decompile. Pure: it never
// touches the filesystem and never executes anything.
func DecompileArgs(tool string, req DecompileRequest) []string {
	argv := []string{tool, "d", req.APK}
	if req.Force {
		argv = append(argv, "-f")
	}
	if req.OutputDir != "" {
		argv = append(argv, "-o", req.OutputDir)
	}
	if req.Verbose {
		argv = append(argv, "-v")
	} else {
		argv = append(argv, "-q")
	}
	return argv
}

// Decompile runs apktool d on the given APK.
func (e *Engine) Decompile(ctx context.Context, req DecompileRequest) *Outcome {
	if req.APK == "" {
		return e.failure(InvalidInput, "input apk path is empty", "")
	}
	req.Verbose = e.verbose(req.Verbose)

	// When no output directory is given, apktool writes to a directory
	// derived from the filename. That derivation is apktool's contract,
	// not ours; mirror it only to report the artifact path.
	artifact := req.OutputDir
	if artifact == "" {
		artifact = strings.TrimSuffix(filepath.Base(req.APK), ".apk")
	}

	res, err := e.Runner.Run(ctx, DecompileArgs(e.tool(Apktool), req), "", nil)
	return e.finish(Apktool, res, err, req.APK, artifact)
}
