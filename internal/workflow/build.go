package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BuildRequest holds the typed inputs for a build operation.
type BuildRequest struct {
	Dir       string // decompiled source directory
	OutputAPK string // optional; apktool writes to Dir/dist when empty
	Force     bool
	Verbose   bool
}

// BuildArgs builds the apktool argv for a rebuild. Pure.
func BuildArgs(tool string, req BuildRequest) []string {
	argv := []string{tool, "b", req.Dir}
	if req.Force {
		argv = append(argv, "-f")
	}
	if req.OutputAPK != "" {
		argv = append(argv, "-o", req.OutputAPK)
	}
	if req.Verbose {
		argv = append(argv, "-v")
	} else {
		argv = append(argv, "-q")
	}
	return argv
}

// Stage names and statuses for the build pipeline.
const (
	StageBuild = "build"
	StageSign  = "sign"
	StageAlign = "align"

	StageDone    = "done"
	StageFailed  = "failed"
	StageSkipped = "skipped"
)

// BuildStage records one stage of the build pipeline.
type BuildStage struct {
	Name   string
	Status string // done, failed, skipped
	Output string // trimmed tool output, only on failure
}

// BuildResult holds the full outcome of a build run: the final outcome
// plus the per-stage record of the build → sign → align pipeline.
type BuildResult struct {
	Outcome *Outcome
	Stages  []BuildStage
}

// Build rebuilds an APK from a decompiled directory. When a keystore is
// configured, the freshly built APK is then signed and aligned, strictly
// in that order; the pipeline stops at the first failing stage. There is
// no rollback: an unsigned artifact left by a failed sign stage stays on
// disk, since deleting user-visible output without consent is the worse
// failure mode.
func (e *Engine) Build(ctx context.Context, req BuildRequest) *BuildResult {
	stages := []BuildStage{
		{Name: StageBuild, Status: StageSkipped},
		{Name: StageSign, Status: StageSkipped},
		{Name: StageAlign, Status: StageSkipped},
	}
	fail := func(i int, o *Outcome) *BuildResult {
		stages[i].Status = StageFailed
		stages[i].Output = o.Message
		return &BuildResult{Outcome: o, Stages: stages}
	}

	if req.Dir == "" {
		return fail(0, e.failure(InvalidInput, "input directory path is empty", ""))
	}
	if fi, err := os.Stat(e.abs(req.Dir)); err != nil || !fi.IsDir() {
		// Checked locally to fail fast with a clear message rather than
		// deferring to an opaque apktool error.
		return fail(0, e.failure(InvalidInput, "input directory does not exist", req.Dir))
	}
	req.Verbose = e.verbose(req.Verbose)

	// --- build ---
	res, err := e.Runner.Run(ctx, BuildArgs(e.tool(Apktool), req), "", nil)
	if o := e.finish(Apktool, res, err, req.Dir, ""); !o.OK {
		return fail(0, o)
	}
	stages[0].Status = StageDone

	apk, o := e.builtArtifact(req)
	if o != nil {
		return fail(0, o)
	}

	keystore := e.Config.KeystorePath(e.Workspace)
	if keystore == "" {
		// No keystore configured: the rebuilt APK is the final artifact.
		return &BuildResult{Outcome: Success(apk), Stages: stages}
	}

	// --- sign ---
	signOutcome := e.Sign(ctx, SignRequest{
		APK:      apk,
		Keystore: keystore,
		Alias:    e.Config.KeystoreAlias(),
		Password: os.Getenv(e.Config.PasswordEnv()),
	})
	if !signOutcome.OK {
		return fail(1, signOutcome)
	}
	stages[1].Status = StageDone

	// --- align ---
	alignOutcome := e.Align(ctx, AlignRequest{APK: apk})
	if !alignOutcome.OK {
		return fail(2, alignOutcome)
	}
	stages[2].Status = StageDone

	return &BuildResult{Outcome: Success(apk), Stages: stages}
}

// builtArtifact locates the APK produced by apktool b. With an explicit
// output path the artifact is known; otherwise apktool writes to the
// dist subdirectory of the source tree.
func (e *Engine) builtArtifact(req BuildRequest) (string, *Outcome) {
	if req.OutputAPK != "" {
		return req.OutputAPK, nil
	}

	dist := filepath.Join(e.abs(req.Dir), "dist")
	entries, err := os.ReadDir(dist)
	if err != nil {
		return "", e.failure(ToolExecutionError, "apktool reported success but no dist directory was produced", req.Dir)
	}
	var apks []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".apk") {
			apks = append(apks, filepath.Join(dist, entry.Name()))
		}
	}
	if len(apks) == 0 {
		return "", e.failure(ToolExecutionError, fmt.Sprintf("no apk found in %s after build", dist), req.Dir)
	}
	sort.Strings(apks)
	return apks[0], nil
}
