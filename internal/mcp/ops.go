package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/deixis/repack/internal/report"
	"github.com/deixis/repack/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// record folds an operation outcome into a RunResult and saves it for
// apk_inspect.
func (h *handler) record(kind report.Kind, o *workflow.Outcome, stages []workflow.BuildStage) *report.RunResult {
	rr := report.New(kind)
	rr.OK = o.OK
	rr.Artifact = o.Artifact
	if !o.OK {
		rr.FailureKind = string(o.Kind)
		rr.Message = o.Message
		rr.File = o.File
	}
	for _, s := range stages {
		rr.Stages = append(rr.Stages, report.Stage{Name: s.Name, Status: s.Status, Output: s.Output})
	}
	_ = h.store.Save(rr)
	return rr
}

// formatRun renders a stored run the same way for every operation.
func formatRun(rr *report.RunResult) string {
	var b strings.Builder

	if rr.OK {
		fmt.Fprintln(&b, "Status: PASS")
	} else {
		fmt.Fprintln(&b, "Status: FAIL")
	}
	fmt.Fprintf(&b, "Run: %s\n", rr.ID)
	fmt.Fprintln(&b)

	if len(rr.Stages) > 0 {
		fmt.Fprintln(&b, "Stages:")
		for _, s := range rr.Stages {
			fmt.Fprintf(&b, "  %s: %s\n", s.Name, s.Status)
		}
		fmt.Fprintln(&b)
	}

	if rr.OK {
		fmt.Fprintf(&b, "Artifact: %s\n", rr.Artifact)
	} else {
		fmt.Fprintf(&b, "Failure (%s):\n", rr.FailureKind)
		for _, line := range strings.Split(strings.TrimRight(rr.Message, "\n"), "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		if rr.File != "" {
			fmt.Fprintf(&b, "File: %s\n", rr.File)
		}
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "Inspect with apk_inspect(run_id=%q).\n", rr.ID)
	}

	return b.String()
}

// --- apk_decompile ---

type decompileParams struct {
	APK     string `json:"apk" jsonschema:"path to the APK file to decompile"`
	Output  string `json:"output,omitempty" jsonschema:"output directory; apktool derives one from the filename when omitted"`
	Force   bool   `json:"force,omitempty" jsonschema:"overwrite existing output"`
	Verbose bool   `json:"verbose,omitempty" jsonschema:"pass apktool's verbose flag"`
}

func (h *handler) decompileHandler(ctx context.Context, req *mcp.CallToolRequest, params decompileParams) (*mcp.CallToolResult, any, error) {
	o := h.engine.Decompile(ctx, workflow.DecompileRequest{
		APK:       params.APK,
		OutputDir: params.Output,
		Force:     params.Force,
		Verbose:   params.Verbose,
	})
	rr := h.record(report.Decompile, o, nil)
	if !o.OK {
		return errorResult(formatRun(rr))
	}
	return textResult(formatRun(rr))
}

// --- apk_build ---

type buildParams struct {
	Dir     string `json:"dir" jsonschema:"decompiled source directory to rebuild"`
	Output  string `json:"output,omitempty" jsonschema:"output APK path; apktool writes to dir/dist when omitted"`
	Force   bool   `json:"force,omitempty" jsonschema:"overwrite existing output"`
	Verbose bool   `json:"verbose,omitempty" jsonschema:"pass apktool's verbose flag"`
}

func (h *handler) buildHandler(ctx context.Context, req *mcp.CallToolRequest, params buildParams) (*mcp.CallToolResult, any, error) {
	res := h.engine.Build(ctx, workflow.BuildRequest{
		Dir:       params.Dir,
		OutputAPK: params.Output,
		Force:     params.Force,
		Verbose:   params.Verbose,
	})
	rr := h.record(report.Build, res.Outcome, res.Stages)
	if !res.Outcome.OK {
		return errorResult(formatRun(rr))
	}
	return textResult(formatRun(rr))
}

// --- apk_sign ---

type signParams struct {
	APK      string `json:"apk" jsonschema:"path to the APK to sign in place"`
	Keystore string `json:"keystore,omitempty" jsonschema:"keystore path; defaults to the keystore configured in .repack"`
	Alias    string `json:"alias,omitempty" jsonschema:"key alias; defaults to the configured alias"`
}

func (h *handler) signHandler(ctx context.Context, req *mcp.CallToolRequest, params signParams) (*mcp.CallToolResult, any, error) {
	keystore := params.Keystore
	if keystore == "" {
		keystore = h.engine.Config.KeystorePath(h.engine.Workspace)
	}
	if keystore == "" {
		return errorResult("no keystore given and none configured in .repack")
	}

	// The credential comes from the server's own environment, never from
	// the tool call.
	o := h.engine.Sign(ctx, workflow.SignRequest{
		APK:      params.APK,
		Keystore: keystore,
		Alias:    params.Alias,
		Password: os.Getenv(h.engine.Config.PasswordEnv()),
	})
	rr := h.record(report.Sign, o, nil)
	if !o.OK {
		return errorResult(formatRun(rr))
	}
	return textResult(formatRun(rr))
}

// --- apk_align ---

type alignParams struct {
	APK    string `json:"apk" jsonschema:"path to the APK to align"`
	Output string `json:"output,omitempty" jsonschema:"aligned output path; the input is replaced in place when omitted"`
}

func (h *handler) alignHandler(ctx context.Context, req *mcp.CallToolRequest, params alignParams) (*mcp.CallToolResult, any, error) {
	o := h.engine.Align(ctx, workflow.AlignRequest{APK: params.APK, Output: params.Output})
	rr := h.record(report.Align, o, nil)
	if !o.OK {
		return errorResult(formatRun(rr))
	}
	return textResult(formatRun(rr))
}

// --- apk_framework_install / apk_framework_empty ---

type frameworkInstallParams struct {
	APK   string `json:"apk" jsonschema:"path to the framework resource APK (e.g. framework-res.apk)"`
	Tag   string `json:"tag,omitempty" jsonschema:"optional tag distinguishing OEM framework variants"`
	Force bool   `json:"force,omitempty" jsonschema:"overwrite existing framework files"`
}

func (h *handler) frameworkInstallHandler(ctx context.Context, req *mcp.CallToolRequest, params frameworkInstallParams) (*mcp.CallToolResult, any, error) {
	o := h.engine.InstallFramework(ctx, workflow.InstallFrameworkRequest{
		APK:   params.APK,
		Tag:   params.Tag,
		Force: params.Force,
	})
	rr := h.record(report.Framework, o, nil)
	if !o.OK {
		return errorResult(formatRun(rr))
	}
	return textResult(formatRun(rr))
}

type frameworkEmptyParams struct {
	Force bool `json:"force,omitempty" jsonschema:"also remove framework files apktool considers in use"`
}

func (h *handler) frameworkEmptyHandler(ctx context.Context, req *mcp.CallToolRequest, params frameworkEmptyParams) (*mcp.CallToolResult, any, error) {
	o := h.engine.EmptyFrameworkDir(ctx, params.Force)
	rr := h.record(report.Framework, o, nil)
	if !o.OK {
		return errorResult(formatRun(rr))
	}
	return textResult(formatRun(rr))
}
