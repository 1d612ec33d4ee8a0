// Package workflow provides the core execution engine for repack's
// APK operations. It is consumed by both the MCP server and the CLI
// commands.
package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/deixis/repack/internal/config"
	"github.com/deixis/repack/internal/runner"
)

// CommandRunner executes commands within a workspace.
// Implemented by runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, argv []string, cwd string, env []string) (*runner.Result, error)
}

// Engine holds shared dependencies for all APK operations.
type Engine struct {
	Config    *config.Config
	Runner    CommandRunner
	Workspace string // commands run from here; relative paths resolve against it
}

// Tool identifies one of the external binaries repack orchestrates.
type Tool string

const (
	// Apktool decompiles and rebuilds APKs.
	Apktool Tool = "apktool"
	// Apksigner signs APKs with a keystore.
	Apksigner Tool = "apksigner"
	// Zipalign page-aligns zip entries in an APK.
	Zipalign Tool = "zipalign"
)

// tool returns the invocation string for t: the configured path override
// when present, otherwise the bare conventional name resolved by the OS
// at spawn time. No probing happens here; probing eagerly would race
// against PATH changes, so a missing binary surfaces as a tool_not_found
// failure when the operation runs.
func (e *Engine) tool(t Tool) string {
	var override string
	switch t {
	case Apktool:
		override = e.Config.Tools.Apktool
	case Apksigner:
		override = e.Config.Tools.Apksigner
	case Zipalign:
		override = e.Config.Tools.Zipalign
	}
	if override != "" {
		return override
	}
	return string(t)
}

// installHints maps each tool to install instructions, included in
// tool_not_found failure messages.
var installHints = map[Tool]string{
	Apktool:   "https://apktool.org/docs/install",
	Apksigner: `Android SDK build-tools (sdkmanager "build-tools;35.0.0")`,
	Zipalign:  `Android SDK build-tools (sdkmanager "build-tools;35.0.0")`,
}

// notFoundMessage builds the failure message for a missing tool.
func notFoundMessage(t Tool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is required but was not found.", t)
	if hint, ok := installHints[t]; ok {
		fmt.Fprintf(&b, "\nInstall: %s", hint)
	}
	return b.String()
}

// verbose resolves a per-request verbose flag against the configured default.
func (e *Engine) verbose(requested bool) bool {
	return requested || e.Config.Verbose
}

// abs resolves a request path against the workspace. The runner executes
// tools with cwd = the workspace, so relative request paths are
// workspace-relative; any local stat, read, or rename the engine performs
// itself must use the same base.
func (e *Engine) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.Workspace, p)
}
