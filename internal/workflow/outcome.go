package workflow

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/deixis/repack/internal/runner"
)

// FailureKind classifies why an operation failed.
type FailureKind string

const (
	// InvalidInput means a local precondition failed before any process
	// was spawned (empty path, missing input directory).
	InvalidInput FailureKind = "invalid_input"
	// ToolNotFound means the external binary is missing or unresolvable.
	ToolNotFound FailureKind = "tool_not_found"
	// LaunchError means the binary was found but could not start
	// (permissions, resource exhaustion).
	LaunchError FailureKind = "launch_error"
	// ToolExecutionError means the binary ran and exited non-zero;
	// the message carries its captured stderr or stdout verbatim.
	ToolExecutionError FailureKind = "tool_execution_error"
)

// Outcome is the single value returned across the engine's public
// boundary. Either OK with the resulting artifact path, or a typed
// failure with a human-readable message.
type Outcome struct {
	OK       bool
	Artifact string      // path of the produced artifact when OK
	Kind     FailureKind // set when !OK
	Message  string      // raw tool output on execution failures, never reworded
	File     string      // offending input path, only when include_paths is enabled
}

// Success builds a successful outcome carrying the artifact path.
func Success(artifact string) *Outcome {
	return &Outcome{OK: true, Artifact: artifact}
}

// failure builds a failed outcome. The input path is attached only when
// include_paths is enabled, so messages can be relayed to users without
// exposing local filesystem layout.
func (e *Engine) failure(kind FailureKind, message, input string) *Outcome {
	o := &Outcome{Kind: kind, Message: message}
	if e.Config.IncludePaths {
		o.File = input
	}
	return o
}

// launchNotFound reports whether a launch error means the binary itself
// is missing, as opposed to found-but-unstartable.
func launchNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}

// finish maps exactly one process result (or launch error) to exactly
// one outcome.
func (e *Engine) finish(t Tool, res *runner.Result, err error, input, artifact string) *Outcome {
	if err != nil {
		if launchNotFound(err) {
			return e.failure(ToolNotFound, notFoundMessage(t), input)
		}
		return e.failure(LaunchError, err.Error(), input)
	}
	if res.ExitCode != 0 {
		msg := strings.TrimSpace(string(res.Stderr))
		if msg == "" {
			// Some tools report errors on stdout only.
			msg = strings.TrimSpace(string(res.Stdout))
		}
		if msg == "" {
			msg = fmt.Sprintf("%s exited with code %d", t, res.ExitCode)
		}
		return e.failure(ToolExecutionError, msg, input)
	}
	return Success(artifact)
}

// String renders the outcome for human consumption.
func (o *Outcome) String() string {
	if o.OK {
		return fmt.Sprintf("ok: %s", o.Artifact)
	}
	if o.File != "" {
		return fmt.Sprintf("%s (%s): %s", o.Kind, o.File, o.Message)
	}
	return fmt.Sprintf("%s: %s", o.Kind, o.Message)
}
