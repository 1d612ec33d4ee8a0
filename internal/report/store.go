// Package report provides structured persistence and retrieval of APK
// operation results, so a run can be inspected after the fact without
// re-invoking any external tool.
package report

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies the operation that produced a run.
type Kind string

const (
	// Decompile is an apktool d run.
	Decompile Kind = "decompile"
	// Build is an apktool b run, possibly chaining sign and align.
	Build Kind = "build"
	// Sign is an apksigner run.
	Sign Kind = "sign"
	// Align is a zipalign run.
	Align Kind = "align"
	// Framework is an apktool framework operation.
	Framework Kind = "framework"
)

// Store persists and retrieves run results.
type Store interface {
	Save(result *RunResult) error
	Load(runID string) (*RunResult, error)
}

// RunResult holds the recorded outcome of one operation.
type RunResult struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	OK       bool   `json:"ok"`
	Artifact string `json:"artifact,omitempty"` // produced artifact path on success

	// Failure fields.
	FailureKind string `json:"failure_kind,omitempty"`
	Message     string `json:"message,omitempty"` // raw tool output, verbatim
	File        string `json:"file,omitempty"`    // offending input, when path relay is enabled

	// Stages records the build pipeline (build, sign, align);
	// empty for single-invocation operations.
	Stages []Stage `json:"stages,omitempty"`
}

// Stage records one stage of a pipelined run.
type Stage struct {
	Name   string `json:"name"`
	Status string `json:"status"`           // done, failed, skipped
	Output string `json:"output,omitempty"` // tool output, only on failure
}

// New creates a RunResult with a fresh run ID.
func New(kind Kind) *RunResult {
	return &RunResult{ID: uuid.New().String(), Kind: kind}
}

// Expect returns an error if the run's Kind does not match want.
func (r *RunResult) Expect(want Kind) error {
	if r.Kind != want {
		return fmt.Errorf("run %s is a %s run, not a %s run", r.ID, r.Kind, want)
	}
	return nil
}
