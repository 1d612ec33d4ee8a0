package workflow

import (
	"context"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"testing"

	"github.com/deixis/repack/internal/runner"
)

func TestDoctor_AllAvailable(t *testing.T) {
	fr := &fakeRunner{Results: map[string]*runner.Result{
		"apktool":   {ExitCode: 0, Stdout: []byte("2.9.3\n")},
		"apksigner": {ExitCode: 0, Stdout: []byte("0.9\n")},
		"zipalign":  {ExitCode: 2, Stderr: []byte("Usage: zipalign ...\n")},
	}}
	e := newTestEngine(fr, nil)

	statuses := e.Doctor(context.Background())
	if len(statuses) != 3 {
		t.Fatalf("len(statuses) = %d, want 3", len(statuses))
	}
	for _, s := range statuses {
		if !s.Available {
			t.Errorf("%s: Available = false, want true", s.Tool)
		}
	}
	if statuses[0].Version != "2.9.3" {
		t.Errorf("apktool Version = %q, want 2.9.3", statuses[0].Version)
	}
	// zipalign exits non-zero when probed bare: still available, no version.
	if statuses[2].Version != "" {
		t.Errorf("zipalign Version = %q, want empty", statuses[2].Version)
	}
}

func TestDoctor_MissingTool(t *testing.T) {
	fr := &fakeRunner{Err: map[string]error{
		"apksigner": fmt.Errorf("executing apksigner: %w", exec.ErrNotFound),
	}}
	e := newTestEngine(fr, nil)

	statuses := e.Doctor(context.Background())
	var signer ToolStatus
	for _, s := range statuses {
		if s.Tool == Apksigner {
			signer = s
		}
	}
	if signer.Available {
		t.Error("apksigner Available = true, want false")
	}
	if !strings.Contains(signer.Detail, "Install:") {
		t.Errorf("Detail = %q, want install hint", signer.Detail)
	}
}

func TestDoctor_LaunchErrorRelaysRealError(t *testing.T) {
	fr := &fakeRunner{Err: map[string]error{
		"apktool": fmt.Errorf("executing apktool: %w", fs.ErrPermission),
	}}
	e := newTestEngine(fr, nil)

	statuses := e.Doctor(context.Background())
	apktool := statuses[0]
	if apktool.Available {
		t.Error("apktool Available = true, want false")
	}
	if !strings.Contains(apktool.Detail, "permission") {
		t.Errorf("Detail = %q, want the underlying launch error", apktool.Detail)
	}
	// The binary exists; an install hint would point the wrong way.
	if strings.Contains(apktool.Detail, "Install:") {
		t.Errorf("Detail = %q, want no install hint for a present binary", apktool.Detail)
	}
}

func TestDoctor_UsesConfiguredOverride(t *testing.T) {
	fr := &fakeRunner{}
	e := newTestEngine(fr, nil)
	e.Config.Tools.Apktool = "/opt/apktool/apktool"

	statuses := e.Doctor(context.Background())
	if statuses[0].Invoke != "/opt/apktool/apktool" {
		t.Errorf("Invoke = %q, want override", statuses[0].Invoke)
	}
}
