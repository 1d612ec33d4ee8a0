package workflow

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/deixis/repack/internal/runner"
)

func TestAlignArgs(t *testing.T) {
	got := AlignArgs("zipalign", AlignRequest{APK: "app.apk"}, "app-aligned.apk")
	want := []string{"zipalign", "-f", "-p", "4", "app.apk", "app-aligned.apk"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AlignArgs = %v, want %v", got, want)
	}
}

func TestAlign_ExplicitOutput(t *testing.T) {
	fr := &fakeRunner{}
	e := newTestEngine(fr, nil)

	o := e.Align(context.Background(), AlignRequest{APK: "app.apk", Output: "out.apk"})
	if !o.OK || o.Artifact != "out.apk" {
		t.Fatalf("outcome = %+v, want OK with artifact out.apk", o)
	}
	last := fr.Calls[0][len(fr.Calls[0])-1]
	if last != "out.apk" {
		t.Errorf("argv = %v, want out.apk as final token", fr.Calls[0])
	}
}

func TestAlign_InPlaceReplacesInput(t *testing.T) {
	dir := t.TempDir()
	apk := filepath.Join(dir, "app.apk")
	if err := os.WriteFile(apk, []byte("unaligned"), 0o644); err != nil {
		t.Fatal(err)
	}

	fr := &fakeRunner{}
	// Simulate zipalign writing the aligned copy.
	fr.OnRun = func(argv []string) {
		out := argv[len(argv)-1]
		_ = os.WriteFile(out, []byte("aligned"), 0o644)
	}
	e := newTestEngine(fr, nil)

	o := e.Align(context.Background(), AlignRequest{APK: apk})
	if !o.OK {
		t.Fatalf("outcome = %+v, want OK", o)
	}
	if o.Artifact != apk {
		t.Errorf("Artifact = %q, want input path for in-place align", o.Artifact)
	}
	data, err := os.ReadFile(apk)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "aligned" {
		t.Errorf("input content = %q, want aligned copy to replace it", data)
	}
	// The temp sibling should be gone after the rename.
	if _, err := os.Stat(filepath.Join(dir, "app-aligned.apk")); !os.IsNotExist(err) {
		t.Error("aligned temp file still present after rename")
	}
}

func TestAlign_InPlaceWorkspaceRelative(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "app.apk"), []byte("unaligned"), 0o644); err != nil {
		t.Fatal(err)
	}

	fr := &fakeRunner{}
	// zipalign runs with cwd = ws, so it writes the relative output there.
	fr.OnRun = func(argv []string) {
		out := argv[len(argv)-1]
		_ = os.WriteFile(filepath.Join(ws, out), []byte("aligned"), 0o644)
	}
	e := newTestEngine(fr, nil)
	e.Workspace = ws

	o := e.Align(context.Background(), AlignRequest{APK: "app.apk"})
	if !o.OK {
		t.Fatalf("outcome = %+v, want OK", o)
	}
	data, err := os.ReadFile(filepath.Join(ws, "app.apk"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "aligned" {
		t.Errorf("input content = %q, want workspace-relative rename to replace it", data)
	}
}

func TestAlign_EmptyInput(t *testing.T) {
	fr := &fakeRunner{}
	e := newTestEngine(fr, nil)

	o := e.Align(context.Background(), AlignRequest{})
	if o.OK || o.Kind != InvalidInput {
		t.Fatalf("outcome = %+v, want invalid_input failure", o)
	}
}

func TestAlign_ToolFailure(t *testing.T) {
	fr := &fakeRunner{Results: map[string]*runner.Result{
		"zipalign": {ExitCode: 1, Stderr: []byte("Unable to open 'app.apk' as zip archive\n")},
	}}
	e := newTestEngine(fr, nil)

	o := e.Align(context.Background(), AlignRequest{APK: "app.apk", Output: "out.apk"})
	if o.OK || o.Kind != ToolExecutionError {
		t.Fatalf("outcome = %+v, want tool_execution_error", o)
	}
}
