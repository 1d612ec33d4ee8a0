package workflow

import (
	"fmt"
	"io/fs"
	"os/exec"
	"testing"

	"github.com/deixis/repack/internal/config"
	"github.com/deixis/repack/internal/runner"
)

func TestFinish_ZeroExitIsSuccess(t *testing.T) {
	e := newTestEngine(&fakeRunner{}, nil)
	o := e.finish(Apktool, &runner.Result{ExitCode: 0}, nil, "app.apk", "out")
	if !o.OK {
		t.Fatalf("outcome = %+v, want OK", o)
	}
	if o.Artifact != "out" {
		t.Errorf("Artifact = %q, want out", o.Artifact)
	}
}

func TestFinish_NonZeroExitRelaysStderr(t *testing.T) {
	e := newTestEngine(&fakeRunner{}, nil)
	res := &runner.Result{ExitCode: 1, Stderr: []byte("brut.androlib.AndrolibException: bad resource\n")}
	o := e.finish(Apktool, res, nil, "app.apk", "")
	if o.OK {
		t.Fatal("outcome OK, want failure")
	}
	if o.Kind != ToolExecutionError {
		t.Errorf("Kind = %q, want %q", o.Kind, ToolExecutionError)
	}
	if o.Message != "brut.androlib.AndrolibException: bad resource" {
		t.Errorf("Message = %q, want verbatim stderr", o.Message)
	}
}

func TestFinish_EmptyStderrFallsBackToStdout(t *testing.T) {
	e := newTestEngine(&fakeRunner{}, nil)
	res := &runner.Result{ExitCode: 2, Stdout: []byte("error printed on stdout\n")}
	o := e.finish(Zipalign, res, nil, "app.apk", "")
	if o.Message != "error printed on stdout" {
		t.Errorf("Message = %q, want stdout fallback", o.Message)
	}
}

func TestFinish_NoOutputAtAll(t *testing.T) {
	e := newTestEngine(&fakeRunner{}, nil)
	o := e.finish(Apksigner, &runner.Result{ExitCode: 3}, nil, "app.apk", "")
	if o.Message != "apksigner exited with code 3" {
		t.Errorf("Message = %q, want synthesized exit message", o.Message)
	}
}

func TestFinish_NotFoundError(t *testing.T) {
	e := newTestEngine(&fakeRunner{}, nil)
	err := fmt.Errorf("executing apktool: %w", exec.ErrNotFound)
	o := e.finish(Apktool, nil, err, "app.apk", "")
	if o.Kind != ToolNotFound {
		t.Errorf("Kind = %q, want %q", o.Kind, ToolNotFound)
	}
}

func TestFinish_MissingBinaryFile(t *testing.T) {
	e := newTestEngine(&fakeRunner{}, nil)
	err := fmt.Errorf("executing /opt/apktool: %w", fs.ErrNotExist)
	o := e.finish(Apktool, nil, err, "app.apk", "")
	if o.Kind != ToolNotFound {
		t.Errorf("Kind = %q, want %q", o.Kind, ToolNotFound)
	}
}

func TestFinish_LaunchError(t *testing.T) {
	e := newTestEngine(&fakeRunner{}, nil)
	err := fmt.Errorf("executing apktool: %w", fs.ErrPermission)
	o := e.finish(Apktool, nil, err, "app.apk", "")
	if o.Kind != LaunchError {
		t.Errorf("Kind = %q, want %q", o.Kind, LaunchError)
	}
}

func TestFailure_PathsOmittedByDefault(t *testing.T) {
	e := newTestEngine(&fakeRunner{}, nil)
	o := e.failure(ToolExecutionError, "boom", "/home/user/app.apk")
	if o.File != "" {
		t.Errorf("File = %q, want empty when include_paths is off", o.File)
	}
}

func TestFailure_PathsIncludedWhenEnabled(t *testing.T) {
	e := newTestEngine(&fakeRunner{}, &config.Config{IncludePaths: true})
	o := e.failure(ToolExecutionError, "boom", "/home/user/app.apk")
	if o.File != "/home/user/app.apk" {
		t.Errorf("File = %q, want input path when include_paths is on", o.File)
	}
}
