package workflow

import "context"

// InstallFrameworkRequest holds the typed inputs for installing a
// framework resource package into apktool's framework directory.
type InstallFrameworkRequest struct {
	APK   string // framework APK path
	Tag   string // optional tag distinguishing OEM framework variants
	Force bool
}

// InstallFrameworkArgs builds the apktool argv for a framework install. Pure.
func InstallFrameworkArgs(tool string, req InstallFrameworkRequest) []string {
	argv := []string{tool, "if", req.APK}
	if req.Force {
		argv = append(argv, "-f")
	}
	if req.Tag != "" {
		argv = append(argv, "-t", req.Tag)
	}
	return argv
}

// EmptyFrameworkDirArgs builds the apktool argv for emptying the
// framework directory. Pure.
func EmptyFrameworkDirArgs(tool string, force bool) []string {
	argv := []string{tool, "empty-framework-dir"}
	if force {
		argv = append(argv, "-f")
	}
	return argv
}

// InstallFramework runs apktool if on the given framework APK.
func (e *Engine) InstallFramework(ctx context.Context, req InstallFrameworkRequest) *Outcome {
	if req.APK == "" {
		return e.failure(InvalidInput, "framework apk path is empty", "")
	}
	res, err := e.Runner.Run(ctx, InstallFrameworkArgs(e.tool(Apktool), req), "", nil)
	return e.finish(Apktool, res, err, req.APK, req.APK)
}

// EmptyFrameworkDir runs apktool empty-framework-dir.
func (e *Engine) EmptyFrameworkDir(ctx context.Context, force bool) *Outcome {
	res, err := e.Runner.Run(ctx, EmptyFrameworkDirArgs(e.tool(Apktool), force), "", nil)
	return e.finish(Apktool, res, err, "", "")
}
