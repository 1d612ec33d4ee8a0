package workflow

import (
	"context"
	"os"
)

// SignRequest holds the typed inputs for a sign operation.
// The password travels to apksigner through the process environment,
// never through argv, so it cannot leak in process listings.
type SignRequest struct {
	APK      string
	Keystore string
	Alias    string
	Password string
}

// SignArgs builds the apksigner argv. passwordEnv names the environment
// variable apksigner reads the credential from. Pure.
func SignArgs(tool string, req SignRequest, passwordEnv string) []string {
	return []string{
		tool, "sign",
		"--ks", req.Keystore,
		"--ks-key-alias", req.Alias,
		"--ks-pass", "env:" + passwordEnv,
		"--key-pass", "env:" + passwordEnv,
		"--v4-signing-enabled", "false",
		req.APK,
	}
}

// Sign runs apksigner sign on the given APK. Signing is in-place, so on
// success the artifact is the input path.
func (e *Engine) Sign(ctx context.Context, req SignRequest) *Outcome {
	if req.APK == "" {
		return e.failure(InvalidInput, "input apk path is empty", "")
	}
	if req.Keystore == "" {
		return e.failure(InvalidInput, "keystore path is empty", req.APK)
	}
	if _, err := os.Stat(e.abs(req.Keystore)); err != nil {
		// Fail fast with a clear message instead of an opaque apksigner error.
		return e.failure(InvalidInput, "keystore not found", req.Keystore)
	}
	if req.Alias == "" {
		req.Alias = e.Config.KeystoreAlias()
	}

	passwordEnv := e.Config.PasswordEnv()
	env := []string{passwordEnv + "=" + req.Password}

	res, err := e.Runner.Run(ctx, SignArgs(e.tool(Apksigner), req, passwordEnv), "", env)
	return e.finish(Apksigner, res, err, req.APK, req.APK)
}
