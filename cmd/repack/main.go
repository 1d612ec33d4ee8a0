// Command repack decompiles, rebuilds, signs, and aligns Android APKs
// by orchestrating apktool, apksigner, and zipalign.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/deixis/repack"
	"github.com/deixis/repack/internal/config"
	repackmcp "github.com/deixis/repack/internal/mcp"
	"github.com/deixis/repack/internal/report"
	"github.com/deixis/repack/internal/runner"
	"github.com/deixis/repack/internal/workflow"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("repack: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "decompile", "d":
		err = decompileMain(args)
	case "build", "b":
		err = buildMain(args)
	case "sign":
		err = signMain(args)
	case "align":
		err = alignMain(args)
	case "install-framework", "if":
		err = installFrameworkMain(args)
	case "empty-framework-dir":
		err = emptyFrameworkDirMain(args)
	case "doctor":
		err = doctorMain(args)
	case "mcp":
		err = mcpMain(args)
	case "version":
		fmt.Println(repack.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "repack: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: repack <command> [flags] <path>

Commands:
  decompile, d         Decompile an APK with apktool
  build, b             Rebuild an APK (and sign + align when a keystore is configured)
  sign                 Sign an APK in place with apksigner
  align                Page-align an APK with zipalign
  install-framework    Install a framework resource APK
  empty-framework-dir  Empty apktool's framework directory
  doctor               Check that the external tools are installed
  mcp                  Start the MCP server
  version              Print the version
  help                 Show this help

The keystore password is read from the environment (REPACK_KS_PASS by
default); it is never accepted as a flag.

Use "repack <command> -h" for command-specific flags.`)
}

// newEngine loads the workspace config and wires the runner.
func newEngine() (*workflow.Engine, error) {
	workspace, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining workspace: %w", err)
	}

	loaded, err := config.Load(workspace)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	r := &runner.Runner{
		Workspace: workspace,
		Timeout:   cfg.Timeout(),
		MaxOutput: cfg.MaxOutputBytes(),
	}

	return &workflow.Engine{
		Config:    cfg,
		Runner:    r,
		Workspace: workspace,
	}, nil
}

// toRun folds an outcome and optional pipeline stages into a RunResult
// for JSON output.
func toRun(kind report.Kind, o *workflow.Outcome, stages []workflow.BuildStage) *report.RunResult {
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
	return rr
}

// emit prints the outcome and exits non-zero on failure.
func emit(kind report.Kind, o *workflow.Outcome, stages []workflow.BuildStage, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(toRun(kind, o, stages)); err != nil {
			return err
		}
	} else {
		for _, s := range stages {
			fmt.Printf("  %-7s %s\n", s.Name, s.Status)
		}
		fmt.Println(o)
	}

	if !o.OK {
		os.Exit(1)
	}
	return nil
}

func opContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// --- decompile ---

func decompileMain(args []string) error {
	fs := flag.NewFlagSet("decompile", flag.ExitOnError)
	outFlag := fs.String("o", "", "output directory (default: derived from the APK filename)")
	forceFlag := fs.Bool("f", false, "overwrite existing output")
	verboseFlag := fs.Bool("v", false, "verbose tool output")
	jsonFlag := fs.Bool("json", false, "output result as JSON")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: repack decompile [flags] <app.apk>")
	}

	ctx, stop := opContext()
	defer stop()

	eng, err := newEngine()
	if err != nil {
		return err
	}

	o := eng.Decompile(ctx, workflow.DecompileRequest{
		APK:       fs.Arg(0),
		OutputDir: *outFlag,
		Force:     *forceFlag,
		Verbose:   *verboseFlag,
	})
	return emit(report.Decompile, o, nil, *jsonFlag)
}

// --- build ---

func buildMain(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	outFlag := fs.String("o", "", "output APK path (default: dist directory of the source tree)")
	forceFlag := fs.Bool("f", false, "overwrite existing output")
	verboseFlag := fs.Bool("v", false, "verbose tool output")
	jsonFlag := fs.Bool("json", false, "output result as JSON")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: repack build [flags] <decompiled-dir>")
	}

	ctx, stop := opContext()
	defer stop()

	eng, err := newEngine()
	if err != nil {
		return err
	}

	res := eng.Build(ctx, workflow.BuildRequest{
		Dir:       fs.Arg(0),
		OutputAPK: *outFlag,
		Force:     *forceFlag,
		Verbose:   *verboseFlag,
	})
	return emit(report.Build, res.Outcome, res.Stages, *jsonFlag)
}

// --- sign ---

func signMain(args []string) error {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	ksFlag := fs.String("ks", "", "keystore path (default: keystore configured in .repack)")
	aliasFlag := fs.String("alias", "", "key alias (default: configured alias)")
	jsonFlag := fs.Bool("json", false, "output result as JSON")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: repack sign [flags] <app.apk>")
	}

	ctx, stop := opContext()
	defer stop()

	eng, err := newEngine()
	if err != nil {
		return err
	}

	keystore := *ksFlag
	if keystore == "" {
		keystore = eng.Config.KeystorePath(eng.Workspace)
	}
	if keystore == "" {
		return fmt.Errorf("no keystore given (-ks) and none configured in .repack")
	}

	o := eng.Sign(ctx, workflow.SignRequest{
		APK:      fs.Arg(0),
		Keystore: keystore,
		Alias:    *aliasFlag,
		Password: os.Getenv(eng.Config.PasswordEnv()),
	})
	return emit(report.Sign, o, nil, *jsonFlag)
}

// --- align ---

func alignMain(args []string) error {
	fs := flag.NewFlagSet("align", flag.ExitOnError)
	outFlag := fs.String("o", "", "aligned output path (default: replace the input in place)")
	jsonFlag := fs.Bool("json", false, "output result as JSON")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: repack align [flags] <app.apk>")
	}

	ctx, stop := opContext()
	defer stop()

	eng, err := newEngine()
	if err != nil {
		return err
	}

	o := eng.Align(ctx, workflow.AlignRequest{APK: fs.Arg(0), Output: *outFlag})
	return emit(report.Align, o, nil, *jsonFlag)
}

// --- framework ---

func installFrameworkMain(args []string) error {
	fs := flag.NewFlagSet("install-framework", flag.ExitOnError)
	tagFlag := fs.String("t", "", "framework tag (for OEM variants)")
	forceFlag := fs.Bool("f", false, "overwrite existing framework files")
	jsonFlag := fs.Bool("json", false, "output result as JSON")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: repack install-framework [flags] <framework-res.apk>")
	}

	ctx, stop := opContext()
	defer stop()

	eng, err := newEngine()
	if err != nil {
		return err
	}

	o := eng.InstallFramework(ctx, workflow.InstallFrameworkRequest{
		APK:   fs.Arg(0),
		Tag:   *tagFlag,
		Force: *forceFlag,
	})
	return emit(report.Framework, o, nil, *jsonFlag)
}

func emptyFrameworkDirMain(args []string) error {
	fs := flag.NewFlagSet("empty-framework-dir", flag.ExitOnError)
	forceFlag := fs.Bool("f", false, "also remove framework files apktool considers in use")
	jsonFlag := fs.Bool("json", false, "output result as JSON")
	_ = fs.Parse(args)

	ctx, stop := opContext()
	defer stop()

	eng, err := newEngine()
	if err != nil {
		return err
	}

	o := eng.EmptyFrameworkDir(ctx, *forceFlag)
	return emit(report.Framework, o, nil, *jsonFlag)
}

// --- doctor ---

func doctorMain(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	_ = fs.Parse(args)

	ctx, stop := opContext()
	defer stop()

	eng, err := newEngine()
	if err != nil {
		return err
	}

	missing := 0
	for _, s := range eng.Doctor(ctx) {
		if s.Available {
			if s.Version != "" {
				fmt.Printf("  %-10s ok (%s) via %s\n", s.Tool, s.Version, s.Invoke)
			} else {
				fmt.Printf("  %-10s ok via %s\n", s.Tool, s.Invoke)
			}
		} else {
			missing++
			fmt.Printf("  %-10s MISSING\n", s.Tool)
			fmt.Printf("             %s\n", s.Detail)
		}
	}

	if missing > 0 {
		os.Exit(1)
	}
	return nil
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "start HTTP server on address (e.g. :9090)")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(repackmcp.Instructions)
		return nil
	}

	ctx, stop := opContext()
	defer stop()

	return serve(ctx, *httpAddr)
}

func serve(ctx context.Context, httpAddr string) error {
	workspace, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determining workspace: %w", err)
	}

	loaded, err := config.Load(workspace)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	disk := report.NewDiskStore()
	store := report.NewLRUStore(5, disk)

	r := &runner.Runner{
		Workspace: workspace,
		Timeout:   cfg.Timeout(),
		MaxOutput: cfg.MaxOutputBytes(),
	}

	server := repackmcp.NewServer(cfg, r, store, workspace)

	if httpAddr != "" {
		return serveHTTP(ctx, server, httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
