package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/scriptgraph/internal/app"
	"github.com/yungbote/scriptgraph/internal/importer"
	errs "github.com/yungbote/scriptgraph/internal/pkg/errors"
	"github.com/yungbote/scriptgraph/internal/platform/logger"
)

const (
	exitOK       = 0
	exitInfra    = 1
	exitBadInput = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var rootMode string
	var dryRun bool
	flag.StringVar(&rootMode, "root-mode", "", "root anchoring: new (default) or reuse; overrides SCRIPT_IMPORT_ROOT_MODE")
	flag.BoolVar(&dryRun, "dry-run", false, "parse and validate the script without writing")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <program>/<module_N>/<day_N>/<persona>.json\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return exitBadInput
	}
	path := flag.Arg(0)

	var opts []app.Option
	if rootMode != "" {
		mode, err := importer.ParseRootMode(rootMode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -root-mode: %v\n", err)
			return exitBadInput
		}
		opts = append(opts, app.WithRootMode(mode))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, "import_script", opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		return exitCode(err)
	}
	defer application.Close(context.Background())
	log := application.Log.With("path", path)

	if dryRun {
		plan, err := application.Importer.PlanFile(path)
		if err != nil {
			return fail(log, err)
		}
		fmt.Printf("Script is valid. Persona: %s Turns: %d\n", plan.Coords.Persona, len(plan.Turns))
		return exitOK
	}

	jobID, err := application.Importer.ImportFile(ctx, path)
	if err != nil {
		return fail(log, err)
	}
	log.Info("script imported", "job_id", jobID)
	fmt.Printf("Imported script successfully. Job-ID: %s\n", jobID)
	return exitOK
}

func fail(log *logger.Logger, err error) int {
	code := exitCode(err)
	if code == exitBadInput {
		log.Error("script rejected", "error", err)
		fmt.Fprintf(os.Stderr, "invalid input: %v\n", err)
		return code
	}
	log.Error("import failed", "error", err)
	fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
	return code
}

// exitCode maps bad scripts, paths and settings to exitBadInput and everything
// else to exitInfra.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var cfgErr *app.ConfigError
	if errs.IsInputError(err) || errors.As(err, &cfgErr) {
		return exitBadInput
	}
	return exitInfra
}
