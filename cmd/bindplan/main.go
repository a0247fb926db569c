package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/toyz/bindplan/internal/cli"
	"github.com/toyz/bindplan/internal/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bindplan", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configFlag   = fs.String("config", "", "Configuration file (defaults to bindplan.yaml, bindplan.yml or bindplan.toml in the working directory)")
		moduleFlag   = fs.String("module", "", "Custom module name for import paths (defaults to go.mod module)")
		maxArityFlag = fs.Int("max-arity", 0, "Largest response union emitted as a closed sum type")
		workersFlag  = fs.Int("workers", 0, "Handlers analysed concurrently (0 uses GOMAXPROCS)")
		outcomeFlag  = fs.String("outcome-package", "", "Import path of the outcome package (defaults to the bundled one)")
		formatFlag   = fs.String("format", "", "Report format: text, json, yaml or msgpack")
		outputFlag   = fs.String("output", "", "Report file (defaults to stdout)")
		prefixFlag   = fs.String("prefix", "", "Only report handlers whose route starts with this prefix")
		watchFlag    = fs.Bool("watch", false, "Re-run the analysis whenever a Go file changes")
		verboseFlag  = fs.Bool("verbose", false, "Enable verbose output and detailed error reporting")
		quietFlag    = fs.Bool("quiet", false, "Only show errors and the report")
		helpFlag     = fs.Bool("help", false, "Show help information")
	)

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: bindplan [options] [directory-paths...]\n\n")
		fmt.Fprintf(stderr, "Bindplan Handler Analyzer\n")
		fmt.Fprintf(stderr, "Scans Go files for bindplan:: handler annotations and reports binding plans and response unions.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nArguments:\n")
		fmt.Fprintf(stderr, "  directory-paths    Directories to scan (default ./...)\n")
		fmt.Fprintf(stderr, "                     Supports Go-style patterns like './...' for recursive scanning\n")
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  bindplan ./...                              # Analyse everything recursively\n")
		fmt.Fprintf(stderr, "  bindplan -format json -output plans.json    # Write the report consumed at runtime\n")
		fmt.Fprintf(stderr, "  bindplan -prefix /api/orders ./internal/... # Only report matching routes\n")
		fmt.Fprintf(stderr, "  bindplan -watch ./...                       # Re-run on changes\n")
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *helpFlag {
		fs.Usage()
		return 0
	}

	var diagnostics *utils.DiagnosticSystem
	if *quietFlag {
		diagnostics = utils.NewQuietDiagnostics()
	} else if *verboseFlag {
		diagnostics = utils.NewVerboseDiagnostics()
	} else {
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
	if stdout != os.Stdout || stderr != os.Stderr {
		diagnostics.SetOutput(stdout, stderr)
	}
	reporter := cli.NewDiagnosticReporterTo(stderr, *verboseFlag)

	cwd, err := os.Getwd()
	if err != nil {
		reporter.ReportError(err)
		return 1
	}
	cfg, err := cli.LoadConfig(*configFlag, cwd)
	if err != nil {
		reporter.ReportError(err)
		return 1
	}

	// flags given on the command line win over the configuration file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "module":
			cfg.ModuleName = *moduleFlag
		case "max-arity":
			cfg.MaxArity = *maxArityFlag
		case "workers":
			cfg.Workers = *workersFlag
		case "outcome-package":
			cfg.OutcomePackage = *outcomeFlag
		case "format":
			cfg.Format = *formatFlag
		case "output":
			cfg.Output = *outputFlag
		case "prefix":
			cfg.RoutePrefix = *prefixFlag
		}
	})
	if dirs := fs.Args(); len(dirs) > 0 {
		cfg.Directories = dirs
	}
	if len(cfg.Directories) == 0 {
		cfg.Directories = []string{"./..."}
	}
	cfg.Watch = *watchFlag
	cfg.Verbose = *verboseFlag

	diagnostics.Header(fmt.Sprintf("analysing %s", strings.Join(cfg.Directories, " ")))
	if *verboseFlag {
		diagnostics.Subsection("Configuration")
		if cfg.Source() != "" {
			diagnostics.List("Config file: %s", cfg.Source())
		}
		diagnostics.List("Target directories: %s", strings.Join(cfg.Directories, ", "))
		if cfg.ModuleName != "" {
			diagnostics.List("Custom module: %s", cfg.ModuleName)
		}
		diagnostics.List("Format: %s", cfg.Format)
		diagnostics.List("Max arity: %d", cfg.MaxArity)
	}

	runner, err := cli.NewRunner(cfg, diagnostics, reporter)
	if err != nil {
		reporter.ReportError(err)
		return 1
	}

	if cfg.Watch {
		if err := runner.Watch(ctx); err != nil {
			reporter.ReportError(err)
			return 1
		}
		return 0
	}

	report, err := runner.Run(ctx)
	if err != nil {
		reporter.ReportError(err)
		return 1
	}
	diagnostics.Summary("Analysis complete", runner.Summary().Stats())
	if report.HasErrors() {
		return 1
	}
	if cfg.Output != "" {
		diagnostics.Success("Report written to %s", cfg.Output)
	}
	return 0
}
