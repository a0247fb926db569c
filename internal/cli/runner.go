package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/toyz/bindplan/internal/analysis"
	"github.com/toyz/bindplan/internal/diagnostics"
	"github.com/toyz/bindplan/internal/errors"
	"github.com/toyz/bindplan/internal/extract"
	"github.com/toyz/bindplan/internal/models"
	"github.com/toyz/bindplan/internal/outcome"
	"github.com/toyz/bindplan/internal/registry"
	"github.com/toyz/bindplan/internal/utils"
)

// RunSummary contains information about the last run
type RunSummary struct {
	PackagesProcessed int
	HandlersFound     int
	ParsersDiscovered int
	BoundedUnions     int
	FallbackUnions    int
	Errors            int
	Warnings          int
	Duration          time.Duration
}

// Stats returns the summary as DiagnosticSystem.Summary statistics
func (s RunSummary) Stats() map[string]interface{} {
	return map[string]interface{}{
		"Packages processed": s.PackagesProcessed,
		"Handlers found":     s.HandlersFound,
		"Custom parsers":     s.ParsersDiscovered,
		"Bounded unions":     s.BoundedUnions,
		"Fallback unions":    s.FallbackUnions,
		"Errors":             s.Errors,
		"Warnings":           s.Warnings,
	}
}

// Runner coordinates scanning, extraction, analysis and report writing
type Runner struct {
	config      *Config
	diagnostics *utils.DiagnosticSystem
	reporter    *DiagnosticReporter
	scanner     *DirectoryScanner
	resolver    *ModuleResolver
	parsers     *registry.ParserRegistry
	extractor   *extract.Extractor
	analyzer    *analysis.Analyzer
	writer      *ReportWriter
	summary     RunSummary
}

// NewRunner creates a runner for cfg. ds and reporter may be nil for silent operation.
func NewRunner(cfg *Config, ds *utils.DiagnosticSystem, reporter *DiagnosticReporter) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	middlewares, err := cfg.MiddlewareRegistry()
	if err != nil {
		return nil, errors.WrapConfigurationError(cfg.Source(), "load middlewares from", err)
	}
	writer, err := NewReportWriter(cfg.Format)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		ds = utils.NewDiagnosticSystem(utils.DiagnosticSilent)
	}

	parsers := registry.NewParserRegistry()
	return &Runner{
		config:      cfg,
		diagnostics: ds,
		reporter:    reporter,
		scanner:     NewDirectoryScanner(nil),
		resolver:    NewModuleResolver(nil),
		parsers:     parsers,
		extractor:   extract.New(parsers, cfg.OutcomePackage),
		analyzer: analysis.New(analysis.Options{
			Workers:        cfg.Workers,
			MaxArity:       cfg.MaxArity,
			OutcomePackage: cfg.OutcomePackage,
			Middlewares:    middlewares,
		}),
		writer: writer,
	}, nil
}

// Summary returns the summary of the last run
func (r *Runner) Summary() RunSummary {
	return r.summary
}

// Analyze scans the configured directories and analyses every handler found
func (r *Runner) Analyze(ctx context.Context) (*analysis.Report, error) {
	startTime := time.Now()
	r.summary = RunSummary{}
	r.parsers.ClearCustomParsers()

	r.diagnostics.Debug("Scanning directories: %v", r.config.Directories)
	r.diagnostics.StartProgress("Scanning directories for Go packages")
	packageDirs, err := r.scanner.ScanDirectories(r.config.Directories)
	if err != nil {
		r.diagnostics.EndProgress(false, "")
		return nil, err
	}
	if len(packageDirs) == 0 {
		r.diagnostics.EndProgress(false, "")
		return nil, errors.New(errors.FileSystemErrorCode, "no Go packages found in specified directories").
			WithContext("directories", r.config.Directories).
			WithSuggestion("Try scanning parent directories or use the './...' pattern")
	}
	r.diagnostics.EndProgress(true, fmt.Sprintf("%d package(s)", len(packageDirs)))

	importPaths := make([]string, len(packageDirs))
	for i, dir := range packageDirs {
		module, err := r.resolver.Resolve(r.config.ModuleName, dir)
		if err != nil {
			return nil, err
		}
		if importPaths[i], err = r.resolver.BuildPackagePath(module, dir); err != nil {
			return nil, errors.WrapModuleError(dir, err)
		}
		r.diagnostics.Debug("%s -> %s", dir, importPaths[i])
	}

	// Parse contracts may live in another package than the types' users,
	// so every package is extracted once before the extraction that counts.
	if len(packageDirs) > 1 {
		r.diagnostics.StartProgress("Discovering parse contracts")
		if _, err := r.extractAll(packageDirs, importPaths); err != nil {
			r.diagnostics.EndProgress(false, "")
			return nil, err
		}
		r.diagnostics.EndProgress(true, "")
	}

	r.diagnostics.StartProgress("Extracting handlers")
	packages, err := r.extractAll(packageDirs, importPaths)
	if err != nil {
		r.diagnostics.EndProgress(false, "")
		return nil, err
	}

	var handlers []models.HandlerDeclaration
	program := analysis.Program{Units: make(map[string]*outcome.Unit, len(packages))}
	for _, pkg := range packages {
		handlers = append(handlers, pkg.Handlers...)
		program.Units[pkg.Path] = pkg.Unit
		program.Diagnostics = append(program.Diagnostics, pkg.Diagnostics...)
	}
	r.diagnostics.EndProgress(true, fmt.Sprintf("%d handler(s)", len(handlers)))

	r.diagnostics.StartProgress("Analysing handlers")
	report, err := r.analyzer.Analyze(ctx, handlers, program)
	if err != nil {
		r.diagnostics.EndProgress(false, "")
		return nil, err
	}
	report = report.Filter(r.config.RoutePrefix)
	r.diagnostics.EndProgress(true, "")

	r.summarize(report, len(packageDirs), time.Since(startTime))
	return report, nil
}

// extractAll extracts every package. Packages that fail to parse are all reported together.
func (r *Runner) extractAll(dirs, importPaths []string) ([]*extract.Package, error) {
	packages := make([]*extract.Package, 0, len(dirs))
	failures := errors.NewMultipleErrors()
	for i, dir := range dirs {
		pkg, err := r.extractor.ExtractDir(dir, importPaths[i])
		if err != nil {
			var be errors.BindplanError
			if !stderrors.As(err, &be) {
				return nil, err
			}
			failures.Add(be)
			continue
		}
		packages = append(packages, pkg)
	}
	if failures.Count() == 1 {
		return nil, failures.Errors[0]
	}
	if err := failures.ErrorOrNil(); err != nil {
		return nil, err
	}
	return packages, nil
}

func (r *Runner) summarize(report *analysis.Report, packages int, elapsed time.Duration) {
	r.summary.PackagesProcessed = packages
	r.summary.HandlersFound = len(report.Handlers)
	r.summary.ParsersDiscovered = len(r.parsers.CustomParsers())
	r.summary.Duration = elapsed
	for _, h := range report.Handlers {
		if h.Union.IsBounded() {
			r.summary.BoundedUnions++
		} else {
			r.summary.FallbackUnions++
		}
	}
	for _, d := range report.Diagnostics {
		switch d.Severity {
		case diagnostics.SeverityError:
			r.summary.Errors++
		case diagnostics.SeverityWarning:
			r.summary.Warnings++
		}
	}
}

// Run analyses, prints diagnostics and writes the report
func (r *Runner) Run(ctx context.Context) (*analysis.Report, error) {
	report, err := r.Analyze(ctx)
	if err != nil {
		return nil, err
	}
	if r.reporter != nil {
		r.reporter.ReportDiagnostics(report.Diagnostics)
	}
	if err := r.writer.WriteFile(r.config.Output, report); err != nil {
		return nil, err
	}
	r.diagnostics.Verbose("Analysis completed in %v", r.summary.Duration)
	return report, nil
}

// Watch runs once, then again whenever a Go file in the scanned packages changes.
// It blocks until ctx is cancelled.
func (r *Runner) Watch(ctx context.Context) error {
	r.runAndReport(ctx)

	dirs, err := r.scanner.ScanDirectories(r.config.Directories)
	if err != nil {
		return err
	}
	watcher, err := NewWatcher(dirs, DefaultDebounce)
	if err != nil {
		return err
	}
	watcher.OnError(func(err error) {
		r.diagnostics.Warn("watcher: %v", err)
	})

	r.diagnostics.Info("Watching %d package(s) for changes", len(dirs))
	err = watcher.Watch(ctx, func(ctx context.Context, changed []string) {
		for _, path := range changed {
			r.extractor.Invalidate(path)
			r.diagnostics.Verbose("changed: %s", path)
		}
		r.runAndReport(ctx)
	})
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) runAndReport(ctx context.Context) {
	if _, err := r.Run(ctx); err != nil {
		if r.reporter != nil {
			r.reporter.ReportError(err)
		} else {
			r.diagnostics.Error("%v", err)
		}
		return
	}
	r.diagnostics.Summary("Analysis complete", r.summary.Stats())
}
