package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/bindplan/internal/diagnostics"
	"github.com/toyz/bindplan/internal/errors"
)

// DiagnosticReporter renders analysis diagnostics and operational errors for humans
type DiagnosticReporter struct {
	verbose bool
	out     io.Writer
}

// NewDiagnosticReporter creates a reporter writing to stderr
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return NewDiagnosticReporterTo(os.Stderr, verbose)
}

// NewDiagnosticReporterTo creates a reporter writing to out
func NewDiagnosticReporterTo(out io.Writer, verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{verbose: verbose, out: out}
}

var (
	errorMarker   = color.New(color.FgRed, color.Bold)
	warningMarker = color.New(color.FgYellow, color.Bold) // orange-ish
	infoMarker    = color.New(color.FgCyan)
	dim           = color.New(color.FgHiBlack)
)

// ReportDiagnostics prints every diagnostic, errors first, and returns the number of errors.
// Info diagnostics are only shown in verbose mode.
func (r *DiagnosticReporter) ReportDiagnostics(ds diagnostics.Diagnostics) int {
	sorted := make(diagnostics.Diagnostics, len(ds))
	copy(sorted, ds)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity > sorted[j].Severity
	})

	errorCount := 0
	for _, d := range sorted {
		switch d.Severity {
		case diagnostics.SeverityError:
			errorCount++
			errorMarker.Fprint(r.out, "x ")
		case diagnostics.SeverityWarning:
			warningMarker.Fprint(r.out, "! ")
		default:
			if !r.verbose {
				continue
			}
			infoMarker.Fprint(r.out, "i ")
		}

		fmt.Fprintf(r.out, "%s [%s]", d.Handler, d.Kind)
		if d.Subject != "" {
			fmt.Fprintf(r.out, " %s:", d.Subject)
		}
		fmt.Fprintf(r.out, " %s\n", d.Message)
		if pos := d.Position.String(); pos != "" {
			dim.Fprintf(r.out, "    at %s\n", pos)
		}
	}
	return errorCount
}

// ReportWarning provides user-friendly warning reporting
func (r *DiagnosticReporter) ReportWarning(message string) {
	warningMarker.Fprint(r.out, "! ")
	fmt.Fprintf(r.out, "%s\n", message)
}

// ReportError provides comprehensive error reporting for operational failures
func (r *DiagnosticReporter) ReportError(err error) {
	fmt.Fprintf(r.out, "\nERROR: Analysis Failed\n")
	fmt.Fprintf(r.out, "======================\n\n")

	var multi *errors.MultipleErrors
	var be errors.BindplanError
	switch {
	case stderrors.As(err, &multi):
		for i, e := range multi.Errors {
			fmt.Fprintf(r.out, "[%d/%d] ", i+1, len(multi.Errors))
			r.reportBindplanError(e)
		}
	case stderrors.As(err, &be):
		r.reportBindplanError(be)
	default:
		fmt.Fprintf(r.out, "Message: %s\n\n", err.Error())
	}

	if !r.verbose {
		fmt.Fprintf(r.out, "Run with -verbose for more detailed output\n")
	}
	fmt.Fprintf(r.out, "\n")
}

func (r *DiagnosticReporter) reportBindplanError(be errors.BindplanError) {
	header := be.ErrorCode().String()
	fmt.Fprintf(r.out, "Type: %s\n", header)
	fmt.Fprintf(r.out, "%s\n\n", strings.Repeat("-", len(header)+6))

	fmt.Fprintf(r.out, "Message: %s\n\n", be.Error())

	if loc := be.Location(); !loc.IsEmpty() {
		fmt.Fprintf(r.out, "Location: %s\n\n", loc)
	}

	if ctx := be.Context(); len(ctx) > 0 {
		r.printContext(ctx)
	}

	if suggestions := be.Suggestions(); len(suggestions) > 0 {
		r.printSuggestions(suggestions)
	}

	if r.verbose && be.Unwrap() != nil {
		fmt.Fprintf(r.out, "Error Chain:\n")
		level := 1
		for err := be.Unwrap(); err != nil; err = stderrors.Unwrap(err) {
			fmt.Fprintf(r.out, "  %d. %s\n", level, err.Error())
			level++
		}
		fmt.Fprintf(r.out, "\n")
	}
}

// printContext prints context information sorted by key
func (r *DiagnosticReporter) printContext(ctx map[string]interface{}) {
	keys := make([]string, 0, len(ctx))
	for key := range ctx {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Fprintf(r.out, "Context:\n")
	for _, key := range keys {
		fmt.Fprintf(r.out, "   %s: %v\n", formatContextKey(key), ctx[key])
	}
	fmt.Fprintf(r.out, "\n")
}

// formatContextKey converts snake_case keys to Title Case
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

// printSuggestions prints actionable suggestions
func (r *DiagnosticReporter) printSuggestions(suggestions []string) {
	fmt.Fprintf(r.out, "Suggestions:\n")
	for i, suggestion := range suggestions {
		lines := strings.Split(suggestion, "\n")
		fmt.Fprintf(r.out, "   %d. %s\n", i+1, lines[0])
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				fmt.Fprintf(r.out, "      %s\n", line)
			}
		}
	}
	fmt.Fprintf(r.out, "\n")
}

// Debug prints debug information when verbose mode is enabled
func (r *DiagnosticReporter) Debug(format string, args ...interface{}) {
	if r.verbose {
		fmt.Fprintf(r.out, "[DEBUG] "+format+"\n", args...)
	}
}
