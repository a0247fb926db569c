package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/toyz/bindplan/internal/diagnostics"
	"github.com/toyz/bindplan/internal/errors"
	"github.com/toyz/bindplan/internal/models"
)

func init() {
	color.NoColor = true
}

func testDiagnostics() diagnostics.Diagnostics {
	id := models.HandlerID{Scope: "api.Todos", Member: "Get"}

	warn := diagnostics.New(diagnostics.UnknownMiddleware, "Tracing", "middleware 'Tracing' is not registered")
	warn.Handler = id
	fail := diagnostics.New(diagnostics.InvalidQueryParameterType, "filter", "Filter cannot be read from the query string")
	fail.Handler = id
	fail.Position = models.SourcePosition{File: "todos.go", Line: 12}
	info := diagnostics.New(diagnostics.HandlerNotFound, "Get", "no body found")
	info.Handler = id

	return diagnostics.Diagnostics{warn, fail, info}
}

func TestDiagnosticReporter_ReportDiagnostics(t *testing.T) {
	testCases := []struct {
		name     string
		verbose  bool
		wantInfo bool
	}{
		{name: "default hides info"},
		{name: "verbose shows info", verbose: true, wantInfo: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			errorCount := NewDiagnosticReporterTo(&buf, tc.verbose).ReportDiagnostics(testDiagnostics())
			out := buf.String()

			assert.Equal(t, 1, errorCount)
			lines := strings.Split(strings.TrimSpace(out), "\n")
			assert.Equal(t, "x api.Todos.Get [InvalidQueryParameterType] filter: Filter cannot be read from the query string", lines[0])
			assert.Equal(t, "    at todos.go:12", lines[1])
			assert.Equal(t, "! api.Todos.Get [UnknownMiddleware] Tracing: middleware 'Tracing' is not registered", lines[2])
			assert.Equal(t, tc.wantInfo, strings.Contains(out, "i api.Todos.Get [HandlerNotFound]"))
		})
	}
}

func TestDiagnosticReporter_ReportWarning(t *testing.T) {
	var buf bytes.Buffer
	NewDiagnosticReporterTo(&buf, false).ReportWarning("This is a test warning")
	assert.Equal(t, "! This is a test warning\n", buf.String())
}

func TestDiagnosticReporter_ReportError(t *testing.T) {
	cause := fmt.Errorf("open bindplan.yaml: permission denied")
	err := errors.WrapConfigurationError("bindplan.yaml", "read", cause).
		WithSuggestion("Check the file permissions\nor pass -config")

	t.Run("structured error", func(t *testing.T) {
		var buf bytes.Buffer
		NewDiagnosticReporterTo(&buf, false).ReportError(fmt.Errorf("loading: %w", err))
		out := buf.String()

		assert.Contains(t, out, "ERROR: Analysis Failed")
		assert.Contains(t, out, "Type: ConfigurationError")
		assert.Contains(t, out, "Message: failed to read configuration bindplan.yaml: open bindplan.yaml: permission denied")
		assert.Contains(t, out, "   Config: bindplan.yaml\n   Operation: read\n")
		assert.Contains(t, out, "   1. Check the file permissions\n      or pass -config\n")
		assert.NotContains(t, out, "Error Chain")
	})

	t.Run("verbose shows the chain", func(t *testing.T) {
		var buf bytes.Buffer
		NewDiagnosticReporterTo(&buf, true).ReportError(err)
		assert.Contains(t, buf.String(), "Error Chain:\n  1. open bindplan.yaml: permission denied\n")
	})

	t.Run("multiple errors", func(t *testing.T) {
		multi := errors.NewMultipleErrors()
		multi.Add(errors.WrapSourceError("api", fmt.Errorf("expected declaration")))
		multi.Add(errors.WrapSourceError("admin", fmt.Errorf("expected operand")))

		var buf bytes.Buffer
		NewDiagnosticReporterTo(&buf, false).ReportError(multi)
		out := buf.String()

		assert.Contains(t, out, "[1/2] Type: SourceError")
		assert.Contains(t, out, "[2/2] Type: SourceError")
		assert.Contains(t, out, "failed to parse admin: expected operand")
		assert.Equal(t, 1, strings.Count(out, "Run with -verbose"))
	})

	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		NewDiagnosticReporterTo(&buf, false).ReportError(fmt.Errorf("boom"))
		assert.Contains(t, buf.String(), "Message: boom\n")
	})
}

func TestFormatContextKey(t *testing.T) {
	assert.Equal(t, "Config", formatContextKey("config"))
	assert.Equal(t, "Package Dir", formatContextKey("package_dir"))
}
