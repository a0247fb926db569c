package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/toyz/bindplan/internal/analysis"
	"github.com/toyz/bindplan/internal/errors"
	"github.com/toyz/bindplan/internal/models"
)

// ReportWriter encodes analysis reports
type ReportWriter struct {
	format string
}

// NewReportWriter creates a writer for one of the Format constants
func NewReportWriter(format string) (*ReportWriter, error) {
	switch format {
	case "", FormatText:
		return &ReportWriter{format: FormatText}, nil
	case FormatJSON, FormatYAML, FormatMsgpack:
		return &ReportWriter{format: format}, nil
	}
	return nil, errors.ConfigurationError("", fmt.Sprintf("unknown report format '%s'", format)).
		WithSuggestion("Use one of: text, json, yaml, msgpack")
}

// Format returns the output format
func (w *ReportWriter) Format() string {
	return w.format
}

// Write encodes report to out
func (w *ReportWriter) Write(out io.Writer, report *analysis.Report) error {
	switch w.format {
	case FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case FormatYAML:
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return err
		}
		return encoder.Close()
	case FormatMsgpack:
		encoder := msgpack.NewEncoder(out)
		encoder.UseCompactInts(true)
		return encoder.Encode(report)
	}
	return writeText(out, report)
}

// WriteFile encodes report to path, creating parent directories. An empty path writes to stdout.
func (w *ReportWriter) WriteFile(path string, report *analysis.Report) error {
	if path == "" {
		if err := w.Write(os.Stdout, report); err != nil {
			return errors.WrapOutputError(w.format, "stdout", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WrapFileSystemError("create directory for", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.WrapFileSystemError("create", path, err)
	}
	if err := w.Write(file, report); err != nil {
		file.Close()
		return errors.WrapOutputError(w.format, path, err)
	}
	if err := file.Close(); err != nil {
		return errors.WrapOutputError(w.format, path, err)
	}
	return nil
}

func writeText(out io.Writer, report *analysis.Report) error {
	var b strings.Builder
	for i, h := range report.Handlers {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s  %s\n", h.Verb, h.Route, h.Handler)
		if pos := h.Position.String(); pos != "" {
			fmt.Fprintf(&b, "  at %s\n", pos)
		}

		if !h.Plan.Valid {
			b.WriteString("  plan: invalid\n")
		} else if len(h.Plan.Parameters) > 0 {
			b.WriteString("  plan:\n")
			writeParameters(&b, h.Plan.Parameters, "    ")
		}

		if h.Union.IsBounded() {
			b.WriteString("  responses:\n")
			for _, e := range h.Union.Entries {
				fmt.Fprintf(&b, "    %d %s (%s)\n", e.Status, e.Shape, e.Kind)
			}
		} else {
			fmt.Fprintf(&b, "  responses: open [%s]\n", joinCodes(h.Union.StatusCodes))
		}

		for _, d := range h.Diagnostics {
			fmt.Fprintf(&b, "  %s %s: %s\n", d.Severity, d.Kind, d.Message)
		}
	}

	if len(report.Handlers) > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%d handler(s), %d diagnostic(s)\n", len(report.Handlers), len(report.Diagnostics))

	_, err := io.WriteString(out, b.String())
	return err
}

func writeParameters(b *strings.Builder, params []models.ClassifiedParameter, indent string) {
	for _, p := range params {
		fmt.Fprintf(b, "%s%s %s <- %s", indent, p.Name, p.Type, p.Source)
		if p.Key != "" && p.Key != p.Name {
			fmt.Fprintf(b, " %q", p.Key)
		}
		if p.Parser != "" {
			fmt.Fprintf(b, " via %s from %s", p.Parser, p.Origin)
		}
		if p.Builder != "" {
			fmt.Fprintf(b, " via %s", p.Builder)
		}
		if p.Nullable {
			b.WriteString(" (optional)")
		}
		b.WriteString("\n")
		writeParameters(b, p.Expanded, indent+"  ")
	}
}

func joinCodes(codes []int) string {
	parts := make([]string, len(codes))
	for i, code := range codes {
		parts[i] = strconv.Itoa(code)
	}
	return strings.Join(parts, " ")
}
