package utils

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
)

// DiagnosticLevel is the verbosity of the tool's own output
type DiagnosticLevel int

const (
	DiagnosticSilent DiagnosticLevel = iota
	DiagnosticError
	DiagnosticWarn
	DiagnosticInfo
	DiagnosticVerbose
	DiagnosticDebug
)

// DiagnosticSystem prints progress and log messages of a run.
// Analysis diagnostics are rendered by the CLI's DiagnosticReporter instead.
type DiagnosticSystem struct {
	level     DiagnosticLevel
	useColors bool
	showTime  bool
	output    io.Writer
	errorOut  io.Writer
	indent    int

	progress      string
	progressStart time.Time
}

// NewDiagnosticSystem creates a diagnostic system writing to stdout and stderr
func NewDiagnosticSystem(level DiagnosticLevel) *DiagnosticSystem {
	return &DiagnosticSystem{
		level:     level,
		useColors: shouldUseColors(),
		showTime:  level >= DiagnosticVerbose,
		output:    os.Stdout,
		errorOut:  os.Stderr,
	}
}

// NewQuietDiagnostics only shows errors
func NewQuietDiagnostics() *DiagnosticSystem {
	return NewDiagnosticSystem(DiagnosticError)
}

// NewVerboseDiagnostics shows timings and verbose messages
func NewVerboseDiagnostics() *DiagnosticSystem {
	return NewDiagnosticSystem(DiagnosticVerbose)
}

// SetOutput redirects regular and error output. Colors and timestamps are turned off.
func (d *DiagnosticSystem) SetOutput(output, errorOut io.Writer) {
	d.output = output
	d.errorOut = errorOut
	d.useColors = false
	d.showTime = false
}

// Level returns the configured level
func (d *DiagnosticSystem) Level() DiagnosticLevel {
	return d.level
}

type messageStyle struct {
	level DiagnosticLevel
	label string
	color *color.Color
}

var (
	errorStyle   = messageStyle{DiagnosticError, "ERROR", color.New(color.FgRed)}
	warnStyle    = messageStyle{DiagnosticWarn, "WARN", color.New(color.FgYellow)}
	infoStyle    = messageStyle{DiagnosticInfo, "INFO", color.New(color.FgBlue)}
	successStyle = messageStyle{DiagnosticInfo, "SUCCESS", color.New(color.FgGreen)}
	verboseStyle = messageStyle{DiagnosticVerbose, "VERBOSE", color.New(color.FgHiBlack)}
	debugStyle   = messageStyle{DiagnosticDebug, "DEBUG", color.New(color.FgMagenta)}

	headerColor = color.New(color.FgCyan, color.Bold)
)

// Error writes to the error output unless silent
func (d *DiagnosticSystem) Error(format string, args ...interface{}) {
	d.log(d.errorOut, errorStyle, format, args...)
}

func (d *DiagnosticSystem) Warn(format string, args ...interface{}) {
	d.log(d.output, warnStyle, format, args...)
}

func (d *DiagnosticSystem) Info(format string, args ...interface{}) {
	d.log(d.output, infoStyle, format, args...)
}

func (d *DiagnosticSystem) Success(format string, args ...interface{}) {
	d.log(d.output, successStyle, format, args...)
}

func (d *DiagnosticSystem) Verbose(format string, args ...interface{}) {
	d.log(d.output, verboseStyle, format, args...)
}

func (d *DiagnosticSystem) Debug(format string, args ...interface{}) {
	d.log(d.output, debugStyle, format, args...)
}

// Header prints the tool banner
func (d *DiagnosticSystem) Header(message string) {
	if d.level >= DiagnosticInfo {
		d.colored(d.output, headerColor, "bindplan: %s\n", message)
	}
}

// Subsection prints a titled block header
func (d *DiagnosticSystem) Subsection(title string) {
	if d.level >= DiagnosticInfo {
		fmt.Fprintf(d.output, "\n%s:\n", title)
	}
}

// List prints a bulleted item at the current indentation
func (d *DiagnosticSystem) List(format string, args ...interface{}) {
	if d.level >= DiagnosticInfo {
		fmt.Fprintf(d.output, "%s- %s\n", d.getIndent(), fmt.Sprintf(format, args...))
	}
}

func (d *DiagnosticSystem) Indent() {
	d.indent++
}

func (d *DiagnosticSystem) Unindent() {
	if d.indent > 0 {
		d.indent--
	}
}

// StartProgress announces a long running step
func (d *DiagnosticSystem) StartProgress(message string) {
	d.progress = message
	d.progressStart = time.Now()
	if d.level >= DiagnosticVerbose {
		fmt.Fprintf(d.output, "%s... ", message)
	}
}

// EndProgress closes the step opened by StartProgress.
// detail replaces the default "done"/"failed" suffix when not empty.
func (d *DiagnosticSystem) EndProgress(ok bool, detail string) {
	defer func() { d.progress = "" }()
	if d.progress == "" || d.level < DiagnosticInfo {
		return
	}

	if detail == "" {
		detail = "done"
		if !ok {
			detail = "failed"
		}
	}
	if d.level >= DiagnosticVerbose {
		detail = fmt.Sprintf("%s (%s)", detail, time.Since(d.progressStart).Round(time.Millisecond))
	} else {
		fmt.Fprintf(d.output, "%s... ", d.progress)
	}

	c := successStyle.color
	if !ok {
		c = errorStyle.color
	}
	d.colored(d.output, c, "%s\n", detail)
}

// Summary prints statistics with keys in sorted order
func (d *DiagnosticSystem) Summary(title string, stats map[string]interface{}) {
	if d.level < DiagnosticInfo {
		return
	}
	fmt.Fprintf(d.output, "\n%s\n", title)

	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(d.output, "   %s: %v\n", key, stats[key])
	}
	fmt.Fprintln(d.output)
}

func (d *DiagnosticSystem) colored(w io.Writer, c *color.Color, format string, args ...interface{}) {
	if d.useColors {
		c.Fprintf(w, format, args...)
		return
	}
	fmt.Fprintf(w, format, args...)
}

// log writes "[LABEL] message" when the style's level is enabled
func (d *DiagnosticSystem) log(w io.Writer, style messageStyle, format string, args ...interface{}) {
	if d.level < style.level {
		return
	}

	var b strings.Builder
	b.WriteString(d.getIndent())
	if d.showTime {
		b.WriteString(time.Now().Format("15:04:05 "))
	}
	label := "[" + style.label + "]"
	if d.useColors {
		label = style.color.Sprint(label)
	}
	b.WriteString(label)
	b.WriteByte(' ')
	fmt.Fprintf(&b, format, args...)
	b.WriteByte('\n')

	io.WriteString(w, b.String())
}

func (d *DiagnosticSystem) getIndent() string {
	return strings.Repeat("  ", d.indent)
}

// shouldUseColors honours NO_COLOR and FORCE_COLOR, then falls back to TERM
func shouldUseColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}
