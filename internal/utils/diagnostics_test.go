package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestDiagnostics(level DiagnosticLevel) (*DiagnosticSystem, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	ds := NewDiagnosticSystem(level)
	ds.SetOutput(&out, &errOut)
	return ds, &out, &errOut
}

func TestDiagnosticSystem_Levels(t *testing.T) {
	testCases := []struct {
		level     DiagnosticLevel
		wantOut   string
		wantError string
	}{
		{level: DiagnosticSilent},
		{level: DiagnosticError, wantError: "[ERROR] e\n"},
		{level: DiagnosticWarn, wantOut: "[WARN] w\n", wantError: "[ERROR] e\n"},
		{level: DiagnosticInfo, wantOut: "[WARN] w\n[INFO] i\n[SUCCESS] s\n", wantError: "[ERROR] e\n"},
		{level: DiagnosticVerbose, wantOut: "[WARN] w\n[INFO] i\n[VERBOSE] v\n[SUCCESS] s\n", wantError: "[ERROR] e\n"},
		{level: DiagnosticDebug, wantOut: "[WARN] w\n[INFO] i\n[VERBOSE] v\n[DEBUG] d\n[SUCCESS] s\n", wantError: "[ERROR] e\n"},
	}

	for _, tc := range testCases {
		ds, out, errOut := newTestDiagnostics(tc.level)
		ds.Error("e")
		ds.Warn("w")
		ds.Info("i")
		ds.Verbose("v")
		ds.Debug("d")
		ds.Success("s")

		assert.Equal(t, tc.wantOut, out.String(), "level %d", tc.level)
		assert.Equal(t, tc.wantError, errOut.String(), "level %d", tc.level)
		assert.Equal(t, tc.level, ds.Level())
	}
}

func TestDiagnosticSystem_Progress(t *testing.T) {
	t.Run("info prints the step once it ends", func(t *testing.T) {
		ds, out, _ := newTestDiagnostics(DiagnosticInfo)
		ds.StartProgress("Scanning")
		assert.Empty(t, out.String())

		ds.EndProgress(true, "3 package(s)")
		assert.Equal(t, "Scanning... 3 package(s)\n", out.String())
	})

	t.Run("default detail", func(t *testing.T) {
		ds, out, _ := newTestDiagnostics(DiagnosticInfo)
		ds.StartProgress("Extracting")
		ds.EndProgress(false, "")
		assert.Equal(t, "Extracting... failed\n", out.String())
	})

	t.Run("verbose prints the step when it starts", func(t *testing.T) {
		ds, out, _ := newTestDiagnostics(DiagnosticVerbose)
		ds.StartProgress("Analysing")
		assert.Equal(t, "Analysing... ", out.String())

		ds.EndProgress(true, "")
		assert.Regexp(t, `^Analysing\.\.\. done \(.+\)\n$`, out.String())
	})

	t.Run("end without start", func(t *testing.T) {
		ds, out, _ := newTestDiagnostics(DiagnosticInfo)
		ds.EndProgress(true, "")
		assert.Empty(t, out.String())
	})
}

func TestDiagnosticSystem_Summary(t *testing.T) {
	ds, out, _ := newTestDiagnostics(DiagnosticInfo)
	ds.Summary("Analysis complete", map[string]interface{}{
		"Warnings":       2,
		"Errors":         0,
		"Handlers found": 7,
	})

	assert.Equal(t, "\nAnalysis complete\n   Errors: 0\n   Handlers found: 7\n   Warnings: 2\n\n", out.String())
}

func TestDiagnosticSystem_List(t *testing.T) {
	ds, out, _ := newTestDiagnostics(DiagnosticInfo)
	ds.Header("analysing ./...")
	ds.Subsection("Configuration")
	ds.List("top")
	ds.Indent()
	ds.List("nested %d", 1)
	ds.Unindent()
	ds.Unindent()
	ds.List("back")

	assert.Equal(t, "bindplan: analysing ./...\n\nConfiguration:\n- top\n  - nested 1\n- back\n", out.String())
}
