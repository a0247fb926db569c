package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const ordersSource = `package api

type Order struct{}

type Orders struct{}

//bindplan::handler GET /orders/{id}
func (o *Orders) Get(id int) (Order, error) {
	return Order{}, nil
}
`

const brokenSource = `package admin

//bindplan::handler GET /admin/{id
func Stats(id int) error {
	return nil
}
`

func testModule(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	files["go.mod"] = "module example.com/shop\n\ngo 1.25\n"
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestRun(t *testing.T) {
	clean := testModule(t, map[string]string{"api/orders.go": ordersSource})
	broken := testModule(t, map[string]string{"api/orders.go": ordersSource, "admin/stats.go": brokenSource})

	testCases := []struct {
		name       string
		args       func(output string) []string
		wantCode   int
		wantStdout string
		wantStderr string
		wantReport bool
	}{
		{
			name:       "help",
			args:       func(string) []string { return []string{"-help"} },
			wantStderr: "Bindplan Handler Analyzer",
		},
		{
			name:     "unknown flag",
			args:     func(string) []string { return []string{"-clean"} },
			wantCode: 2,
		},
		{
			name: "clean module",
			args: func(output string) []string {
				return []string{"-format", "yaml", "-output", output, clean + "/..."}
			},
			wantStdout: "Analysis complete",
			wantReport: true,
		},
		{
			name: "error diagnostics fail the run",
			args: func(output string) []string {
				return []string{"-output", output, broken + "/..."}
			},
			wantCode:   1,
			wantStderr: "admin.Stats [StructuralRouteError]",
			wantReport: true,
		},
		{
			name: "prefix filters the failing handler out",
			args: func(output string) []string {
				return []string{"-output", output, "-prefix", "/orders", broken + "/..."}
			},
			wantReport: true,
		},
		{
			name:       "invalid format",
			args:       func(string) []string { return []string{"-format", "xml", clean} },
			wantCode:   1,
			wantStderr: "ConfigurationError",
		},
		{
			name:       "missing directory",
			args:       func(string) []string { return []string{filepath.Join(clean, "missing")} },
			wantCode:   1,
			wantStderr: "ERROR: Analysis Failed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			output := filepath.Join(t.TempDir(), "report")
			var stdout, stderr bytes.Buffer

			code := run(context.Background(), tc.args(output), &stdout, &stderr)

			assert.Equal(t, tc.wantCode, code, stderr.String())
			assert.Contains(t, stdout.String(), tc.wantStdout)
			assert.Contains(t, stderr.String(), tc.wantStderr)
			_, err := os.Stat(output)
			assert.Equal(t, tc.wantReport, err == nil)
		})
	}
}

func TestRun_YAMLReport(t *testing.T) {
	root := testModule(t, map[string]string{"api/orders.go": ordersSource})
	output := filepath.Join(t.TempDir(), "plans.yaml")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-quiet", "-format", "yaml", "-output", output, root + "/..."}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Empty(t, stdout.String())

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	var report struct {
		Handlers []struct {
			Handler string `yaml:"handler"`
			Package string `yaml:"package"`
		} `yaml:"handlers"`
	}
	require.NoError(t, yaml.Unmarshal(content, &report))
	require.Len(t, report.Handlers, 1)
	assert.Equal(t, "api.Orders.Get", report.Handlers[0].Handler)
	assert.Equal(t, "example.com/shop/api", report.Handlers[0].Package)
}
