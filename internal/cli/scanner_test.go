package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryScanner_ScanDirectories(t *testing.T) {
	// root/
	//   main.go
	//   controllers/      user.go
	//   services/         service.go
	//     subservice/     helper.go
	//   vendor/dep/       dep.go (skipped)
	//   empty/
	root := t.TempDir()
	for path, content := range map[string]string{
		"main.go":                       "package main",
		"controllers/user.go":           "package controllers",
		"services/service.go":           "package services",
		"services/subservice/helper.go": "package subservice",
		"vendor/dep/dep.go":             "package dep",
		"empty/README.md":               "# empty",
		"controllers/user_test.go":      "package controllers",
	} {
		writeFile(t, filepath.Join(root, path), content)
	}
	scanner := NewDirectoryScanner(nil)

	testCases := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{
			name:     "recursive pattern",
			patterns: []string{root + "/..."},
			want: []string{
				root,
				filepath.Join(root, "controllers"),
				filepath.Join(root, "services"),
				filepath.Join(root, "services", "subservice"),
			},
		},
		{
			name:     "plain directory is not recursive",
			patterns: []string{filepath.Join(root, "services")},
			want:     []string{filepath.Join(root, "services")},
		},
		{
			name:     "recursive below a subdirectory",
			patterns: []string{filepath.Join(root, "services") + "/..."},
			want:     []string{filepath.Join(root, "services"), filepath.Join(root, "services", "subservice")},
		},
		{
			name:     "overlapping patterns are deduplicated",
			patterns: []string{filepath.Join(root, "controllers"), root + "/..."},
			want: []string{
				filepath.Join(root, "controllers"),
				root,
				filepath.Join(root, "services"),
				filepath.Join(root, "services", "subservice"),
			},
		},
		{
			name:     "directory without Go files",
			patterns: []string{filepath.Join(root, "empty")},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dirs, err := scanner.ScanDirectories(tc.patterns)
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, dirs)
		})
	}

	_, err := scanner.ScanDirectories([]string{filepath.Join(root, "missing")})
	assert.Error(t, err)
}
