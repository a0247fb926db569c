package cli

import (
	"path/filepath"
	"strings"

	"github.com/toyz/bindplan/internal/errors"
	"github.com/toyz/bindplan/internal/utils"
)

// DirectoryScanner handles directory scanning for Go packages
type DirectoryScanner struct {
	fileProcessor *utils.FileProcessor
}

// NewDirectoryScanner creates a new directory scanner
func NewDirectoryScanner(fileProcessor *utils.FileProcessor) *DirectoryScanner {
	if fileProcessor == nil {
		fileProcessor = utils.NewFileProcessor()
	}
	return &DirectoryScanner{fileProcessor: fileProcessor}
}

// ScanDirectories returns the directories holding Go files.
// A pattern ending in "/..." is scanned recursively; a plain directory only counts itself.
func (s *DirectoryScanner) ScanDirectories(patterns []string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)
	add := func(found ...string) {
		for _, dir := range found {
			if !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
		}
	}

	for _, pattern := range patterns {
		baseDir, recursive := strings.CutSuffix(pattern, "...")
		baseDir = strings.TrimSuffix(baseDir, "/")
		if baseDir == "" {
			baseDir = "."
		}

		cleanPath, err := filepath.Abs(baseDir)
		if err != nil {
			return nil, errors.WrapFileSystemError("resolve", baseDir, err)
		}

		if recursive {
			found, err := s.fileProcessor.ScanDirectoriesWithGoFiles([]string{cleanPath})
			if err != nil {
				return nil, errors.WrapFileSystemError("scan", cleanPath, err)
			}
			add(found...)
			continue
		}

		ok, err := s.fileProcessor.HasGoFiles(cleanPath)
		if err != nil {
			return nil, errors.WrapFileSystemError("scan", cleanPath, err)
		}
		if ok {
			add(cleanPath)
		}
	}

	return dirs, nil
}
