package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultOutputDir returns the directory reports are written to when
// report.output_dir is not set.
func DefaultOutputDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "reports"
	}
	return filepath.Join(homeDir, ".riskview", "reports")
}

// ReportPath returns the file name for a report of the given kind ("body" or
// "mind") generated at the given time.
func ReportPath(dir, kind, ext string, at time.Time) string {
	name := fmt.Sprintf("%s-%s.%s", kind, at.UTC().Format("20060102-150405"), strings.TrimPrefix(ext, "."))
	return filepath.Join(dir, name)
}

// EnsureDir creates dir if it doesn't exist.
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
