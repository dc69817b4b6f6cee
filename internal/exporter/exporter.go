// Package exporter renders ranked crack results and flag findings into
// machine-readable formats for persistence and downstream tooling.
package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RowanDark/vigil/internal/cracker"
	"github.com/RowanDark/vigil/internal/findings"
)

// Format identifies a supported export encoding.
type Format string

const (
	FormatJSONL Format = "jsonl"
	FormatCSV   Format = "csv"
)

// Request captures the data set that exporters operate on.
type Request struct {
	Results  []cracker.Result
	Findings []findings.Finding
}

// ParseFormat validates the provided format string.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatJSONL:
		return FormatJSONL, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported format %q (available: csv, jsonl)", raw)
	}
}

// Encode renders the dataset using the requested format.
func Encode(format Format, req Request) ([]byte, error) {
	switch format {
	case FormatJSONL:
		return EncodeJSONL(req)
	case FormatCSV:
		return EncodeCSV(req.Results)
	default:
		return nil, fmt.Errorf("unregistered export format: %s", format)
	}
}

// Write persists encoded output at the provided path, creating parent
// directories as needed.
func Write(path string, data []byte) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("output path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
