package findings

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	defaultOutputDir = "out"
	defaultFilename  = "flags.jsonl"
)

// DefaultPath is the canonical location for persisted flag findings. It
// respects VIGIL_OUT so CLI consumers stay consistent with other tooling.
var DefaultPath = filepath.Join(defaultOutputDir, defaultFilename)

func init() {
	if custom := strings.TrimSpace(os.Getenv("VIGIL_OUT")); custom != "" {
		DefaultPath = filepath.Join(custom, defaultFilename)
	}
}

// Writer appends findings to a JSON Lines file.
type Writer struct {
	mu   sync.Mutex
	path string
	file *os.File
	buf  *bufio.Writer
}

// NewWriter constructs a writer targeting the provided path, falling back to
// DefaultPath when the path is empty.
func NewWriter(path string) *Writer {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	return &Writer{path: path}
}

// Path returns the file path used by the writer.
func (w *Writer) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// Write validates and appends the finding to disk.
func (w *Writer) Write(f Finding) error {
	if strings.TrimSpace(f.Version) == "" {
		f.Version = SchemaVersion
	}
	if err := f.Validate(); err != nil {
		return fmt.Errorf("invalid finding: %w", err)
	}

	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode finding: %w", err)
	}
	payload = append(payload, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensure(); err != nil {
		return err
	}
	if _, err := w.buf.Write(payload); err != nil {
		return fmt.Errorf("write finding: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush finding: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file handle.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	if w.buf != nil {
		if err := w.buf.Flush(); err != nil {
			firstErr = err
		}
	}
	if w.file != nil {
		if err := w.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	w.buf = nil
	w.file = nil
	return firstErr
}

func (w *Writer) ensure() error {
	if w.buf != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create findings directory: %w", err)
	}
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open findings file: %w", err)
	}
	w.file = file
	w.buf = bufio.NewWriter(file)
	return nil
}

// ReadJSONL loads persisted findings from a JSON Lines file. Blank lines are
// skipped; malformed lines fail the whole read so corruption is not silently
// dropped.
func ReadJSONL(path string) ([]Finding, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open findings file: %w", err)
	}
	defer file.Close()

	var out []Finding
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var f Finding
		if err := json.Unmarshal([]byte(text), &f); err != nil {
			return nil, fmt.Errorf("parse findings line %d: %w", line, err)
		}
		out = append(out, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read findings file: %w", err)
	}
	return out, nil
}
