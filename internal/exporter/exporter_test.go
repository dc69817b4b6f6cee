package exporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RowanDark/vigil/internal/cracker"
	"github.com/RowanDark/vigil/internal/findings"
)

func sampleRequest() Request {
	return Request{
		Results: []cracker.Result{
			{Key: "LEMON", KeyLength: 5, Plaintext: "attack at dawn", Score: 12.5, Source: cracker.SourceRecovered},
			{Key: "MANGO", KeyLength: 5, Plaintext: "xqzjw kv pqrs", Score: 310.7, Source: cracker.SourceTryKeys},
		},
		Findings: []findings.Finding{{
			Version:    findings.SchemaVersion,
			ID:         findings.NewID(),
			Source:     "flagscan",
			Type:       "flagscan.flag_match",
			Message:    "Flag format matched in decrypted text",
			Key:        "LEMON",
			Evidence:   "flag{dawn}",
			Severity:   findings.SeverityHigh,
			DetectedAt: findings.NewTimestamp(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
		}},
	}
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{"jsonl": FormatJSONL, " CSV ": FormatCSV} {
		got, err := ParseFormat(raw)
		if err != nil {
			t.Fatalf("ParseFormat(%q) returned error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseFormat(%q) = %q, want %q", raw, got, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestEncodeJSONL(t *testing.T) {
	data, err := Encode(FormatJSONL, sampleRequest())
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 JSONL entries, got %d", len(lines))
	}
	var entry struct {
		Type   string          `json:"type"`
		Result *cracker.Result `json:"result"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("parse first entry: %v", err)
	}
	if entry.Type != "result" || entry.Result == nil || entry.Result.Key != "LEMON" {
		t.Fatalf("unexpected first entry: %s", lines[0])
	}
	if !strings.Contains(lines[2], `"finding"`) {
		t.Fatalf("last entry should be the finding: %s", lines[2])
	}
}

func TestEncodeCSV(t *testing.T) {
	data, err := Encode(FormatCSV, sampleRequest())
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "rank,key,key_length,score,source,plaintext" {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1,LEMON,5,12.5000,recovered,") {
		t.Fatalf("unexpected first row: %s", lines[1])
	}
}

func TestWriteCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results.jsonl")
	if err := Write(path, []byte("{}\n")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back export: %v", err)
	}
	if string(data) != "{}\n" {
		t.Fatalf("unexpected contents: %q", data)
	}
	if err := Write("", nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}
