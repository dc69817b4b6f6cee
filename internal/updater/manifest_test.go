package updater

import (
	"strings"
	"testing"
)

func TestDecodeManifest(t *testing.T) {
	data := []byte(`{
		"version": "0.2.0",
		"channel": "stable",
		"builds": [
			{"os": "linux", "arch": "amd64", "artifact": {"url": "https://example.com/vigil", "sha256": "ab"}}
		]
	}`)
	m, err := DecodeManifest(data)
	if err != nil {
		t.Fatalf("DecodeManifest: %v", err)
	}
	if m.Version != "0.2.0" {
		t.Fatalf("expected version 0.2.0, got %q", m.Version)
	}
	if len(m.Builds) != 1 {
		t.Fatalf("expected 1 build, got %d", len(m.Builds))
	}
}

func TestDecodeManifestRejectsIncomplete(t *testing.T) {
	cases := map[string]string{
		"missing version": `{"channel": "stable", "builds": [{"os": "linux", "arch": "amd64"}]}`,
		"missing builds":  `{"version": "0.2.0", "channel": "stable", "builds": []}`,
		"malformed":       `{"version": `,
	}
	for name, raw := range cases {
		if _, err := DecodeManifest([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestBuildFor(t *testing.T) {
	m := Manifest{
		Version: "0.2.0",
		Builds: []Build{
			{OS: "linux", Arch: "amd64"},
			{OS: "darwin", Arch: "arm64"},
		},
	}
	if _, ok := m.BuildFor("Linux", "AMD64"); !ok {
		t.Fatalf("expected case-insensitive platform match")
	}
	if _, ok := m.BuildFor("plan9", "386"); ok {
		t.Fatalf("expected no build for plan9/386")
	}
}

func TestManifestURLFor(t *testing.T) {
	got, err := manifestURLFor("https://updates.example.com/", ChannelBeta)
	if err != nil {
		t.Fatalf("manifestURLFor: %v", err)
	}
	want := "https://updates.example.com/beta/manifest.json"
	if got != want {
		t.Fatalf("manifestURLFor=%q, want %q", got, want)
	}
	if _, err := manifestURLFor("", ChannelStable); err == nil {
		t.Fatalf("expected error for empty base URL")
	}
}

func TestDecodeHex(t *testing.T) {
	b, err := DecodeHex("  deadbeef ")
	if err != nil {
		t.Fatalf("DecodeHex: %v", err)
	}
	if len(b) != 4 || b[0] != 0xde {
		t.Fatalf("unexpected bytes %x", b)
	}
	if _, err := DecodeHex(""); err == nil {
		t.Fatalf("expected error for empty checksum")
	}
	if _, err := DecodeHex("xyz"); err == nil {
		t.Fatalf("expected error for invalid hex")
	}
}

func TestDecodeSignatureLength(t *testing.T) {
	if _, err := decodeSignature([]byte("AAAA")); err == nil || !strings.Contains(err.Error(), "invalid signature length") {
		t.Fatalf("expected signature length error, got %v", err)
	}
}
