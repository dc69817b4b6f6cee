package updater

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

type updateServer struct {
	server       *httptest.Server
	artifactData []byte
	manifestData []byte
	signature    []byte
	artifactHits int
}

func newUpdateServer(t *testing.T, channel string) *updateServer {
	t.Helper()
	us := &updateServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/"+channel+"/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write(us.manifestData)
	})
	mux.HandleFunc("/"+channel+"/manifest.json.sig", func(w http.ResponseWriter, r *http.Request) {
		w.Write(us.signature)
	})
	mux.HandleFunc("/artifacts/vigil", func(w http.ResponseWriter, r *http.Request) {
		us.artifactHits++
		w.Write(us.artifactData)
	})
	us.server = httptest.NewServer(mux)
	return us
}

func (s *updateServer) Close() { s.server.Close() }

func mustJSON(t *testing.T, manifest Manifest) []byte {
	t.Helper()
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	return data
}

func sign(t *testing.T, priv ed25519.PrivateKey, msg []byte) []byte {
	t.Helper()
	return []byte(base64.StdEncoding.EncodeToString(ed25519.Sign(priv, msg)))
}

func TestClientUpdateAndRollback(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Windows self-update semantics require elevated permissions in tests")
	}
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	t.Setenv("VIGIL_UPDATER_PUBLIC_KEY", base64.StdEncoding.EncodeToString(pub))

	oldVersion := "0.1.0"
	newVersion := "0.2.0"
	oldBinary := []byte("vigil " + oldVersion)
	newBinary := []byte("vigil " + newVersion)

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	execPath := filepath.Join(t.TempDir(), "vigil")
	if err := os.WriteFile(execPath, oldBinary, 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	server := newUpdateServer(t, ChannelStable)
	defer server.Close()

	sum := sha256.Sum256(newBinary)
	manifest := Manifest{
		Version: newVersion,
		Channel: ChannelStable,
		Builds: []Build{{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
			Artifact: Artifact{
				URL:    server.server.URL + "/artifacts/vigil",
				SHA256: fmt.Sprintf("%x", sum[:]),
			},
		}},
	}
	server.artifactData = newBinary
	server.manifestData = mustJSON(t, manifest)
	server.signature = sign(t, priv, server.manifestData)

	client := &Client{
		Store:          store,
		BaseURL:        server.server.URL,
		ExecPath:       execPath,
		CurrentVersion: oldVersion,
		Out:            io.Discard,
	}

	if err := client.Update(context.Background(), UpdateOptions{Channel: ChannelStable, PersistChannel: true}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	updatedData, err := os.ReadFile(execPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(updatedData, newBinary) {
		t.Fatalf("update did not write new binary")
	}
	if server.artifactHits == 0 {
		t.Fatalf("expected artifact endpoint to be fetched")
	}

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load config: %v", err)
	}
	if cfg.LastAppliedVersion != newVersion {
		t.Fatalf("expected last applied %s, got %s", newVersion, cfg.LastAppliedVersion)
	}
	if cfg.PreviousVersion != oldVersion {
		t.Fatalf("expected previous version %s, got %s", oldVersion, cfg.PreviousVersion)
	}
	backupData, err := os.ReadFile(cfg.BackupPath)
	if err != nil {
		t.Fatalf("Read backup: %v", err)
	}
	if !bytes.Equal(backupData, oldBinary) {
		t.Fatalf("backup mismatch")
	}

	// Simulate running the new binary for rollback.
	client.CurrentVersion = newVersion
	if err := client.Rollback(context.Background(), RollbackOptions{ForceStable: true}); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	rolledData, err := os.ReadFile(execPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(rolledData, oldBinary) {
		t.Fatalf("rollback did not restore previous binary")
	}
}

func TestClientUpdateAlreadyCurrent(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	t.Setenv("VIGIL_UPDATER_PUBLIC_KEY", base64.StdEncoding.EncodeToString(pub))

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	server := newUpdateServer(t, ChannelStable)
	defer server.Close()

	manifest := Manifest{
		Version: "0.2.0",
		Channel: ChannelStable,
		Builds:  []Build{{OS: runtime.GOOS, Arch: runtime.GOARCH}},
	}
	server.manifestData = mustJSON(t, manifest)
	server.signature = sign(t, priv, server.manifestData)

	var out bytes.Buffer
	client := &Client{
		Store:          store,
		BaseURL:        server.server.URL,
		CurrentVersion: "0.2.0",
		Out:            &out,
	}
	if err := client.Update(context.Background(), UpdateOptions{Channel: ChannelStable}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if server.artifactHits != 0 {
		t.Fatalf("expected no artifact download, got %d hits", server.artifactHits)
	}
	if !bytes.Contains(out.Bytes(), []byte("already the newest build")) {
		t.Fatalf("unexpected output: %s", out.String())
	}
}
