package updater

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	update "github.com/inconshreveable/go-update"
)

// Client orchestrates manifest fetching, artifact validation, and binary
// swaps for vigil self-updates.
type Client struct {
	Store          *Store
	HTTPClient     *http.Client
	BaseURL        string
	ExecPath       string
	CurrentVersion string
	Out            io.Writer
}

// UpdateOptions controls how an update should be performed.
type UpdateOptions struct {
	Channel        string
	PersistChannel bool
}

// RollbackOptions controls how a rollback should behave.
type RollbackOptions struct {
	ForceStable bool
}

// Update downloads the manifest for opts.Channel and attempts to update the
// vigil binary in-place. When PersistChannel is true the channel preference
// in the config file is updated to match the effective channel.
func (c *Client) Update(ctx context.Context, opts UpdateOptions) error {
	if c.Store == nil {
		return errors.New("nil config store")
	}
	if c.Out == nil {
		c.Out = io.Discard
	}
	channel, err := NormalizeChannel(opts.Channel)
	if err != nil {
		return err
	}
	cfg, err := c.Store.Load()
	if err != nil {
		return err
	}

	manifest, err := FetchManifest(ctx, c.httpClient(), c.BaseURL, channel)
	if err != nil {
		return err
	}

	runtimeVersion := strings.TrimSpace(c.CurrentVersion)
	if runtimeVersion == "" {
		runtimeVersion = "dev"
	}

	if manifest.Version == runtimeVersion || strings.TrimSpace(cfg.LastAppliedVersion) == manifest.Version {
		fmt.Fprintf(c.Out, "vigil %s is already the newest build on the %s channel\n", runtimeVersion, channel)
		if opts.PersistChannel {
			cfg.Channel = channel
			if err := c.Store.Save(cfg); err != nil {
				return err
			}
		}
		return nil
	}

	build, ok := manifest.BuildFor(runtime.GOOS, runtime.GOARCH)
	if !ok {
		return fmt.Errorf("no build available for %s/%s in manifest", runtime.GOOS, runtime.GOARCH)
	}

	checksum, err := DecodeHex(build.Artifact.SHA256)
	if err != nil {
		return fmt.Errorf("decode artifact checksum: %w", err)
	}

	execPath, err := c.resolveExecPath()
	if err != nil {
		return err
	}

	info, err := os.Stat(execPath)
	if err != nil {
		return fmt.Errorf("stat executable: %w", err)
	}

	backupPath := filepath.Join(c.Store.Dir(), "vigil.previous")
	if err := os.MkdirAll(c.Store.Dir(), 0o755); err != nil {
		return fmt.Errorf("prepare backup dir: %w", err)
	}

	applyOpts := update.Options{
		TargetPath:  execPath,
		TargetMode:  info.Mode(),
		Checksum:    checksum,
		OldSavePath: backupPath,
		Hash:        crypto.SHA256,
	}

	if err := applyOpts.CheckPermissions(); err != nil {
		return fmt.Errorf("insufficient permissions to update %s: %w", execPath, err)
	}

	data, err := c.fetch(ctx, build.Artifact.URL)
	if err != nil {
		return fmt.Errorf("download artifact: %w", err)
	}
	if err := update.Apply(bytes.NewReader(data), applyOpts); err != nil {
		if rerr := update.RollbackError(err); rerr != nil {
			return fmt.Errorf("apply update: %v (rollback failed: %v)", err, rerr)
		}
		// A failed beta update drops the stored channel back to stable so
		// unattended runs recover on their own.
		if cfg.Channel == ChannelBeta {
			cfg.Channel = ChannelStable
			_ = c.Store.Save(cfg)
		}
		return fmt.Errorf("apply update: %w", err)
	}

	cfg.PreviousVersion = runtimeVersion
	cfg.LastAppliedVersion = manifest.Version
	cfg.BackupPath = backupPath
	cfg.LastAppliedAt = time.Now().UTC()
	if opts.PersistChannel {
		cfg.Channel = channel
	}
	if err := c.Store.Save(cfg); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "updated vigil to %s on the %s channel\n", manifest.Version, channel)
	return nil
}

// Rollback restores the previous vigil binary if one is available.
func (c *Client) Rollback(ctx context.Context, opts RollbackOptions) error {
	if c.Store == nil {
		return errors.New("nil config store")
	}
	if c.Out == nil {
		c.Out = io.Discard
	}
	cfg, err := c.Store.Load()
	if err != nil {
		return err
	}
	if cfg.BackupPath == "" {
		return errors.New("no rollback backup recorded")
	}
	backup, err := os.ReadFile(cfg.BackupPath)
	if err != nil {
		return fmt.Errorf("read backup binary: %w", err)
	}
	execPath, err := c.resolveExecPath()
	if err != nil {
		return err
	}
	info, err := os.Stat(execPath)
	if err != nil {
		return fmt.Errorf("stat executable: %w", err)
	}
	sum := sha256.Sum256(backup)
	applyOpts := update.Options{
		TargetPath:  execPath,
		TargetMode:  info.Mode(),
		OldSavePath: cfg.BackupPath,
		Checksum:    sum[:],
		Hash:        crypto.SHA256,
	}
	if err := update.Apply(bytes.NewReader(backup), applyOpts); err != nil {
		if rerr := update.RollbackError(err); rerr != nil {
			return fmt.Errorf("rollback failed: %v (rollback error: %v)", err, rerr)
		}
		return fmt.Errorf("rollback failed: %w", err)
	}
	cfg.LastAppliedAt = time.Now().UTC()
	cfg.LastAppliedVersion, cfg.PreviousVersion = cfg.PreviousVersion, cfg.LastAppliedVersion
	if opts.ForceStable {
		cfg.Channel = ChannelStable
	}
	if err := c.Store.Save(cfg); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "rolled back vigil to %s\n", cfg.LastAppliedVersion)
	return nil
}

func (c *Client) resolveExecPath() (string, error) {
	if strings.TrimSpace(c.ExecPath) != "" {
		return c.ExecPath, nil
	}
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("determine executable path: %w", err)
	}
	return path, nil
}

func (c *Client) fetch(ctx context.Context, targetURL string) ([]byte, error) {
	return download(ctx, c.httpClient(), targetURL)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}
