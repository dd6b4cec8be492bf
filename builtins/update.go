package builtins

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spf13/pflag"

	"gofer/output"
	"gofer/task"
)

const snapshotName = "deps.sum"

// Update downloads module dependencies when the dependency manifests
// changed since the last successful run. A snapshot of the manifests is
// kept under .gofer/ so repeated runs are cheap no-ops. Transient
// download failures are retried with exponential backoff.
type Update struct {
	Force bool
}

func (t *Update) AddArguments(fs *pflag.FlagSet) {
	fs.BoolVarP(&t.Force, "force", "f", false,
		"Download dependencies even if the manifests are unchanged.")
}

func (t *Update) Help() string {
	return "Download module dependencies when go.mod or go.sum changed since the last run."
}

func (t *Update) Handle(c *task.Context) error {
	hash, err := manifestHash(c.Dir)
	if err != nil {
		return err
	}

	snapPath := filepath.Join(c.Dir, ".gofer", snapshotName)
	if !t.Force {
		stored, readErr := os.ReadFile(snapPath)
		if readErr == nil && string(stored) == hash {
			c.Stdout.Print("Dependencies are up to date.")
			return nil
		}
	}

	command := c.Settings.GetString("command", "go mod download")
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		res, runErr := c.Run(command, false)
		if runErr != nil {
			return runErr
		}
		if res.Code != 0 {
			return retry.RetryableError(fmt.Errorf("%s exited with status %d", command, res.Code))
		}
		return nil
	})
	if err != nil {
		return task.Haltf("Failed to download dependencies: %v.", err)
	}

	if err := writeSnapshot(snapPath, hash); err != nil {
		return err
	}
	c.Stdout.Print("Dependencies updated.", output.Style(output.Success))
	return nil
}

// manifestHash hashes the dependency manifests under dir. A missing
// manifest hashes as empty rather than erroring. Fields are
// length-prefixed so adjacent contents cannot collide.
func manifestHash(dir string) (string, error) {
	h := sha256.New()
	writeField := func(data []byte) {
		var length [8]byte
		binary.BigEndian.PutUint64(length[:], uint64(len(data)))
		h.Write(length[:])
		h.Write(data)
	}

	for _, name := range []string{"go.mod", "go.sum"} {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if !os.IsNotExist(err) {
				return "", fmt.Errorf("hash %s: %w", name, err)
			}
			content = nil
		}
		writeField([]byte(name))
		writeField(content)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeSnapshot writes content to path via a temp file and rename, so a
// crash never leaves a truncated snapshot behind.
func writeSnapshot(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()

	if _, err := tmp.WriteString(content); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
