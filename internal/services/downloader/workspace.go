package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/denisAlshanov/vidgrab/internal/utils"
)

const workspacePrefix = "req-"

// workspace is the private scratch directory of one download
type workspace struct {
	dir string
}

func newWorkspace(root string) (*workspace, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp root: %w", err)
	}

	dir := filepath.Join(root, workspacePrefix+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &workspace{dir: dir}, nil
}

// remove deletes the workspace. Failures are logged only.
func (w *workspace) remove(ctx context.Context) {
	if err := os.RemoveAll(w.dir); err != nil {
		utils.LogWarn(ctx, "Failed to remove workspace", utils.Fields{
			"dir":   w.dir,
			"error": err.Error(),
		})
	}
}

// SweepStaleWorkspaces removes workspaces under root that were last modified
// more than olderThan ago, e.g. those left behind by a crashed process.
func SweepStaleWorkspaces(ctx context.Context, root string, olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read temp root: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), workspacePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		dir := filepath.Join(root, entry.Name())
		if err := os.RemoveAll(dir); err != nil {
			utils.LogWarn(ctx, "Failed to remove stale workspace", utils.Fields{
				"dir":   dir,
				"error": err.Error(),
			})
			continue
		}
		removed++
	}
	return removed, nil
}
