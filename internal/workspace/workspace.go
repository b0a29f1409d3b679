// Package workspace resolves and guards a local sync root. A directory is a
// workspace if it carries the reserved .drivemd metadata dir with a snapshot
// file inside.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/drivemd/drivemd/internal/utils"
)

const (
	// MetadataDirName is the reserved directory holding drivemd state.
	MetadataDirName = ".drivemd"
	// TombstoneDirName receives files that were deleted on the remote.
	TombstoneDirName = "deleted-remotely"

	snapshotFile = "snapshot.json"
	lockFile     = "drivemd.lock"
)

var (
	ErrWorkspaceLocked = errors.New("workspace locked by another drivemd process")
	ErrNotFound        = errors.New("no drivemd workspace found; run `drivemd init` first")
)

type Workspace struct {
	Root         string
	MetadataDir  string
	SnapshotPath string
	TombstoneDir string

	flock *flock.Flock
}

func New(rootDir string) (*Workspace, error) {
	root, err := utils.ResolvePath(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", rootDir, err)
	}

	metadataDir := filepath.Join(root, MetadataDirName)
	return &Workspace{
		Root:         root,
		MetadataDir:  metadataDir,
		SnapshotPath: filepath.Join(metadataDir, snapshotFile),
		TombstoneDir: filepath.Join(root, TombstoneDirName),
		flock:        flock.New(filepath.Join(metadataDir, lockFile)),
	}, nil
}

// Discover walks upward from start looking for an initialized workspace.
func Discover(start string) (*Workspace, error) {
	dir, err := utils.ResolvePath(start)
	if err != nil {
		return nil, err
	}

	for {
		ws, err := New(dir)
		if err != nil {
			return nil, err
		}
		if ws.Initialized() {
			return ws, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ErrNotFound
		}
		dir = parent
	}
}

func (w *Workspace) Initialized() bool {
	return utils.FileExists(w.SnapshotPath)
}

// Lock takes the workspace file lock. Reconciliation passes must not overlap
// on the same root; the lock turns that discipline into an error instead of
// silent corruption.
func (w *Workspace) Lock() error {
	if err := utils.EnsureDir(w.MetadataDir); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", w.MetadataDir, err)
	}

	locked, err := w.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock workspace: %w", err)
	}
	if !locked {
		return ErrWorkspaceLocked
	}
	return nil
}

func (w *Workspace) Unlock() error {
	if !w.flock.Locked() {
		return nil
	}
	if err := w.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock workspace: %w", err)
	}
	return os.Remove(w.flock.Path())
}
