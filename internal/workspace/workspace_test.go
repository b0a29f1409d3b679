package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initialize(t *testing.T, dir string) *Workspace {
	t.Helper()
	ws, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(ws.MetadataDir, 0o755))
	require.NoError(t, os.WriteFile(ws.SnapshotPath, []byte("{}"), 0o644))
	return ws
}

func TestNew_LayoutUnderRoot(t *testing.T) {
	dir := t.TempDir()
	ws, err := New(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, ws.Root)
	assert.Equal(t, filepath.Join(dir, ".drivemd"), ws.MetadataDir)
	assert.Equal(t, filepath.Join(dir, ".drivemd", "snapshot.json"), ws.SnapshotPath)
	assert.Equal(t, filepath.Join(dir, "deleted-remotely"), ws.TombstoneDir)
	assert.False(t, ws.Initialized())
}

func TestDiscover_WalksUpward(t *testing.T) {
	root := t.TempDir()
	initialize(t, root)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	ws, err := Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, root, ws.Root)
}

func TestDiscover_NotFound(t *testing.T) {
	_, err := Discover(t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLock_RejectsSecondHolder(t *testing.T) {
	root := t.TempDir()
	first := initialize(t, root)
	require.NoError(t, first.Lock())
	defer first.Unlock()

	second, err := New(root)
	require.NoError(t, err)
	assert.ErrorIs(t, second.Lock(), ErrWorkspaceLocked)
}

func TestUnlock_ReleasesAndRemovesLockFile(t *testing.T) {
	root := t.TempDir()
	ws := initialize(t, root)
	require.NoError(t, ws.Lock())
	require.NoError(t, ws.Unlock())

	assert.NoFileExists(t, filepath.Join(ws.MetadataDir, "drivemd.lock"))

	again, err := New(root)
	require.NoError(t, err)
	require.NoError(t, again.Lock())
	assert.NoError(t, again.Unlock())
}

func TestUnlock_WithoutLockIsNoop(t *testing.T) {
	ws, err := New(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, ws.Unlock())
}
