package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()

	free := filepath.Join(dir, "Notes.md")
	assert.Equal(t, free, uniquePath(free))

	require.NoError(t, os.WriteFile(free, []byte("x"), 0o644))
	assert.Equal(t, filepath.Join(dir, "Notes (2).md"), uniquePath(free))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Notes (2).md"), []byte("x"), 0o644))
	assert.Equal(t, filepath.Join(dir, "Notes (3).md"), uniquePath(free))
}

func TestUniquePath_NoExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "README")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	assert.Equal(t, filepath.Join(dir, "README (2)"), uniquePath(path))
}

func TestTombstoneCollisionKeepsBothCopies(t *testing.T) {
	engine, remote, ws, snap := newTestEngine(t)

	// two same-named documents in different remote folders
	remote.addFolder("root", "f1", "a")
	remote.addFolder("root", "f2", "b")
	remote.addDoc("f1", "d1", "Notes", "t1", "first")
	remote.addDoc("f2", "d2", "Notes", "t1", "second")

	visited, err := engine.Reconcile(context.Background(), "root")
	require.NoError(t, err)
	engine.HandleDeletions(context.Background(), visited)

	// both vanish remotely in the next pass
	remote.children["f1"] = nil
	remote.children["f2"] = nil
	second := NewEngine(remote, ws, snap)
	visited, err = second.Reconcile(context.Background(), "root")
	require.NoError(t, err)
	second.HandleDeletions(context.Background(), visited)

	assert.Equal(t, 2, second.Stats.Deleted)
	assert.FileExists(t, filepath.Join(ws.TombstoneDir, "Notes.md"))
	assert.FileExists(t, filepath.Join(ws.TombstoneDir, "Notes (2).md"))
}

func TestMoveTabSiblings(t *testing.T) {
	engine, remote, ws, snap := newTestEngine(t)
	remote.addSheet("root", "s1", "Budget", "t1", nil)

	// simulate a prior multi-tab sync by laying out files and the record
	require.NoError(t, os.WriteFile(filepath.Join(ws.Root, "Budget-Q1.csv"), []byte("q1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ws.Root, "Budget-Q2.csv"), []byte("q2"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ws.Root, "Budget.csv"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ws.Root, "Budget-notes.md"), []byte("n"), 0o644))
	snap.Upsert("s1", "Budget.csv", "t1", KindSpreadsheet, 0)

	require.NoError(t, os.MkdirAll(filepath.Join(ws.Root, "2024"), 0o755))
	item := remote.children["root"][0]
	require.NoError(t, engine.moveItem(context.Background(), item, filepath.Join(ws.Root, "2024")))

	assert.Equal(t, "q1", readFile(t, filepath.Join(ws.Root, "2024", "Budget-Q1.csv")))
	assert.Equal(t, "q2", readFile(t, filepath.Join(ws.Root, "2024", "Budget-Q2.csv")))
	assert.FileExists(t, filepath.Join(ws.Root, "2024", "Budget.csv"))
	// non-csv files are not siblings
	assert.FileExists(t, filepath.Join(ws.Root, "Budget-notes.md"))
	assert.Equal(t, "2024/Budget.csv", snap.Get("s1").Path)
}
