package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/drivemd/drivemd/internal/drive"
	"github.com/drivemd/drivemd/internal/workspace"
)

// Engine drives one reconciliation pass: a depth-first walk of the remote
// tree followed by a deletion pass. It is strictly single-threaded; the
// snapshot is not safe for concurrent passes.
type Engine struct {
	remote RemoteFS
	ws     *workspace.Workspace
	snap   *Snapshot
	Stats  Stats
}

func NewEngine(remote RemoteFS, ws *workspace.Workspace, snap *Snapshot) *Engine {
	return &Engine{
		remote: remote,
		ws:     ws,
		snap:   snap,
	}
}

// Reconcile walks the remote subtree rooted at folderID and returns the set
// of visited supported remote ids. A listing or folder failure aborts the
// whole pass; the visited set accumulated so far is still returned so the
// caller can persist partial progress.
func (e *Engine) Reconcile(ctx context.Context, folderID string) (mapset.Set[string], error) {
	visited := mapset.NewThreadUnsafeSet[string]()
	if err := e.syncFolder(ctx, folderID, e.ws.Root, visited); err != nil {
		return visited, err
	}
	return visited, nil
}

func (e *Engine) syncFolder(ctx context.Context, folderID, dir string, visited mapset.Set[string]) error {
	rel, _ := relPath(e.ws.Root, dir)
	slog.Info("sync folder", "path", rel)

	children, err := e.remote.ListChildren(ctx, folderID)
	if err != nil {
		e.Stats.Errors++
		return fmt.Errorf("sync folder %s: %w", folderID, err)
	}

	for _, item := range children {
		switch {
		case item.IsFolder():
			subdir := filepath.Join(dir, item.Name)
			if err := os.MkdirAll(subdir, 0o755); err != nil {
				e.Stats.Errors++
				return fmt.Errorf("create local folder %s: %w", subdir, err)
			}
			e.Stats.Folders++
			if err := e.syncFolder(ctx, item.ID, subdir, visited); err != nil {
				return err
			}

		case item.IsSupported():
			visited.Add(item.ID)
			e.classifyAndApply(ctx, item, dir)

		default:
			slog.Debug("skipping unsupported item", "name", item.Name, "mime", item.MimeType)
			e.Stats.Unchanged++
		}
	}

	return nil
}

// classifyAndApply decides between sync, move and no-op for one supported
// item. Content freshness takes precedence over location: when an item both
// changed and moved, only the re-fetch runs; it writes into the item's
// current directory, which resolves the move as a side effect.
func (e *Engine) classifyAndApply(ctx context.Context, item *drive.File, dir string) {
	changed := e.snap.IsChanged(item.ID, item.ModifiedTime)
	moved := e.hasMoved(item, dir)

	switch {
	case changed:
		if err := e.syncItem(ctx, item, dir); err != nil {
			slog.Error("sync item failed", "name", item.Name, "error", err)
			e.Stats.Errors++
		}
	case moved:
		if err := e.moveItem(ctx, item, dir); err != nil {
			slog.Error("move item failed", "name", item.Name, "error", err)
			e.Stats.Errors++
		}
	default:
		slog.Debug("unchanged", "name", item.Name)
		e.Stats.Unchanged++
	}
}

// hasMoved reports whether a tracked item's stored path differs from the
// path it would occupy if placed in dir under its current name.
func (e *Engine) hasMoved(item *drive.File, dir string) bool {
	rec := e.snap.Get(item.ID)
	if rec == nil {
		return false
	}
	expected, err := relPath(e.ws.Root, filepath.Join(dir, item.Name+rec.Kind.Ext()))
	if err != nil {
		return false
	}
	return rec.Path != expected
}

// HandleDeletions tombstones every tracked item absent from the visited
// set. Unlike the walk, a failure on one item is counted and skipped so one
// bad local move does not block cleanup of the rest.
func (e *Engine) HandleDeletions(ctx context.Context, visited mapset.Set[string]) {
	deleted := e.snap.DeletedSince(visited)
	if len(deleted) == 0 {
		return
	}

	slog.Info("processing remotely deleted items", "count", len(deleted))
	for id, rec := range deleted {
		if ctx.Err() != nil {
			return
		}
		if err := e.moveToDeleted(id, rec); err != nil {
			slog.Error("tombstone failed", "path", rec.Path, "error", err)
			e.Stats.Errors++
		}
	}
}
