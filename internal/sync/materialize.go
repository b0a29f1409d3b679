package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/drivemd/drivemd/internal/drive"
	"github.com/drivemd/drivemd/internal/utils"
)

// syncItem fetches an item's content and writes it under dir, then upserts
// the snapshot record with the canonical relative path.
func (e *Engine) syncItem(ctx context.Context, item *drive.File, dir string) error {
	isNew := e.snap.Get(item.ID) == nil

	var kind ItemKind
	switch {
	case item.IsDocument():
		kind = KindDocument
		if err := e.syncDocument(ctx, item, dir); err != nil {
			return err
		}
	case item.IsSpreadsheet():
		kind = KindSpreadsheet
		if err := e.syncSpreadsheet(ctx, item, dir); err != nil {
			return err
		}
	default:
		return nil
	}

	rel, err := relPath(e.ws.Root, filepath.Join(dir, item.Name+kind.Ext()))
	if err != nil {
		return err
	}

	e.snap.Upsert(item.ID, rel, item.ModifiedTime, kind, item.Size)
	if isNew {
		e.Stats.New++
	} else {
		e.Stats.Updated++
	}
	return nil
}

func (e *Engine) syncDocument(ctx context.Context, item *drive.File, dir string) error {
	slog.Info("sync document", "name", item.Name)
	content, err := e.remote.ExportDocument(ctx, item.ID)
	if err != nil {
		return err
	}
	target := filepath.Join(dir, item.Name+KindDocument.Ext())
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

// syncSpreadsheet writes name.csv for a single-tab spreadsheet and
// name-<tab>.csv per tab otherwise. Individual tab failures are logged and
// skipped; they do not fail the item.
func (e *Engine) syncSpreadsheet(ctx context.Context, item *drive.File, dir string) error {
	slog.Info("sync spreadsheet", "name", item.Name)

	tabs, err := e.remote.GetTabs(ctx, item.ID)
	if err != nil || len(tabs) <= 1 {
		if err != nil {
			slog.Warn("tab listing failed, using single export", "name", item.Name, "error", err)
		}
		content, err := e.remote.ExportSpreadsheet(ctx, item.ID)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, item.Name+KindSpreadsheet.Ext())
		if err := os.WriteFile(target, content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
		return nil
	}

	for _, tab := range tabs {
		content, err := e.remote.ExportTab(ctx, item.ID, tab.TabID)
		if err != nil {
			slog.Error("export tab failed", "name", item.Name, "tab", tab.Title, "error", err)
			continue
		}
		target := filepath.Join(dir, fmt.Sprintf("%s-%s%s", item.Name, tab.Title, KindSpreadsheet.Ext()))
		if err := os.WriteFile(target, content, 0o644); err != nil {
			slog.Error("write tab failed", "path", target, "error", err)
		}
	}
	return nil
}

// moveItem relocates a tracked, content-unchanged item to its new directory
// without re-fetching. If the old file is gone locally, it falls back to a
// full re-fetch since the divergence cannot be explained otherwise.
func (e *Engine) moveItem(ctx context.Context, item *drive.File, dir string) error {
	rec := e.snap.Get(item.ID)
	if rec == nil {
		return nil
	}

	oldAbs := filepath.Join(e.ws.Root, filepath.FromSlash(rec.Path))
	if !utils.FileExists(oldAbs) {
		slog.Warn("tracked file missing locally, re-fetching", "name", item.Name, "path", rec.Path)
		return e.syncItem(ctx, item, dir)
	}

	newAbs := filepath.Join(dir, item.Name+rec.Kind.Ext())
	newRel, err := relPath(e.ws.Root, newAbs)
	if err != nil {
		return err
	}

	if err := utils.EnsureParent(newAbs); err != nil {
		return err
	}
	if err := os.Rename(oldAbs, newAbs); err != nil {
		return fmt.Errorf("move %s to %s: %w", rec.Path, newRel, err)
	}
	slog.Info("moved", "from", rec.Path, "to", newRel)

	if rec.Kind == KindSpreadsheet {
		e.moveTabSiblings(oldAbs, newAbs)
	}

	e.snap.Upsert(item.ID, newRel, item.ModifiedTime, rec.Kind, item.Size)
	e.Stats.Moved++
	return nil
}

// moveTabSiblings renames the per-tab files that accompany a multi-tab
// spreadsheet, matched by the old base name's "-<tab>.csv" suffix pattern.
// A document whose own name contains a matching hyphen suffix would be
// misidentified here; that ambiguity is inherent to the naming scheme.
func (e *Engine) moveTabSiblings(oldAbs, newAbs string) {
	oldBase := strings.TrimSuffix(filepath.Base(oldAbs), KindSpreadsheet.Ext())
	newBase := strings.TrimSuffix(filepath.Base(newAbs), KindSpreadsheet.Ext())
	pattern := oldBase + "-*" + KindSpreadsheet.Ext()

	entries, err := os.ReadDir(filepath.Dir(oldAbs))
	if err != nil {
		slog.Warn("could not scan for tab siblings", "dir", filepath.Dir(oldAbs), "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, err := doublestar.Match(pattern, entry.Name())
		if err != nil || !ok {
			continue
		}
		suffix := strings.TrimPrefix(entry.Name(), oldBase)
		src := filepath.Join(filepath.Dir(oldAbs), entry.Name())
		dst := filepath.Join(filepath.Dir(newAbs), newBase+suffix)
		if err := os.Rename(src, dst); err != nil {
			slog.Error("move tab sibling failed", "from", src, "to", dst, "error", err)
			continue
		}
		slog.Info("moved tab sibling", "from", entry.Name(), "to", newBase+suffix)
	}
}

// moveToDeleted tombstones one remotely-deleted item into the reserved
// deleted-remotely directory and drops its record. An already-missing local
// file just drops the record.
func (e *Engine) moveToDeleted(id string, rec *ItemRecord) error {
	orig := filepath.Join(e.ws.Root, filepath.FromSlash(rec.Path))
	if !utils.FileExists(orig) {
		e.snap.Remove(id)
		return nil
	}

	if err := utils.EnsureDir(e.ws.TombstoneDir); err != nil {
		return fmt.Errorf("create tombstone dir: %w", err)
	}

	target := uniquePath(filepath.Join(e.ws.TombstoneDir, filepath.Base(orig)))
	if err := os.Rename(orig, target); err != nil {
		return fmt.Errorf("tombstone %s: %w", rec.Path, err)
	}

	slog.Info("moved to deleted-remotely", "from", rec.Path, "to", filepath.Base(target))
	e.snap.Remove(id)
	e.Stats.Deleted++
	return nil
}

// uniquePath returns path itself if free, else the first of
// "name (2).ext", "name (3).ext", ... that does not exist.
func uniquePath(path string) string {
	// any stat error means the path is not a usable existing file; let the
	// rename surface the real problem
	if _, err := os.Stat(path); err != nil {
		return path
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for counter := 2; ; counter++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, counter, ext)
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}
