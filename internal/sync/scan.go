package sync

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// findUntrackedMarkdown walks the local tree for Markdown files that no
// snapshot record claims, honoring the ignore rules. Returned paths are
// slash-separated and relative to the root.
func findUntrackedMarkdown(root string, snap *Snapshot, ignore *IgnoreList) ([]string, error) {
	tracked := snap.TrackedPaths()
	var untracked []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("scan local tree: %w", walkErr)
		}
		if path == root {
			return nil
		}

		rel, err := relPath(root, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if ignore.ShouldIgnore(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), KindDocument.Ext()) {
			return nil
		}
		if ignore.ShouldIgnore(rel) {
			return nil
		}
		if tracked.Contains(rel) {
			return nil
		}

		untracked = append(untracked, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return untracked, nil
}
