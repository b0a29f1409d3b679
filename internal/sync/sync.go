// Package sync implements the incremental synchronization engine: it
// reconciles the remote folder tree against the persisted snapshot, decides
// per item whether to fetch, move, skip, or tombstone, and pushes untracked
// local Markdown back up as new remote documents.
package sync

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/drivemd/drivemd/internal/drive"
	"github.com/drivemd/drivemd/internal/utils"
)

// RemoteFS is the remote store collaborator consumed by the engine. All
// calls either eventually succeed (the client retries transient failures
// internally) or return a terminal error.
type RemoteFS interface {
	ListChildren(ctx context.Context, folderID string) ([]*drive.File, error)
	ExportDocument(ctx context.Context, id string) ([]byte, error)
	ExportSpreadsheet(ctx context.Context, id string) ([]byte, error)
	GetTabs(ctx context.Context, spreadsheetID string) ([]drive.Tab, error)
	ExportTab(ctx context.Context, spreadsheetID string, tabID int64) ([]byte, error)
	CreateDocument(ctx context.Context, name, parentID string, html []byte) (*drive.File, error)
	CreateFolder(ctx context.Context, name, parentID string) (*drive.File, error)
	FindChildFolder(ctx context.Context, parentID, name string) (*drive.File, error)
}

var _ RemoteFS = (*drive.Client)(nil)

// Stats accumulates the outcome counts of a pass. It is carried by pointer
// through the recursion; there is no global state.
type Stats struct {
	New       int
	Updated   int
	Moved     int
	Deleted   int
	Unchanged int
	Folders   int
	Uploaded  int
	Errors    int
}

// HasChanges reports whether the pass did anything beyond no-ops.
func (s *Stats) HasChanges() bool {
	return s.New > 0 || s.Updated > 0 || s.Moved > 0 || s.Deleted > 0 || s.Uploaded > 0
}

// relPath converts abs under root into the slash-separated form used in
// snapshot records.
func relPath(root, abs string) (string, error) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", fmt.Errorf("relativize %s: %w", abs, err)
	}
	return utils.NormPath(rel), nil
}
