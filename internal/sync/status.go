package sync

import (
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/drivemd/drivemd/internal/workspace"
)

// RemoteEntry is one supported remote item as seen by the status walk.
type RemoteEntry struct {
	ID           string
	Path         string
	ModifiedTime string
	Kind         ItemKind
	Size         int64
}

// StatusReport is a read-only diff of remote state against the snapshot and
// the local tree. Collecting it mutates nothing.
type StatusReport struct {
	RootFolder     string
	RemoteNew      []RemoteEntry
	RemoteChanged  []RemoteEntry
	RemoteDeleted  map[string]*ItemRecord
	LocalUntracked []string
}

// InSync reports whether nothing would change on a full sync.
func (r *StatusReport) InSync() bool {
	return len(r.RemoteNew) == 0 &&
		len(r.RemoteChanged) == 0 &&
		len(r.RemoteDeleted) == 0 &&
		len(r.LocalUntracked) == 0
}

// CollectStatus walks the remote tree and the local tree to produce a
// report of pending work without performing any of it.
func CollectStatus(ctx context.Context, remote RemoteFS, ws *workspace.Workspace, snap *Snapshot, ignore *IgnoreList) (*StatusReport, error) {
	rootID := snap.RootFolderID()
	if rootID == "" {
		return nil, ErrNotInitialized
	}

	var entries []RemoteEntry
	if err := collectRemote(ctx, remote, rootID, "", &entries); err != nil {
		return nil, err
	}

	visited := mapset.NewThreadUnsafeSet[string]()
	report := &StatusReport{
		RootFolder: snap.RootFolderDisplay(),
	}

	for _, entry := range entries {
		visited.Add(entry.ID)
		switch {
		case snap.Get(entry.ID) == nil:
			report.RemoteNew = append(report.RemoteNew, entry)
		case snap.IsChanged(entry.ID, entry.ModifiedTime):
			report.RemoteChanged = append(report.RemoteChanged, entry)
		}
	}
	report.RemoteDeleted = snap.DeletedSince(visited)

	untracked, err := findUntrackedMarkdown(ws.Root, snap, ignore)
	if err != nil {
		return nil, err
	}
	report.LocalUntracked = untracked

	return report, nil
}

func collectRemote(ctx context.Context, remote RemoteFS, folderID, basePath string, out *[]RemoteEntry) error {
	children, err := remote.ListChildren(ctx, folderID)
	if err != nil {
		return fmt.Errorf("status walk %s: %w", folderID, err)
	}

	for _, item := range children {
		switch {
		case item.IsFolder():
			if err := collectRemote(ctx, remote, item.ID, basePath+item.Name+"/", out); err != nil {
				return err
			}
		case item.IsSupported():
			kind := KindDocument
			if item.IsSpreadsheet() {
				kind = KindSpreadsheet
			}
			*out = append(*out, RemoteEntry{
				ID:           item.ID,
				Path:         basePath + item.Name + kind.Ext(),
				ModifiedTime: item.ModifiedTime,
				Kind:         kind,
				Size:         item.Size,
			})
		}
	}
	return nil
}
