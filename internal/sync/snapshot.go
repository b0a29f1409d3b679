package sync

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/goccy/go-json"

	"github.com/drivemd/drivemd/internal/utils"
)

// SchemaVersion is the current snapshot document schema.
const SchemaVersion = "3"

// ItemKind distinguishes the two supported remote item types. It determines
// the local file extension and the spreadsheet tab fan-out.
type ItemKind string

const (
	KindDocument    ItemKind = "doc"
	KindSpreadsheet ItemKind = "sheet"
)

// Ext returns the local file extension for the kind.
func (k ItemKind) Ext() string {
	if k == KindSpreadsheet {
		return ".csv"
	}
	return ".md"
}

// ItemRecord tracks one remote item that was materialized locally at least
// once. ModifiedTime is an opaque marker compared only for string equality.
type ItemRecord struct {
	Path         string    `json:"path"`
	ModifiedTime string    `json:"modified_time"`
	Kind         ItemKind  `json:"type"`
	Size         int64     `json:"size,omitempty"`
	LastSynced   time.Time `json:"last_synced"`
}

type snapshotData struct {
	Version         string                 `json:"version"`
	DriveFolderID   string                 `json:"drive_folder_id,omitempty"`
	DriveFolderName string                 `json:"drive_folder_name,omitempty"`
	DriveFolderPath string                 `json:"drive_folder_path,omitempty"`
	LastSync        *time.Time             `json:"last_sync,omitempty"`
	Files           map[string]*ItemRecord `json:"files"`
}

func emptySnapshotData() snapshotData {
	return snapshotData{
		Version: SchemaVersion,
		Files:   make(map[string]*ItemRecord),
	}
}

// StoreError wraps a snapshot persistence failure. Load failures degrade to
// an empty snapshot instead; only Save surfaces this.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("snapshot %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// Snapshot is the durable record set mapping remote identities to their
// local materialization. One JSON document per sync root.
type Snapshot struct {
	path string
	data snapshotData
}

// OpenSnapshot loads the snapshot at path, upgrading older schema versions
// in place. A missing or unreadable document yields an empty snapshot; a
// corrupt one is logged and discarded rather than failing the run.
func OpenSnapshot(path string) *Snapshot {
	s := &Snapshot{path: path, data: emptySnapshotData()}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("could not read snapshot, starting fresh", "path", path, "error", err)
		}
		return s
	}

	var loaded snapshotData
	if err := json.Unmarshal(raw, &loaded); err != nil {
		slog.Warn("could not parse snapshot, starting fresh", "path", path, "error", err)
		return s
	}

	s.data = upgrade(loaded)
	return s
}

// upgrade migrates an older schema to the current one, carrying forward the
// record set, last sync time and root folder identity. Unknown fields are
// dropped.
func upgrade(old snapshotData) snapshotData {
	if old.Version == SchemaVersion {
		if old.Files == nil {
			old.Files = make(map[string]*ItemRecord)
		}
		return old
	}

	slog.Info("upgrading snapshot schema", "from", old.Version, "to", SchemaVersion)
	fresh := emptySnapshotData()
	fresh.LastSync = old.LastSync
	fresh.DriveFolderID = old.DriveFolderID
	fresh.DriveFolderName = old.DriveFolderName
	fresh.DriveFolderPath = old.DriveFolderPath
	if old.Files != nil {
		fresh.Files = old.Files
	}
	return fresh
}

// Get returns the record for a remote id, or nil when untracked.
func (s *Snapshot) Get(remoteID string) *ItemRecord {
	return s.data.Files[remoteID]
}

// Upsert inserts or replaces a record, stamping LastSynced to now.
func (s *Snapshot) Upsert(remoteID, path, modifiedTime string, kind ItemKind, size int64) {
	s.data.Files[remoteID] = &ItemRecord{
		Path:         path,
		ModifiedTime: modifiedTime,
		Kind:         kind,
		Size:         size,
		LastSynced:   time.Now().UTC(),
	}
}

// Remove deletes and returns the record for a remote id, or nil.
func (s *Snapshot) Remove(remoteID string) *ItemRecord {
	rec := s.data.Files[remoteID]
	delete(s.data.Files, remoteID)
	return rec
}

// IsChanged reports whether the item is new or its remote marker differs
// from the stored one. Markers are opaque; comparison is exact string
// inequality, never date semantics.
func (s *Snapshot) IsChanged(remoteID, modifiedTime string) bool {
	rec := s.data.Files[remoteID]
	if rec == nil {
		return true
	}
	return rec.ModifiedTime != modifiedTime
}

// DeletedSince returns every tracked record whose remote id is absent from
// the visited set.
func (s *Snapshot) DeletedSince(visited mapset.Set[string]) map[string]*ItemRecord {
	deleted := make(map[string]*ItemRecord)
	for id, rec := range s.data.Files {
		if !visited.Contains(id) {
			deleted[id] = rec
		}
	}
	return deleted
}

// TrackedPaths returns the set of local paths claimed by tracked records.
func (s *Snapshot) TrackedPaths() mapset.Set[string] {
	paths := mapset.NewThreadUnsafeSet[string]()
	for _, rec := range s.data.Files {
		paths.Add(rec.Path)
	}
	return paths
}

// Len returns the number of tracked records.
func (s *Snapshot) Len() int {
	return len(s.data.Files)
}

// SetRootFolder records the remote root folder identity.
func (s *Snapshot) SetRootFolder(id, name, displayPath string) {
	s.data.DriveFolderID = id
	s.data.DriveFolderName = name
	s.data.DriveFolderPath = displayPath
}

func (s *Snapshot) RootFolderID() string { return s.data.DriveFolderID }

// RootFolder returns the stored remote root identity.
func (s *Snapshot) RootFolder() (id, name, displayPath string) {
	return s.data.DriveFolderID, s.data.DriveFolderName, s.data.DriveFolderPath
}

// RootFolderDisplay returns the best available human-readable name for the
// remote root folder.
func (s *Snapshot) RootFolderDisplay() string {
	if s.data.DriveFolderPath != "" {
		return s.data.DriveFolderPath
	}
	if s.data.DriveFolderName != "" {
		return s.data.DriveFolderName
	}
	return "Unknown"
}

func (s *Snapshot) LastSync() *time.Time { return s.data.LastSync }

// Save stamps the last-sync time and writes the snapshot atomically.
func (s *Snapshot) Save() error {
	now := time.Now().UTC()
	s.data.LastSync = &now

	raw, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return &StoreError{Op: "marshal", Err: err}
	}
	if err := utils.WriteFileAtomic(s.path, raw, 0o644); err != nil {
		return &StoreError{Op: "write", Err: err}
	}
	return nil
}

// Clear resets to an empty snapshot, retaining only the schema version.
func (s *Snapshot) Clear() {
	s.data = emptySnapshotData()
}
