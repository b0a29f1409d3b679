package sync

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/drivemd/drivemd/internal/convert"
	"github.com/drivemd/drivemd/internal/workspace"
)

var ErrNotInitialized = errors.New("sync: snapshot has no remote root folder; run `drivemd init` first")

// Uploader pushes untracked local Markdown files to the remote store as new
// documents. The upload path is create-only: already-tracked files are never
// re-uploaded, even when modified locally.
type Uploader struct {
	remote RemoteFS
	ws     *workspace.Workspace
	snap   *Snapshot
	ignore *IgnoreList
	Stats  Stats
}

func NewUploader(remote RemoteFS, ws *workspace.Workspace, snap *Snapshot, ignore *IgnoreList) *Uploader {
	return &Uploader{
		remote: remote,
		ws:     ws,
		snap:   snap,
		ignore: ignore,
	}
}

// FindUntracked returns the relative paths of local Markdown files with no
// snapshot record.
func (u *Uploader) FindUntracked() ([]string, error) {
	return findUntrackedMarkdown(u.ws.Root, u.snap, u.ignore)
}

// UploadAll uploads every untracked Markdown file, lazily creating the
// matching remote folder chain, and registers the new remote ids in the
// snapshot. A failure on one file is counted and does not abort the rest.
// The snapshot is persisted once at the end if anything was uploaded.
func (u *Uploader) UploadAll(ctx context.Context) ([]string, error) {
	rootID := u.snap.RootFolderID()
	if rootID == "" {
		return nil, ErrNotInitialized
	}

	untracked, err := u.FindUntracked()
	if err != nil {
		return nil, err
	}
	if len(untracked) == 0 {
		return nil, nil
	}

	// remote folder ids memoized per relative directory
	parents := map[string]string{".": rootID}

	var uploaded []string
	for _, rel := range untracked {
		if ctx.Err() != nil {
			break
		}
		id, err := u.uploadOne(ctx, parents, rel)
		if err != nil {
			slog.Error("upload failed", "path", rel, "error", err)
			u.Stats.Errors++
			continue
		}
		slog.Info("uploaded", "path", rel, "id", id)
		uploaded = append(uploaded, id)
		u.Stats.Uploaded++
	}

	if len(uploaded) > 0 {
		if err := u.snap.Save(); err != nil {
			return uploaded, err
		}
	}
	return uploaded, nil
}

func (u *Uploader) uploadOne(ctx context.Context, parents map[string]string, rel string) (string, error) {
	parentID, err := u.ensureRemoteDir(ctx, parents, filepath.Dir(rel))
	if err != nil {
		return "", err
	}

	md, err := os.ReadFile(filepath.Join(u.ws.Root, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}

	html, err := convert.MarkdownToHTML(md)
	if err != nil {
		return "", err
	}

	name := strings.TrimSuffix(filepath.Base(rel), KindDocument.Ext())
	doc, err := u.remote.CreateDocument(ctx, name, parentID, html)
	if err != nil {
		return "", err
	}

	modified := doc.ModifiedTime
	if modified == "" {
		modified = time.Now().UTC().Format(time.RFC3339)
	}
	u.snap.Upsert(doc.ID, rel, modified, KindDocument, int64(len(md)))
	return doc.ID, nil
}

// ensureRemoteDir resolves or creates the chain of remote folders matching
// relDir, memoizing each resolved segment in parents.
func (u *Uploader) ensureRemoteDir(ctx context.Context, parents map[string]string, relDir string) (string, error) {
	relDir = filepath.ToSlash(relDir)
	if id, ok := parents[relDir]; ok {
		return id, nil
	}

	currentID := parents["."]
	currentKey := "."
	for _, part := range strings.Split(relDir, "/") {
		if part == "" || part == "." {
			continue
		}
		if currentKey == "." {
			currentKey = part
		} else {
			currentKey = currentKey + "/" + part
		}
		if id, ok := parents[currentKey]; ok {
			currentID = id
			continue
		}

		existing, err := u.remote.FindChildFolder(ctx, currentID, part)
		if err != nil {
			return "", err
		}
		if existing != nil {
			currentID = existing.ID
		} else {
			created, err := u.remote.CreateFolder(ctx, part, currentID)
			if err != nil {
				return "", err
			}
			slog.Info("created remote folder", "name", part)
			currentID = created.ID
		}
		parents[currentKey] = currentID
	}

	return currentID, nil
}
