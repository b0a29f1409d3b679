package sync

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/drivemd/drivemd/internal/utils"
	"github.com/drivemd/drivemd/internal/workspace"
)

const ignoreFileName = ".drivemdignore"

var defaultIgnoreLines = []string{
	// drivemd reserved
	workspace.MetadataDirName + "/",
	workspace.TombstoneDirName + "/",
	ignoreFileName,
	// VCS / IDE
	".git/",
	".vscode/",
	".idea/",
	// OS junk
	".DS_Store",
	"Thumbs.db",
	// general excludes
	"*.tmp",
	"node_modules/",
}

// IgnoreList decides which local files are excluded from upload and status
// scans. Rules come from built-in defaults plus an optional .drivemdignore
// file at the sync root, in gitignore syntax.
type IgnoreList struct {
	root    string
	matcher *gitignore.GitIgnore
}

func NewIgnoreList(root string) *IgnoreList {
	return &IgnoreList{root: root}
}

func (l *IgnoreList) Load() {
	lines := append([]string{}, defaultIgnoreLines...)

	ignorePath := filepath.Join(l.root, ignoreFileName)
	if utils.FileExists(ignorePath) {
		data, err := os.ReadFile(ignorePath)
		if err != nil {
			slog.Warn("failed to read ignore file", "path", ignorePath, "error", err)
		} else {
			for _, line := range strings.Split(string(data), "\n") {
				line = strings.TrimSpace(line)
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				lines = append(lines, line)
			}
			slog.Debug("loaded ignore file", "path", ignorePath)
		}
	}

	l.matcher = gitignore.CompileIgnoreLines(lines...)
}

// ShouldIgnore reports whether the slash-separated relative path matches an
// ignore rule.
func (l *IgnoreList) ShouldIgnore(rel string) bool {
	if l.matcher == nil {
		l.Load()
	}
	return l.matcher.MatchesPath(rel)
}
