// Package config manages the global drivemd configuration root: the
// directory holding OAuth client credentials and the cached token. The root
// is resolved once and injected into everything that needs it, never looked
// up ad hoc.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/drivemd/drivemd/internal/utils"
)

const (
	credentialsFile = "credentials.json"
	tokenFile       = "token.json"
)

var ErrNoCredentials = errors.New("config: credentials missing; run `drivemd setup` with your OAuth client credentials JSON")

// Root is the global configuration directory (default ~/.config/drivemd).
type Root struct {
	Dir string
}

func DefaultRoot() (Root, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Root{}, fmt.Errorf("resolve home directory: %w", err)
	}
	return Root{Dir: filepath.Join(home, ".config", "drivemd")}, nil
}

// NewRoot resolves dir into an absolute configuration root.
func NewRoot(dir string) (Root, error) {
	resolved, err := utils.ResolvePath(dir)
	if err != nil {
		return Root{}, fmt.Errorf("resolve config root %q: %w", dir, err)
	}
	return Root{Dir: resolved}, nil
}

func (r Root) CredentialsPath() string {
	return filepath.Join(r.Dir, credentialsFile)
}

func (r Root) TokenPath() string {
	return filepath.Join(r.Dir, tokenFile)
}

func (r Root) HasCredentials() bool {
	return utils.FileExists(r.CredentialsPath())
}

// InstallCredentials copies an OAuth client credentials file into the
// configuration root.
func (r Root) InstallCredentials(src string) error {
	if !utils.FileExists(src) {
		return fmt.Errorf("config: credentials file not found: %s", src)
	}
	if err := utils.EnsureDir(r.Dir); err != nil {
		return fmt.Errorf("config: create config root: %w", err)
	}
	if err := utils.CopyFile(src, r.CredentialsPath()); err != nil {
		return fmt.Errorf("config: install credentials: %w", err)
	}
	return nil
}

// ClearToken removes any cached token so the next run re-authenticates.
func (r Root) ClearToken() error {
	err := os.Remove(r.TokenPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("config: clear token: %w", err)
	}
	return nil
}
