package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/drivemd/drivemd/internal/config"
	"github.com/drivemd/drivemd/internal/drive"
	"github.com/drivemd/drivemd/internal/sync"
	"github.com/drivemd/drivemd/internal/workspace"
)

func configRoot() (config.Root, error) {
	if dir := viper.GetString("config_root"); dir != "" {
		return config.NewRoot(dir)
	}
	return config.DefaultRoot()
}

func buildRemote() (*drive.Client, error) {
	root, err := configRoot()
	if err != nil {
		return nil, err
	}
	if !root.HasCredentials() {
		return nil, config.ErrNoCredentials
	}
	return drive.NewClient(drive.NewTokenSource(root)), nil
}

// openWorkspace discovers the nearest initialized sync root, takes its lock
// and opens the snapshot. The caller must Unlock.
func openWorkspace() (*workspace.Workspace, *sync.Snapshot, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}

	ws, err := workspace.Discover(cwd)
	if err != nil {
		return nil, nil, err
	}
	if err := ws.Lock(); err != nil {
		return nil, nil, err
	}

	return ws, sync.OpenSnapshot(ws.SnapshotPath), nil
}

// bestEffortSave persists partial progress; a failure here is logged only
// since the pass is already failing or exiting.
func bestEffortSave(snap *sync.Snapshot) {
	if err := snap.Save(); err != nil {
		slog.Error("could not persist partial sync state", "error", err)
	}
}

func printSummary(stats sync.Stats) {
	fmt.Println()
	fmt.Println(cyan("Sync summary"))
	fmt.Printf("  new:       %d\n", stats.New)
	fmt.Printf("  updated:   %d\n", stats.Updated)
	fmt.Printf("  moved:     %d\n", stats.Moved)
	fmt.Printf("  deleted:   %d\n", stats.Deleted)
	fmt.Printf("  unchanged: %d\n", stats.Unchanged)
	fmt.Printf("  folders:   %d\n", stats.Folders)
	if stats.Uploaded > 0 {
		fmt.Printf("  uploaded:  %d\n", stats.Uploaded)
	}
	if stats.Errors > 0 {
		fmt.Printf("  %s    %d\n", red("errors:"), stats.Errors)
	}
}
