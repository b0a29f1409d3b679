package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drivemd/drivemd/internal/sync"
	"github.com/drivemd/drivemd/internal/workspace"
)

func init() {
	rootCmd.AddCommand(newPullCmd())
}

func newPullCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download remote changes into the local tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			ws, snap, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Unlock()

			remote, err := buildRemote()
			if err != nil {
				return err
			}

			stats, err := runPull(cmd.Context(), ws, snap, remote, force)
			if stats != nil {
				printSummary(*stats)
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "clear the snapshot first and re-download everything")
	return cmd
}

// runPull executes one full reconciliation pass: walk, deletions, save.
// Partial progress is persisted even when the walk aborts.
func runPull(ctx context.Context, ws *workspace.Workspace, snap *sync.Snapshot, remote sync.RemoteFS, force bool) (*sync.Stats, error) {
	rootID := snap.RootFolderID()
	if rootID == "" {
		return nil, sync.ErrNotInitialized
	}

	if force {
		// full reset keeps the root folder identity so the pass can still run
		id, name, display := snap.RootFolder()
		snap.Clear()
		snap.SetRootFolder(id, name, display)
	}

	engine := sync.NewEngine(remote, ws, snap)
	visited, err := engine.Reconcile(ctx, rootID)
	if err != nil {
		bestEffortSave(snap)
		return &engine.Stats, fmt.Errorf("pull: %w", err)
	}

	engine.HandleDeletions(ctx, visited)

	if err := snap.Save(); err != nil {
		return &engine.Stats, err
	}
	return &engine.Stats, nil
}
