package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/drivemd/drivemd/internal/sync"
	"github.com/drivemd/drivemd/internal/workspace"
)

func init() {
	rootCmd.AddCommand(newInitCmd())
}

func newInitCmd() *cobra.Command {
	var folderID string
	var dir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a directory as a sync root for a remote folder and run a first pull",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if folderID == "" {
				return errors.New("init: --folder-id is required")
			}

			if dir == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return err
				}
				dir = cwd
			}

			ws, err := workspace.New(dir)
			if err != nil {
				return err
			}
			if ws.Initialized() {
				return fmt.Errorf("init: %s is already a drivemd workspace", ws.Root)
			}
			if err := ws.Lock(); err != nil {
				return err
			}
			defer ws.Unlock()

			remote, err := buildRemote()
			if err != nil {
				return err
			}

			// resolve and record the remote root identity
			folder, err := remote.GetFile(cmd.Context(), folderID)
			if err != nil {
				return fmt.Errorf("init: resolve folder: %w", err)
			}
			display, err := remote.FolderPath(cmd.Context(), folderID)
			if err != nil {
				display = folder.Name
			}

			snap := sync.OpenSnapshot(ws.SnapshotPath)
			snap.SetRootFolder(folder.ID, folder.Name, display)

			stats, err := runPull(cmd.Context(), ws, snap, remote, false)
			if stats != nil {
				printSummary(*stats)
			}
			if err != nil {
				return err
			}

			fmt.Println(green("Initialized " + ws.Root + " against " + display))
			return nil
		},
	}

	cmd.Flags().StringVar(&folderID, "folder-id", "", "remote folder id to mirror")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "local directory to initialize (default: current directory)")
	return cmd
}
