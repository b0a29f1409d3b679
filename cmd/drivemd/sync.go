package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drivemd/drivemd/internal/sync"
)

func init() {
	rootCmd.AddCommand(newSyncCmd())
}

func newSyncCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull remote changes, then push local ones",
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
			if err != nil {
				if stats != nil {
					printSummary(*stats)
				}
				return err
			}

			ignore := sync.NewIgnoreList(ws.Root)
			uploader := sync.NewUploader(remote, ws, snap, ignore)
			if _, err := uploader.UploadAll(cmd.Context()); err != nil {
				return fmt.Errorf("push: %w", err)
			}

			stats.Uploaded = uploader.Stats.Uploaded
			stats.Errors += uploader.Stats.Errors
			if !stats.HasChanges() && stats.Errors == 0 {
				fmt.Println(green("Everything in sync."))
			}
			printSummary(*stats)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "clear the snapshot first and re-download everything")
	return cmd
}
