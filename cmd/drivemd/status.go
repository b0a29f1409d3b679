package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/drivemd/drivemd/internal/sync"
)

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pending remote and local changes without syncing",
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

			ignore := sync.NewIgnoreList(ws.Root)
			report, err := sync.CollectStatus(cmd.Context(), remote, ws, snap, ignore)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}

			printStatus(report)
			return nil
		},
	}
}

func printStatus(report *sync.StatusReport) {
	fmt.Println(cyan("Sync status: " + report.RootFolder))

	if report.InSync() {
		fmt.Println(green("Everything in sync."))
		return
	}

	fmt.Printf("  remote new:     %d\n", len(report.RemoteNew))
	fmt.Printf("  remote changed: %d\n", len(report.RemoteChanged))
	fmt.Printf("  remote deleted: %d\n", len(report.RemoteDeleted))
	fmt.Printf("  local new .md:  %d\n", len(report.LocalUntracked))

	var pending uint64
	for _, entry := range report.RemoteNew {
		pending += uint64(entry.Size)
	}
	for _, entry := range report.RemoteChanged {
		pending += uint64(entry.Size)
	}
	if pending > 0 {
		fmt.Printf("  pending fetch:  %s\n", humanize.Bytes(pending))
	}

	if len(report.LocalUntracked) > 0 {
		fmt.Println("\nLocal files to upload:")
		for _, path := range report.LocalUntracked {
			fmt.Println("  - " + path)
		}
	}
}
