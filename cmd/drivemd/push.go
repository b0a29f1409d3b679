package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drivemd/drivemd/internal/sync"
)

func init() {
	rootCmd.AddCommand(newPushCmd())
}

func newPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload untracked local Markdown files as new remote documents",
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
			uploader := sync.NewUploader(remote, ws, snap, ignore)
			uploaded, err := uploader.UploadAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("push: %w", err)
			}

			if len(uploaded) == 0 {
				fmt.Println("No new markdown files to upload.")
			} else {
				fmt.Println(green(fmt.Sprintf("Uploaded %d file(s).", len(uploaded))))
			}
			if uploader.Stats.Errors > 0 {
				fmt.Println(red(fmt.Sprintf("%d upload(s) failed.", uploader.Stats.Errors)))
			}
			return nil
		},
	}
}
