package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drivemd/drivemd/internal/utils"
)

func init() {
	rootCmd.AddCommand(newSetupCmd())
}

func newSetupCmd() *cobra.Command {
	var credentialsFile string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Install OAuth client credentials into the config root",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			src := credentialsFile
			if src == "" {
				// default to a credentials.json next to the user
				src = "credentials.json"
			}
			if !utils.FileExists(src) {
				return errors.New("setup: provide the OAuth client credentials JSON with --credentials-file")
			}

			root, err := configRoot()
			if err != nil {
				return err
			}
			if err := root.InstallCredentials(src); err != nil {
				return err
			}
			if err := root.ClearToken(); err != nil {
				return err
			}

			fmt.Println(green("Credentials stored at " + root.CredentialsPath() + ". Token cache cleared."))
			return nil
		},
	}

	cmd.Flags().StringVarP(&credentialsFile, "credentials-file", "c", "", "path to OAuth client credentials JSON")
	return cmd
}
