// Copyright (c) 2025 Streamauth
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// logoutCmd revokes the stored token and removes the local session.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the token and remove the stored session",
	Long: `The logout command asks the provider to revoke the stored access token
(best-effort) and then removes the session from the OS keychain. Local
credentials are removed even when the provider cannot be reached.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		defer a.close()

		hadSession := a.session.Bootstrap()
		if err := a.session.SignOut(cmd.Context()); err != nil {
			return a.report("signing out", err)
		}

		if !hadSession {
			fmt.Println("No stored session; nothing to revoke")
			return nil
		}
		fmt.Println("✅ Signed out. Stored credentials have been removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
