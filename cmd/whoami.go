package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var refreshProfile bool

// whoamiCmd shows the stored account.
var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Aliases: []string{"me"},
	Short:   "Show current authenticated account",
	Long: `The whoami command displays the account of the stored session.
With --refresh the profile is fetched again from the provider, which also
verifies that the stored token is still accepted.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		defer a.close()

		if !a.session.Bootstrap() {
			printNotLoggedIn()
			return nil
		}

		p := a.session.Profile()
		if refreshProfile {
			p, err = a.session.Verify(cmd.Context())
			if err != nil {
				pterm.Warning.Println("The stored session was not accepted by the provider. Run 'streamauth login --force'.")
				return a.report("fetching your profile", err)
			}
		}

		fmt.Printf("👤 Current user: %s\n", displayName(p))
		if verbose {
			pterm.Printf("   id: %s\n", p.ID)
			if p.Email != "" {
				pterm.Printf("   email: %s\n", p.Email)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
	whoamiCmd.Flags().BoolVar(&refreshProfile, "refresh", false, "Fetch the profile again from the provider")
}
