// Copyright (c) 2025 Streamauth
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"streamauth/cli/internal/redirect"
	"streamauth/cli/internal/terminal"
)

// loginTimeout bounds one browser round-trip.
const loginTimeout = 5 * time.Minute

var forceLogin bool

// loginCmd signs the user in through the browser.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Sign in via the browser",
	Long: `The login command opens the provider's authorization page in your browser and
waits for the redirect on a local port. The returned token is checked against
the request, exchanged for your profile and stored in the OS keychain.

If a session is already stored the command does nothing unless --force is given.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		var spinner *pterm.SpinnerPrinter
		a, err := newApp(func(authURL string) error {
			fmt.Println("Open this link to complete login:")
			fmt.Printf("%s\n\n", authURL)
			// the link is printed either way
			openErr := redirect.OpenBrowser(authURL)
			if terminal.Interactive(os.Stdout) {
				spinner, _ = pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Waiting for authorization in the browser")
			} else {
				fmt.Println("Waiting for authorization in the browser...")
			}
			return openErr
		})
		if err != nil {
			return err
		}
		defer a.close()

		if a.session.Bootstrap() && !forceLogin {
			fmt.Printf("Already logged in as %s\n", displayName(a.session.Profile()))
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
		defer cancel()

		err = a.session.SignIn(ctx)
		if spinner != nil {
			_ = spinner.Stop()
		}
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				pterm.Error.Println("Login timed out.")
				return &reportedError{err}
			}
			return a.report("signing in", err)
		}

		fmt.Println(loginGreeting(displayName(a.session.Profile())))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().BoolVar(&forceLogin, "force", false, "Sign in again even when a session is stored")
}

// loginGreeting returns a random greeting phrase with the user's name.
func loginGreeting(name string) string {
	greetings := []string{
		"🎉 Welcome back, %s!",
		"✨ Great to see you, %s!",
		"🚀 You're all set, %s!",
		"💫 Successfully authenticated as %s",
		"⚡ Logged in as %s - let's go!",
		"🔓 Access granted! Welcome %s!",
	}
	return fmt.Sprintf(greetings[rand.IntN(len(greetings))], name)
}
