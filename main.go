// Package main is the entry point for the streamauth CLI application.
// It signs a user in to a streaming platform with the OAuth implicit grant
// and keeps the session in the OS keychain.
package main

import (
	"streamauth/cli/cmd"
)

// main is the entry point for the streamauth CLI application.
func main() {
	cmd.Execute()
}
