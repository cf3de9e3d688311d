// Copyright (c) 2025 Streamauth
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/pterm/pterm"
	"go.uber.org/zap"

	"streamauth/cli/internal/auth"
	"streamauth/cli/internal/backend"
	"streamauth/cli/internal/config"
	autherr "streamauth/cli/internal/errors"
	"streamauth/cli/internal/httperrors"
	"streamauth/cli/internal/keychain"
	"streamauth/cli/internal/logging"
	"streamauth/cli/internal/redirect"
)

// app holds the wired collaborators for one command invocation.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	session *auth.Manager
}

// newApp loads configuration and wires the session manager. open is called
// with the authorization URL when a sign-in starts.
func newApp(open func(string) error) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logging.New(logging.Options{Level: level, Format: cfg.LogFormat})
	if err != nil {
		return nil, err
	}

	kv, err := keychain.Open(keychain.Options{Backend: cfg.KeyringBackend, Password: cfg.KeyringPassword})
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	api := backend.New(cfg.APIURL, cfg.RevokeURL)
	var opts []redirect.LoopbackOption
	if open != nil {
		opts = append(opts, redirect.WithOpener(open))
	}
	agent := redirect.NewLoopbackAgent(cfg.RedirectPort, log, opts...)
	flow := auth.NewFlow(cfg.ClientID, cfg.AuthorizeURL, cfg.Scopes, agent, log)
	session := auth.NewManager(cfg.ClientID, flow, api, auth.NewStore(kv, log), log)

	return &app{cfg: cfg, log: log, session: session}, nil
}

func (a *app) close() { _ = a.log.Sync() }

// reportedError marks an error whose explanation was already shown to the user.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// exitMessage returns what Execute prints for err: nothing when the command
// already reported it, the masked error text otherwise.
func exitMessage(err error) string {
	var r *reportedError
	if errors.As(err, &r) {
		return ""
	}
	return logging.Mask(err.Error())
}

// report prints a user-facing explanation of err and returns it marked as reported.
func (a *app) report(action string, err error) error {
	var uerr *url.Error
	switch {
	case errors.Is(err, autherr.ErrAlreadyInProgress):
		pterm.Warning.Println("Another sign-in or sign-out is already running.")
	case errors.Is(err, autherr.ErrInvalidState):
		pterm.Error.Println("The authorization response could not be verified. Please try again.")
	case errors.Is(err, autherr.ErrAuthorizationDenied):
		pterm.Error.Println("Authorization was denied or cancelled in the browser.")
	case errors.As(err, &uerr):
		return &reportedError{httperrors.FormatNetworkError(err, action, uerr.URL)}
	default:
		pterm.Error.Println(logging.PresentError(action, err))
	}
	return &reportedError{err}
}

func displayName(p auth.Profile) string {
	switch {
	case p.DisplayName != "":
		return p.DisplayName
	case p.Email != "":
		return p.Email
	}
	return p.ID
}

func printNotLoggedIn() {
	fmt.Println("🔒 You're not logged in yet!")
	fmt.Println("   Run 'streamauth login' to get started.")
}
