// Copyright (c) 2025 Streamauth
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors provides user-friendly rendering of network failures.
package httperrors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	"streamauth/cli/internal/terminal"
)

// Class is a coarse category of network failure.
type Class int

const (
	Generic Class = iota
	Timeout
	DNS
	ConnectionRefused
	TLS
	Server
)

type guidance struct {
	headline string
	hints    []string
}

var guide = map[Class]guidance{
	Timeout: {"⏱️  Connection timeout while %[1]s", []string{
		"Slow internet connection",
		"The provider is under heavy load",
		"A firewall is blocking the connection",
	}},
	DNS: {"🌐 Cannot resolve %[2]s while %[1]s", []string{
		"Your internet connection is working",
		"DNS settings are correct",
		"No DNS-level blocking (corporate firewall, parental controls)",
	}},
	ConnectionRefused: {"🚫 Connection refused while %[1]s", []string{
		"The service is temporarily down",
		"A firewall is blocking the connection",
		"STREAMAUTH_API_URL or STREAMAUTH_REVOKE_URL points to the wrong address",
	}},
	TLS: {"🔒 Secure connection failed while %[1]s", []string{
		"Check your system date and time",
		"Verify network proxy settings",
	}},
	Server: {"⚠️  Server error while %[1]s", []string{
		"The provider reported an internal error",
		"Please try again in a few minutes",
	}},
	Generic: {"❌ Cannot reach %[2]s while %[1]s", []string{
		"Your internet connection",
		"Firewall settings that might block HTTPS requests",
	}},
}

// Classify maps err to a failure class.
func Classify(err error) Class {
	var dnsErr *net.DNSError
	var netErr net.Error
	lower := strings.ToLower(err.Error())

	switch {
	case errors.As(err, &dnsErr):
		return DNS
	case errors.As(err, &netErr) && netErr.Timeout(),
		strings.Contains(lower, "timeout"),
		strings.Contains(lower, "deadline exceeded"):
		return Timeout
	case errors.Is(err, syscall.ECONNREFUSED), strings.Contains(lower, "connection refused"):
		return ConnectionRefused
	case strings.Contains(lower, "tls"),
		strings.Contains(lower, "x509"),
		strings.Contains(lower, "certificate"),
		strings.Contains(lower, "handshake"):
		return TLS
	case isServerError(lower):
		return Server
	}
	return Generic
}

func isServerError(lower string) bool {
	for _, s := range []string{"500", "502", "503", "504", "internal server error", "bad gateway", "service unavailable"} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// FormatNetworkError prints guidance for err and returns it wrapped.
// action describes what was being done ("signing in"); target is the URL
// that was contacted.
func FormatNetworkError(err error, action, target string) error {
	if err == nil {
		return nil
	}

	g := guide[Classify(err)]
	pterm.Printf(g.headline+"\n", action, ExtractHostFromURL(target))
	pterm.Println()
	pterm.Println("Please check:")
	for _, h := range g.hints {
		pterm.Println("  • " + h)
	}
	pterm.Println()

	const label = "Technical details: "
	details := err.Error()
	if limit := terminal.Width(os.Stdout) - len(label) - 3; limit > 0 && len(details) > limit {
		details = details[:limit] + "..."
	}
	pterm.Debug.Printf(label+"%s\n", details)

	return fmt.Errorf("network error: %w", err)
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
