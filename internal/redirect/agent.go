// Package redirect implements the redirect-capable authorization agent.
//
// An agent opens an authorization URL in the user's browser and waits for the
// provider to redirect back with a terminal result. For the implicit grant the
// token arrives in the URL fragment, which browsers never send to a server, so
// the loopback agent serves a small relay page that forwards the fragment to
// the local listener as query parameters.
package redirect

// ResultType is the terminal outcome of an authorization redirect.
type ResultType string

const (
	Success ResultType = "success"
	Error   ResultType = "error"
	Cancel  ResultType = "cancel"
)

// Params are the parameters the provider attached to the redirect.
type Params struct {
	AccessToken      string
	State            string
	Error            string
	ErrorDescription string
}

// Result is what the agent returns once the redirect round-trip ends.
type Result struct {
	Type   ResultType
	Params Params
}
