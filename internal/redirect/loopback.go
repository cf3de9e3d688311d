package redirect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"streamauth/cli/internal/logging"
)

// LoopbackAgent receives the redirect on a local HTTP listener.
// The redirect URI http://localhost:<port> must be registered with the provider.
type LoopbackAgent struct {
	port int
	open func(string) error
	log  *zap.Logger
}

// LoopbackOption customizes a LoopbackAgent.
type LoopbackOption func(*LoopbackAgent)

// WithOpener replaces the browser launcher.
func WithOpener(open func(string) error) LoopbackOption {
	return func(a *LoopbackAgent) { a.open = open }
}

// NewLoopbackAgent creates an agent listening on 127.0.0.1:port while a flow runs.
func NewLoopbackAgent(port int, log *zap.Logger, opts ...LoopbackOption) *LoopbackAgent {
	a := &LoopbackAgent{port: port, open: OpenBrowser, log: log.Named("redirect")}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RedirectURI returns the URI the provider must redirect to.
func (a *LoopbackAgent) RedirectURI() string {
	return "http://localhost:" + strconv.Itoa(a.port)
}

// Authorize opens authURL in the browser and blocks until the first redirect
// result arrives or ctx ends. A cancelled ctx yields a Cancel result, not an
// error; errors are reserved for failing to listen.
func (a *LoopbackAgent) Authorize(ctx context.Context, authURL string) (Result, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(a.port)))
	if err != nil {
		return Result{}, fmt.Errorf("listen for redirect: %w", err)
	}

	results := make(chan Result, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		_ = renderPage(w, pageData{Title: "Completing sign-in", Message: "One moment...", Relay: true})
	})
	mux.HandleFunc("GET /complete", func(w http.ResponseWriter, r *http.Request) {
		res := parseResult(r.URL.Query())
		a.log.Debug("redirect received", zap.String("type", string(res.Type)), zap.String("query", logging.Mask(r.URL.RawQuery)))

		w.Header().Set("Cache-Control", "no-store")
		// provider redirects always echo state; anything else is a stray request
		if res.Type == Error && res.Params.State == "" {
			a.log.Debug("redirect ignored: no state")
			w.WriteHeader(http.StatusBadRequest)
			_ = renderPage(w, pageData{Title: "Sign-in not completed", Message: "This request does not belong to a running sign-in."})
			return
		}

		select {
		case results <- res:
		default:
			// a result was already delivered
		}

		if res.Type == Success {
			_ = renderPage(w, pageData{Title: "Signed in", Message: "You can close this window and return to the terminal."})
			return
		}
		_ = renderPage(w, pageData{Title: "Sign-in not completed", Message: "Return to the terminal for details."})
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn("redirect listener stopped", logging.Err(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := a.open(authURL); err != nil {
		a.log.Warn("could not open browser", logging.Err(err))
	}

	select {
	case res := <-results:
		return res, nil
	case <-ctx.Done():
		a.log.Debug("authorization abandoned", zap.Error(ctx.Err()))
		return Result{Type: Cancel}, nil
	}
}

func parseResult(q url.Values) Result {
	p := Params{
		AccessToken:      q.Get("access_token"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}
	switch {
	case p.Error != "":
		return Result{Type: Error, Params: p}
	case p.AccessToken == "":
		p.Error = "invalid_request"
		p.ErrorDescription = "redirect carried neither a token nor an error"
		return Result{Type: Error, Params: p}
	default:
		return Result{Type: Success, Params: p}
	}
}
