package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	autherr "streamauth/cli/internal/errors"
	"streamauth/cli/internal/logging"
	"streamauth/cli/internal/redirect"
)

// StateLength is the number of random characters in every state nonce.
const StateLength = 30

const stateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Redirector drives the browser round-trip for one authorization request.
type Redirector interface {
	// RedirectURI is the URI the provider redirects back to in this runtime.
	RedirectURI() string
	// Authorize blocks until the redirect produces a terminal result.
	Authorize(ctx context.Context, authURL string) (redirect.Result, error)
}

// FlowState is a state of the authorization flow.
type FlowState int

const (
	FlowIdle FlowState = iota
	FlowRequested
	FlowValidated
	FlowRejected
)

func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "idle"
	case FlowRequested:
		return "requested"
	case FlowValidated:
		return "validated"
	case FlowRejected:
		return "rejected"
	default:
		return fmt.Sprintf("FlowState(%d)", int(s))
	}
}

// PendingFlow lives for exactly one authorization round-trip and is never persisted.
type PendingFlow struct {
	State       string
	RedirectURI string
}

// Flow builds implicit-grant authorization requests and validates their responses.
type Flow struct {
	oauth oauth2.Config
	agent Redirector
	nonce func() (string, error)
	log   *zap.Logger
}

// NewFlow creates a Flow for the given client against authorizeURL.
func NewFlow(clientID, authorizeURL string, scopes []string, agent Redirector, log *zap.Logger) *Flow {
	return &Flow{
		oauth: oauth2.Config{
			ClientID: clientID,
			Endpoint: oauth2.Endpoint{AuthURL: authorizeURL},
			Scopes:   scopes,
		},
		agent: agent,
		nonce: func() (string, error) { return generateState(StateLength) },
		log:   log.Named("flow"),
	}
}

// AuthURL returns the authorization URL for p: client_id, redirect_uri,
// response_type=token, scope, force_verify=true and state.
func (f *Flow) AuthURL(p PendingFlow) string {
	cfg := f.oauth
	cfg.RedirectURL = p.RedirectURI
	return cfg.AuthCodeURL(p.State,
		oauth2.SetAuthURLParam("response_type", "token"),
		oauth2.SetAuthURLParam("force_verify", "true"),
	)
}

// Run performs one authorization round-trip and returns the validated access token.
// A fresh state nonce is generated for every call.
func (f *Flow) Run(ctx context.Context) (string, error) {
	log := f.log.With(zap.String("attempt", uuid.NewString()))
	log.Debug("authorization starting", zap.Stringer("flow", FlowIdle))

	state, err := f.nonce()
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	pending := PendingFlow{State: state, RedirectURI: f.agent.RedirectURI()}
	authURL := f.AuthURL(pending)
	log.Debug("authorization requested", zap.Stringer("flow", FlowRequested), zap.String("url", logging.Mask(authURL)))

	res, err := f.agent.Authorize(ctx, authURL)
	if err != nil {
		log.Debug("authorization failed", zap.Stringer("flow", FlowRejected), logging.Err(err))
		return "", fmt.Errorf("authorization redirect: %w", err)
	}

	token, err := Validate(pending, res)
	if err != nil {
		log.Info("authorization rejected", zap.Stringer("flow", FlowRejected), logging.Err(err))
		return "", err
	}
	log.Debug("authorization validated", zap.Stringer("flow", FlowValidated))
	return token, nil
}

// Validate decides the Requested -> {Validated, Rejected} transition.
// Any non-success result, any provider error and any state mismatch rejects
// the response; a token is only returned when all checks pass.
func Validate(p PendingFlow, res redirect.Result) (string, error) {
	if res.Type != redirect.Success {
		msg := string(res.Type)
		if res.Params.Error != "" {
			msg += ": " + res.Params.Error
		}
		return "", autherr.New(autherr.AuthorizationDenied, msg)
	}
	if res.Params.Error != "" {
		return "", autherr.New(autherr.AuthorizationDenied, res.Params.Error)
	}
	if p.State == "" || subtle.ConstantTimeCompare([]byte(p.State), []byte(res.Params.State)) != 1 {
		return "", autherr.New(autherr.InvalidState, "state parameter does not match the request")
	}
	if res.Params.AccessToken == "" {
		return "", autherr.New(autherr.AuthorizationDenied, "redirect carried no access token")
	}
	return res.Params.AccessToken, nil
}

// generateState returns n characters drawn uniformly from stateAlphabet.
func generateState(n int) (string, error) {
	size := big.NewInt(int64(len(stateAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		b[i] = stateAlphabet[idx.Int64()]
	}
	return string(b), nil
}
