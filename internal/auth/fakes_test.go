package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/99designs/keyring"
	"go.uber.org/zap"

	"streamauth/cli/internal/backend"
	"streamauth/cli/internal/keychain"
	"streamauth/cli/internal/redirect"
)

const testClientID = "client-123"

// fakeAgent stands in for the browser round-trip.
type fakeAgent struct {
	mu      sync.Mutex
	calls   int
	urls    []string
	respond func(authURL string) (redirect.Result, error)

	// when set, Authorize signals entered and blocks until release is closed
	entered chan struct{}
	release chan struct{}
}

func (a *fakeAgent) RedirectURI() string { return "http://localhost:3000" }

func (a *fakeAgent) Authorize(ctx context.Context, authURL string) (redirect.Result, error) {
	a.mu.Lock()
	a.calls++
	a.urls = append(a.urls, authURL)
	a.mu.Unlock()

	if a.release != nil {
		close(a.entered)
		<-a.release
	}
	return a.respond(authURL)
}

func (a *fakeAgent) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// success answers with token T and the state copied from the URL.
func echoState(token string) func(string) (redirect.Result, error) {
	return func(authURL string) (redirect.Result, error) {
		return redirect.Result{Type: redirect.Success, Params: redirect.Params{
			AccessToken: token,
			State:       stateOf(authURL),
		}}, nil
	}
}

func fixed(res redirect.Result, err error) func(string) (redirect.Result, error) {
	return func(string) (redirect.Result, error) { return res, err }
}

// fakeAPI is an in-memory backend.API.
type fakeAPI struct {
	mu         sync.Mutex
	headers    http.Header
	users      []backend.User
	usersErr   error
	userTokens []string
	revokeErr  error
	revoked    []string

	revokeEntered chan struct{}
	revokeRelease chan struct{}
}

var _ backend.API = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		headers: make(http.Header),
		users:   []backend.User{{ID: "1", DisplayName: "a", Email: "a@x.com", ProfileImageURL: "u"}},
	}
}

func (f *fakeAPI) SetHeader(k, v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.headers.Set(k, v)
}

func (f *fakeAPI) DelHeader(k string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.headers.Del(k)
}

func (f *fakeAPI) Header(k string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headers.Get(k)
}

func (f *fakeAPI) GetUsers(ctx context.Context, token string) ([]backend.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userTokens = append(f.userTokens, token)
	return f.users, f.usersErr
}

func (f *fakeAPI) Revoke(ctx context.Context, token, clientID string) error {
	if f.revokeRelease != nil {
		close(f.revokeEntered)
		<-f.revokeRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, token+"/"+clientID)
	return f.revokeErr
}

// failingKV fails the configured operations.
type failingKV struct {
	KV
	getErr, setErr, removeErr error
}

func (k failingKV) Get(key string) ([]byte, error) {
	if k.getErr != nil {
		return nil, k.getErr
	}
	return k.KV.Get(key)
}

func (k failingKV) Set(key string, v []byte) error {
	if k.setErr != nil {
		return k.setErr
	}
	return k.KV.Set(key, v)
}

func (k failingKV) Remove(key string) error {
	if k.removeErr != nil {
		return k.removeErr
	}
	return k.KV.Remove(key)
}

var errBoom = errors.New("boom")

func newKV() *keychain.Manager {
	return keychain.New(keyring.NewArrayKeyring(nil))
}

type harness struct {
	m     *Manager
	agent *fakeAgent
	api   *fakeAPI
	kv    KV
	store *Store
	flow  *Flow
}

func newHarness(t *testing.T, respond func(string) (redirect.Result, error)) *harness {
	t.Helper()
	return newHarnessWith(t, respond, newFakeAPI(), newKV())
}

func newHarnessWith(t *testing.T, respond func(string) (redirect.Result, error), api *fakeAPI, kv KV) *harness {
	t.Helper()
	log := zap.NewNop()
	agent := &fakeAgent{respond: respond}
	flow := NewFlow(testClientID, "https://id.twitch.tv/oauth2/authorize", []string{"openid", "user:read:email"}, agent, log)
	store := NewStore(kv, log)
	return &harness{
		m:     NewManager(testClientID, flow, api, store, log),
		agent: agent,
		api:   api,
		kv:    kv,
		store: store,
		flow:  flow,
	}
}

// blockingKV pauses Get or Remove until released. A nil channel pair leaves
// the operation unblocked.
type blockingKV struct {
	KV
	getEntered, getRelease       chan struct{}
	removeEntered, removeRelease chan struct{}
}

func (k blockingKV) Get(key string) ([]byte, error) {
	if k.getRelease != nil {
		close(k.getEntered)
		<-k.getRelease
	}
	return k.KV.Get(key)
}

func (k blockingKV) Remove(key string) error {
	if k.removeRelease != nil {
		close(k.removeEntered)
		<-k.removeRelease
	}
	return k.KV.Remove(key)
}
