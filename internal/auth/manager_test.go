package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"streamauth/cli/internal/backend"
	autherr "streamauth/cli/internal/errors"
	"streamauth/cli/internal/redirect"
)

func TestSignInSuccessAgainstHTTPBackend(t *testing.T) {
	var gotAuth, gotClientID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotClientID = r.Header.Get("Client-Id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":1,"display_name":"a","email":"a@x.com","profile_image_url":"u"}]}`))
	}))
	defer srv.Close()

	log := zap.NewNop()
	api := backend.New(srv.URL, srv.URL+"/revoke")
	agent := &fakeAgent{respond: echoState("T")}
	flow := NewFlow(testClientID, "https://id.twitch.tv/oauth2/authorize", []string{"openid"}, agent, log)
	kv := newKV()
	m := NewManager(testClientID, flow, api, NewStore(kv, log), log)
	assert.False(t, m.Bootstrap())

	require.NoError(t, m.SignIn(context.Background()))

	want := Session{Profile: Profile{ID: "1", DisplayName: "a", Email: "a@x.com", AvatarURL: "u"}, AccessToken: "T"}
	got, ok := m.Session()
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Session() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Bearer T", api.Header(backend.HeaderAuthorization))
	assert.Equal(t, "Bearer T", gotAuth)
	assert.Equal(t, testClientID, gotClientID)

	stored, ok := NewStore(kv, log).Load()
	require.True(t, ok)
	assert.Equal(t, want, stored)
}

func TestSignInStateMismatch(t *testing.T) {
	h := newHarness(t, fixed(redirect.Result{Type: redirect.Success, Params: redirect.Params{State: "Y", AccessToken: "T"}}, nil))
	h.flow.nonce = func() (string, error) { return "X", nil }

	err := h.m.SignIn(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, autherr.ErrInvalidState)
	assert.ErrorIs(t, err, autherr.ErrAuthenticationFailed)

	_, ok := h.m.Session()
	assert.False(t, ok)
	assert.True(t, h.m.Profile().IsZero())
	assert.Empty(t, h.api.Header(backend.HeaderAuthorization))
	assert.Empty(t, h.api.userTokens, "profile must not be fetched for an unvalidated token")
	_, ok = h.store.Load()
	assert.False(t, ok)
	assert.False(t, h.m.IsSigningIn())
}

func TestSignInRejections(t *testing.T) {
	tests := []struct {
		name    string
		respond func(string) (redirect.Result, error)
		setup   func(*fakeAPI)
		wantErr error
	}{
		{
			name:    "user denied",
			respond: fixed(redirect.Result{Type: redirect.Error, Params: redirect.Params{Error: "access_denied"}}, nil),
			wantErr: autherr.ErrAuthorizationDenied,
		},
		{
			name:    "cancelled",
			respond: fixed(redirect.Result{Type: redirect.Cancel}, nil),
			wantErr: autherr.ErrAuthorizationDenied,
		},
		{
			name:    "agent failure",
			respond: fixed(redirect.Result{}, errBoom),
			wantErr: errBoom,
		},
		{
			name:    "empty profile list",
			respond: echoState("T"),
			setup:   func(a *fakeAPI) { a.users = nil },
			wantErr: autherr.ErrProfileFetch,
		},
		{
			name:    "profile request failed",
			respond: echoState("T"),
			setup:   func(a *fakeAPI) { a.usersErr = errBoom },
			wantErr: autherr.ErrProfileFetch,
		},
		{
			name:    "profile without id",
			respond: echoState("T"),
			setup:   func(a *fakeAPI) { a.users = []backend.User{{DisplayName: "a"}} },
			wantErr: autherr.ErrProfileFetch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			if tt.setup != nil {
				tt.setup(api)
			}
			h := newHarnessWith(t, tt.respond, api, newKV())

			err := h.m.SignIn(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, autherr.ErrAuthenticationFailed)
			assert.ErrorIs(t, err, tt.wantErr)

			_, ok := h.m.Session()
			assert.False(t, ok)
			assert.Empty(t, h.api.Header(backend.HeaderAuthorization))
			_, ok = h.store.Load()
			assert.False(t, ok)
		})
	}
}

func TestSignInFailureKeepsPreviousSession(t *testing.T) {
	h := newHarness(t, echoState("T"))
	require.NoError(t, h.m.SignIn(context.Background()))
	before, _ := h.m.Session()

	h.agent.respond = fixed(redirect.Result{Type: redirect.Error, Params: redirect.Params{Error: "access_denied"}}, nil)
	for i := 0; i < 2; i++ {
		require.Error(t, h.m.SignIn(context.Background()))

		after, ok := h.m.Session()
		require.True(t, ok)
		assert.Equal(t, before, after)
		assert.Equal(t, "Bearer T", h.api.Header(backend.HeaderAuthorization))
		stored, ok := h.store.Load()
		require.True(t, ok)
		assert.Equal(t, before, stored)
	}
}

func TestSignInStoreWriteFailureStillCommits(t *testing.T) {
	h := newHarnessWith(t, echoState("T"), newFakeAPI(), failingKV{KV: newKV(), setErr: errBoom})

	require.NoError(t, h.m.SignIn(context.Background()))
	sess, ok := h.m.Session()
	require.True(t, ok)
	assert.Equal(t, "T", sess.AccessToken)
	assert.Equal(t, "Bearer T", h.api.Header(backend.HeaderAuthorization))
}

func TestSignInRejectsConcurrentOperations(t *testing.T) {
	h := newHarness(t, echoState("T"))
	h.agent.entered = make(chan struct{})
	h.agent.release = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- h.m.SignIn(context.Background()) }()
	<-h.agent.entered

	assert.True(t, h.m.IsSigningIn())
	assert.True(t, h.m.State().SigningIn)
	assert.ErrorIs(t, h.m.SignIn(context.Background()), autherr.ErrAlreadyInProgress)
	assert.ErrorIs(t, h.m.SignOut(context.Background()), autherr.ErrAlreadyInProgress)

	close(h.agent.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.agent.Calls())
	assert.False(t, h.m.IsSigningIn())
	assert.True(t, h.m.State().IsLoggedIn())
}

func TestSignOutClearsEverything(t *testing.T) {
	h := newHarness(t, echoState("T"))
	require.NoError(t, h.m.SignIn(context.Background()))

	require.NoError(t, h.m.SignOut(context.Background()))

	_, ok := h.m.Session()
	assert.False(t, ok)
	assert.True(t, h.m.Profile().IsZero())
	assert.Empty(t, h.api.Header(backend.HeaderAuthorization))
	_, ok = h.store.Load()
	assert.False(t, ok)
	assert.Equal(t, []string{"T/" + testClientID}, h.api.revoked)
	assert.False(t, h.m.IsSigningOut())
}

func TestSignOutRevokeFailureStillClears(t *testing.T) {
	api := newFakeAPI()
	api.revokeErr = errBoom
	h := newHarnessWith(t, echoState("T"), api, newKV())
	require.NoError(t, h.m.SignIn(context.Background()))

	require.NoError(t, h.m.SignOut(context.Background()))

	_, ok := h.m.Session()
	assert.False(t, ok)
	assert.Empty(t, h.api.Header(backend.HeaderAuthorization))
	_, ok = h.store.Load()
	assert.False(t, ok)
}

func TestSignOutStoreFailureStillClearsMemory(t *testing.T) {
	kv := newKV()
	h := newHarnessWith(t, echoState("T"), newFakeAPI(), failingKV{KV: kv, removeErr: errBoom})
	require.NoError(t, h.m.SignIn(context.Background()))

	require.NoError(t, h.m.SignOut(context.Background()))
	_, ok := h.m.Session()
	assert.False(t, ok)
	assert.Empty(t, h.api.Header(backend.HeaderAuthorization))
}

func TestSignOutWithoutSessionSkipsRevoke(t *testing.T) {
	h := newHarness(t, echoState("T"))
	require.NoError(t, h.m.SignOut(context.Background()))
	assert.Empty(t, h.api.revoked)
}

func TestSignInRejectedDuringSignOut(t *testing.T) {
	api := newFakeAPI()
	h := newHarnessWith(t, echoState("T"), api, newKV())
	require.NoError(t, h.m.SignIn(context.Background()))

	api.revokeEntered = make(chan struct{})
	api.revokeRelease = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- h.m.SignOut(context.Background()) }()
	<-api.revokeEntered

	assert.True(t, h.m.IsSigningOut())
	assert.ErrorIs(t, h.m.SignIn(context.Background()), autherr.ErrAlreadyInProgress)
	assert.ErrorIs(t, h.m.SignOut(context.Background()), autherr.ErrAlreadyInProgress)
	assert.Equal(t, 1, h.agent.Calls())

	close(api.revokeRelease)
	require.NoError(t, <-done)
	assert.False(t, h.m.IsSigningOut())
}

func TestBootstrapRestoresPersistedSession(t *testing.T) {
	kv := newKV()
	first := newHarnessWith(t, echoState("T"), newFakeAPI(), kv)
	require.NoError(t, first.m.SignIn(context.Background()))
	want, _ := first.m.Session()

	second := newHarnessWith(t, echoState("other"), newFakeAPI(), kv)
	require.True(t, second.m.Bootstrap())

	got, ok := second.m.Session()
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, "Bearer T", second.api.Header(backend.HeaderAuthorization))
	assert.Equal(t, testClientID, second.api.Header(backend.HeaderClientID))
	assert.Zero(t, second.agent.Calls())
	assert.Empty(t, second.api.userTokens)
}

func TestBootstrapWithoutRecord(t *testing.T) {
	h := newHarness(t, echoState("T"))
	assert.False(t, h.m.Bootstrap())
	assert.Equal(t, testClientID, h.api.Header(backend.HeaderClientID))
	assert.Empty(t, h.api.Header(backend.HeaderAuthorization))
	assert.False(t, h.m.State().IsLoggedIn())
}

func TestBootstrapCorruptRecord(t *testing.T) {
	kv := newKV()
	require.NoError(t, kv.Set(SessionKey, []byte("{not json")))
	h := newHarnessWith(t, echoState("T"), newFakeAPI(), kv)

	assert.False(t, h.m.Bootstrap())
	_, ok := h.m.Session()
	assert.False(t, ok)
	assert.Empty(t, h.api.Header(backend.HeaderAuthorization))
}

func TestVerify(t *testing.T) {
	h := newHarness(t, echoState("T"))
	_, err := h.m.Verify(context.Background())
	assert.ErrorIs(t, err, ErrNotSignedIn)

	require.NoError(t, h.m.SignIn(context.Background()))
	h.api.users = []backend.User{{ID: "1", DisplayName: "renamed"}}

	p, err := h.m.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "renamed", p.DisplayName)
	assert.Equal(t, "a", h.m.Profile().DisplayName, "Verify does not change the session")
	assert.Equal(t, []string{"T", "T"}, h.api.userTokens)
}

func TestBootstrapDuringSignOutDoesNotRestore(t *testing.T) {
	kv := blockingKV{KV: newKV()}
	h := newHarnessWith(t, echoState("T"), newFakeAPI(), kv)
	require.NoError(t, h.m.SignIn(context.Background()))

	// block the record removal only after sign-in has persisted it
	kv.removeEntered = make(chan struct{})
	kv.removeRelease = make(chan struct{})
	h.m.store = NewStore(kv, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- h.m.SignOut(context.Background()) }()
	<-kv.removeEntered

	assert.False(t, h.m.Bootstrap(), "bootstrap must not run while signing out")

	close(kv.removeRelease)
	require.NoError(t, <-done)

	_, ok := h.m.Session()
	assert.False(t, ok)
	assert.Empty(t, h.api.Header(backend.HeaderAuthorization))
	_, ok = h.m.store.Load()
	assert.False(t, ok)
}

func TestBootstrapKeepsNewerUnpersistedSession(t *testing.T) {
	base := newKV()
	require.NoError(t, NewStore(base, zap.NewNop()).Save(Session{
		Profile:     Profile{ID: "1", DisplayName: "old"},
		AccessToken: "OLD",
	}))

	kv := blockingKV{
		KV:         failingKV{KV: base, setErr: errBoom},
		getEntered: make(chan struct{}),
		getRelease: make(chan struct{}),
	}
	h := newHarnessWith(t, echoState("T"), newFakeAPI(), kv)

	restored := make(chan bool, 1)
	go func() { restored <- h.m.Bootstrap() }()
	<-kv.getEntered

	require.NoError(t, h.m.SignIn(context.Background()))
	close(kv.getRelease)

	assert.False(t, <-restored)
	sess, ok := h.m.Session()
	require.True(t, ok)
	assert.Equal(t, "T", sess.AccessToken)
	assert.Equal(t, "Bearer T", h.api.Header(backend.HeaderAuthorization))
}

func TestBootstrapDoesNotReplaceActiveSession(t *testing.T) {
	kv := newKV()
	require.NoError(t, NewStore(kv, zap.NewNop()).Save(Session{Profile: Profile{ID: "9"}, AccessToken: "OLD"}))
	h := newHarnessWith(t, echoState("T"), newFakeAPI(), failingKV{KV: kv, setErr: errBoom})
	require.NoError(t, h.m.SignIn(context.Background()))

	assert.False(t, h.m.Bootstrap())
	sess, _ := h.m.Session()
	assert.Equal(t, "T", sess.AccessToken)
	assert.Equal(t, "Bearer T", h.api.Header(backend.HeaderAuthorization))
}
