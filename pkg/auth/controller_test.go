package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/tranquil/pkg/api"
	"tableflip.dev/tranquil/pkg/store"
)

type fakeBackend struct {
	signup    func(api.Credentials) (api.AuthResponse, error)
	login     func(api.Credentials) (api.AuthResponse, error)
	refresh   func(string) (api.AuthResponse, error)
	protected func(context.Context) (api.User, error)
	calls     int32
}

func (f *fakeBackend) Signup(_ context.Context, c api.Credentials) (api.AuthResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.signup(c)
}

func (f *fakeBackend) Login(_ context.Context, c api.Credentials) (api.AuthResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.login(c)
}

func (f *fakeBackend) Refresh(_ context.Context, t string) (api.AuthResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.refresh(t)
}

func (f *fakeBackend) Protected(ctx context.Context) (api.User, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.protected(ctx)
}

func token(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestInitWithoutTokenIsUnauthenticated(t *testing.T) {
	b := &fakeBackend{}
	c := New(b, store.NewMemory())
	assert.Equal(t, StateLoading, c.State())
	assert.Equal(t, StateUnauthenticated, c.Init(context.Background()))
	assert.Equal(t, int32(0), b.calls)
}

func TestInitResolvesUser(t *testing.T) {
	sessions := store.NewMemory()
	require.NoError(t, sessions.SetSession(store.Session{Token: token(t, "u1", time.Now().Add(time.Hour))}))
	b := &fakeBackend{protected: func(context.Context) (api.User, error) {
		return api.User{ID: "u1", Email: "a@example.com"}, nil
	}}

	c := New(b, sessions)
	var seen []State
	c.Subscribe(func(s State) { seen = append(seen, s) })

	assert.Equal(t, StateAuthenticated, c.Init(context.Background()))
	user, ok := c.User()
	assert.True(t, ok)
	assert.Equal(t, "a@example.com", user.Email)
	assert.Equal(t, []State{StateAuthenticated}, seen)

	cached, _ := sessions.Session()
	assert.Equal(t, "a@example.com", cached.Email)
}

func TestInitExpiredTokenSkipsNetwork(t *testing.T) {
	sessions := store.NewMemory()
	require.NoError(t, sessions.SetToken(token(t, "u1", time.Now().Add(-time.Minute))))
	b := &fakeBackend{}

	c := New(b, sessions)
	assert.Equal(t, StateUnauthenticated, c.Init(context.Background()))
	assert.Equal(t, int32(0), b.calls)
	_, ok := sessions.Token()
	assert.False(t, ok)
}

func TestInitNeverHangs(t *testing.T) {
	sessions := store.NewMemory()
	require.NoError(t, sessions.SetToken("opaque"))
	b := &fakeBackend{protected: func(ctx context.Context) (api.User, error) {
		<-ctx.Done()
		return api.User{}, ctx.Err()
	}}

	c := New(b, sessions, WithInitTimeout(20*time.Millisecond))
	done := make(chan State, 1)
	go func() { done <- c.Init(context.Background()) }()

	select {
	case s := <-done:
		assert.Equal(t, StateUnauthenticated, s)
	case <-time.After(2 * time.Second):
		t.Fatal("Init stuck in loading")
	}
	// A timeout is not proof the credential is bad.
	_, ok := sessions.Token()
	assert.True(t, ok)
}

func TestSignUpValidatesBeforeCalling(t *testing.T) {
	b := &fakeBackend{}
	c := New(b, store.NewMemory())

	for _, in := range [][2]string{{"", "x"}, {"a@example.com", ""}, {"  ", "  "}} {
		_, err := c.SignUp(context.Background(), in[0], in[1])
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
	}
	assert.Equal(t, int32(0), b.calls)
}

func TestSignUpStoresSession(t *testing.T) {
	sessions := store.NewMemory()
	b := &fakeBackend{signup: func(c api.Credentials) (api.AuthResponse, error) {
		return api.AuthResponse{AccessToken: "tok", RefreshToken: "ref", User: api.User{ID: "u1"}}, nil
	}}
	c := New(b, sessions)

	user, err := c.SignUp(context.Background(), " a@example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, api.User{ID: "u1", Email: "a@example.com"}, user)
	assert.Equal(t, StateAuthenticated, c.State())

	sess, ok := sessions.Session()
	require.True(t, ok)
	assert.Equal(t, store.Session{Token: "tok", RefreshToken: "ref", UserID: "u1", Email: "a@example.com"}, sess)
}

func TestSignUpErrorsAreDistinguished(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"duplicate by detail", &api.Error{Kind: api.KindClient, Status: 400, Message: "User already registered"}, ErrDuplicateAccount},
		{"duplicate by status", &api.Error{Kind: api.KindClient, Status: 409, Message: "conflict"}, ErrDuplicateAccount},
		{"server", &api.Error{Kind: api.KindServer, Status: 500, Message: "boom"}, ErrServer},
		{"network", &api.Error{Kind: api.KindNetwork, Message: "No response from server. Check your connection."}, ErrServer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sessions := store.NewMemory()
			require.NoError(t, sessions.SetToken("unrelated"))
			b := &fakeBackend{signup: func(api.Credentials) (api.AuthResponse, error) { return api.AuthResponse{}, tc.err }}
			c := New(b, sessions)

			_, err := c.SignUp(context.Background(), "a@example.com", "secret1")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			tok, _ := sessions.Token()
			assert.Equal(t, "unrelated", tok, "failed sign-up must not touch an existing session")
		})
	}

	b := &fakeBackend{signup: func(api.Credentials) (api.AuthResponse, error) {
		return api.AuthResponse{}, &api.Error{Kind: api.KindClient, Status: 400, Message: "Password should be at least 6 characters"}
	}}
	_, err := New(b, store.NewMemory()).SignUp(context.Background(), "a@example.com", "x")
	assert.Equal(t, "Signup failed. Check email/password validity.", err.Error())
}

func TestSignUpDuplicateWrappedInServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Signup failed: User already registered"}`))
	}))
	defer srv.Close()

	sessions := store.NewMemory()
	client, err := api.New(srv.URL, sessions)
	require.NoError(t, err)

	_, err = New(client, sessions).SignUp(context.Background(), "a@example.com", "secret1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateAccount), "got %v", err)
	assert.False(t, errors.Is(err, ErrServer))
	assert.Equal(t, "An account with this email already exists.", err.Error())
}

func TestSignUpServerErrorPrefixedOnce(t *testing.T) {
	b := &fakeBackend{signup: func(api.Credentials) (api.AuthResponse, error) {
		return api.AuthResponse{}, &api.Error{Kind: api.KindServer, Status: 500, Message: "Signup failed: database unavailable"}
	}}
	_, err := New(b, store.NewMemory()).SignUp(context.Background(), "a@example.com", "secret1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrServer))
	assert.Equal(t, "Signup failed: database unavailable", err.Error())
}

func TestSignInErrorsAreDistinguished(t *testing.T) {
	bad := &fakeBackend{login: func(api.Credentials) (api.AuthResponse, error) {
		return api.AuthResponse{}, &api.Error{Kind: api.KindClient, Status: 400, Message: "Invalid login credentials"}
	}}
	_, err := New(bad, store.NewMemory()).SignIn(context.Background(), "a@example.com", "nope")
	assert.True(t, errors.Is(err, ErrBadCredentials))
	assert.Equal(t, "Invalid login credentials", err.Error())

	down := &fakeBackend{login: func(api.Credentials) (api.AuthResponse, error) {
		return api.AuthResponse{}, &api.Error{Kind: api.KindServer, Status: 502, Message: "Server error. Please try again later."}
	}}
	_, err = New(down, store.NewMemory()).SignIn(context.Background(), "a@example.com", "secret1")
	assert.True(t, errors.Is(err, ErrServer))
	assert.False(t, errors.Is(err, ErrBadCredentials))
}

func TestSignOutClearsEverything(t *testing.T) {
	sessions := store.NewMemory()
	b := &fakeBackend{login: func(api.Credentials) (api.AuthResponse, error) {
		return api.AuthResponse{AccessToken: "tok", User: api.User{ID: "u1"}}, nil
	}}
	c := New(b, sessions)
	_, err := c.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, c.SignOut(context.Background()))
	assert.Equal(t, StateUnauthenticated, c.State())
	_, ok := c.User()
	assert.False(t, ok)
	_, ok = sessions.Token()
	assert.False(t, ok)
}

func TestRefreshRotatesTokens(t *testing.T) {
	sessions := store.NewMemory()
	require.NoError(t, sessions.SetSession(store.Session{Token: "old", RefreshToken: "r1", UserID: "u1"}))
	b := &fakeBackend{refresh: func(rt string) (api.AuthResponse, error) {
		assert.Equal(t, "r1", rt)
		return api.AuthResponse{AccessToken: "new", RefreshToken: "r2"}, nil
	}}
	c := New(b, sessions)

	require.NoError(t, c.Refresh(context.Background()))
	sess, _ := sessions.Session()
	assert.Equal(t, "new", sess.Token)
	assert.Equal(t, "r2", sess.RefreshToken)
	assert.Equal(t, "u1", sess.UserID)
}

func TestUnauthorizedResponseExpiresController(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sessions := store.NewMemory()
	require.NoError(t, sessions.SetSession(store.Session{Token: "tok", UserID: "u1"}))

	client, err := api.New(srv.URL, sessions)
	require.NoError(t, err)
	c := New(client, sessions)
	client.OnUnauthorized(c.Expire)

	// Pretend we were signed in before the token was revoked.
	c.set(StateAuthenticated, api.User{ID: "u1"})

	_, err = client.JournalDates(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateUnauthenticated, c.State())
	assert.Equal(t, PathSignIn, ResolveRoute(c.State(), PathJournal))
}
