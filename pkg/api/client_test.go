package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/tranquil/pkg/store"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, tokens TokenStore, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/api", tokens, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestDoAttachesBearerToken(t *testing.T) {
	tokens := store.NewMemory()
	require.NoError(t, tokens.SetToken("tok-1"))

	var gotAuth, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]string{"id": "u1", "email": "a@example.com"}})
	}, tokens)

	user, err := c.Protected(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "/api/protected", gotPath)
	assert.Equal(t, User{ID: "u1", Email: "a@example.com"}, user)
}

func TestDoOmitsHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"dates": []string{}})
	}, store.NewMemory())

	_, err := c.JournalDates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestUnauthorizedClearsSessionAndStillFails(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			tokens := store.NewMemory()
			require.NoError(t, tokens.SetSession(store.Session{Token: "tok-1", UserID: "u1"}))

			var redirected int32
			var calls int32
			var lastAuth atomic.Value
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				lastAuth.Store(r.Header.Get("Authorization"))
				writeJSON(w, status, map[string]string{"detail": "Invalid token"})
			}, tokens, WithUnauthorizedHandler(func() { atomic.AddInt32(&redirected, 1) }))

			_, err := c.JournalDates(context.Background())
			require.Error(t, err)
			assert.True(t, IsUnauthorized(err))
			assert.Equal(t, int32(1), atomic.LoadInt32(&redirected))
			_, ok := tokens.Token()
			assert.False(t, ok, "token should be cleared")

			// Subsequent calls go out without the credential.
			_, _ = c.JournalDates(context.Background())
			assert.Equal(t, "", lastAuth.Load())
		})
	}
}

func TestUnauthorizedDoesNotClearNewerToken(t *testing.T) {
	tokens := store.NewMemory()
	require.NoError(t, tokens.SetToken("old"))

	var redirected int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// The user signs in again while this request is in flight.
		_ = tokens.SetToken("new")
		w.WriteHeader(http.StatusUnauthorized)
	}, tokens, WithUnauthorizedHandler(func() { atomic.AddInt32(&redirected, 1) }))

	_, err := c.JournalDates(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	tok, ok := tokens.Token()
	assert.True(t, ok)
	assert.Equal(t, "new", tok)
	assert.Equal(t, int32(0), atomic.LoadInt32(&redirected))
}

func TestServerErrorKeepsSession(t *testing.T) {
	tokens := store.NewMemory()
	require.NoError(t, tokens.SetToken("tok-1"))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, tokens)

	_, err := c.JournalDates(context.Background())
	require.Error(t, err)
	assert.True(t, IsServer(err))
	assert.Equal(t, msgServer, err.Error())
	_, ok := tokens.Token()
	assert.True(t, ok, "a 5xx is not evidence of a bad credential")
}

func TestErrorMessageFromServerDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"detail": []map[string]string{{"msg": "field required"}, {"msg": "bad date"}},
		})
	}, store.NewMemory())

	_, err := c.SaveJournal(context.Background(), mustDate(t, "2025-01-02"), "hi")
	require.Error(t, err)
	assert.Equal(t, KindClient, KindOf(err))
	assert.Equal(t, "field required; bad date", err.Error())
}

func TestNetworkFailureHasGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(base, store.NewMemory())
	require.NoError(t, err)

	_, err = c.ChatSessions(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.Equal(t, "No response from server. Check your connection.", err.Error())
}

func TestCancelledContextIsNotANetworkError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not be sent")
	}, store.NewMemory())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ChatSessions(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoginFailureDoesNotExpireSession(t *testing.T) {
	tokens := store.NewMemory()
	require.NoError(t, tokens.SetToken("existing"))
	var redirected int32

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid login credentials"})
	}, tokens, WithUnauthorizedHandler(func() { atomic.AddInt32(&redirected, 1) }))

	_, err := c.Login(context.Background(), Credentials{Email: "a@example.com", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, KindClient, KindOf(err))
	assert.Equal(t, "Invalid login credentials", err.Error())
	assert.Equal(t, int32(0), atomic.LoadInt32(&redirected))
	tok, _ := tokens.Token()
	assert.Equal(t, "existing", tok)
}

func TestValidationSkipsNetwork(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request to %s", r.URL.Path)
	}, store.NewMemory())

	_, err := c.Login(context.Background(), Credentials{Email: " ", Password: "x"})
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = c.SendSessionMessage(context.Background(), "s1", "   ")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestDebugLoggingRedactsToken(t *testing.T) {
	tokens := store.NewMemory()
	require.NoError(t, tokens.SetToken("super-secret"))

	var buf syncBuffer
	log := zerologTo(&buf)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"dates": []string{"2025-01-01"}})
	}, tokens, WithDebugLogging(true), WithLogger(log))

	_, err := c.JournalDates(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "HTTP request")
	assert.NotContains(t, buf.String(), "super-secret")
}

func TestHTTPTimeoutAppliesToOwnCopy(t *testing.T) {
	hc := &http.Client{}
	c, err := New("http://localhost:8000/api", store.NewMemory(), WithHTTPClient(hc), WithHTTPTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), hc.Timeout, "caller's client must not change")
	assert.Equal(t, time.Second, c.http.Timeout)
	assert.NotSame(t, hc, c.http)
}

func TestOnUnauthorizedSwapWhileRequestsRun(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token"})
	}, store.NewMemory())

	var fired int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = c.JournalDates(context.Background())
		}()
		go func() {
			defer wg.Done()
			c.OnUnauthorized(func() { atomic.AddInt32(&fired, 1) })
		}()
	}
	wg.Wait()

	_, err := c.JournalDates(context.Background())
	require.Error(t, err)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&fired), int32(1))
}
