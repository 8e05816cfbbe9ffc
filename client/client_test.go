package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	access  string
	refresh string
	cleared bool
}

func (m *memoryStore) Save(access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if access != "" {
		m.access = access
	}
	if refresh != "" {
		m.refresh = refresh
	}
	return nil
}

func (m *memoryStore) Load() (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access, m.refresh, nil
}

func (m *memoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = ""
	m.refresh = ""
	m.cleared = true
	return nil
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *memoryStore, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := &memoryStore{access: "old-access", refresh: "old-refresh"}
	session := NewSession(store, nil)
	return New(srv.URL, session), store, srv
}

func TestNoRefreshWhileTokenValid(t *testing.T) {
	var refreshCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/flowers/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer old-access", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]ReferenceEntry{{UUID: "f1", Text: "rose"}})
	})

	c, _, _ := newTestClient(t, mux)
	entries, err := c.Flowers(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, int64(0), refreshCalls.Load())
}

func TestRefreshOnceAndRetry(t *testing.T) {
	var refreshCalls, meCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "old-refresh", body["refresh"])
		json.NewEncoder(w).Encode(TokenPair{Access: "new-access", Refresh: "new-refresh"})
	})
	mux.HandleFunc("/me/", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer new-access" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "token expired"})
			return
		}
		json.NewEncoder(w).Encode(UserData{Email: "a@b.c"})
	})

	c, store, _ := newTestClient(t, mux)
	user, err := c.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a@b.c", user.Email)

	require.Equal(t, int64(1), refreshCalls.Load())
	require.Equal(t, int64(2), meCalls.Load())

	access, refresh := c.Session().Tokens()
	require.Equal(t, "new-access", access)
	require.Equal(t, "new-refresh", refresh)
	require.Equal(t, "new-access", store.access)
	require.Equal(t, "new-refresh", store.refresh)
}

func TestRetryHappensOnlyOnce(t *testing.T) {
	var meCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(TokenPair{Access: "new-access", Refresh: "new-refresh"})
	})
	mux.HandleFunc("/me/", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "still unauthorized"})
	})

	c, _, _ := newTestClient(t, mux)
	_, err := c.Me(context.Background())
	require.Error(t, err)

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	require.Equal(t, http.StatusUnauthorized, serverErr.StatusCode)
	require.Equal(t, int64(2), meCalls.Load())
}

func TestRefreshFailureLogsOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "refresh revoked"})
	})
	mux.HandleFunc("/me/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, store, _ := newTestClient(t, mux)
	_, err := c.Me(context.Background())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.False(t, c.Session().LoggedIn())
	require.True(t, store.cleared)
}

func TestMissingRefreshTokenLogsOutWithoutNetworkRefresh(t *testing.T) {
	var refreshCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
	})
	mux.HandleFunc("/me/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := &memoryStore{access: "stale-access"}
	session := NewSession(store, nil)
	c := New(srv.URL, session)

	_, err := c.Me(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, int64(0), refreshCalls.Load())
	require.False(t, session.LoggedIn())
}

func TestConcurrentRefreshCollapses(t *testing.T) {
	var refreshCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		time.Sleep(100 * time.Millisecond)
		json.NewEncoder(w).Encode(TokenPair{Access: "new-access", Refresh: "new-refresh"})
	})

	c, _, _ := newTestClient(t, mux)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.refreshTokens(context.Background())
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, int64(1), refreshCalls.Load())
	access, _ := c.Session().Tokens()
	require.Equal(t, "new-access", access)
}

func TestNetworkErrorWrapped(t *testing.T) {
	store := &memoryStore{access: "tok"}
	c := New("http://127.0.0.1:1", NewSession(store, nil))

	_, err := c.Flowers(context.Background())
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestServerMessageExtraction(t *testing.T) {
	require.Equal(t, "boom", serverMessage([]byte(`{"error":"boom"}`)))
	require.Equal(t, "not found", serverMessage([]byte(`{"detail":"not found"}`)))
	require.Equal(t, "plain text", serverMessage([]byte("plain text")))
}
