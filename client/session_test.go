package client

import (
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileTokenStoreRoundTrip(t *testing.T) {
	store := &FileTokenStore{Path: filepath.Join(t.TempDir(), "tokens.json")}

	require.NoError(t, store.Save("acc-1", "ref-1"))
	access, refresh, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "acc-1", access)
	require.Equal(t, "ref-1", refresh)
}

func TestFileTokenStorePartialSaveKeepsOtherValue(t *testing.T) {
	store := &FileTokenStore{Path: filepath.Join(t.TempDir(), "tokens.json")}

	require.NoError(t, store.Save("acc-1", "ref-1"))
	require.NoError(t, store.Save("acc-2", ""))

	access, refresh, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "acc-2", access)
	require.Equal(t, "ref-1", refresh)
}

func TestFileTokenStoreMissingFileIsLoggedOut(t *testing.T) {
	store := &FileTokenStore{Path: filepath.Join(t.TempDir(), "nope.json")}
	access, refresh, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, access)
	require.Empty(t, refresh)

	require.NoError(t, store.Clear())
}

func TestSessionRehydratesFromStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := &FileTokenStore{Path: path}
	require.NoError(t, store.Save("acc", "ref"))

	session := NewSession(store, nil)
	access, refresh := session.Tokens()
	require.Equal(t, "acc", access)
	require.Equal(t, "ref", refresh)
	require.True(t, session.LoggedIn())
}

func TestSessionLogoutClearsEverything(t *testing.T) {
	store := &FileTokenStore{Path: filepath.Join(t.TempDir(), "tokens.json")}
	session := NewSession(store, nil)
	session.SetTokens("acc", "ref")
	session.SetUser(&UserData{Email: "a@b.c"})
	session.SetStoreProfile(&StoreProfileData{StoreName: "Rosa"})

	session.Logout()

	access, refresh := session.Tokens()
	require.Empty(t, access)
	require.Empty(t, refresh)
	require.Nil(t, session.User())
	require.Nil(t, session.StoreProfile())
	require.False(t, session.LoggedIn())

	// The persisted copy is gone too, so a new session starts logged out.
	fresh := NewSession(store, nil)
	require.False(t, fresh.LoggedIn())
}

func TestSetTokensConcurrentWritersStayConsistent(t *testing.T) {
	store := &memoryStore{}
	session := NewSession(store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n := strconv.Itoa(i)
			session.SetTokens("acc-"+n, "ref-"+n)
		}(i)
	}
	wg.Wait()

	// Whatever order the writers landed in, the persisted pair must match
	// the in-memory pair.
	access, refresh := session.Tokens()
	require.Equal(t, access, store.access)
	require.Equal(t, refresh, store.refresh)
}

func TestSetTokensKeepsRefreshWhenAbsent(t *testing.T) {
	session := NewSession(nil, nil)
	session.SetTokens("acc-1", "ref-1")
	session.SetTokens("acc-2", "")

	access, refresh := session.Tokens()
	require.Equal(t, "acc-2", access)
	require.Equal(t, "ref-1", refresh)
}
