package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// TokenStore persists the token pair across restarts. Implementations must
// treat absent tokens as a normal logged-out state, not an error.
type TokenStore interface {
	Save(access, refresh string) error
	Load() (access, refresh string, err error)
	Clear() error
}

// FileTokenStore keeps the token pair in a JSON file under fixed keys.
type FileTokenStore struct {
	Path string
}

type storedTokens struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

func (s *FileTokenStore) Save(access, refresh string) error {
	current := storedTokens{}
	if data, err := os.ReadFile(s.Path); err == nil {
		_ = json.Unmarshal(data, &current)
	}
	// Only overwrite values that are actually present.
	if access != "" {
		current.Token = access
	}
	if refresh != "" {
		current.RefreshToken = refresh
	}

	data, err := json.Marshal(current)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o600)
}

func (s *FileTokenStore) Load() (string, string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", nil
		}
		return "", "", err
	}
	var tokens storedTokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		return "", "", err
	}
	return tokens.Token, tokens.RefreshToken, nil
}

func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Session holds the authenticated identity: the token pair plus the cached
// user and store profile. Only login, logout and the refresh routine write
// the tokens; everything else reads.
type Session struct {
	mu           sync.RWMutex
	token        string
	refreshToken string
	user         *UserData
	storeProfile *StoreProfileData

	store TokenStore
	log   *zap.Logger
}

// NewSession builds a session rehydrated from the token store. A missing or
// empty store simply starts logged out.
func NewSession(store TokenStore, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{store: store, log: log}
	if store != nil {
		access, refresh, err := store.Load()
		if err != nil {
			log.Warn("could not load persisted tokens", zap.Error(err))
			return s
		}
		s.token = access
		s.refreshToken = refresh
	}
	return s
}

// SetTokens updates the in-memory pair and persists whichever values are
// present. The store write happens under the same lock so persisted tokens
// never fall out of order with memory when writers race.
func (s *Session) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if access != "" {
		s.token = access
	}
	if refresh != "" {
		s.refreshToken = refresh
	}

	if s.store != nil {
		if err := s.store.Save(access, refresh); err != nil {
			s.log.Warn("could not persist tokens", zap.Error(err))
		}
	}
}

// Tokens returns the current access and refresh tokens.
func (s *Session) Tokens() (access, refresh string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.refreshToken
}

// LoggedIn reports whether an access token is present.
func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// SetUser caches the user profile.
func (s *Session) SetUser(user *UserData) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

// User returns the cached user profile, if any.
func (s *Session) User() *UserData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SetStoreProfile caches the store profile.
func (s *Session) SetStoreProfile(profile *StoreProfileData) {
	s.mu.Lock()
	s.storeProfile = profile
	s.mu.Unlock()
}

// StoreProfile returns the cached store profile, if any.
func (s *Session) StoreProfile() *StoreProfileData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storeProfile
}

// Logout clears the session and the persisted tokens. It never fails, even
// when nothing was persisted.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.refreshToken = ""
	s.user = nil
	s.storeProfile = nil
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			s.log.Warn("could not clear persisted tokens", zap.Error(err))
		}
	}
	s.log.Info("session logged out")
}
