package session

import (
	"sync"
	"time"

	"storefront-client/internal/domain"
	"storefront-client/pkg/utils"
)

// Keeper is the single writer of the token pair. Pair writes and pair reads
// share one RWMutex, so no reader sees an access token from one login next to
// a refresh token from another.
type Keeper struct {
	mu         sync.RWMutex
	store      domain.TokenStore
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewKeeper(store domain.TokenStore, accessTTL, refreshTTL time.Duration) *Keeper {
	return &Keeper{
		store:      store,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Access returns the current access token, or "".
func (k *Keeper) Access() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	v, _ := k.store.Get(domain.AccessTokenKey)
	return v
}

// Refresh returns the current refresh token, or "".
func (k *Keeper) Refresh() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	v, _ := k.store.Get(domain.RefreshTokenKey)
	return v
}

func (k *Keeper) Snapshot() domain.Session {
	k.mu.RLock()
	defer k.mu.RUnlock()
	access, _ := k.store.Get(domain.AccessTokenKey)
	refresh, _ := k.store.Get(domain.RefreshTokenKey)
	return domain.Session{AccessToken: access, RefreshToken: refresh}
}

// Establish replaces the whole pair after login or signup. A login without
// a refresh token leaves none behind, never the previous user's.
func (k *Keeper) Establish(access, refresh string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.store.Clear(domain.AccessTokenKey, domain.RefreshTokenKey, domain.UserIDKey)
	k.store.Set(domain.AccessTokenKey, access, k.accessTTL)
	if refresh == "" {
		return
	}
	k.store.Set(domain.RefreshTokenKey, refresh, k.refreshTTL)
	if claims, err := utils.PeekClaims(access); err == nil {
		k.store.Set(domain.UserIDKey, claims.UserID, k.refreshTTL)
	}
}

// Renew replaces the access token after a successful refresh.
func (k *Keeper) Renew(access string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.store.Set(domain.AccessTokenKey, access, k.accessTTL)
}

// Revoke clears both tokens.
func (k *Keeper) Revoke() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.store.Clear(domain.AccessTokenKey, domain.RefreshTokenKey, domain.UserIDKey)
}

// UserID reads the user id out of the current access token. Once the access
// token has lapsed the session still belongs to its user for as long as the
// refresh token lives; the next backend call renews the access token.
func (k *Keeper) UserID() (string, error) {
	k.mu.RLock()
	access, _ := k.store.Get(domain.AccessTokenKey)
	refresh, _ := k.store.Get(domain.RefreshTokenKey)
	userID, _ := k.store.Get(domain.UserIDKey)
	k.mu.RUnlock()

	if access == "" {
		if refresh != "" && userID != "" {
			return userID, nil
		}
		return "", domain.ErrNoSession
	}
	claims, err := utils.PeekClaims(access)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
