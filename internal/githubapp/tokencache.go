package githubapp

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// RefreshSkew is how long before expiry a token stops being served.
	RefreshSkew = 5 * time.Minute
	// defaultTokenLifetime applies when the exchange omits an expiry.
	defaultTokenLifetime = time.Hour
)

// InstallationToken is an access token for one installation.
type InstallationToken struct {
	Token     string
	ExpiresAt time.Time
}

// ExchangeFunc fetches a fresh token for an installation.
type ExchangeFunc func(ctx context.Context, installationID int64) (InstallationToken, error)

// TokenCache holds installation tokens in memory.
type TokenCache struct {
	mu     sync.Mutex
	tokens map[int64]InstallationToken
	group  singleflight.Group
	now    func() time.Time
}

// NewTokenCache returns an empty cache.
func NewTokenCache() *TokenCache {
	return &TokenCache{
		tokens: make(map[int64]InstallationToken),
		now:    time.Now,
	}
}

// Get returns a cached token for installationID, calling exchange when the
// cached one is missing or within RefreshSkew of expiry.
func (c *TokenCache) Get(ctx context.Context, installationID int64, exchange ExchangeFunc) (string, error) {
	if tok, ok := c.lookup(installationID); ok {
		return tok, nil
	}

	v, err, _ := c.group.Do(strconv.FormatInt(installationID, 10), func() (any, error) {
		if tok, ok := c.lookup(installationID); ok {
			return tok, nil
		}
		fresh, err := exchange(ctx, installationID)
		if err != nil {
			return "", err
		}
		if fresh.ExpiresAt.IsZero() {
			fresh.ExpiresAt = c.now().Add(defaultTokenLifetime)
		}
		c.mu.Lock()
		c.tokens[installationID] = fresh
		c.mu.Unlock()
		return fresh.Token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token for installationID.
func (c *TokenCache) Invalidate(installationID int64) {
	c.mu.Lock()
	delete(c.tokens, installationID)
	c.mu.Unlock()
}

func (c *TokenCache) lookup(installationID int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, ok := c.tokens[installationID]
	if !ok || !c.now().Before(tok.ExpiresAt.Add(-RefreshSkew)) {
		return "", false
	}
	return tok.Token, true
}
