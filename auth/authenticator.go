package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sagarc03/storefront"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "auth_cache_hits_total",
		Help:      "Admin lookups served from the authenticator cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "auth_cache_misses_total",
		Help:      "Admin lookups that went to the repository.",
	})
)

// AdminFinder is the part of storefront.AdminRepo the authenticator reads.
type AdminFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (storefront.Admin, error)
}

// Authenticator resolves a bearer token to the admin it belongs to.
type Authenticator struct {
	tokens *TokenManager
	admins AdminFinder
	cache  *expirable.LRU[uuid.UUID, storefront.Admin]
}

// NewAuthenticator caches up to size admins for ttl. A deactivation takes
// effect on other instances once the entry expires.
func NewAuthenticator(tokens *TokenManager, admins AdminFinder, size int, ttl time.Duration) *Authenticator {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Authenticator{
		tokens: tokens,
		admins: admins,
		cache:  expirable.NewLRU[uuid.UUID, storefront.Admin](size, nil, ttl),
	}
}

// Authenticate returns the active admin a token was issued to. Invalid
// tokens and unknown admins wrap storefront.ErrUnauthorized; deactivated
// admins wrap storefront.ErrInactive.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (storefront.Admin, error) {
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return storefront.Admin{}, err
	}

	admin, ok := a.cache.Get(claims.AdminID)
	if ok {
		cacheHitsTotal.Inc()
	} else {
		cacheMissesTotal.Inc()
		admin, err = a.admins.FindByID(ctx, claims.AdminID)
		if errors.Is(err, storefront.ErrNotFound) {
			return storefront.Admin{}, fmt.Errorf("authenticate: %w: admin no longer exists", storefront.ErrUnauthorized)
		}
		if err != nil {
			return storefront.Admin{}, fmt.Errorf("authenticate: %w", err)
		}
		a.cache.Add(admin.ID, admin)
	}

	if !admin.IsActive {
		return storefront.Admin{}, fmt.Errorf("authenticate: %w", storefront.ErrInactive)
	}
	return admin, nil
}

// Forget drops a cached admin so the next request re-reads it.
func (a *Authenticator) Forget(id uuid.UUID) {
	a.cache.Remove(id)
}
