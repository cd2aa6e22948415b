package shop

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"golang.org/x/sync/singleflight"
)

// Resolver lazily fetches and caches the configured shop. Concurrent first
// calls collapse into a single backend request; once resolved, the shop is
// served from memory for the process lifetime.
type Resolver struct {
	repo Repository
	name string

	group singleflight.Group

	mu   sync.RWMutex
	shop *Shop
}

// NewResolver creates a Resolver for the shop identified by name.
func NewResolver(repo Repository, name string) *Resolver {
	return &Resolver{repo: repo, name: name}
}

// Current returns the shop configuration, fetching it on first use.
func (r *Resolver) Current(ctx context.Context) (*Shop, error) {
	r.mu.RLock()
	s := r.shop
	r.mu.RUnlock()
	if s != nil {
		return s, nil
	}

	if r.name == "" {
		return nil, ErrNotConfigured
	}

	v, err, _ := r.group.Do("shop", func() (any, error) {
		// The flight is shared across callers; one caller cancelling must
		// not fail the fetch for everyone waiting on it.
		fetched, err := r.repo.GetByName(context.WithoutCancel(ctx), r.name)
		if err != nil {
			return nil, err
		}
		if fetched.ID == "" {
			return nil, errors.Wrap(ErrNotConfigured, "backend returned shop without id")
		}
		r.mu.Lock()
		r.shop = fetched
		r.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Shop), nil
}

// ShopID resolves the shop identifier needed to create carts.
func (r *Resolver) ShopID(ctx context.Context) (string, error) {
	s, err := r.Current(ctx)
	if err != nil {
		return "", err
	}
	return s.ID, nil
}

// Cached returns the resolved shop without triggering a fetch, or nil when
// no resolution has happened yet.
func (r *Resolver) Cached() *Shop {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.shop
}
