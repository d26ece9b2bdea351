package simulator

import (
	"context"
	"sync"

	"github.com/dotandev/solext/solana"
)

// AccountFetcher is the slice of the client contract account loading
// needs.
type AccountFetcher interface {
	Account(ctx context.Context, key solana.Pubkey) (*Account, error)
	MultipleAccounts(ctx context.Context, keys []solana.Pubkey) ([]*Account, error)
}

// AccountLoader is a read-through account cache. Hits never touch the
// node again; missing accounts are not cached, so a later load observes
// an account created in the meantime.
type AccountLoader struct {
	fetcher AccountFetcher

	mu    sync.RWMutex
	cache map[solana.Pubkey]*Account
}

// NewAccountLoader builds a loader over f with an empty cache.
func NewAccountLoader(f AccountFetcher) *AccountLoader {
	return &AccountLoader{
		fetcher: f,
		cache:   make(map[solana.Pubkey]*Account),
	}
}

// Cached returns the cached state of key without touching the node.
func (l *AccountLoader) Cached(key solana.Pubkey) (*Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, ok := l.cache[key]
	return acc, ok
}

// Store seeds the cache with a known account state.
func (l *AccountLoader) Store(acc *Account) {
	if acc == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[acc.Pubkey] = acc
}

// Len reports how many accounts the cache holds.
func (l *AccountLoader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.cache)
}

// Load fetches key through the cache. A nil account with nil error means
// the address does not exist on the ledger.
func (l *AccountLoader) Load(ctx context.Context, key solana.Pubkey) (*Account, error) {
	if acc, ok := l.Cached(key); ok {
		return acc, nil
	}
	acc, err := l.fetcher.Account(ctx, key)
	if err != nil {
		return nil, err
	}
	if acc != nil {
		l.Store(acc)
	}
	return acc, nil
}

// LoadAll resolves a cohort, fetching only the keys the cache misses in
// one batched call. The result maps every key that exists; absent keys
// simply have no entry.
func (l *AccountLoader) LoadAll(ctx context.Context, keys []solana.Pubkey) (map[solana.Pubkey]*Account, error) {
	found := make(map[solana.Pubkey]*Account, len(keys))
	var misses []solana.Pubkey
	for _, k := range keys {
		if acc, ok := l.Cached(k); ok {
			found[k] = acc
		} else {
			misses = append(misses, k)
		}
	}
	if len(misses) == 0 {
		return found, nil
	}
	fetched, err := l.fetcher.MultipleAccounts(ctx, misses)
	if err != nil {
		return nil, err
	}
	for i, acc := range fetched {
		if acc == nil {
			continue
		}
		l.Store(acc)
		found[misses[i]] = acc
	}
	return found, nil
}
