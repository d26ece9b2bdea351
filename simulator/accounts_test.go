package simulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotandev/solext/solana"
)

// stubFetcher serves accounts from a map and counts node round trips.
type stubFetcher struct {
	accounts map[solana.Pubkey]*Account
	single   int
	batch    int
}

func (f *stubFetcher) Account(_ context.Context, key solana.Pubkey) (*Account, error) {
	f.single++
	return f.accounts[key], nil
}

func (f *stubFetcher) MultipleAccounts(_ context.Context, keys []solana.Pubkey) ([]*Account, error) {
	f.batch++
	out := make([]*Account, len(keys))
	for i, k := range keys {
		out[i] = f.accounts[k]
	}
	return out, nil
}

func TestLoadCachesHits(t *testing.T) {
	key := solana.Pubkey{1}
	f := &stubFetcher{accounts: map[solana.Pubkey]*Account{
		key: {Pubkey: key, Lamports: 42},
	}}
	l := NewAccountLoader(f)

	acc, err := l.Load(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, uint64(42), acc.Lamports)

	_, err = l.Load(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, 1, f.single)
	require.Equal(t, 1, l.Len())
}

func TestLoadDoesNotCacheMisses(t *testing.T) {
	f := &stubFetcher{accounts: map[solana.Pubkey]*Account{}}
	l := NewAccountLoader(f)

	acc, err := l.Load(context.Background(), solana.Pubkey{9})
	require.NoError(t, err)
	require.Nil(t, acc)

	_, err = l.Load(context.Background(), solana.Pubkey{9})
	require.NoError(t, err)
	require.Equal(t, 2, f.single)
	require.Equal(t, 0, l.Len())
}

func TestLoadAllFetchesOnlyMisses(t *testing.T) {
	a, b, missing := solana.Pubkey{1}, solana.Pubkey{2}, solana.Pubkey{3}
	f := &stubFetcher{accounts: map[solana.Pubkey]*Account{
		a: {Pubkey: a, Lamports: 1},
		b: {Pubkey: b, Lamports: 2},
	}}
	l := NewAccountLoader(f)
	l.Store(&Account{Pubkey: a, Lamports: 1})

	found, err := l.LoadAll(context.Background(), []solana.Pubkey{a, b, missing})
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Contains(t, found, a)
	require.Contains(t, found, b)
	require.NotContains(t, found, missing)
	require.Equal(t, 1, f.batch)
	require.Equal(t, 0, f.single)

	// Everything known is now cached; a second resolve stays local.
	_, err = l.LoadAll(context.Background(), []solana.Pubkey{a, b})
	require.NoError(t, err)
	require.Equal(t, 1, f.batch)
}
