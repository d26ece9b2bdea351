package analytics

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveBatchRoundTrip(t *testing.T) {
	s := testStore(t)
	in := []Result{
		Succeeded(1200),
		Failed(KindInsufficientFunds, "transaction failed: insufficient lamports"),
		Skipped("compute unit estimation disabled"),
	}
	in[0].PriorityFee = 42

	id, err := s.SaveBatch(context.Background(), "release-check", in)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	batches, err := s.ResultsByTag(context.Background(), "release-check")
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Equal(t, id, batches[0].ID)
	require.Equal(t, 3, batches[0].Count)
	require.Equal(t, in, batches[0].Results)
	require.False(t, batches[0].CreatedAt.IsZero())
}

func TestResultsByTagKeepsBatchOrder(t *testing.T) {
	s := testStore(t)
	first, err := s.SaveBatch(context.Background(), "soak", []Result{Succeeded(1)})
	require.NoError(t, err)
	second, err := s.SaveBatch(context.Background(), "soak", []Result{Succeeded(2)})
	require.NoError(t, err)
	_, err = s.SaveBatch(context.Background(), "other", []Result{Succeeded(3)})
	require.NoError(t, err)

	batches, err := s.ResultsByTag(context.Background(), "soak")
	require.NoError(t, err)
	require.Len(t, batches, 2)
	require.Equal(t, first, batches[0].ID)
	require.Equal(t, second, batches[1].ID)
}

func TestBatchesListsNewestFirst(t *testing.T) {
	s := testStore(t)
	older, err := s.SaveBatch(context.Background(), "a", []Result{Succeeded(1), Succeeded(2)})
	require.NoError(t, err)
	newer, err := s.SaveBatch(context.Background(), "b", []Result{Succeeded(3)})
	require.NoError(t, err)

	infos, err := s.Batches(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, newer, infos[0].ID)
	require.Equal(t, 1, infos[0].Count)
	require.Equal(t, older, infos[1].ID)
	require.Equal(t, 2, infos[1].Count)
}

func TestResultsByTagEmpty(t *testing.T) {
	s := testStore(t)
	batches, err := s.ResultsByTag(context.Background(), "nothing-here")
	require.NoError(t, err)
	require.Empty(t, batches)
}
