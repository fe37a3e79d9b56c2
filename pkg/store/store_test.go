package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/cephmsgr/pkg/monmap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "badger"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestStore_Healthcheck(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Healthcheck(context.Background()))
}

func TestStore_RecordNonce_RejectsReuse(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordNonce(ctx, "fsid-a", 12345))

	found, err := s.HasNonce(ctx, "fsid-a", 12345)
	require.NoError(t, err)
	require.True(t, found)

	err = s.RecordNonce(ctx, "fsid-a", 12345)
	require.ErrorIs(t, err, ErrNonceReused)
}

func TestStore_RecordNonce_ScopedPerCluster(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordNonce(ctx, "fsid-a", 1))
	require.NoError(t, s.RecordNonce(ctx, "fsid-b", 1))

	found, err := s.HasNonce(ctx, "fsid-c", 1)
	require.NoError(t, err)
	require.False(t, found)
}

func TestStore_PruneNonces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordNonce(ctx, "fsid-a", 1))
	require.NoError(t, s.RecordNonce(ctx, "fsid-a", 2))

	n, err := s.PruneNonces(ctx, "fsid-a", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, 0, n, "nonces recorded just now should not be pruned by a past cutoff")

	n, err = s.PruneNonces(ctx, "fsid-a", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	found, err := s.HasNonce(ctx, "fsid-a", 1)
	require.NoError(t, err)
	require.False(t, found)
}

func TestStore_CacheMonMap_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, found, err := s.CachedMonMap(ctx, "fsid-a")
	require.NoError(t, err)
	require.False(t, found)

	mm := monmap.MonMap{
		Epoch: 7,
		Fsid:  monmap.Uuid{1, 2, 3},
	}
	require.NoError(t, s.CacheMonMap(ctx, "fsid-a", mm))

	cached, found, err := s.CachedMonMap(ctx, "fsid-a")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, mm.Epoch, cached.Epoch)
	require.Equal(t, mm.Fsid, cached.Fsid)
}
