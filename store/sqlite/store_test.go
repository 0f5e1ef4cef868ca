package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/label"
	"github.com/xraph/label/store"
	"github.com/xraph/label/store/sqlite"
	"github.com/xraph/label/store/storetest"
)

func openTemp(t *testing.T) *sqlite.Store {
	t.Helper()
	ctx := context.Background()
	s, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "label.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTemp(t) })
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTemp(t)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "label.db")

	s, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))

	l := label.New(s)
	a, err := l.RegisterArtist(ctx, "Alice")
	require.NoError(t, err)
	sg, err := l.ReleaseSong(ctx, a.ID, "hit", 100)
	require.NoError(t, err)
	_, err = l.BuySong(ctx, "fan", sg.ID)
	require.NoError(t, err)
	require.NoError(t, l.Stop())

	s, err = sqlite.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	l = label.New(s)
	t.Cleanup(func() { _ = l.Stop() })

	d, err := l.DistributeRoyalties(ctx, sg.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), d.Amount)
	assert.Equal(t, a.ID, d.ArtistID)

	next, err := l.RegisterArtist(ctx, "Bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.ID)
}
