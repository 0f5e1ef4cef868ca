// Package storetest holds the behaviour every store.Store backend must share.
// Backend packages call Run from their own tests with a constructor that
// returns a fresh, migrated store.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/label"
	"github.com/xraph/label/artist"
	"github.com/xraph/label/distribution"
	"github.com/xraph/label/id"
	"github.com/xraph/label/investment"
	"github.com/xraph/label/sale"
	"github.com/xraph/label/song"
	"github.com/xraph/label/store"
	"github.com/xraph/label/types"
)

// Factory builds an empty store for one subtest. The store is closed by Run.
type Factory func(t *testing.T) store.Store

// Run executes the conformance suite against the stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"Sequences", testSequences},
		{"Artists", testArtists},
		{"Songs", testSongs},
		{"Investments", testInvestments},
		{"ConcurrentInvestments", testConcurrentInvestments},
		{"Royalties", testRoyalties},
		{"Distributions", testDistributions},
		{"Sales", testSales},
		{"Reset", testReset},
		{"Closed", testClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			if tt.name != "Closed" {
				t.Cleanup(func() { _ = s.Close() })
			}
			tt.fn(t, s)
		})
	}
}

func mustArtist(t *testing.T, s store.Store, name string) *artist.Artist {
	t.Helper()
	ctx := context.Background()

	artistID, err := s.NextID(ctx, store.SequenceArtist)
	require.NoError(t, err)
	a := &artist.Artist{
		Entity:  types.NewEntity(),
		ID:      artistID,
		Name:    name,
		Address: label.DefaultArtistAddress,
	}
	require.NoError(t, s.CreateArtist(ctx, a))
	return a
}

func mustSong(t *testing.T, s store.Store, artistID, price int64) *song.Song {
	t.Helper()
	ctx := context.Background()

	songID, err := s.NextID(ctx, store.SequenceSong)
	require.NoError(t, err)
	sg := &song.Song{
		Entity:   types.NewEntity(),
		ID:       songID,
		ArtistID: artistID,
		Title:    "Track",
		Price:    price,
	}
	require.NoError(t, s.CreateSong(ctx, sg))
	return sg
}

func testSequences(t *testing.T, s store.Store) {
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := s.NextID(ctx, store.SequenceArtist)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := s.NextID(ctx, store.SequenceSong)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "song sequence is independent of the artist sequence")
}

func testArtists(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := mustArtist(t, s, "Alice")
	b := mustArtist(t, s, "Bob")
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	got, err := s.GetArtist(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, label.DefaultArtistAddress, got.Address)
	assert.Zero(t, got.TotalInvestment)

	err = s.CreateArtist(ctx, &artist.Artist{Entity: types.NewEntity(), ID: a.ID, Name: "Dup"})
	assert.ErrorIs(t, err, label.ErrArtistExists)

	_, err = s.GetArtist(ctx, 99)
	assert.ErrorIs(t, err, label.ErrArtistNotFound)

	list, err := s.ListArtists(ctx, artist.ListOpts{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	page, err := s.ListArtists(ctx, artist.ListOpts{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, b.ID, page[0].ID)

	all, err := s.ListArtists(ctx, artist.ListOpts{Limit: -1, Offset: -5})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err := s.CountArtists(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func testSongs(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := mustArtist(t, s, "Alice")
	b := mustArtist(t, s, "Bob")
	s1 := mustSong(t, s, a.ID, 100)
	s2 := mustSong(t, s, b.ID, 250)
	s3 := mustSong(t, s, a.ID, 0)

	got, err := s.GetSong(ctx, s2.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ArtistID)
	assert.Equal(t, int64(250), got.Price)

	_, err = s.GetSong(ctx, 42)
	assert.ErrorIs(t, err, label.ErrSongNotFound)

	byArtist, err := s.ListSongs(ctx, song.ListOpts{ArtistID: a.ID})
	require.NoError(t, err)
	require.Len(t, byArtist, 2)
	assert.Equal(t, s1.ID, byArtist[0].ID)
	assert.Equal(t, s3.ID, byArtist[1].ID)

	n, err := s.CountSongs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func testInvestments(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := mustArtist(t, s, "Alice")

	inv, err := s.RecordInvestment(ctx, "inv1", a.ID, 300)
	require.NoError(t, err)
	assert.Equal(t, int64(300), inv.Amount)

	inv, err = s.RecordInvestment(ctx, "inv1", a.ID, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(500), inv.Amount)

	_, err = s.RecordInvestment(ctx, "inv2", a.ID, 50)
	require.NoError(t, err)

	got, err := s.GetArtist(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(550), got.TotalInvestment)

	one, err := s.GetInvestment(ctx, "inv1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), one.Amount)
	assert.Equal(t, investment.Key("inv1", a.ID), one.Key())

	_, err = s.GetInvestment(ctx, "nobody", a.ID)
	assert.ErrorIs(t, err, label.ErrNotFound)

	_, err = s.RecordInvestment(ctx, "inv1", 77, 10)
	assert.ErrorIs(t, err, label.ErrArtistNotFound)

	list, err := s.ListInvestments(ctx, investment.ListOpts{ArtistID: a.ID})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	mine, err := s.ListInvestments(ctx, investment.ListOpts{Investor: "inv2"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(50), mine[0].Amount)
}

func testConcurrentInvestments(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := mustArtist(t, s, "Alice")

	const workers = 8
	const perWorker = 10

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := s.RecordInvestment(ctx, "inv", a.ID, 1)
				assert.NoError(t, err)
			}
		}()
	}

	// The artist is read before the investment, so a total that runs ahead
	// of the investment means the two were not written together.
	done := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-done:
				return
			default:
			}
			got, err := s.GetArtist(ctx, a.ID)
			if !assert.NoError(t, err) {
				return
			}
			if got.TotalInvestment == 0 {
				continue
			}
			inv, err := s.GetInvestment(ctx, "inv", a.ID)
			if !assert.NoError(t, err) {
				return
			}
			assert.GreaterOrEqual(t, inv.Amount, got.TotalInvestment)
		}
	}()

	wg.Wait()
	close(done)
	<-readerDone

	got, err := s.GetArtist(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), got.TotalInvestment)

	inv, err := s.GetInvestment(ctx, "inv", a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), inv.Amount)
}

func testRoyalties(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := mustArtist(t, s, "Alice")
	sg := mustSong(t, s, a.ID, 100)

	_, err := s.GetRoyalty(ctx, sg.ID)
	assert.ErrorIs(t, err, label.ErrNoRoyalties)

	b, err := s.CreditRoyalty(ctx, sg.ID, a.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), b.Amount)

	b, err = s.CreditRoyalty(ctx, sg.ID, a.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(200), b.Amount)
	assert.Equal(t, a.ID, b.ArtistID)

	got, err := s.GetRoyalty(ctx, sg.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), got.Amount)
	assert.True(t, got.Distributable())
}

func testDistributions(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := mustArtist(t, s, "Alice")
	sg := mustSong(t, s, a.ID, 100)
	free := mustSong(t, s, a.ID, 0)

	err := s.DistributeRoyalty(ctx, &distribution.Distribution{
		ID:            id.NewDistributionID(),
		SongID:        sg.ID,
		DistributedAt: types.Now(),
	})
	assert.ErrorIs(t, err, label.ErrNoRoyalties)

	_, err = s.CreditRoyalty(ctx, sg.ID, a.ID, 100)
	require.NoError(t, err)
	_, err = s.CreditRoyalty(ctx, sg.ID, a.ID, 100)
	require.NoError(t, err)

	d := &distribution.Distribution{
		ID:            id.NewDistributionID(),
		SongID:        sg.ID,
		DistributedAt: types.Now(),
	}
	require.NoError(t, s.DistributeRoyalty(ctx, d))
	assert.Equal(t, int64(200), d.Amount)
	assert.Equal(t, a.ID, d.ArtistID)

	b, err := s.GetRoyalty(ctx, sg.ID)
	require.NoError(t, err)
	assert.Zero(t, b.Amount)
	assert.Equal(t, int64(200), b.LastDistributed)
	assert.Equal(t, d.ID.String(), b.LastDistributionID.String())

	err = s.DistributeRoyalty(ctx, &distribution.Distribution{
		ID:            id.NewDistributionID(),
		SongID:        sg.ID,
		DistributedAt: types.Now(),
	})
	assert.ErrorIs(t, err, label.ErrRoyaltiesDistributed)

	// A zero-priced sale creates a balance that still cannot be distributed.
	_, err = s.CreditRoyalty(ctx, free.ID, a.ID, 0)
	require.NoError(t, err)
	err = s.DistributeRoyalty(ctx, &distribution.Distribution{
		ID:            id.NewDistributionID(),
		SongID:        free.ID,
		DistributedAt: types.Now(),
	})
	assert.ErrorIs(t, err, label.ErrRoyaltiesDistributed)

	history, err := s.ListDistributions(ctx, distribution.ListOpts{SongID: sg.ID})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, d.ID.String(), history[0].ID.String())
	assert.Equal(t, int64(200), history[0].Amount)
	assert.Equal(t, a.ID, history[0].ArtistID)

	none, err := s.ListDistributions(ctx, distribution.ListOpts{SongID: free.ID})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testSales(t *testing.T, s store.Store) {
	ctx := context.Background()

	base := types.Now()
	sales := []*sale.Sale{
		{ID: id.NewSaleID(), SongID: 1, ArtistID: 1, Buyer: "b1", Price: 100, PurchasedAt: base},
		{ID: id.NewSaleID(), SongID: 1, ArtistID: 1, Buyer: "b2", Price: 100, PurchasedAt: base.Add(time.Minute)},
		{ID: id.NewSaleID(), SongID: 2, ArtistID: 1, Buyer: "b1", Price: 50, PurchasedAt: base.Add(2 * time.Minute)},
	}
	require.NoError(t, s.AppendSales(ctx, sales))

	all, err := s.ListSales(ctx, sale.QueryOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	bySong, err := s.ListSales(ctx, sale.QueryOpts{SongID: 1})
	require.NoError(t, err)
	assert.Len(t, bySong, 2)

	byBuyer, err := s.ListSales(ctx, sale.QueryOpts{Buyer: "b1"})
	require.NoError(t, err)
	assert.Len(t, byBuyer, 2)

	window, err := s.ListSales(ctx, sale.QueryOpts{
		Start: base.Add(30 * time.Second),
		End:   base.Add(90 * time.Second),
	})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "b2", window[0].Buyer)
	assert.Equal(t, sales[1].ID.String(), window[0].ID.String())
}

func testReset(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := mustArtist(t, s, "Alice")
	sg := mustSong(t, s, a.ID, 10)
	_, err := s.RecordInvestment(ctx, "inv", a.ID, 5)
	require.NoError(t, err)
	_, err = s.CreditRoyalty(ctx, sg.ID, a.ID, 10)
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	_, err = s.GetArtist(ctx, a.ID)
	assert.ErrorIs(t, err, label.ErrArtistNotFound)
	_, err = s.GetSong(ctx, sg.ID)
	assert.ErrorIs(t, err, label.ErrSongNotFound)
	_, err = s.GetRoyalty(ctx, sg.ID)
	assert.ErrorIs(t, err, label.ErrNoRoyalties)

	next, err := s.NextID(ctx, store.SequenceArtist)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)
}

func testClosed(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())

	_, err := s.NextID(ctx, store.SequenceArtist)
	assert.Error(t, err)
	assert.Error(t, s.Ping(ctx))
}
