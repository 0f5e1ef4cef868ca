package label_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/label"
	"github.com/xraph/label/artist"
	"github.com/xraph/label/distribution"
	"github.com/xraph/label/investment"
	"github.com/xraph/label/plugin"
	"github.com/xraph/label/sale"
	"github.com/xraph/label/song"
	"github.com/xraph/label/store"
	"github.com/xraph/label/store/bolt"
	"github.com/xraph/label/store/memory"
	"github.com/xraph/label/store/sqlite"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type backend struct {
	name string
	open func(t *testing.T) store.Store
}

var backends = []backend{
	{"memory", func(*testing.T) store.Store { return memory.New() }},
	{"bolt", func(t *testing.T) store.Store {
		s, err := bolt.Open(filepath.Join(t.TempDir(), "label.db"))
		require.NoError(t, err)
		return s
	}},
	{"sqlite", func(t *testing.T) store.Store {
		ctx := context.Background()
		s, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "label.sqlite"))
		require.NoError(t, err)
		require.NoError(t, s.Migrate(ctx))
		return s
	}},
}

// forEachBackend runs fn once per store with a fresh Label.
func forEachBackend(t *testing.T, fn func(t *testing.T, l *label.Label), opts ...label.Option) {
	t.Helper()
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			l := label.New(b.open(t), append([]label.Option{label.WithLogger(quiet)}, opts...)...)
			t.Cleanup(func() { _ = l.Stop() })
			fn(t, l)
		})
	}
}

func TestScenarios(t *testing.T) {
	forEachBackend(t, func(t *testing.T, l *label.Label) {
		ctx := context.Background()

		t.Run("register artist", func(t *testing.T) {
			a, err := l.RegisterArtist(ctx, "Test Artist")
			require.NoError(t, err)
			assert.Equal(t, int64(1), a.ID)
			assert.Equal(t, label.DefaultArtistAddress, a.Address)

			all, err := l.ListArtists(ctx, artist.ListOpts{})
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, "Test Artist", all[0].Name)
		})

		t.Run("release song", func(t *testing.T) {
			s, err := l.ReleaseSong(ctx, 1, "Test Song", 100)
			require.NoError(t, err)
			assert.Equal(t, int64(1), s.ID)

			got, err := l.GetSong(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "Test Song", got.Title)
		})

		t.Run("invest in artist", func(t *testing.T) {
			inv, err := l.InvestInArtist(ctx, "fan1", 1, 1000)
			require.NoError(t, err)
			assert.Equal(t, "fan1-1", inv.Key())

			got, err := l.GetInvestment(ctx, "fan1", 1)
			require.NoError(t, err)
			assert.Equal(t, int64(1000), got.Amount)

			a, err := l.GetArtist(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, int64(1000), a.TotalInvestment)
		})

		t.Run("buy song", func(t *testing.T) {
			_, err := l.BuySong(ctx, "user1", 1)
			require.NoError(t, err)

			bal, err := l.RoyaltyBalance(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, int64(100), bal.Amount)
		})

		t.Run("distribute royalties", func(t *testing.T) {
			d, err := l.DistributeRoyalties(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, int64(100), d.Amount)

			bal, err := l.RoyaltyBalance(ctx, 1)
			require.NoError(t, err)
			assert.Zero(t, bal.Amount)
		})

		t.Run("release song for unregistered artist", func(t *testing.T) {
			require.NoError(t, l.Reset(ctx))

			_, err := l.ReleaseSong(ctx, 1, "Test Song", 100)
			require.ErrorIs(t, err, label.ErrArtistNotFound)
			assert.Equal(t, label.CodeNotFound, label.ErrorCode(err))
		})

		t.Run("distribute without royalties", func(t *testing.T) {
			_, err := l.DistributeRoyalties(ctx, 1)
			require.ErrorIs(t, err, label.ErrNoRoyalties)
			assert.Equal(t, label.CodeUnauthorized, label.ErrorCode(err))
		})
	})
}

func TestSequentialIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, l *label.Label) {
		ctx := context.Background()

		for want := int64(1); want <= 5; want++ {
			a, err := l.RegisterArtist(ctx, "artist")
			require.NoError(t, err)
			assert.Equal(t, want, a.ID)
		}

		// Song ids run independently of artist ids.
		for want := int64(1); want <= 3; want++ {
			s, err := l.ReleaseSong(ctx, 5, "song", 10)
			require.NoError(t, err)
			assert.Equal(t, want, s.ID)
		}
	})
}

func TestReleaseSongLeavesCounterOnFailure(t *testing.T) {
	forEachBackend(t, func(t *testing.T, l *label.Label) {
		ctx := context.Background()

		_, err := l.ReleaseSong(ctx, 9, "ghost", 1)
		require.ErrorIs(t, err, label.ErrArtistNotFound)

		a, err := l.RegisterArtist(ctx, "Alice")
		require.NoError(t, err)

		s, err := l.ReleaseSong(ctx, a.ID, "first", 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), s.ID, "failed release must not consume a song id")
	})
}

func TestInvestmentAccumulation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, l *label.Label) {
		ctx := context.Background()

		a, err := l.RegisterArtist(ctx, "Alice")
		require.NoError(t, err)
		b, err := l.RegisterArtist(ctx, "Bob")
		require.NoError(t, err)

		calls := []struct {
			investor string
			artistID int64
			amount   int64
		}{
			{"fan1", a.ID, 100},
			{"fan2", a.ID, 50},
			{"fan1", a.ID, 25},
			{"fan1", b.ID, 7},
		}
		for _, c := range calls {
			_, err := l.InvestInArtist(ctx, c.investor, c.artistID, c.amount)
			require.NoError(t, err)
		}

		inv, err := l.GetInvestment(ctx, "fan1", a.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(125), inv.Amount)

		inv, err = l.GetInvestment(ctx, "fan1", b.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(7), inv.Amount)

		gotA, err := l.GetArtist(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(175), gotA.TotalInvestment)

		gotB, err := l.GetArtist(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(7), gotB.TotalInvestment)

		list, err := l.ListInvestments(ctx, investment.ListOpts{ArtistID: a.ID})
		require.NoError(t, err)
		assert.Len(t, list, 2)

		_, err = l.InvestInArtist(ctx, "fan1", 99, 10)
		require.ErrorIs(t, err, label.ErrArtistNotFound)
		assert.Equal(t, label.CodeNotFound, label.ErrorCode(err))

		_, err = l.GetInvestment(ctx, "nobody", a.ID)
		assert.True(t, label.IsNotFound(err))
	})
}

func TestRoyaltyAccrualAndReset(t *testing.T) {
	forEachBackend(t, func(t *testing.T, l *label.Label) {
		ctx := context.Background()

		a, err := l.RegisterArtist(ctx, "Alice")
		require.NoError(t, err)
		s, err := l.ReleaseSong(ctx, a.ID, "hit", 30)
		require.NoError(t, err)

		const k = 4
		for i := 0; i < k; i++ {
			sl, err := l.BuySong(ctx, "buyer", s.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(30), sl.Price)
			assert.Equal(t, a.ID, sl.ArtistID)
		}

		bal, err := l.RoyaltyBalance(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(k*30), bal.Amount)

		d, err := l.DistributeRoyalties(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(k*30), d.Amount)
		assert.Equal(t, a.ID, d.ArtistID)

		bal, err = l.RoyaltyBalance(ctx, s.ID)
		require.NoError(t, err)
		assert.Zero(t, bal.Amount)
		assert.Equal(t, int64(k*30), bal.LastDistributed)

		_, err = l.DistributeRoyalties(ctx, s.ID)
		require.ErrorIs(t, err, label.ErrRoyaltiesDistributed)
		assert.Equal(t, label.CodeUnauthorized, label.ErrorCode(err))

		// Sales after a distribution accrue again from zero.
		_, err = l.BuySong(ctx, "buyer", s.ID)
		require.NoError(t, err)
		d2, err := l.DistributeRoyalties(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(30), d2.Amount)

		history, err := l.ListDistributions(ctx, distribution.ListOpts{SongID: s.ID})
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, d.ID.String(), history[0].ID.String())
		assert.Equal(t, d2.ID.String(), history[1].ID.String())
	})
}

func TestBuyUnknownSong(t *testing.T) {
	forEachBackend(t, func(t *testing.T, l *label.Label) {
		_, err := l.BuySong(context.Background(), "buyer", 1)
		require.ErrorIs(t, err, label.ErrSongNotFound)
		assert.Equal(t, label.CodeNotFound, label.ErrorCode(err))
	})
}

func TestZeroPricedSongCannotBeDistributed(t *testing.T) {
	forEachBackend(t, func(t *testing.T, l *label.Label) {
		ctx := context.Background()

		a, err := l.RegisterArtist(ctx, "Alice")
		require.NoError(t, err)
		s, err := l.ReleaseSong(ctx, a.ID, "free", 0)
		require.NoError(t, err)
		_, err = l.BuySong(ctx, "buyer", s.ID)
		require.NoError(t, err)

		_, err = l.DistributeRoyalties(ctx, s.ID)
		require.ErrorIs(t, err, label.ErrRoyaltiesDistributed)
		assert.Equal(t, label.CodeUnauthorized, label.ErrorCode(err))
	})
}

func TestCallerFromContext(t *testing.T) {
	forEachBackend(t, func(t *testing.T, l *label.Label) {
		ctx := label.WithCaller(context.Background(), "0xabc")

		a, err := l.RegisterArtist(ctx, "Alice")
		require.NoError(t, err)
		assert.Equal(t, "0xabc", a.Address)

		got, err := l.GetArtist(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "0xabc", got.Address)
	})
}

func TestResetRewindsCounters(t *testing.T) {
	forEachBackend(t, func(t *testing.T, l *label.Label) {
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			_, err := l.RegisterArtist(ctx, "artist")
			require.NoError(t, err)
		}
		require.NoError(t, l.Reset(ctx))

		a, err := l.RegisterArtist(ctx, "fresh")
		require.NoError(t, err)
		assert.Equal(t, int64(1), a.ID)

		songs, err := l.ListSongs(ctx, song.ListOpts{})
		require.NoError(t, err)
		assert.Empty(t, songs)
	})
}

func TestConcurrentTransitions(t *testing.T) {
	forEachBackend(t, func(t *testing.T, l *label.Label) {
		ctx := context.Background()

		a, err := l.RegisterArtist(ctx, "Alice")
		require.NoError(t, err)
		s, err := l.ReleaseSong(ctx, a.ID, "hit", 5)
		require.NoError(t, err)

		const workers = 8
		const perWorker = 10

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					_, err := l.InvestInArtist(ctx, "fan", a.ID, 2)
					assert.NoError(t, err)
					_, err = l.BuySong(ctx, "fan", s.ID)
					assert.NoError(t, err)
				}
			}()
		}
		wg.Wait()

		got, err := l.GetArtist(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(workers*perWorker*2), got.TotalInvestment)

		bal, err := l.RoyaltyBalance(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(workers*perWorker*5), bal.Amount)
	})
}

func TestSaleJournal(t *testing.T) {
	t.Run("synchronous before start", func(t *testing.T) {
		forEachBackend(t, func(t *testing.T, l *label.Label) {
			ctx := context.Background()

			a, err := l.RegisterArtist(ctx, "Alice")
			require.NoError(t, err)
			s, err := l.ReleaseSong(ctx, a.ID, "hit", 5)
			require.NoError(t, err)
			sl, err := l.BuySong(ctx, "fan", s.ID)
			require.NoError(t, err)

			sales, err := l.ListSales(ctx, sale.QueryOpts{SongID: s.ID})
			require.NoError(t, err)
			require.Len(t, sales, 1)
			assert.Equal(t, sl.ID.String(), sales[0].ID.String())
			assert.Equal(t, "fan", sales[0].Buyer)
		})
	})

	t.Run("buffered after start", func(t *testing.T) {
		forEachBackend(t, func(t *testing.T, l *label.Label) {
			ctx := context.Background()
			require.NoError(t, l.Start(ctx))

			a, err := l.RegisterArtist(ctx, "Alice")
			require.NoError(t, err)
			s, err := l.ReleaseSong(ctx, a.ID, "hit", 5)
			require.NoError(t, err)
			for i := 0; i < 3; i++ {
				_, err := l.BuySong(ctx, "fan", s.ID)
				require.NoError(t, err)
			}

			require.NoError(t, l.Flush(ctx))

			sales, err := l.ListSales(ctx, sale.QueryOpts{Buyer: "fan"})
			require.NoError(t, err)
			assert.Len(t, sales, 3)
		}, label.WithJournalConfig(100, time.Hour))
	})

	t.Run("full buffer falls back to synchronous writes", func(t *testing.T) {
		forEachBackend(t, func(t *testing.T, l *label.Label) {
			ctx := context.Background()
			require.NoError(t, l.Start(ctx))

			a, err := l.RegisterArtist(ctx, "Alice")
			require.NoError(t, err)
			s, err := l.ReleaseSong(ctx, a.ID, "hit", 5)
			require.NoError(t, err)
			for i := 0; i < 10; i++ {
				_, err := l.BuySong(ctx, "fan", s.ID)
				require.NoError(t, err)
			}

			require.NoError(t, l.Flush(ctx))
			sales, err := l.ListSales(ctx, sale.QueryOpts{})
			require.NoError(t, err)
			assert.Len(t, sales, 10)
		}, label.WithJournalBuffer(1), label.WithJournalConfig(100, time.Hour))
	})
}

type payouts struct {
	mu       sync.Mutex
	amounts  []int64
	rejected []error
	flushed  int
}

func (p *payouts) Name() string { return "payouts" }

func (p *payouts) OnRoyaltiesDistributed(_ context.Context, d *distribution.Distribution) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.amounts = append(p.amounts, d.Amount)
	return nil
}

func (p *payouts) OnDistributionRejected(_ context.Context, _ int64, reason error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejected = append(p.rejected, reason)
	return nil
}

func (p *payouts) OnSalesFlushed(_ context.Context, count int, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushed += count
	return errors.New("ignored")
}

func TestPluginsObserveDistributions(t *testing.T) {
	p := &payouts{}
	l := label.New(memory.New(), label.WithLogger(quiet), label.WithPlugin(p))
	t.Cleanup(func() { _ = l.Stop() })
	ctx := context.Background()

	a, err := l.RegisterArtist(ctx, "Alice")
	require.NoError(t, err)
	s, err := l.ReleaseSong(ctx, a.ID, "hit", 40)
	require.NoError(t, err)

	_, err = l.DistributeRoyalties(ctx, s.ID)
	require.Error(t, err)

	_, err = l.BuySong(ctx, "fan", s.ID)
	require.NoError(t, err)
	_, err = l.DistributeRoyalties(ctx, s.ID)
	require.NoError(t, err)

	_, err = l.DistributeRoyalties(ctx, s.ID)
	require.Error(t, err)

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, []int64{40}, p.amounts)
	require.Len(t, p.rejected, 2)
	assert.ErrorIs(t, p.rejected[0], label.ErrNoRoyalties)
	assert.ErrorIs(t, p.rejected[1], label.ErrRoyaltiesDistributed)
	assert.Equal(t, 1, p.flushed)
}

// reentrant calls back into the label from its flush hook.
type reentrant struct {
	l       *label.Label
	flushes chan error
}

func (r *reentrant) Name() string { return "reentrant" }

func (r *reentrant) OnSalesFlushed(ctx context.Context, _ int, _ time.Duration) error {
	r.flushes <- r.l.Flush(ctx)
	return nil
}

func TestSalesFlushedHookMayCallBack(t *testing.T) {
	r := &reentrant{flushes: make(chan error, 1)}
	l := label.New(memory.New(), label.WithLogger(quiet), label.WithPlugin(r))
	r.l = l
	t.Cleanup(func() { _ = l.Stop() })
	ctx := context.Background()

	a, err := l.RegisterArtist(ctx, "Alice")
	require.NoError(t, err)
	s, err := l.ReleaseSong(ctx, a.ID, "hit", 5)
	require.NoError(t, err)

	start := time.Now()
	_, err = l.BuySong(ctx, "fan", s.ID)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), plugin.DefaultTimeout)

	select {
	case err := <-r.flushes:
		assert.NoError(t, err)
	default:
		t.Fatal("flush hook did not complete before BuySong returned")
	}
}
