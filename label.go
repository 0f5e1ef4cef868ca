package label

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/label/artist"
	"github.com/xraph/label/distribution"
	"github.com/xraph/label/id"
	"github.com/xraph/label/investment"
	"github.com/xraph/label/plugin"
	"github.com/xraph/label/royalty"
	"github.com/xraph/label/sale"
	"github.com/xraph/label/song"
	"github.com/xraph/label/store"
	"github.com/xraph/label/types"
)

// Label is the ledger state machine. Every state transition runs under one
// mutex, so the store only ever sees a single transition at a time.
type Label struct {
	mu      sync.Mutex
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Sale journal
	running    bool
	saleBuffer chan *sale.Sale
	flushReq   chan chan struct{}
	stopChan   chan struct{}
	wg         sync.WaitGroup

	// Configuration
	journalBatchSize     int
	journalFlushInterval time.Duration
}

// New creates a new Label on top of the given store.
func New(s store.Store, opts ...Option) *Label {
	l := &Label{
		store:                s,
		plugins:              plugin.NewRegistry(),
		logger:               slog.Default(),
		saleBuffer:           make(chan *sale.Sale, 10000),
		flushReq:             make(chan chan struct{}),
		journalBatchSize:     100,
		journalFlushInterval: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Label instance.
type Option func(*Label)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Label) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Label) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithJournalConfig configures how buffered sales are batched to the store.
// Non-positive values keep the defaults.
func WithJournalConfig(batchSize int, flushInterval time.Duration) Option {
	return func(l *Label) {
		if batchSize > 0 {
			l.journalBatchSize = batchSize
		}
		if flushInterval > 0 {
			l.journalFlushInterval = flushInterval
		}
	}
}

// WithJournalBuffer sets the capacity of the in-memory sale buffer.
func WithJournalBuffer(n int) Option {
	return func(l *Label) {
		if n > 0 {
			l.saleBuffer = make(chan *sale.Sale, n)
		}
	}
}

// Store returns the underlying store.
func (l *Label) Store() store.Store { return l.store }

// Plugins returns the plugin registry.
func (l *Label) Plugins() *plugin.Registry { return l.plugins }

// Start migrates the store, initializes plugins and starts the sale journal
// worker. Until Start runs, sales are written to the store synchronously.
func (l *Label) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return nil
	}
	l.running = true
	l.stopChan = make(chan struct{})

	l.wg.Add(1)
	go l.journalWorker(context.WithoutCancel(ctx), l.stopChan)

	l.logger.Info("label started",
		"batch_size", l.journalBatchSize,
		"flush_interval", l.journalFlushInterval,
		"buffer", cap(l.saleBuffer),
	)

	return nil
}

// Stop drains the sale journal, shuts plugins down and closes the store.
func (l *Label) Stop() error {
	l.mu.Lock()
	if l.running {
		l.running = false
		close(l.stopChan)
	}
	l.mu.Unlock()
	l.wg.Wait()

	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// ──────────────────────────────────────────────────
// State transitions
// ──────────────────────────────────────────────────

// RegisterArtist registers a new artist owned by the caller on ctx and
// returns it with its freshly allocated id. The artist counter advances even
// if the insert then fails.
func (l *Label) RegisterArtist(ctx context.Context, name string) (*artist.Artist, error) {
	a, err := l.registerArtist(ctx, name)
	if err != nil {
		return nil, err
	}
	l.plugins.EmitArtistRegistered(ctx, a)
	return a, nil
}

func (l *Label) registerArtist(ctx context.Context, name string) (*artist.Artist, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	artistID, err := l.store.NextID(ctx, store.SequenceArtist)
	if err != nil {
		return nil, fmt.Errorf("label: allocate artist id: %w", err)
	}

	a := &artist.Artist{
		Entity:  types.NewEntity(),
		ID:      artistID,
		Name:    name,
		Address: CallerFrom(ctx),
	}
	if err := l.store.CreateArtist(ctx, a); err != nil {
		if errors.Is(err, ErrArtistExists) {
			l.logger.Error("artist id collision",
				"artist_id", artistID,
			)
		}
		return nil, err
	}

	l.logger.Debug("artist registered",
		"artist_id", a.ID,
		"address", a.Address,
	)
	return a, nil
}

// ReleaseSong releases a song for an existing artist. The song counter is
// only advanced once the artist is known to exist.
func (l *Label) ReleaseSong(ctx context.Context, artistID int64, title string, price int64) (*song.Song, error) {
	s, err := l.releaseSong(ctx, artistID, title, price)
	if err != nil {
		return nil, err
	}
	l.plugins.EmitSongReleased(ctx, s)
	return s, nil
}

func (l *Label) releaseSong(ctx context.Context, artistID int64, title string, price int64) (*song.Song, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.store.GetArtist(ctx, artistID); err != nil {
		return nil, err
	}

	songID, err := l.store.NextID(ctx, store.SequenceSong)
	if err != nil {
		return nil, fmt.Errorf("label: allocate song id: %w", err)
	}

	s := &song.Song{
		Entity:   types.NewEntity(),
		ID:       songID,
		ArtistID: artistID,
		Title:    title,
		Price:    price,
	}
	if err := l.store.CreateSong(ctx, s); err != nil {
		if errors.Is(err, ErrSongExists) {
			l.logger.Error("song id collision",
				"song_id", songID,
			)
		}
		return nil, err
	}

	l.logger.Debug("song released",
		"song_id", s.ID,
		"artist_id", artistID,
		"price", price,
	)
	return s, nil
}

// InvestInArtist adds amount to the investor's stake in the artist and to
// the artist's total investment as one atomic step. It returns the
// investor's cumulative investment.
func (l *Label) InvestInArtist(ctx context.Context, investor string, artistID, amount int64) (*investment.Investment, error) {
	inv, err := l.investInArtist(ctx, investor, artistID, amount)
	if err != nil {
		return nil, err
	}
	l.plugins.EmitInvestmentRecorded(ctx, inv, amount)
	return inv, nil
}

func (l *Label) investInArtist(ctx context.Context, investor string, artistID, amount int64) (*investment.Investment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	inv, err := l.store.RecordInvestment(ctx, investor, artistID, amount)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("investment recorded",
		"investor", investor,
		"artist_id", artistID,
		"amount", amount,
		"cumulative", inv.Amount,
	)
	return inv, nil
}

// BuySong credits the song's price to its royalty balance and journals the
// purchase. The buyer is recorded for auditing only.
func (l *Label) BuySong(ctx context.Context, buyer string, songID int64) (*sale.Sale, error) {
	s, flushed, err := l.buySong(ctx, buyer, songID)
	if err != nil {
		return nil, err
	}
	l.emitSalesFlushed(ctx, flushed)
	l.plugins.EmitSongPurchased(ctx, s)
	return s, nil
}

func (l *Label) buySong(ctx context.Context, buyer string, songID int64) (*sale.Sale, *salesFlush, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sg, err := l.store.GetSong(ctx, songID)
	if err != nil {
		return nil, nil, err
	}

	bal, err := l.store.CreditRoyalty(ctx, songID, sg.ArtistID, sg.Price)
	if err != nil {
		return nil, nil, err
	}

	s := &sale.Sale{
		ID:          id.NewSaleID(),
		SongID:      songID,
		ArtistID:    sg.ArtistID,
		Buyer:       buyer,
		Price:       sg.Price,
		PurchasedAt: types.Now(),
	}
	flushed := l.journal(ctx, s)

	l.logger.Debug("song purchased",
		"song_id", songID,
		"buyer", buyer,
		"price", sg.Price,
		"balance", bal.Amount,
	)
	return s, flushed, nil
}

// DistributeRoyalties releases the song's accrued royalties: the balance is
// reset to zero and a Distribution carrying the released amount is recorded
// and returned. Songs that never sold and songs whose balance is not
// positive are both rejected with a CodeUnauthorized error.
func (l *Label) DistributeRoyalties(ctx context.Context, songID int64) (*distribution.Distribution, error) {
	d, err := l.distributeRoyalties(ctx, songID)
	if err != nil {
		if IsUnauthorized(err) {
			l.plugins.EmitDistributionRejected(ctx, songID, err)
		}
		return nil, err
	}
	l.plugins.EmitRoyaltiesDistributed(ctx, d)
	return d, nil
}

func (l *Label) distributeRoyalties(ctx context.Context, songID int64) (*distribution.Distribution, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	d := &distribution.Distribution{
		ID:            id.NewDistributionID(),
		SongID:        songID,
		DistributedAt: types.Now(),
	}
	if err := l.store.DistributeRoyalty(ctx, d); err != nil {
		if IsUnauthorized(err) {
			l.logger.Warn("royalty distribution rejected",
				"song_id", songID,
				"reason", err,
			)
		}
		return nil, err
	}

	l.logger.Debug("royalties distributed",
		"distribution_id", d.ID.String(),
		"song_id", songID,
		"artist_id", d.ArtistID,
		"amount", d.Amount,
	)
	return d, nil
}

// Reset clears every registry and rewinds both id counters. Pending sales
// are flushed first so the journal never outlives the reset.
func (l *Label) Reset(ctx context.Context) error {
	if err := l.reset(ctx); err != nil {
		return err
	}
	l.plugins.EmitLedgerReset(ctx)
	return nil
}

func (l *Label) reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.flushJournalLocked(ctx); err != nil {
		return err
	}
	if err := l.store.Reset(ctx); err != nil {
		return fmt.Errorf("label: reset: %w", err)
	}

	l.logger.Info("label reset")
	return nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// GetArtist retrieves an artist by id.
func (l *Label) GetArtist(ctx context.Context, artistID int64) (*artist.Artist, error) {
	return l.store.GetArtist(ctx, artistID)
}

// ListArtists lists artists in id order.
func (l *Label) ListArtists(ctx context.Context, opts artist.ListOpts) ([]*artist.Artist, error) {
	return l.store.ListArtists(ctx, opts)
}

// GetSong retrieves a song by id.
func (l *Label) GetSong(ctx context.Context, songID int64) (*song.Song, error) {
	return l.store.GetSong(ctx, songID)
}

// ListSongs lists songs in id order, optionally for one artist.
func (l *Label) ListSongs(ctx context.Context, opts song.ListOpts) ([]*song.Song, error) {
	return l.store.ListSongs(ctx, opts)
}

// GetInvestment retrieves the cumulative investment of one investor in one
// artist. It returns ErrNotFound if the investor never invested.
func (l *Label) GetInvestment(ctx context.Context, investor string, artistID int64) (*investment.Investment, error) {
	return l.store.GetInvestment(ctx, investor, artistID)
}

// ListInvestments lists investments matching opts.
func (l *Label) ListInvestments(ctx context.Context, opts investment.ListOpts) ([]*investment.Investment, error) {
	return l.store.ListInvestments(ctx, opts)
}

// RoyaltyBalance returns the royalty balance of a song. It returns
// ErrNoRoyalties if the song has never been sold.
func (l *Label) RoyaltyBalance(ctx context.Context, songID int64) (*royalty.Balance, error) {
	return l.store.GetRoyalty(ctx, songID)
}

// ListSales lists journaled sales. Sales still buffered by the journal
// worker are not visible until they are flushed; call Flush first when that
// matters.
func (l *Label) ListSales(ctx context.Context, opts sale.QueryOpts) ([]*sale.Sale, error) {
	return l.store.ListSales(ctx, opts)
}

// ListDistributions lists distributions in the order they happened.
func (l *Label) ListDistributions(ctx context.Context, opts distribution.ListOpts) ([]*distribution.Distribution, error) {
	return l.store.ListDistributions(ctx, opts)
}
