package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/label"
	"github.com/xraph/label/artist"
	"github.com/xraph/label/distribution"
	"github.com/xraph/label/investment"
	"github.com/xraph/label/royalty"
	"github.com/xraph/label/sale"
	"github.com/xraph/label/song"
	"github.com/xraph/label/store"
	"github.com/xraph/label/types"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store keeps every registry in process memory behind one RWMutex. Records
// are copied on the way in and on the way out, so callers can never mutate
// the registries directly.
type Store struct {
	mu     sync.RWMutex
	closed bool

	sequences map[store.Sequence]int64

	artists     map[int64]*artist.Artist
	songs       map[int64]*song.Song
	investments map[string]*investment.Investment
	royalties   map[int64]*royalty.Balance

	distributions []distribution.Distribution
	sales         []sale.Sale
}

func New() *Store {
	s := &Store{}
	s.init()
	return s
}

func (s *Store) init() {
	s.sequences = make(map[store.Sequence]int64)
	s.artists = make(map[int64]*artist.Artist)
	s.songs = make(map[int64]*song.Song)
	s.investments = make(map[string]*investment.Investment)
	s.royalties = make(map[int64]*royalty.Balance)
	s.distributions = make([]distribution.Distribution, 0)
	s.sales = make([]sale.Sale, 0)
}

// Sequence Store implementation
func (s *Store) NextID(_ context.Context, seq store.Sequence) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, label.ErrStoreClosed
	}
	s.sequences[seq]++
	return s.sequences[seq], nil
}

// Artist Store implementation
func (s *Store) CreateArtist(_ context.Context, a *artist.Artist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return label.ErrStoreClosed
	}
	if _, exists := s.artists[a.ID]; exists {
		return label.ErrArtistExists
	}
	s.artists[a.ID] = a.Clone()
	return nil
}

func (s *Store) GetArtist(_ context.Context, artistID int64) (*artist.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.artists[artistID]; ok {
		return a.Clone(), nil
	}
	return nil, label.ErrArtistNotFound
}

func (s *Store) ListArtists(_ context.Context, opts artist.ListOpts) ([]*artist.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*artist.Artist, 0, len(s.artists))
	for _, a := range s.artists {
		result = append(result, a.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountArtists(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.artists)), nil
}

// Song Store implementation
func (s *Store) CreateSong(_ context.Context, sg *song.Song) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return label.ErrStoreClosed
	}
	if _, exists := s.songs[sg.ID]; exists {
		return label.ErrSongExists
	}
	if _, ok := s.artists[sg.ArtistID]; !ok {
		return label.ErrArtistNotFound
	}
	s.songs[sg.ID] = sg.Clone()
	return nil
}

func (s *Store) GetSong(_ context.Context, songID int64) (*song.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sg, ok := s.songs[songID]; ok {
		return sg.Clone(), nil
	}
	return nil, label.ErrSongNotFound
}

func (s *Store) ListSongs(_ context.Context, opts song.ListOpts) ([]*song.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*song.Song, 0)
	for _, sg := range s.songs {
		if opts.ArtistID == 0 || sg.ArtistID == opts.ArtistID {
			result = append(result, sg.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountSongs(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.songs)), nil
}

// Investment Store implementation
func (s *Store) RecordInvestment(_ context.Context, investor string, artistID, amount int64) (*investment.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, label.ErrStoreClosed
	}
	a, ok := s.artists[artistID]
	if !ok {
		return nil, label.ErrArtistNotFound
	}

	key := investment.Key(investor, artistID)
	inv, ok := s.investments[key]
	if !ok {
		inv = &investment.Investment{
			Entity:   types.NewEntity(),
			Investor: investor,
			ArtistID: artistID,
		}
		s.investments[key] = inv
	} else {
		inv.Touch()
	}
	inv.Amount += amount

	a.TotalInvestment += amount
	a.Touch()

	return inv.Clone(), nil
}

func (s *Store) GetInvestment(_ context.Context, investor string, artistID int64) (*investment.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, ok := s.investments[investment.Key(investor, artistID)]; ok {
		return inv.Clone(), nil
	}
	return nil, label.ErrNotFound
}

func (s *Store) ListInvestments(_ context.Context, opts investment.ListOpts) ([]*investment.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*investment.Investment, 0)
	for _, inv := range s.investments {
		if opts.ArtistID != 0 && inv.ArtistID != opts.ArtistID {
			continue
		}
		if opts.Investor != "" && inv.Investor != opts.Investor {
			continue
		}
		result = append(result, inv.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ArtistID != result[j].ArtistID {
			return result[i].ArtistID < result[j].ArtistID
		}
		return result[i].Investor < result[j].Investor
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Royalty Store implementation
func (s *Store) CreditRoyalty(_ context.Context, songID, artistID, amount int64) (*royalty.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, label.ErrStoreClosed
	}
	b, ok := s.royalties[songID]
	if !ok {
		b = &royalty.Balance{
			Entity:   types.NewEntity(),
			SongID:   songID,
			ArtistID: artistID,
		}
		s.royalties[songID] = b
	} else {
		b.Touch()
	}
	b.Amount += amount

	return b.Clone(), nil
}

func (s *Store) GetRoyalty(_ context.Context, songID int64) (*royalty.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.royalties[songID]; ok {
		return b.Clone(), nil
	}
	return nil, label.ErrNoRoyalties
}

func (s *Store) DistributeRoyalty(_ context.Context, d *distribution.Distribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return label.ErrStoreClosed
	}
	b, ok := s.royalties[d.SongID]
	if !ok {
		return label.ErrNoRoyalties
	}
	if !b.Distributable() {
		return label.ErrRoyaltiesDistributed
	}

	d.ArtistID = b.ArtistID
	d.Amount = b.Amount

	b.LastDistributed = b.Amount
	b.LastDistributionID = d.ID
	b.Amount = 0
	b.Touch()

	s.distributions = append(s.distributions, *d)
	return nil
}

func (s *Store) ListDistributions(_ context.Context, opts distribution.ListOpts) ([]*distribution.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*distribution.Distribution, 0)
	for i := range s.distributions {
		d := s.distributions[i]
		if opts.SongID != 0 && d.SongID != opts.SongID {
			continue
		}
		if opts.ArtistID != 0 && d.ArtistID != opts.ArtistID {
			continue
		}
		result = append(result, &d)
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Sale journal implementation
func (s *Store) AppendSales(_ context.Context, sales []*sale.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return label.ErrStoreClosed
	}
	for _, sl := range sales {
		s.sales = append(s.sales, *sl)
	}
	return nil
}

func (s *Store) ListSales(_ context.Context, opts sale.QueryOpts) ([]*sale.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*sale.Sale, 0)
	for i := range s.sales {
		sl := s.sales[i]
		if opts.SongID != 0 && sl.SongID != opts.SongID {
			continue
		}
		if opts.Buyer != "" && sl.Buyer != opts.Buyer {
			continue
		}
		if !opts.Start.IsZero() && sl.PurchasedAt.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && sl.PurchasedAt.After(opts.End) {
			continue
		}
		result = append(result, &sl)
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Core methods
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return label.ErrStoreClosed
	}
	s.init()
	return nil
}

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return label.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// paginate applies offset/limit. A non-positive limit means no limit and a
// negative offset is treated as zero.
func paginate[T any](items []T, offset, limit int) []T {
	start := max(offset, 0)
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
