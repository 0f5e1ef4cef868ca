package store

import (
	"context"

	"github.com/xraph/label/artist"
	"github.com/xraph/label/distribution"
	"github.com/xraph/label/investment"
	"github.com/xraph/label/royalty"
	"github.com/xraph/label/sale"
	"github.com/xraph/label/song"
)

// Sequence names an id counter.
type Sequence string

// The two id spaces. They are independent and both start at 1.
const (
	SequenceArtist Sequence = "artist"
	SequenceSong   Sequence = "song"
)

// Store is the unified storage interface for the label registries.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// Every method is a single atomic step against the backend. Callers that
// need a read-then-write sequence to be atomic (id allocation followed by an
// insert) must serialize those calls themselves; label.Label does.
type Store interface {
	// Sequence methods
	NextID(ctx context.Context, seq Sequence) (int64, error)

	// Artist methods
	CreateArtist(ctx context.Context, a *artist.Artist) error
	GetArtist(ctx context.Context, artistID int64) (*artist.Artist, error)
	ListArtists(ctx context.Context, opts artist.ListOpts) ([]*artist.Artist, error)
	CountArtists(ctx context.Context) (int64, error)

	// Song methods
	CreateSong(ctx context.Context, s *song.Song) error
	GetSong(ctx context.Context, songID int64) (*song.Song, error)
	ListSongs(ctx context.Context, opts song.ListOpts) ([]*song.Song, error)
	CountSongs(ctx context.Context) (int64, error)

	// Investment methods
	RecordInvestment(ctx context.Context, investor string, artistID, amount int64) (*investment.Investment, error)
	GetInvestment(ctx context.Context, investor string, artistID int64) (*investment.Investment, error)
	ListInvestments(ctx context.Context, opts investment.ListOpts) ([]*investment.Investment, error)

	// Royalty methods
	CreditRoyalty(ctx context.Context, songID, artistID, amount int64) (*royalty.Balance, error)
	GetRoyalty(ctx context.Context, songID int64) (*royalty.Balance, error)
	DistributeRoyalty(ctx context.Context, d *distribution.Distribution) error
	ListDistributions(ctx context.Context, opts distribution.ListOpts) ([]*distribution.Distribution, error)

	// Sale journal methods
	AppendSales(ctx context.Context, sales []*sale.Sale) error
	ListSales(ctx context.Context, opts sale.QueryOpts) ([]*sale.Sale, error)

	// Core methods

	// Reset removes every record and rewinds both sequences.
	Reset(ctx context.Context) error
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
