// Package bolt implements store.Store on an embedded bbolt database file.
//
// Every mutating operation runs inside a single bbolt read-write transaction,
// which bbolt serializes, so multi-record updates (an investment together
// with the artist total, a distribution together with the balance reset)
// are atomic and survive restarts.
package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

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

var (
	bucketSequences     = []byte("sequences")
	bucketArtists       = []byte("artists")
	bucketSongs         = []byte("songs")
	bucketInvestments   = []byte("investments")
	bucketRoyalties     = []byte("royalties")
	bucketDistributions = []byte("distributions")
	bucketSales         = []byte("sales")

	allBuckets = [][]byte{
		bucketSequences,
		bucketArtists,
		bucketSongs,
		bucketInvestments,
		bucketRoyalties,
		bucketDistributions,
		bucketSales,
	}
)

// Store is a bbolt-backed implementation of the label store.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database at path and ensures every bucket
// exists. The parent directory is created if it does not exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("label/bolt: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("label/bolt: open %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// DB returns the underlying bbolt handle.
func (s *Store) DB() *bbolt.DB { return s.db }

// Migrate creates any missing bucket.
func (s *Store) Migrate(_ context.Context) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", label.ErrMigrationFailed, s.wrap(err))
	}
	return nil
}

// ──────────────────────────────────────────────────
// Sequences
// ──────────────────────────────────────────────────

func (s *Store) NextID(_ context.Context, seq store.Sequence) (int64, error) {
	var next int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSequences)
		key := []byte(seq)
		if raw := b.Get(key); raw != nil {
			next = decodeInt(raw)
		}
		next++
		return b.Put(key, intKey(next))
	})
	if err != nil {
		return 0, s.wrap(err)
	}
	return next, nil
}

// ──────────────────────────────────────────────────
// Artists
// ──────────────────────────────────────────────────

func (s *Store) CreateArtist(_ context.Context, a *artist.Artist) error {
	return s.wrap(s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketArtists)
		key := intKey(a.ID)
		if b.Get(key) != nil {
			return label.ErrArtistExists
		}
		return put(b, key, a)
	}))
}

func (s *Store) GetArtist(_ context.Context, artistID int64) (*artist.Artist, error) {
	var a artist.Artist
	err := s.db.View(func(tx *bbolt.Tx) error {
		return get(tx.Bucket(bucketArtists), intKey(artistID), &a, label.ErrArtistNotFound)
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return &a, nil
}

func (s *Store) ListArtists(_ context.Context, opts artist.ListOpts) ([]*artist.Artist, error) {
	var result []*artist.Artist
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		result, err = scan(tx.Bucket(bucketArtists), opts.Offset, opts.Limit, func(*artist.Artist) bool { return true })
		return err
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return result, nil
}

func (s *Store) CountArtists(_ context.Context) (int64, error) {
	return s.count(bucketArtists)
}

// ──────────────────────────────────────────────────
// Songs
// ──────────────────────────────────────────────────

func (s *Store) CreateSong(_ context.Context, sg *song.Song) error {
	return s.wrap(s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSongs)
		key := intKey(sg.ID)
		if b.Get(key) != nil {
			return label.ErrSongExists
		}
		if tx.Bucket(bucketArtists).Get(intKey(sg.ArtistID)) == nil {
			return label.ErrArtistNotFound
		}
		return put(b, key, sg)
	}))
}

func (s *Store) GetSong(_ context.Context, songID int64) (*song.Song, error) {
	var sg song.Song
	err := s.db.View(func(tx *bbolt.Tx) error {
		return get(tx.Bucket(bucketSongs), intKey(songID), &sg, label.ErrSongNotFound)
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return &sg, nil
}

func (s *Store) ListSongs(_ context.Context, opts song.ListOpts) ([]*song.Song, error) {
	var result []*song.Song
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		result, err = scan(tx.Bucket(bucketSongs), opts.Offset, opts.Limit, func(sg *song.Song) bool {
			return opts.ArtistID == 0 || sg.ArtistID == opts.ArtistID
		})
		return err
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return result, nil
}

func (s *Store) CountSongs(_ context.Context) (int64, error) {
	return s.count(bucketSongs)
}

// ──────────────────────────────────────────────────
// Investments
// ──────────────────────────────────────────────────

func (s *Store) RecordInvestment(_ context.Context, investor string, artistID, amount int64) (*investment.Investment, error) {
	var inv investment.Investment
	err := s.db.Update(func(tx *bbolt.Tx) error {
		artists := tx.Bucket(bucketArtists)
		var a artist.Artist
		if err := get(artists, intKey(artistID), &a, label.ErrArtistNotFound); err != nil {
			return err
		}

		investments := tx.Bucket(bucketInvestments)
		key := []byte(investment.Key(investor, artistID))
		err := get(investments, key, &inv, label.ErrNotFound)
		switch {
		case errors.Is(err, label.ErrNotFound):
			inv = investment.Investment{
				Entity:   types.NewEntity(),
				Investor: investor,
				ArtistID: artistID,
			}
		case err != nil:
			return err
		default:
			inv.Touch()
		}
		inv.Amount += amount

		a.TotalInvestment += amount
		a.Touch()

		if err := put(investments, key, &inv); err != nil {
			return err
		}
		return put(artists, intKey(artistID), &a)
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return &inv, nil
}

func (s *Store) GetInvestment(_ context.Context, investor string, artistID int64) (*investment.Investment, error) {
	var inv investment.Investment
	err := s.db.View(func(tx *bbolt.Tx) error {
		key := []byte(investment.Key(investor, artistID))
		return get(tx.Bucket(bucketInvestments), key, &inv, label.ErrNotFound)
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return &inv, nil
}

func (s *Store) ListInvestments(_ context.Context, opts investment.ListOpts) ([]*investment.Investment, error) {
	var result []*investment.Investment
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		result, err = scan(tx.Bucket(bucketInvestments), opts.Offset, opts.Limit, func(inv *investment.Investment) bool {
			if opts.ArtistID != 0 && inv.ArtistID != opts.ArtistID {
				return false
			}
			return opts.Investor == "" || inv.Investor == opts.Investor
		})
		return err
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Royalties
// ──────────────────────────────────────────────────

func (s *Store) CreditRoyalty(_ context.Context, songID, artistID, amount int64) (*royalty.Balance, error) {
	var bal royalty.Balance
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRoyalties)
		key := intKey(songID)
		err := get(b, key, &bal, label.ErrNoRoyalties)
		switch {
		case errors.Is(err, label.ErrNoRoyalties):
			bal = royalty.Balance{
				Entity:   types.NewEntity(),
				SongID:   songID,
				ArtistID: artistID,
			}
		case err != nil:
			return err
		default:
			bal.Touch()
		}
		bal.Amount += amount
		return put(b, key, &bal)
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return &bal, nil
}

func (s *Store) GetRoyalty(_ context.Context, songID int64) (*royalty.Balance, error) {
	var bal royalty.Balance
	err := s.db.View(func(tx *bbolt.Tx) error {
		return get(tx.Bucket(bucketRoyalties), intKey(songID), &bal, label.ErrNoRoyalties)
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return &bal, nil
}

func (s *Store) DistributeRoyalty(_ context.Context, d *distribution.Distribution) error {
	return s.wrap(s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRoyalties)
		key := intKey(d.SongID)

		var bal royalty.Balance
		if err := get(b, key, &bal, label.ErrNoRoyalties); err != nil {
			return err
		}
		if !bal.Distributable() {
			return label.ErrRoyaltiesDistributed
		}

		d.ArtistID = bal.ArtistID
		d.Amount = bal.Amount

		bal.LastDistributed = bal.Amount
		bal.LastDistributionID = d.ID
		bal.Amount = 0
		bal.Touch()
		if err := put(b, key, &bal); err != nil {
			return err
		}

		return appendSeq(tx.Bucket(bucketDistributions), d)
	}))
}

func (s *Store) ListDistributions(_ context.Context, opts distribution.ListOpts) ([]*distribution.Distribution, error) {
	var result []*distribution.Distribution
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		result, err = scan(tx.Bucket(bucketDistributions), opts.Offset, opts.Limit, func(d *distribution.Distribution) bool {
			if opts.SongID != 0 && d.SongID != opts.SongID {
				return false
			}
			return opts.ArtistID == 0 || d.ArtistID == opts.ArtistID
		})
		return err
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Sales
// ──────────────────────────────────────────────────

func (s *Store) AppendSales(_ context.Context, sales []*sale.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	return s.wrap(s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSales)
		for _, sl := range sales {
			if err := appendSeq(b, sl); err != nil {
				return err
			}
		}
		return nil
	}))
}

func (s *Store) ListSales(_ context.Context, opts sale.QueryOpts) ([]*sale.Sale, error) {
	var result []*sale.Sale
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		result, err = scan(tx.Bucket(bucketSales), opts.Offset, opts.Limit, func(sl *sale.Sale) bool {
			switch {
			case opts.SongID != 0 && sl.SongID != opts.SongID:
				return false
			case opts.Buyer != "" && sl.Buyer != opts.Buyer:
				return false
			case !opts.Start.IsZero() && sl.PurchasedAt.Before(opts.Start):
				return false
			case !opts.End.IsZero() && sl.PurchasedAt.After(opts.End):
				return false
			}
			return true
		})
		return err
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Core
// ──────────────────────────────────────────────────

// Reset drops and recreates every bucket in one transaction.
func (s *Store) Reset(_ context.Context) error {
	return s.wrap(s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return fmt.Errorf("delete bucket %q: %w", name, err)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	}))
}

func (s *Store) Ping(_ context.Context) error {
	return s.wrap(s.db.View(func(*bbolt.Tx) error { return nil }))
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (s *Store) count(bucket []byte) (int64, error) {
	var n int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = int64(tx.Bucket(bucket).Stats().KeyN)
		return nil
	})
	if err != nil {
		return 0, s.wrap(err)
	}
	return n, nil
}

// wrap maps a closed database onto label.ErrStoreClosed.
func (s *Store) wrap(err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return label.ErrStoreClosed
	}
	return err
}

func get(b *bbolt.Bucket, key []byte, v any, notFound error) error {
	data := b.Get(key)
	if data == nil {
		return notFound
	}
	if err := decodeGob(data, v); err != nil {
		return fmt.Errorf("label/bolt: decode %s: %w", key, err)
	}
	return nil
}

func put(b *bbolt.Bucket, key []byte, v any) error {
	data, err := encodeGob(v)
	if err != nil {
		return fmt.Errorf("label/bolt: encode: %w", err)
	}
	return b.Put(key, data)
}

// appendSeq stores v under the bucket's next sequence number so a cursor
// walks journal records in insertion order.
func appendSeq(b *bbolt.Bucket, v any) error {
	seq, err := b.NextSequence()
	if err != nil {
		return err
	}
	return put(b, intKey(int64(seq)), v)
}

// scan decodes the bucket in key order and returns the records accepted by
// match, after skipping offset matches. A zero limit means no limit.
func scan[T any](b *bbolt.Bucket, offset, limit int, match func(*T) bool) ([]*T, error) {
	result := make([]*T, 0)
	offset = max(offset, 0)
	skipped := 0
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if limit > 0 && len(result) >= limit {
			break
		}
		rec := new(T)
		if err := decodeGob(v, rec); err != nil {
			return nil, fmt.Errorf("label/bolt: decode %x: %w", k, err)
		}
		if !match(rec) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		result = append(result, rec)
	}
	return result, nil
}

// intKey encodes an id as an 8-byte big-endian key for sorted storage.
func intKey(n int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(n))
	return k
}

func decodeInt(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

func encodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
