package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/label"
	"github.com/xraph/label/artist"
	"github.com/xraph/label/distribution"
	"github.com/xraph/label/investment"
	"github.com/xraph/label/royalty"
	"github.com/xraph/label/sale"
	"github.com/xraph/label/song"
	labelstore "github.com/xraph/label/store"
)

// Collection name constants.
const (
	colSequences     = "label_sequences"
	colArtists       = "label_artists"
	colSongs         = "label_songs"
	colInvestments   = "label_investments"
	colRoyalties     = "label_royalties"
	colDistributions = "label_distributions"
	colSales         = "label_sales"
)

// compile-time interface check
var _ labelstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
//
// Counters and royalty credits are single-document atomic operators. An
// investment and the artist total it feeds, and a distribution and the
// balance it clears, are separate documents written in one multi-document
// transaction, so the deployment must be a replica set or sharded cluster.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Open connects to the MongoDB deployment at uri, whose path names the
// database, and wraps it in a Store.
func Open(ctx context.Context, uri string) (*Store, error) {
	mdb := mongodriver.New()
	if err := mdb.Open(ctx, uri); err != nil {
		return nil, fmt.Errorf("label/mongo: open: %w", err)
	}
	db, err := grove.Open(mdb)
	if err != nil {
		_ = mdb.Close()
		return nil, fmt.Errorf("label/mongo: open: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate checks that the deployment supports transactions and creates
// indexes for all label collections.
func (s *Store) Migrate(ctx context.Context) error {
	var hello helloReply
	err := s.mdb.Client().Database("admin").
		RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).
		Decode(&hello)
	if err != nil {
		return fmt.Errorf("label/mongo: %w: hello: %w", label.ErrMigrationFailed, err)
	}
	if !hello.supportsTransactions() {
		return fmt.Errorf("label/mongo: %w: %w", label.ErrMigrationFailed, errNoTransactions)
	}

	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("label/mongo: %w: %s indexes: %w", label.ErrMigrationFailed, col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Sequences ====================

func (s *Store) NextID(ctx context.Context, seq labelstore.Sequence) (int64, error) {
	var m sequenceModel
	err := s.mdb.Collection(colSequences).FindOneAndUpdate(ctx,
		bson.M{"_id": string(seq)},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		return 0, fmt.Errorf("label/mongo: next %s id: %w", seq, err)
	}
	return m.Value, nil
}

// ==================== Artist Store ====================

func (s *Store) CreateArtist(ctx context.Context, a *artist.Artist) error {
	_, err := s.mdb.NewInsert(toArtistModel(a)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return label.ErrArtistExists
		}
		return fmt.Errorf("label/mongo: create artist: %w", err)
	}
	return nil
}

func (s *Store) GetArtist(ctx context.Context, artistID int64) (*artist.Artist, error) {
	var m artistModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": artistID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, label.ErrArtistNotFound
		}
		return nil, fmt.Errorf("label/mongo: get artist: %w", err)
	}
	return fromArtistModel(&m), nil
}

func (s *Store) ListArtists(ctx context.Context, opts artist.ListOpts) ([]*artist.Artist, error) {
	var models []artistModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("label/mongo: list artists: %w", err)
	}

	result := make([]*artist.Artist, len(models))
	for i := range models {
		result[i] = fromArtistModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountArtists(ctx context.Context) (int64, error) {
	n, err := s.mdb.Collection(colArtists).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("label/mongo: count artists: %w", err)
	}
	return n, nil
}

// ==================== Song Store ====================

func (s *Store) CreateSong(ctx context.Context, sg *song.Song) error {
	if _, err := s.GetArtist(ctx, sg.ArtistID); err != nil {
		return err
	}
	_, err := s.mdb.NewInsert(toSongModel(sg)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return label.ErrSongExists
		}
		return fmt.Errorf("label/mongo: create song: %w", err)
	}
	return nil
}

func (s *Store) GetSong(ctx context.Context, songID int64) (*song.Song, error) {
	var m songModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": songID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, label.ErrSongNotFound
		}
		return nil, fmt.Errorf("label/mongo: get song: %w", err)
	}
	return fromSongModel(&m), nil
}

func (s *Store) ListSongs(ctx context.Context, opts song.ListOpts) ([]*song.Song, error) {
	var models []songModel

	filter := bson.M{}
	if opts.ArtistID != 0 {
		filter["artist_id"] = opts.ArtistID
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("label/mongo: list songs: %w", err)
	}

	result := make([]*song.Song, len(models))
	for i := range models {
		result[i] = fromSongModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountSongs(ctx context.Context) (int64, error) {
	n, err := s.mdb.Collection(colSongs).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("label/mongo: count songs: %w", err)
	}
	return n, nil
}

// ==================== Investment Store ====================

func (s *Store) RecordInvestment(ctx context.Context, investor string, artistID, amount int64) (*investment.Investment, error) {
	t := now()

	var m investmentModel
	err := s.inTx(ctx, func(ctx context.Context) error {
		res, err := s.mdb.Collection(colArtists).UpdateOne(ctx,
			bson.M{"_id": artistID},
			bson.M{
				"$inc": bson.M{"total_investment": amount},
				"$set": bson.M{"updated_at": t},
			},
		)
		if err != nil {
			return fmt.Errorf("label/mongo: bump artist total: %w", err)
		}
		if res.MatchedCount == 0 {
			return label.ErrArtistNotFound
		}

		err = s.mdb.Collection(colInvestments).FindOneAndUpdate(ctx,
			bson.M{"_id": investment.Key(investor, artistID)},
			bson.M{
				"$inc": bson.M{"amount": amount},
				"$set": bson.M{"updated_at": t},
				"$setOnInsert": bson.M{
					"investor":   investor,
					"artist_id":  artistID,
					"created_at": t,
				},
			},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
		).Decode(&m)
		if err != nil {
			return fmt.Errorf("label/mongo: record investment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fromInvestmentModel(&m), nil
}

func (s *Store) GetInvestment(ctx context.Context, investor string, artistID int64) (*investment.Investment, error) {
	var m investmentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": investment.Key(investor, artistID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, label.ErrNotFound
		}
		return nil, fmt.Errorf("label/mongo: get investment: %w", err)
	}
	return fromInvestmentModel(&m), nil
}

func (s *Store) ListInvestments(ctx context.Context, opts investment.ListOpts) ([]*investment.Investment, error) {
	var models []investmentModel

	filter := bson.M{}
	if opts.ArtistID != 0 {
		filter["artist_id"] = opts.ArtistID
	}
	if opts.Investor != "" {
		filter["investor"] = opts.Investor
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "artist_id", Value: 1}, {Key: "investor", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("label/mongo: list investments: %w", err)
	}

	result := make([]*investment.Investment, len(models))
	for i := range models {
		result[i] = fromInvestmentModel(&models[i])
	}
	return result, nil
}

// ==================== Royalty Store ====================

func (s *Store) CreditRoyalty(ctx context.Context, songID, artistID, amount int64) (*royalty.Balance, error) {
	t := now()

	var m royaltyModel
	err := s.mdb.Collection(colRoyalties).FindOneAndUpdate(ctx,
		bson.M{"_id": songID},
		bson.M{
			"$inc": bson.M{"balance": amount},
			"$set": bson.M{"updated_at": t},
			"$setOnInsert": bson.M{
				"artist_id":        artistID,
				"last_distributed": int64(0),
				"created_at":       t,
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		return nil, fmt.Errorf("label/mongo: credit royalty: %w", err)
	}
	return fromRoyaltyModel(&m)
}

func (s *Store) GetRoyalty(ctx context.Context, songID int64) (*royalty.Balance, error) {
	var m royaltyModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": songID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, label.ErrNoRoyalties
		}
		return nil, fmt.Errorf("label/mongo: get royalty: %w", err)
	}
	return fromRoyaltyModel(&m)
}

// DistributeRoyalty claims a positive balance with a pipeline update, so the
// amount moved into last_distributed is the balance read by the same write.
// The claim and the distribution record commit together.
func (s *Store) DistributeRoyalty(ctx context.Context, d *distribution.Distribution) error {
	err := s.inTx(ctx, func(ctx context.Context) error {
		var m royaltyModel
		err := s.mdb.Collection(colRoyalties).FindOneAndUpdate(ctx,
			bson.M{"_id": d.SongID, "balance": bson.M{"$gt": 0}},
			bson.A{bson.M{"$set": bson.M{
				"last_distributed":     "$balance",
				"balance":              int64(0),
				"last_distribution_id": d.ID.String(),
				"updated_at":           d.DistributedAt,
			}}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&m)
		if err != nil {
			if isNoDocuments(err) {
				return errNotClaimed
			}
			return fmt.Errorf("label/mongo: distribute royalty: %w", err)
		}

		d.ArtistID = m.ArtistID
		d.Amount = m.LastDistributed
		if _, err := s.mdb.NewInsert(toDistributionModel(d)).Exec(ctx); err != nil {
			return fmt.Errorf("label/mongo: record distribution: %w", err)
		}
		return nil
	})
	if errors.Is(err, errNotClaimed) {
		if _, gerr := s.GetRoyalty(ctx, d.SongID); gerr != nil {
			return gerr
		}
		return label.ErrRoyaltiesDistributed
	}
	return err
}

func (s *Store) ListDistributions(ctx context.Context, opts distribution.ListOpts) ([]*distribution.Distribution, error) {
	var models []distributionModel

	filter := bson.M{}
	if opts.SongID != 0 {
		filter["song_id"] = opts.SongID
	}
	if opts.ArtistID != 0 {
		filter["artist_id"] = opts.ArtistID
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "distributed_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("label/mongo: list distributions: %w", err)
	}

	result := make([]*distribution.Distribution, len(models))
	for i := range models {
		d, err := fromDistributionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = d
	}
	return result, nil
}

// ==================== Sale journal ====================

func (s *Store) AppendSales(ctx context.Context, sales []*sale.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	for _, sl := range sales {
		_, err := s.mdb.NewInsert(toSaleModel(sl)).Exec(ctx)
		if err != nil {
			// A replayed batch is already journaled.
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return fmt.Errorf("label/mongo: append sale: %w", err)
		}
	}
	return nil
}

func (s *Store) ListSales(ctx context.Context, opts sale.QueryOpts) ([]*sale.Sale, error) {
	var models []saleModel

	filter := bson.M{}
	if opts.SongID != 0 {
		filter["song_id"] = opts.SongID
	}
	if opts.Buyer != "" {
		filter["buyer"] = opts.Buyer
	}
	window := bson.M{}
	if !opts.Start.IsZero() {
		window["$gte"] = opts.Start
	}
	if !opts.End.IsZero() {
		window["$lte"] = opts.End
	}
	if len(window) > 0 {
		filter["purchased_at"] = window
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "purchased_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("label/mongo: list sales: %w", err)
	}

	result := make([]*sale.Sale, len(models))
	for i := range models {
		sl, err := fromSaleModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sl
	}
	return result, nil
}

// ==================== Reset ====================

func (s *Store) Reset(ctx context.Context) error {
	for _, col := range []string{
		colSales, colDistributions, colRoyalties, colInvestments,
		colSongs, colArtists, colSequences,
	} {
		if _, err := s.mdb.Collection(col).DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("label/mongo: reset %s: %w", col, err)
		}
	}
	return nil
}

// ==================== Helpers ====================

var (
	errNoTransactions = errors.New("transactions need a replica set or sharded cluster")
	errNotClaimed     = errors.New("no positive balance to claim")
)

// helloReply holds the topology fields of the hello command.
type helloReply struct {
	SetName string `bson:"setName"`
	Msg     string `bson:"msg"`
}

// supportsTransactions reports whether the server is a replica set member
// or a mongos router.
func (h helloReply) supportsTransactions() bool {
	return h.SetName != "" || h.Msg == "isdbgrid"
}

// inTx runs fn in a multi-document transaction. fn may be retried on
// transient errors.
func (s *Store) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.mdb.Client().StartSession()
	if err != nil {
		return fmt.Errorf("label/mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all label collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colSongs: {
			{Keys: bson.D{{Key: "artist_id", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colInvestments: {
			{
				Keys:    bson.D{{Key: "investor", Value: 1}, {Key: "artist_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "artist_id", Value: 1}}},
		},
		colRoyalties: {
			{Keys: bson.D{{Key: "artist_id", Value: 1}}},
		},
		colDistributions: {
			{Keys: bson.D{{Key: "song_id", Value: 1}, {Key: "distributed_at", Value: 1}}},
			{Keys: bson.D{{Key: "artist_id", Value: 1}, {Key: "distributed_at", Value: 1}}},
		},
		colSales: {
			{Keys: bson.D{{Key: "song_id", Value: 1}, {Key: "purchased_at", Value: 1}}},
			{Keys: bson.D{{Key: "buyer", Value: 1}, {Key: "purchased_at", Value: 1}}},
		},
	}
}
