package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/driver"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/label"
	"github.com/xraph/label/artist"
	"github.com/xraph/label/distribution"
	"github.com/xraph/label/investment"
	"github.com/xraph/label/royalty"
	"github.com/xraph/label/sale"
	"github.com/xraph/label/song"
	labelstore "github.com/xraph/label/store"
)

// compile-time interface check
var _ labelstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
//
// Multi-row transitions are single statements: investment totals are kept by
// triggers on label_investments, and a distribution is recorded by a trigger
// on label_royalties fired by the claiming UPDATE.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// busyTimeout is how long a connection waits on a locked database.
const busyTimeout = 5 * time.Second

// Open opens the SQLite database file at path and wraps it in a Store. The
// pool holds a single connection with a busy timeout, since SQLite admits one
// writer at a time.
func Open(ctx context.Context, path string) (*Store, error) {
	sdb := sqlitedriver.New()
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, busyTimeout.Milliseconds())
	if err := sdb.Open(ctx, dsn, driver.WithPoolSize(1)); err != nil {
		return nil, fmt.Errorf("label/sqlite: open %s: %w", path, err)
	}
	db, err := grove.Open(sdb)
	if err != nil {
		_ = sdb.Close()
		return nil, fmt.Errorf("label/sqlite: open %s: %w", path, err)
	}
	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("label/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("label/sqlite: %w: %w", label.ErrMigrationFailed, err)
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
	var next int64
	err := s.sdb.NewRaw(`
		INSERT INTO label_sequences (name, value) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET value = label_sequences.value + 1
		RETURNING value
	`, string(seq)).Scan(ctx, &next)
	if err != nil {
		return 0, fmt.Errorf("label/sqlite: next %s id: %w", seq, err)
	}
	return next, nil
}

// ==================== Artist Store ====================

func (s *Store) CreateArtist(ctx context.Context, a *artist.Artist) error {
	res, err := s.sdb.NewInsert(toArtistModel(a)).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return label.ErrArtistExists
	}
	return nil
}

func (s *Store) GetArtist(ctx context.Context, artistID int64) (*artist.Artist, error) {
	m := new(artistModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", artistID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, label.ErrArtistNotFound
		}
		return nil, err
	}
	return fromArtistModel(m), nil
}

func (s *Store) ListArtists(ctx context.Context, opts artist.ListOpts) ([]*artist.Artist, error) {
	var models []artistModel
	q := s.sdb.NewSelect(&models)

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*artist.Artist, len(models))
	for i := range models {
		result[i] = fromArtistModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountArtists(ctx context.Context) (int64, error) {
	var n int64
	err := s.sdb.NewRaw(`SELECT COUNT(*) FROM label_artists`).Scan(ctx, &n)
	return n, err
}

// ==================== Song Store ====================

func (s *Store) CreateSong(ctx context.Context, sg *song.Song) error {
	if _, err := s.GetArtist(ctx, sg.ArtistID); err != nil {
		return err
	}
	res, err := s.sdb.NewInsert(toSongModel(sg)).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return label.ErrSongExists
	}
	return nil
}

func (s *Store) GetSong(ctx context.Context, songID int64) (*song.Song, error) {
	m := new(songModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", songID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, label.ErrSongNotFound
		}
		return nil, err
	}
	return fromSongModel(m), nil
}

func (s *Store) ListSongs(ctx context.Context, opts song.ListOpts) ([]*song.Song, error) {
	var models []songModel
	q := s.sdb.NewSelect(&models)

	if opts.ArtistID != 0 {
		q = q.Where("artist_id = ?", opts.ArtistID)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*song.Song, len(models))
	for i := range models {
		result[i] = fromSongModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountSongs(ctx context.Context) (int64, error) {
	var n int64
	err := s.sdb.NewRaw(`SELECT COUNT(*) FROM label_songs`).Scan(ctx, &n)
	return n, err
}

// ==================== Investment Store ====================

// RecordInvestment upserts the investment only if the artist exists. The
// artist total follows through the label_investments triggers.
func (s *Store) RecordInvestment(ctx context.Context, investor string, artistID, amount int64) (*investment.Investment, error) {
	t := now()

	var cumulative int64
	err := s.sdb.NewRaw(`
		INSERT INTO label_investments (investor, artist_id, amount, created_at, updated_at)
		SELECT ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM label_artists WHERE id = ?)
		ON CONFLICT (investor, artist_id) DO UPDATE
		SET amount = label_investments.amount + excluded.amount,
		    updated_at = excluded.updated_at
		RETURNING amount
	`, investor, artistID, amount, t, t, artistID).Scan(ctx, &cumulative)
	if err != nil {
		if isNoRows(err) {
			return nil, label.ErrArtistNotFound
		}
		return nil, err
	}

	return s.GetInvestment(ctx, investor, artistID)
}

func (s *Store) GetInvestment(ctx context.Context, investor string, artistID int64) (*investment.Investment, error) {
	m := new(investmentModel)
	err := s.sdb.NewSelect(m).
		Where("investor = ?", investor).
		Where("artist_id = ?", artistID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, label.ErrNotFound
		}
		return nil, err
	}
	return fromInvestmentModel(m), nil
}

func (s *Store) ListInvestments(ctx context.Context, opts investment.ListOpts) ([]*investment.Investment, error) {
	var models []investmentModel
	q := s.sdb.NewSelect(&models)

	if opts.ArtistID != 0 {
		q = q.Where("artist_id = ?", opts.ArtistID)
	}
	if opts.Investor != "" {
		q = q.Where("investor = ?", opts.Investor)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("artist_id ASC, investor ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	_, err := s.sdb.NewInsert(&royaltyModel{
		SongID:    songID,
		ArtistID:  artistID,
		Balance:   amount,
		CreatedAt: t,
		UpdatedAt: t,
	}).
		OnConflict("(song_id) DO UPDATE").
		Set("balance = label_royalties.balance + EXCLUDED.balance").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetRoyalty(ctx, songID)
}

func (s *Store) GetRoyalty(ctx context.Context, songID int64) (*royalty.Balance, error) {
	m := new(royaltyModel)
	err := s.sdb.NewSelect(m).
		Where("song_id = ?", songID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, label.ErrNoRoyalties
		}
		return nil, err
	}
	return fromRoyaltyModel(m)
}

// DistributeRoyalty claims a positive balance with one UPDATE; the
// distribution row is written by trg_label_royalties_distributed.
func (s *Store) DistributeRoyalty(ctx context.Context, d *distribution.Distribution) error {
	var amount int64
	err := s.sdb.NewRaw(`
		UPDATE label_royalties
		   SET last_distributed = balance,
		       balance = 0,
		       last_distribution_id = ?,
		       updated_at = ?
		 WHERE song_id = ? AND balance > 0
		RETURNING last_distributed
	`, d.ID.String(), d.DistributedAt, d.SongID).Scan(ctx, &amount)
	if err != nil {
		if isNoRows(err) {
			return s.rejectDistribution(ctx, d.SongID)
		}
		return err
	}

	bal, err := s.GetRoyalty(ctx, d.SongID)
	if err != nil {
		return err
	}
	d.Amount = amount
	d.ArtistID = bal.ArtistID
	return nil
}

// rejectDistribution picks the error for a song whose balance could not be
// claimed.
func (s *Store) rejectDistribution(ctx context.Context, songID int64) error {
	if _, err := s.GetRoyalty(ctx, songID); err != nil {
		return err
	}
	return label.ErrRoyaltiesDistributed
}

func (s *Store) ListDistributions(ctx context.Context, opts distribution.ListOpts) ([]*distribution.Distribution, error) {
	var models []distributionModel
	q := s.sdb.NewSelect(&models)

	if opts.SongID != 0 {
		q = q.Where("song_id = ?", opts.SongID)
	}
	if opts.ArtistID != 0 {
		q = q.Where("artist_id = ?", opts.ArtistID)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("distributed_at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	models := make([]saleModel, len(sales))
	for i, sl := range sales {
		models[i] = *toSaleModel(sl)
	}
	_, err := s.sdb.NewInsert(&models).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	return err
}

func (s *Store) ListSales(ctx context.Context, opts sale.QueryOpts) ([]*sale.Sale, error) {
	var models []saleModel
	q := s.sdb.NewSelect(&models)

	if opts.SongID != 0 {
		q = q.Where("song_id = ?", opts.SongID)
	}
	if opts.Buyer != "" {
		q = q.Where("buyer = ?", opts.Buyer)
	}
	if !opts.Start.IsZero() {
		q = q.Where("purchased_at >= ?", opts.Start)
	}
	if !opts.End.IsZero() {
		q = q.Where("purchased_at <= ?", opts.End)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("purchased_at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	tables := []any{
		(*saleModel)(nil),
		(*distributionModel)(nil),
		(*royaltyModel)(nil),
		(*investmentModel)(nil),
		(*songModel)(nil),
		(*artistModel)(nil),
		(*sequenceModel)(nil),
	}
	for _, m := range tables {
		if _, err := s.sdb.NewDelete(m).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("label/sqlite: reset: %w", err)
		}
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
