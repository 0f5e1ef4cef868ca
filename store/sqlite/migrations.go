package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Label store (SQLite).
var Migrations = migrate.NewGroup("label")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_label_sequences",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS label_sequences (
    name  TEXT PRIMARY KEY,
    value INTEGER NOT NULL DEFAULT 0
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS label_sequences`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_label_artists",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS label_artists (
    id               INTEGER PRIMARY KEY,
    name             TEXT NOT NULL DEFAULT '',
    address          TEXT NOT NULL DEFAULT '',
    total_investment INTEGER NOT NULL DEFAULT 0,
    created_at       TIMESTAMP NOT NULL DEFAULT (datetime('now')),
    updated_at       TIMESTAMP NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS label_artists`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_label_songs",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS label_songs (
    id         INTEGER PRIMARY KEY,
    artist_id  INTEGER NOT NULL,
    title      TEXT NOT NULL DEFAULT '',
    price      INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT (datetime('now')),
    updated_at TIMESTAMP NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_label_songs_artist ON label_songs (artist_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS label_songs`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_label_investments",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				// The triggers keep label_artists.total_investment equal to the
				// sum of the artist's investments inside the same statement.
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS label_investments (
    investor   TEXT NOT NULL,
    artist_id  INTEGER NOT NULL,
    amount     INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT (datetime('now')),
    updated_at TIMESTAMP NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (investor, artist_id)
);

CREATE INDEX IF NOT EXISTS idx_label_investments_artist ON label_investments (artist_id);

CREATE TRIGGER IF NOT EXISTS trg_label_investments_insert
AFTER INSERT ON label_investments
BEGIN
    UPDATE label_artists
       SET total_investment = total_investment + NEW.amount,
           updated_at = NEW.updated_at
     WHERE id = NEW.artist_id;
END;

CREATE TRIGGER IF NOT EXISTS trg_label_investments_update
AFTER UPDATE OF amount ON label_investments
BEGIN
    UPDATE label_artists
       SET total_investment = total_investment + NEW.amount - OLD.amount,
           updated_at = NEW.updated_at
     WHERE id = NEW.artist_id;
END;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TRIGGER IF EXISTS trg_label_investments_update;
DROP TRIGGER IF EXISTS trg_label_investments_insert;
DROP TABLE IF EXISTS label_investments;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_label_royalties",
			Version: "20250101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS label_royalties (
    song_id              INTEGER PRIMARY KEY,
    artist_id            INTEGER NOT NULL,
    balance              INTEGER NOT NULL DEFAULT 0,
    last_distributed     INTEGER NOT NULL DEFAULT 0,
    last_distribution_id TEXT NOT NULL DEFAULT '',
    created_at           TIMESTAMP NOT NULL DEFAULT (datetime('now')),
    updated_at           TIMESTAMP NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS label_distributions (
    id             TEXT PRIMARY KEY,
    song_id        INTEGER NOT NULL,
    artist_id      INTEGER NOT NULL,
    amount         INTEGER NOT NULL,
    distributed_at TIMESTAMP NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_label_distributions_song ON label_distributions (song_id, distributed_at);
CREATE INDEX IF NOT EXISTS idx_label_distributions_artist ON label_distributions (artist_id, distributed_at);

CREATE TRIGGER IF NOT EXISTS trg_label_royalties_distributed
AFTER UPDATE OF last_distribution_id ON label_royalties
WHEN NEW.last_distribution_id != ''
BEGIN
    INSERT INTO label_distributions (id, song_id, artist_id, amount, distributed_at)
    VALUES (NEW.last_distribution_id, NEW.song_id, NEW.artist_id, NEW.last_distributed, NEW.updated_at);
END;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TRIGGER IF EXISTS trg_label_royalties_distributed;
DROP TABLE IF EXISTS label_distributions;
DROP TABLE IF EXISTS label_royalties;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_label_sales",
			Version: "20250101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS label_sales (
    id           TEXT PRIMARY KEY,
    song_id      INTEGER NOT NULL,
    artist_id    INTEGER NOT NULL,
    buyer        TEXT NOT NULL DEFAULT '',
    price        INTEGER NOT NULL DEFAULT 0,
    purchased_at TIMESTAMP NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_label_sales_song ON label_sales (song_id, purchased_at);
CREATE INDEX IF NOT EXISTS idx_label_sales_buyer ON label_sales (buyer, purchased_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS label_sales`)
				return err
			},
		},
	)
}
