package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Label store.
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
    value BIGINT NOT NULL DEFAULT 0
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
    id               BIGINT PRIMARY KEY,
    name             TEXT NOT NULL DEFAULT '',
    address          TEXT NOT NULL DEFAULT '',
    total_investment BIGINT NOT NULL DEFAULT 0,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    id         BIGINT PRIMARY KEY,
    artist_id  BIGINT NOT NULL REFERENCES label_artists (id) ON DELETE CASCADE,
    title      TEXT NOT NULL DEFAULT '',
    price      BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS label_investments (
    investor   TEXT NOT NULL,
    artist_id  BIGINT NOT NULL REFERENCES label_artists (id) ON DELETE CASCADE,
    amount     BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (investor, artist_id)
);

CREATE INDEX IF NOT EXISTS idx_label_investments_artist ON label_investments (artist_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS label_investments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_label_royalties",
			Version: "20250101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS label_royalties (
    song_id              BIGINT PRIMARY KEY,
    artist_id            BIGINT NOT NULL,
    balance              BIGINT NOT NULL DEFAULT 0,
    last_distributed     BIGINT NOT NULL DEFAULT 0,
    last_distribution_id TEXT NOT NULL DEFAULT '',
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS label_distributions (
    id             TEXT PRIMARY KEY,
    song_id        BIGINT NOT NULL,
    artist_id      BIGINT NOT NULL,
    amount         BIGINT NOT NULL,
    distributed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_label_distributions_song ON label_distributions (song_id, distributed_at);
CREATE INDEX IF NOT EXISTS idx_label_distributions_artist ON label_distributions (artist_id, distributed_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
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
    song_id      BIGINT NOT NULL,
    artist_id    BIGINT NOT NULL,
    buyer        TEXT NOT NULL DEFAULT '',
    price        BIGINT NOT NULL DEFAULT 0,
    purchased_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
