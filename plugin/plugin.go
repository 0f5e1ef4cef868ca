// Package plugin provides an extensible plugin system for Label.
// Plugins can hook into ledger lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/label/artist"
	"github.com/xraph/label/distribution"
	"github.com/xraph/label/investment"
	"github.com/xraph/label/sale"
	"github.com/xraph/label/song"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// OnLedgerReset is called after every registry and counter has been cleared.
type OnLedgerReset interface {
	Plugin
	OnLedgerReset(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Registry hooks
// ──────────────────────────────────────────────────

// OnArtistRegistered is called when a new artist is registered.
type OnArtistRegistered interface {
	Plugin
	OnArtistRegistered(ctx context.Context, a *artist.Artist) error
}

// OnSongReleased is called when an artist releases a song.
type OnSongReleased interface {
	Plugin
	OnSongReleased(ctx context.Context, s *song.Song) error
}

// OnInvestmentRecorded is called after an investment has been applied.
// inv holds the investor's cumulative amount; amount is this contribution.
type OnInvestmentRecorded interface {
	Plugin
	OnInvestmentRecorded(ctx context.Context, inv *investment.Investment, amount int64) error
}

// ──────────────────────────────────────────────────
// Royalty hooks
// ──────────────────────────────────────────────────

// OnSongPurchased is called when a sale has been credited to a song.
type OnSongPurchased interface {
	Plugin
	OnSongPurchased(ctx context.Context, s *sale.Sale) error
}

// OnRoyaltiesDistributed is called when a song's balance has been released.
// Paying the amount out is left to the plugin.
type OnRoyaltiesDistributed interface {
	Plugin
	OnRoyaltiesDistributed(ctx context.Context, d *distribution.Distribution) error
}

// OnDistributionRejected is called when a distribution is refused because
// the song has no positive balance.
type OnDistributionRejected interface {
	Plugin
	OnDistributionRejected(ctx context.Context, songID int64, reason error) error
}

// OnSalesFlushed is called when buffered sales are written to the store.
type OnSalesFlushed interface {
	Plugin
	OnSalesFlushed(ctx context.Context, count int, elapsed time.Duration) error
}
