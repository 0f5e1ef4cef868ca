// Package observability provides a metrics extension for Label that records
// lifecycle event counts via a MetricFactory.
package observability

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/label"
	"github.com/xraph/label/artist"
	"github.com/xraph/label/distribution"
	"github.com/xraph/label/investment"
	"github.com/xraph/label/plugin"
	"github.com/xraph/label/sale"
	"github.com/xraph/label/song"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnArtistRegistered     = (*MetricsExtension)(nil)
	_ plugin.OnSongReleased         = (*MetricsExtension)(nil)
	_ plugin.OnInvestmentRecorded   = (*MetricsExtension)(nil)
	_ plugin.OnSongPurchased        = (*MetricsExtension)(nil)
	_ plugin.OnSalesFlushed         = (*MetricsExtension)(nil)
	_ plugin.OnRoyaltiesDistributed = (*MetricsExtension)(nil)
	_ plugin.OnDistributionRejected = (*MetricsExtension)(nil)
	_ plugin.OnLedgerReset          = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Label plugin to automatically track catalog and payout metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Catalog metrics
	ArtistsRegistered Counter
	SongsReleased     Counter
	SongPrice         Histogram

	// Funding metrics
	Investments      Counter
	InvestmentAmount Histogram

	// Sales metrics
	SongsPurchased   Counter
	SalesRevenue     Counter
	JournalBatchSize Histogram
	JournalLatency   Histogram

	// Payout metrics
	Distributions        Counter
	DistributedAmount    Counter
	NoRoyaltiesRejected  Counter
	AlreadyPaidRejected  Counter
	DistributionRejected Counter

	// Ledger metrics
	Resets Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions or NewPrometheusFactory standalone.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		ArtistsRegistered: factory.Counter("label.artist.registered"),
		SongsReleased:     factory.Counter("label.song.released"),
		SongPrice:         factory.Histogram("label.song.price"),

		Investments:      factory.Counter("label.investment.recorded"),
		InvestmentAmount: factory.Histogram("label.investment.amount"),

		SongsPurchased:   factory.Counter("label.song.purchased"),
		SalesRevenue:     factory.Counter("label.sales.revenue"),
		JournalBatchSize: factory.Histogram("label.journal.batch.size"),
		JournalLatency:   factory.Histogram("label.journal.flush.latency_ms"),

		Distributions:        factory.Counter("label.royalties.distributed"),
		DistributedAmount:    factory.Counter("label.royalties.distributed.amount"),
		NoRoyaltiesRejected:  factory.Counter("label.royalties.rejected.none"),
		AlreadyPaidRejected:  factory.Counter("label.royalties.rejected.distributed"),
		DistributionRejected: factory.Counter("label.royalties.rejected"),

		Resets: factory.Counter("label.ledger.reset"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnArtistRegistered implements plugin.OnArtistRegistered.
func (m *MetricsExtension) OnArtistRegistered(_ context.Context, _ *artist.Artist) error {
	m.ArtistsRegistered.Inc()
	return nil
}

// OnSongReleased implements plugin.OnSongReleased.
func (m *MetricsExtension) OnSongReleased(_ context.Context, s *song.Song) error {
	m.SongsReleased.Inc()
	m.SongPrice.Observe(float64(s.Price))
	return nil
}

// ──────────────────────────────────────────────────
// Funding and sales hooks
// ──────────────────────────────────────────────────

// OnInvestmentRecorded implements plugin.OnInvestmentRecorded.
func (m *MetricsExtension) OnInvestmentRecorded(_ context.Context, _ *investment.Investment, amount int64) error {
	m.Investments.Inc()
	m.InvestmentAmount.Observe(float64(amount))
	return nil
}

// OnSongPurchased implements plugin.OnSongPurchased.
func (m *MetricsExtension) OnSongPurchased(_ context.Context, s *sale.Sale) error {
	m.SongsPurchased.Inc()
	// Prometheus counters reject negative deltas.
	if s.Price > 0 {
		m.SalesRevenue.Add(float64(s.Price))
	}
	return nil
}

// OnSalesFlushed implements plugin.OnSalesFlushed.
func (m *MetricsExtension) OnSalesFlushed(_ context.Context, count int, elapsed time.Duration) error {
	m.JournalBatchSize.Observe(float64(count))
	m.JournalLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// ──────────────────────────────────────────────────
// Payout hooks
// ──────────────────────────────────────────────────

// OnRoyaltiesDistributed implements plugin.OnRoyaltiesDistributed.
func (m *MetricsExtension) OnRoyaltiesDistributed(_ context.Context, d *distribution.Distribution) error {
	m.Distributions.Inc()
	m.DistributedAmount.Add(float64(d.Amount))
	return nil
}

// OnDistributionRejected implements plugin.OnDistributionRejected.
func (m *MetricsExtension) OnDistributionRejected(_ context.Context, _ int64, reason error) error {
	m.DistributionRejected.Inc()
	switch {
	case errors.Is(reason, label.ErrNoRoyalties):
		m.NoRoyaltiesRejected.Inc()
	case errors.Is(reason, label.ErrRoyaltiesDistributed):
		m.AlreadyPaidRejected.Inc()
	}
	return nil
}

// OnLedgerReset implements plugin.OnLedgerReset.
func (m *MetricsExtension) OnLedgerReset(_ context.Context) error {
	m.Resets.Inc()
	return nil
}
