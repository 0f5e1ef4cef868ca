// Package audithook bridges label lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xraph/label/artist"
	"github.com/xraph/label/distribution"
	"github.com/xraph/label/investment"
	"github.com/xraph/label/plugin"
	"github.com/xraph/label/sale"
	"github.com/xraph/label/song"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnArtistRegistered     = (*Extension)(nil)
	_ plugin.OnSongReleased         = (*Extension)(nil)
	_ plugin.OnInvestmentRecorded   = (*Extension)(nil)
	_ plugin.OnSongPurchased        = (*Extension)(nil)
	_ plugin.OnRoyaltiesDistributed = (*Extension)(nil)
	_ plugin.OnDistributionRejected = (*Extension)(nil)
	_ plugin.OnSalesFlushed         = (*Extension)(nil)
	_ plugin.OnLedgerReset          = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so the audit_hook package carries no backend
// dependency.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges label lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnArtistRegistered implements plugin.OnArtistRegistered.
func (e *Extension) OnArtistRegistered(ctx context.Context, a *artist.Artist) error {
	return e.record(ctx, ActionArtistRegistered, SeverityInfo, OutcomeSuccess,
		ResourceArtist, idString(a.ID), CategoryCatalog, nil,
		"name", a.Name,
		"address", a.Address,
	)
}

// OnSongReleased implements plugin.OnSongReleased.
func (e *Extension) OnSongReleased(ctx context.Context, s *song.Song) error {
	return e.record(ctx, ActionSongReleased, SeverityInfo, OutcomeSuccess,
		ResourceSong, idString(s.ID), CategoryCatalog, nil,
		"artist_id", s.ArtistID,
		"title", s.Title,
		"price", s.Price,
	)
}

// ──────────────────────────────────────────────────
// Funding and sales hooks
// ──────────────────────────────────────────────────

// OnInvestmentRecorded implements plugin.OnInvestmentRecorded.
func (e *Extension) OnInvestmentRecorded(ctx context.Context, inv *investment.Investment, amount int64) error {
	return e.record(ctx, ActionInvestmentRecorded, SeverityInfo, OutcomeSuccess,
		ResourceInvestment, inv.Key(), CategoryFunding, nil,
		"investor", inv.Investor,
		"artist_id", inv.ArtistID,
		"amount", amount,
		"cumulative", inv.Amount,
	)
}

// OnSongPurchased implements plugin.OnSongPurchased.
func (e *Extension) OnSongPurchased(ctx context.Context, s *sale.Sale) error {
	return e.record(ctx, ActionSongPurchased, SeverityInfo, OutcomeSuccess,
		ResourceSong, idString(s.SongID), CategorySales, nil,
		"sale_id", s.ID.String(),
		"buyer", s.Buyer,
		"price", s.Price,
	)
}

// OnSalesFlushed implements plugin.OnSalesFlushed.
func (e *Extension) OnSalesFlushed(ctx context.Context, count int, elapsed time.Duration) error {
	return e.record(ctx, ActionSalesFlushed, SeverityInfo, OutcomeSuccess,
		ResourceJournal, "", CategorySales, nil,
		"count", count,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Payout hooks
// ──────────────────────────────────────────────────

// OnRoyaltiesDistributed implements plugin.OnRoyaltiesDistributed.
func (e *Extension) OnRoyaltiesDistributed(ctx context.Context, d *distribution.Distribution) error {
	return e.record(ctx, ActionRoyaltiesDistributed, SeverityInfo, OutcomeSuccess,
		ResourceRoyalty, idString(d.SongID), CategoryPayout, nil,
		"distribution_id", d.ID.String(),
		"artist_id", d.ArtistID,
		"amount", d.Amount,
	)
}

// OnDistributionRejected implements plugin.OnDistributionRejected.
func (e *Extension) OnDistributionRejected(ctx context.Context, songID int64, reason error) error {
	return e.record(ctx, ActionDistributionRejected, SeverityWarning, OutcomeFailure,
		ResourceRoyalty, idString(songID), CategoryPayout, reason,
	)
}

// OnLedgerReset implements plugin.OnLedgerReset.
func (e *Extension) OnLedgerReset(ctx context.Context) error {
	return e.record(ctx, ActionLedgerReset, SeverityCritical, OutcomeSuccess,
		ResourceLedger, "", CategorySystem, nil,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

func idString(v int64) string {
	return strconv.FormatInt(v, 10)
}
