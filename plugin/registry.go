package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/label/artist"
	"github.com/xraph/label/distribution"
	"github.com/xraph/label/investment"
	"github.com/xraph/label/sale"
	"github.com/xraph/label/song"
)

// DefaultTimeout bounds every hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                 []OnInit
	onShutdown             []OnShutdown
	onLedgerReset          []OnLedgerReset
	onArtistRegistered     []OnArtistRegistered
	onSongReleased         []OnSongReleased
	onInvestmentRecorded   []OnInvestmentRecorded
	onSongPurchased        []OnSongPurchased
	onRoyaltiesDistributed []OnRoyaltiesDistributed
	onDistributionRejected []OnDistributionRejected
	onSalesFlushed         []OnSalesFlushed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout. Non-positive values are ignored.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnLedgerReset); ok {
		r.onLedgerReset = append(r.onLedgerReset, v)
	}
	if v, ok := p.(OnArtistRegistered); ok {
		r.onArtistRegistered = append(r.onArtistRegistered, v)
	}
	if v, ok := p.(OnSongReleased); ok {
		r.onSongReleased = append(r.onSongReleased, v)
	}
	if v, ok := p.(OnInvestmentRecorded); ok {
		r.onInvestmentRecorded = append(r.onInvestmentRecorded, v)
	}
	if v, ok := p.(OnSongPurchased); ok {
		r.onSongPurchased = append(r.onSongPurchased, v)
	}
	if v, ok := p.(OnRoyaltiesDistributed); ok {
		r.onRoyaltiesDistributed = append(r.onRoyaltiesDistributed, v)
	}
	if v, ok := p.(OnDistributionRejected); ok {
		r.onDistributionRejected = append(r.onDistributionRejected, v)
	}
	if v, ok := p.(OnSalesFlushed); ok {
		r.onSalesFlushed = append(r.onSalesFlushed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	typ  reflect.Type
	name string
}{
	{reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit"},
	{reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown"},
	{reflect.TypeOf((*OnLedgerReset)(nil)).Elem(), "OnLedgerReset"},
	{reflect.TypeOf((*OnArtistRegistered)(nil)).Elem(), "OnArtistRegistered"},
	{reflect.TypeOf((*OnSongReleased)(nil)).Elem(), "OnSongReleased"},
	{reflect.TypeOf((*OnInvestmentRecorded)(nil)).Elem(), "OnInvestmentRecorded"},
	{reflect.TypeOf((*OnSongPurchased)(nil)).Elem(), "OnSongPurchased"},
	{reflect.TypeOf((*OnRoyaltiesDistributed)(nil)).Elem(), "OnRoyaltiesDistributed"},
	{reflect.TypeOf((*OnDistributionRejected)(nil)).Elem(), "OnDistributionRejected"},
	{reflect.TypeOf((*OnSalesFlushed)(nil)).Elem(), "OnSalesFlushed"},
}

// implementedInterfaces returns the hook names implemented by the plugin.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			interfaces = append(interfaces, h.name)
		}
	}
	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// emit runs call for every cached plugin, logging failures under hook.
// Hook errors never propagate to the ledger.
func emit[P Plugin](ctx context.Context, r *Registry, hook string, cached func(*Registry) []P, call func(P) error) {
	r.mu.RLock()
	plugins := cached(r)
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return call(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, l interface{}) {
	emit(ctx, r, "OnInit",
		func(r *Registry) []OnInit { return r.onInit },
		func(p OnInit) error { return p.OnInit(ctx, l) })
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown",
		func(r *Registry) []OnShutdown { return r.onShutdown },
		func(p OnShutdown) error { return p.OnShutdown(ctx) })
}

// EmitLedgerReset emits a ledger reset event.
func (r *Registry) EmitLedgerReset(ctx context.Context) {
	emit(ctx, r, "OnLedgerReset",
		func(r *Registry) []OnLedgerReset { return r.onLedgerReset },
		func(p OnLedgerReset) error { return p.OnLedgerReset(ctx) })
}

// EmitArtistRegistered emits an artist registered event.
func (r *Registry) EmitArtistRegistered(ctx context.Context, a *artist.Artist) {
	emit(ctx, r, "OnArtistRegistered",
		func(r *Registry) []OnArtistRegistered { return r.onArtistRegistered },
		func(p OnArtistRegistered) error { return p.OnArtistRegistered(ctx, a.Clone()) })
}

// EmitSongReleased emits a song released event.
func (r *Registry) EmitSongReleased(ctx context.Context, s *song.Song) {
	emit(ctx, r, "OnSongReleased",
		func(r *Registry) []OnSongReleased { return r.onSongReleased },
		func(p OnSongReleased) error { return p.OnSongReleased(ctx, s.Clone()) })
}

// EmitInvestmentRecorded emits an investment recorded event.
func (r *Registry) EmitInvestmentRecorded(ctx context.Context, inv *investment.Investment, amount int64) {
	emit(ctx, r, "OnInvestmentRecorded",
		func(r *Registry) []OnInvestmentRecorded { return r.onInvestmentRecorded },
		func(p OnInvestmentRecorded) error { return p.OnInvestmentRecorded(ctx, inv.Clone(), amount) })
}

// EmitSongPurchased emits a song purchased event.
func (r *Registry) EmitSongPurchased(ctx context.Context, s *sale.Sale) {
	emit(ctx, r, "OnSongPurchased",
		func(r *Registry) []OnSongPurchased { return r.onSongPurchased },
		func(p OnSongPurchased) error {
			c := *s
			return p.OnSongPurchased(ctx, &c)
		})
}

// EmitRoyaltiesDistributed emits a royalties distributed event.
func (r *Registry) EmitRoyaltiesDistributed(ctx context.Context, d *distribution.Distribution) {
	emit(ctx, r, "OnRoyaltiesDistributed",
		func(r *Registry) []OnRoyaltiesDistributed { return r.onRoyaltiesDistributed },
		func(p OnRoyaltiesDistributed) error {
			c := *d
			return p.OnRoyaltiesDistributed(ctx, &c)
		})
}

// EmitDistributionRejected emits a distribution rejected event.
func (r *Registry) EmitDistributionRejected(ctx context.Context, songID int64, reason error) {
	emit(ctx, r, "OnDistributionRejected",
		func(r *Registry) []OnDistributionRejected { return r.onDistributionRejected },
		func(p OnDistributionRejected) error { return p.OnDistributionRejected(ctx, songID, reason) })
}

// EmitSalesFlushed emits a sales flushed event.
func (r *Registry) EmitSalesFlushed(ctx context.Context, count int, elapsed time.Duration) {
	emit(ctx, r, "OnSalesFlushed",
		func(r *Registry) []OnSalesFlushed { return r.onSalesFlushed },
		func(p OnSalesFlushed) error { return p.OnSalesFlushed(ctx, count, elapsed) })
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
