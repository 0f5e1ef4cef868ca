package plugin_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/label/artist"
	"github.com/xraph/label/distribution"
	"github.com/xraph/label/plugin"
)

type recorder struct {
	name string

	mu       sync.Mutex
	artists  []int64
	payouts  []int64
	rejected []error
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) OnArtistRegistered(_ context.Context, a *artist.Artist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artists = append(r.artists, a.ID)
	return nil
}

func (r *recorder) OnRoyaltiesDistributed(_ context.Context, d *distribution.Distribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payouts = append(r.payouts, d.Amount)
	return nil
}

func (r *recorder) OnDistributionRejected(_ context.Context, _ int64, reason error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, reason)
	return nil
}

type failing struct{}

func (failing) Name() string { return "failing" }

func (failing) OnArtistRegistered(context.Context, *artist.Artist) error {
	return errors.New("boom")
}

type slow struct{}

func (slow) Name() string { return "slow" }

func (slow) OnShutdown(ctx context.Context) error {
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
	}
	return nil
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := plugin.NewRegistry()
	require.NoError(t, r.Register(&recorder{name: "a"}))

	err := r.Register(&recorder{name: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate registration")
	assert.Equal(t, 1, r.Count())
}

func TestGetAndList(t *testing.T) {
	r := plugin.NewRegistry()
	a := &recorder{name: "a"}
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(failing{}))

	assert.Same(t, a, r.Get("a"))
	assert.Nil(t, r.Get("missing"))
	assert.Len(t, r.List(), 2)
}

func TestEmitDispatchesToImplementers(t *testing.T) {
	ctx := context.Background()
	r := plugin.NewRegistry()
	rec := &recorder{name: "rec"}
	require.NoError(t, r.Register(rec))
	require.NoError(t, r.Register(failing{}))

	// The failing plugin is logged and skipped; the recorder still runs.
	r.EmitArtistRegistered(ctx, &artist.Artist{ID: 7})
	r.EmitRoyaltiesDistributed(ctx, &distribution.Distribution{SongID: 1, Amount: 200})
	r.EmitDistributionRejected(ctx, 1, errors.New("drained"))

	// Hooks for interfaces nobody implements are no-ops.
	r.EmitSalesFlushed(ctx, 3, time.Millisecond)
	r.EmitLedgerReset(ctx)

	assert.Equal(t, []int64{7}, rec.artists)
	assert.Equal(t, []int64{200}, rec.payouts)
	require.Len(t, rec.rejected, 1)
	assert.EqualError(t, rec.rejected[0], "drained")
}

func TestHookReceivesCopy(t *testing.T) {
	ctx := context.Background()
	r := plugin.NewRegistry()
	rec := &mutator{}
	require.NoError(t, r.Register(rec))

	a := &artist.Artist{ID: 1, Name: "Alice"}
	r.EmitArtistRegistered(ctx, a)
	assert.Equal(t, "Alice", a.Name)
}

type mutator struct{}

func (*mutator) Name() string { return "mutator" }

func (*mutator) OnArtistRegistered(_ context.Context, a *artist.Artist) error {
	a.Name = "changed"
	return nil
}

func TestHookTimeout(t *testing.T) {
	r := plugin.NewRegistry().WithTimeout(20 * time.Millisecond)
	require.NoError(t, r.Register(slow{}))

	start := time.Now()
	r.EmitShutdown(context.Background())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
