package observability_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/label"
	"github.com/xraph/label/observability"
	"github.com/xraph/label/store/memory"
)

func TestMetricsExtensionCountsLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))

	l := label.New(memory.New(), label.WithPlugin(metrics))
	ctx := context.Background()

	a, err := l.RegisterArtist(ctx, "Alice")
	require.NoError(t, err)
	s, err := l.ReleaseSong(ctx, a.ID, "Rain", 25)
	require.NoError(t, err)
	_, err = l.BuySong(ctx, "fan-1", s.ID)
	require.NoError(t, err)
	_, err = l.BuySong(ctx, "fan-2", s.ID)
	require.NoError(t, err)

	_, err = l.DistributeRoyalties(ctx, 99)
	require.Error(t, err)
	_, err = l.DistributeRoyalties(ctx, s.ID)
	require.NoError(t, err)
	_, err = l.DistributeRoyalties(ctx, s.ID)
	require.Error(t, err)

	counter := func(c observability.Counter) float64 {
		return testutil.ToFloat64(c.(prometheus.Counter))
	}

	assert.Equal(t, 1.0, counter(metrics.ArtistsRegistered))
	assert.Equal(t, 1.0, counter(metrics.SongsReleased))
	assert.Equal(t, 2.0, counter(metrics.SongsPurchased))
	assert.Equal(t, 50.0, counter(metrics.SalesRevenue))
	assert.Equal(t, 1.0, counter(metrics.Distributions))
	assert.Equal(t, 50.0, counter(metrics.DistributedAmount))
	assert.Equal(t, 2.0, counter(metrics.DistributionRejected))
	assert.Equal(t, 1.0, counter(metrics.NoRoyaltiesRejected))
	assert.Equal(t, 1.0, counter(metrics.AlreadyPaidRejected))
}

func TestPrometheusFactoryNamesAndReuse(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := observability.NewPrometheusFactory(reg)

	c1 := f.Counter("label.song.purchased")
	c2 := f.Counter("label.song.purchased")
	c1.Inc()
	c2.Add(2)
	f.Histogram("label.journal.batch.size").Observe(3)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.ElementsMatch(t, []string{"label_song_purchased_total", "label_journal_batch_size"}, names)
	assert.Equal(t, 3.0, testutil.ToFloat64(c1.(prometheus.Counter)))
}
