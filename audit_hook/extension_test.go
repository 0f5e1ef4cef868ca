package audithook_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/label"
	"github.com/xraph/label/artist"
	audithook "github.com/xraph/label/audit_hook"
	"github.com/xraph/label/store/memory"
)

type captured struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (c *captured) Record(_ context.Context, evt *audithook.AuditEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *captured) actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.Action
	}
	return out
}

func TestExtensionRecordsLabelLifecycle(t *testing.T) {
	rec := &captured{}
	// Not started, so each sale is journaled synchronously before the
	// purchase hook fires.
	l := label.New(memory.New(), label.WithPlugin(audithook.New(rec)))
	ctx := context.Background()

	a, err := l.RegisterArtist(ctx, "Alice")
	require.NoError(t, err)
	s, err := l.ReleaseSong(ctx, a.ID, "Rain", 10)
	require.NoError(t, err)
	_, err = l.InvestInArtist(ctx, "0xfan", a.ID, 5)
	require.NoError(t, err)
	_, err = l.BuySong(ctx, "0xfan", s.ID)
	require.NoError(t, err)
	_, err = l.DistributeRoyalties(ctx, s.ID)
	require.NoError(t, err)
	_, err = l.DistributeRoyalties(ctx, s.ID)
	require.Error(t, err)

	assert.Equal(t, []string{
		audithook.ActionArtistRegistered,
		audithook.ActionSongReleased,
		audithook.ActionInvestmentRecorded,
		audithook.ActionSalesFlushed,
		audithook.ActionSongPurchased,
		audithook.ActionRoyaltiesDistributed,
		audithook.ActionDistributionRejected,
	}, rec.actions())

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, audithook.OutcomeFailure, last.Outcome)
	assert.Equal(t, audithook.SeverityWarning, last.Severity)
	assert.NotEmpty(t, last.Reason)
	assert.Equal(t, "1", last.ResourceID)
}

func TestEnabledActionsFilter(t *testing.T) {
	rec := &captured{}
	ext := audithook.New(rec, audithook.WithEnabledActions(audithook.ActionLedgerReset))
	l := label.New(memory.New(), label.WithPlugin(ext))
	ctx := context.Background()

	_, err := l.RegisterArtist(ctx, "Alice")
	require.NoError(t, err)
	require.NoError(t, l.Reset(ctx))

	assert.Equal(t, []string{audithook.ActionLedgerReset}, rec.actions())
}

func TestDisabledActionsFilter(t *testing.T) {
	rec := &captured{}
	ext := audithook.New(rec, audithook.WithDisabledActions(audithook.ActionArtistRegistered))

	require.NoError(t, ext.OnArtistRegistered(context.Background(), &artist.Artist{ID: 1, Name: "Alice"}))
	require.NoError(t, ext.OnLedgerReset(context.Background()))

	assert.Equal(t, []string{audithook.ActionLedgerReset}, rec.actions())
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))

	assert.NoError(t, ext.OnLedgerReset(context.Background()))
}
