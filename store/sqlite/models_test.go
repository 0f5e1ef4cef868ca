package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/label/artist"
	"github.com/xraph/label/id"
	"github.com/xraph/label/sale"
	"github.com/xraph/label/song"
	"github.com/xraph/label/types"
)

func TestArtistModelRoundTrip(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a := &artist.Artist{
		Entity:          types.Entity{CreatedAt: ts, UpdatedAt: ts},
		ID:              7,
		Name:            "Alice",
		Address:         "0xalice",
		TotalInvestment: 250,
	}

	got := fromArtistModel(toArtistModel(a))
	assert.Equal(t, a, got)
}

func TestSongModelRoundTrip(t *testing.T) {
	s := &song.Song{ID: 3, ArtistID: 7, Title: "Rain", Price: 99}
	assert.Equal(t, s, fromSongModel(toSongModel(s)))
}

func TestRoyaltyModelWithoutDistribution(t *testing.T) {
	b, err := fromRoyaltyModel(&royaltyModel{SongID: 1, ArtistID: 2, Balance: 40})
	require.NoError(t, err)

	assert.Equal(t, int64(40), b.Amount)
	assert.True(t, b.LastDistributionID.IsNil())
}

func TestRoyaltyModelWithDistribution(t *testing.T) {
	distID := id.NewDistributionID()
	b, err := fromRoyaltyModel(&royaltyModel{
		SongID:             1,
		ArtistID:           2,
		LastDistributed:    40,
		LastDistributionID: distID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, distID.String(), b.LastDistributionID.String())
	assert.Equal(t, int64(40), b.LastDistributed)
}

func TestDistributionModelRejectsForeignPrefix(t *testing.T) {
	_, err := fromDistributionModel(&distributionModel{ID: id.NewSaleID().String()})
	assert.Error(t, err)
}

func TestSaleModelRoundTrip(t *testing.T) {
	sl := &sale.Sale{
		ID:          id.NewSaleID(),
		SongID:      3,
		ArtistID:    7,
		Buyer:       "fan",
		Price:       99,
		PurchasedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	got, err := fromSaleModel(toSaleModel(sl))
	require.NoError(t, err)
	assert.Equal(t, sl.ID.String(), got.ID.String())
	assert.Equal(t, sl.Buyer, got.Buyer)
	assert.Equal(t, sl.PurchasedAt, got.PurchasedAt)
}
