package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/label/distribution"
	"github.com/xraph/label/id"
)

func TestRoyaltyModelWithoutDistribution(t *testing.T) {
	b, err := fromRoyaltyModel(&royaltyModel{SongID: 5, ArtistID: 2, Balance: 70})
	require.NoError(t, err)
	assert.Equal(t, int64(70), b.Amount)
	assert.True(t, b.LastDistributionID.IsNil())
}

func TestDistributionModelRoundTrip(t *testing.T) {
	d := &distribution.Distribution{
		ID:            id.NewDistributionID(),
		SongID:        5,
		ArtistID:      2,
		Amount:        70,
		DistributedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	got, err := fromDistributionModel(toDistributionModel(d))
	require.NoError(t, err)
	assert.Equal(t, d.ID.String(), got.ID.String())
	assert.Equal(t, d.Amount, got.Amount)
	assert.Equal(t, d.DistributedAt, got.DistributedAt)
}

func TestInvestmentModelKeyedByPair(t *testing.T) {
	m := &investmentModel{Key: "0xfan-3", Investor: "0xfan", ArtistID: 3, Amount: 10}
	inv := fromInvestmentModel(m)
	assert.Equal(t, m.Key, inv.Key())
}

func TestHelloReplySupportsTransactions(t *testing.T) {
	tests := []struct {
		name  string
		reply helloReply
		want  bool
	}{
		{"standalone", helloReply{}, false},
		{"replica set member", helloReply{SetName: "rs0"}, true},
		{"mongos", helloReply{Msg: "isdbgrid"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.reply.supportsTransactions())
		})
	}
}
