package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/label/id"
)

func TestFromRoyaltyModel(t *testing.T) {
	distID := id.NewDistributionID()

	tests := []struct {
		name    string
		model   royaltyModel
		wantNil bool
		wantErr bool
	}{
		{"never distributed", royaltyModel{SongID: 1, Balance: 10}, true, false},
		{"distributed", royaltyModel{SongID: 1, LastDistributionID: distID.String()}, false, false},
		{"corrupt id", royaltyModel{SongID: 1, LastDistributionID: "dist_???"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := fromRoyaltyModel(&tt.model)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNil, b.LastDistributionID.IsNil())
		})
	}
}

func TestFromDistributionModel(t *testing.T) {
	distID := id.NewDistributionID()
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	d, err := fromDistributionModel(&distributionModel{
		ID:            distID.String(),
		SongID:        4,
		ArtistID:      2,
		Amount:        300,
		DistributedAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, distID.String(), d.ID.String())
	assert.Equal(t, int64(300), d.Amount)
	assert.Equal(t, at, d.DistributedAt)
}
