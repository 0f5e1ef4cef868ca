package royalty

import (
	"github.com/xraph/label/id"
	"github.com/xraph/label/types"
)

// Balance is the undistributed revenue accrued by one song.
type Balance struct {
	types.Entity
	SongID   int64 `json:"song_id"`
	ArtistID int64 `json:"artist_id"`

	// Amount is the sum of every sale price credited since the last
	// distribution.
	Amount int64 `json:"amount"`

	LastDistributed    int64             `json:"last_distributed"`
	LastDistributionID id.DistributionID `json:"last_distribution_id"`
}

// Distributable reports whether the balance holds anything to distribute.
func (b *Balance) Distributable() bool {
	return b != nil && b.Amount > 0
}

// Clone returns a copy that shares no memory with b.
func (b *Balance) Clone() *Balance {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}
