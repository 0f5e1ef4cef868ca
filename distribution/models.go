package distribution

import (
	"time"

	"github.com/xraph/label/id"
)

// Distribution is the statement produced when a song's accrued royalties
// are released. Amount is the balance that was reset to zero; paying it out
// is left to whoever observes the statement.
type Distribution struct {
	ID            id.DistributionID `json:"id"`
	SongID        int64             `json:"song_id"`
	ArtistID      int64             `json:"artist_id"`
	Amount        int64             `json:"amount"`
	DistributedAt time.Time         `json:"distributed_at"`
}
