package sale

import (
	"time"

	"github.com/xraph/label/id"
)

// Sale records one purchase of a song. The buyer identity is kept for
// auditing only; it never affects balances.
type Sale struct {
	ID          id.SaleID `json:"id"`
	SongID      int64     `json:"song_id"`
	ArtistID    int64     `json:"artist_id"`
	Buyer       string    `json:"buyer"`
	Price       int64     `json:"price"`
	PurchasedAt time.Time `json:"purchased_at"`
}
