package investment

import (
	"strconv"

	"github.com/xraph/label/types"
)

// Investment is the cumulative amount one investor has put into one artist.
type Investment struct {
	types.Entity
	Investor string `json:"investor"`
	ArtistID int64  `json:"artist_id"`
	Amount   int64  `json:"amount"`
}

// Key returns the registry key of the investment, "<investor>-<artistID>".
func (i *Investment) Key() string {
	return Key(i.Investor, i.ArtistID)
}

// Key builds the registry key for an (investor, artist) pair.
func Key(investor string, artistID int64) string {
	return investor + "-" + strconv.FormatInt(artistID, 10)
}

// Clone returns a copy that shares no memory with i.
func (i *Investment) Clone() *Investment {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}
