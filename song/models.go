package song

import "github.com/xraph/label/types"

// Song is a priced work released by an artist.
type Song struct {
	types.Entity
	ID       int64  `json:"id"`
	ArtistID int64  `json:"artist_id"`
	Title    string `json:"title"`

	// Price is credited to the song's royalty balance on every sale. It is
	// a currency-agnostic integer amount.
	Price int64 `json:"price"`
}

// Clone returns a copy that shares no memory with s.
func (s *Song) Clone() *Song {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
