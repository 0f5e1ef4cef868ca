package artist

import "github.com/xraph/label/types"

// Artist is a registered creator. Artists are never deleted.
type Artist struct {
	types.Entity
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`

	// TotalInvestment always equals the sum of every investment recorded
	// against this artist.
	TotalInvestment int64 `json:"total_investment"`
}

// Clone returns a copy that shares no memory with a.
func (a *Artist) Clone() *Artist {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
