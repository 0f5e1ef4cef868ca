package royalty

import (
	"context"

	"github.com/xraph/label/distribution"
)

type Store interface {
	Credit(ctx context.Context, songID, artistID, amount int64) (*Balance, error)
	Get(ctx context.Context, songID int64) (*Balance, error)

	// Distribute zeroes the balance of d.SongID, fills d.Amount and
	// d.ArtistID from it and appends d to the distribution history, all in
	// one atomic step.
	Distribute(ctx context.Context, d *distribution.Distribution) error
}
