package investment

import "context"

type Store interface {
	// Record adds amount to the (investor, artistID) investment and to the
	// artist's total in one atomic step.
	Record(ctx context.Context, investor string, artistID, amount int64) (*Investment, error)
	Get(ctx context.Context, investor string, artistID int64) (*Investment, error)
	List(ctx context.Context, opts ListOpts) ([]*Investment, error)
}

// ListOpts filters investments. Zero values match everything.
type ListOpts struct {
	ArtistID int64
	Investor string
	Limit    int
	Offset   int
}
