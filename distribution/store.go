package distribution

import "context"

type Store interface {
	List(ctx context.Context, opts ListOpts) ([]*Distribution, error)
}

// ListOpts filters distributions. Zero values match everything.
type ListOpts struct {
	SongID   int64
	ArtistID int64
	Limit    int
	Offset   int
}
