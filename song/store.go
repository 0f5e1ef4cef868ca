package song

import "context"

type Store interface {
	Create(ctx context.Context, s *Song) error
	Get(ctx context.Context, songID int64) (*Song, error)
	List(ctx context.Context, opts ListOpts) ([]*Song, error)
	Count(ctx context.Context) (int64, error)
}

// ListOpts filters songs. A zero ArtistID lists every artist's songs.
type ListOpts struct {
	ArtistID int64
	Limit    int
	Offset   int
}
