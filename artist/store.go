package artist

import "context"

type Store interface {
	Create(ctx context.Context, a *Artist) error
	Get(ctx context.Context, artistID int64) (*Artist, error)
	List(ctx context.Context, opts ListOpts) ([]*Artist, error)
	Count(ctx context.Context) (int64, error)
}

// ListOpts pages through artists in id order.
type ListOpts struct {
	Limit  int
	Offset int
}
