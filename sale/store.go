package sale

import (
	"context"
	"time"
)

type Store interface {
	Append(ctx context.Context, sales []*Sale) error
	Query(ctx context.Context, opts QueryOpts) ([]*Sale, error)
}

type QueryOpts struct {
	SongID int64
	Buyer  string
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}
