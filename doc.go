// Package label provides a ledger-backed registry for a small music label.
//
// Label is designed as a library, not a service. Import it directly into your
// Go application. It tracks:
//
//   - Artists, registered under sequential ids starting at 1
//   - Songs released by those artists, each with a fixed price
//   - Fan investments, accumulated per investor and per artist
//   - Per-song royalty balances, accrued by sales and reset on distribution
//
// # Quick Start
//
// Create a label with your preferred store:
//
//	import (
//	    "github.com/xraph/label"
//	    "github.com/xraph/label/store/bolt"
//	)
//
//	s, err := bolt.Open("label.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	l := label.New(s)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Operations
//
// Artists register on behalf of the caller carried by the context:
//
//	ctx = label.WithCaller(ctx, "0xartist")
//	a, err := l.RegisterArtist(ctx, "Alice")
//
// Songs belong to an existing artist:
//
//	s, err := l.ReleaseSong(ctx, a.ID, "First Light", 100)
//
// Every sale credits the song's price to its royalty balance, and a
// distribution releases the whole balance at once:
//
//	_, err = l.BuySong(ctx, "fan", s.ID)
//	d, err := l.DistributeRoyalties(ctx, s.ID)
//	fmt.Println(d.Amount) // 100
//
// # Error codes
//
// Every rejection maps to a stable numeric code through ErrorCode:
//
//	101  not found       unknown artist or song
//	102  already exists  id collision on registration
//	103  unauthorized    nothing to distribute for the song
//
// # Stores
//
// The registries live behind store.Store. The memory and bolt stores serve
// tests and single-process hosts; the sqlite, postgres and mongo stores are
// built on grove. Each store applies an investment together with the
// artist's total, and a distribution together with the balance reset, as a
// single atomic step. The mongo store uses transactions for this and needs a
// replica set.
//
// # TypeID
//
// Artists and songs use the sequential integer ids callers depend on. The
// journal records produced alongside them use TypeIDs:
//
//	sale_01h2xcejqtf2nbrexx3vqjhp41  // Sale ID
//	dist_01h455vb4pex5vsknk084sn02q  // Distribution ID
package label
