package label

import "github.com/xraph/label/id"

// ID identifies journal records (sales and distributions).
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
