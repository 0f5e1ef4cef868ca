// Package id defines the TypeID-based identifiers used for journal records.
//
// Artists and songs are addressed by small sequential integers that callers
// depend on. The append-only records the label produces alongside them
// (sales and royalty distributions) are identified by TypeIDs instead:
// K-sortable, globally unique and rendered as "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the record type encoded in a TypeID.
type Prefix string

// Prefixes for every journal record type.
const (
	PrefixSale         Prefix = "sale" // Song purchase
	PrefixDistribution Prefix = "dist" // Royalty distribution
)

// ID wraps a TypeID. The zero value is Nil.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// SaleID identifies a sale record (prefix: "sale").
type SaleID = ID

// DistributionID identifies a royalty distribution (prefix: "dist").
type DistributionID = ID

// New generates a new ID with the given prefix. It panics if prefix is not a
// valid TypeID prefix, which only happens for a bad constant.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

// NewSaleID generates a new sale ID.
func NewSaleID() SaleID { return New(PrefixSale) }

// NewDistributionID generates a new distribution ID.
func NewDistributionID() DistributionID { return New(PrefixDistribution) }

// Parse parses a "prefix_suffix" string of any prefix.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses s and checks that it carries the expected prefix.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}
	return parsed, nil
}

// ParseSaleID parses a sale ID.
func ParseSaleID(s string) (SaleID, error) { return ParseWithPrefix(s, PrefixSale) }

// ParseDistributionID parses a distribution ID.
func ParseDistributionID(s string) (DistributionID, error) {
	return ParseWithPrefix(s, PrefixDistribution)
}

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

// Prefix returns the prefix component, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

// IsNil reports whether i is the zero value.
func (i ID) IsNil() bool { return !i.valid }

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler using the text form, so
// IDs survive gob encoding.
func (i ID) MarshalBinary() ([]byte, error) {
	return i.MarshalText()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (i *ID) UnmarshalBinary(data []byte) error {
	return i.UnmarshalText(data)
}

// Value implements driver.Valuer. Nil is stored as NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // NULL for driver.Valuer
	}
	return i.inner.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
