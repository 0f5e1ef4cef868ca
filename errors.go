package label

import (
	"errors"
	"fmt"
)

// Code is the stable numeric error code exposed to callers of the label.
// The values are part of the public contract and must never change.
type Code int

// Error codes.
const (
	CodeOK            Code = 0
	CodeNotFound      Code = 101
	CodeAlreadyExists Code = 102
	CodeUnauthorized  Code = 103
)

// String returns the kind name of the code.
func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeNotFound:
		return "not_found"
	case CodeAlreadyExists:
		return "already_exists"
	case CodeUnauthorized:
		return "unauthorized"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("label: not found")
	ErrAlreadyExists = errors.New("label: already exists")
	ErrUnauthorized  = errors.New("label: unauthorized")

	// Artist errors
	ErrArtistNotFound = errors.New("label: artist not found")
	ErrArtistExists   = errors.New("label: artist id already exists")

	// Song errors
	ErrSongNotFound = errors.New("label: song not found")
	ErrSongExists   = errors.New("label: song id already exists")

	// Royalty errors. Both surface as CodeUnauthorized; they are kept apart
	// so logs and plugins can tell a never-sold song from a drained one.
	ErrNoRoyalties          = errors.New("label: no royalties accrued for song")
	ErrRoyaltiesDistributed = errors.New("label: royalty balance already distributed")

	// Store errors
	ErrStoreClosed     = errors.New("label: store is closed")
	ErrMigrationFailed = errors.New("label: migration failed")
)

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrArtistNotFound) ||
		errors.Is(err, ErrSongNotFound)
}

// IsAlreadyExists returns true if the error reports an id collision.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrArtistExists) ||
		errors.Is(err, ErrSongExists)
}

// IsUnauthorized returns true if the error rejects a royalty distribution.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNoRoyalties) ||
		errors.Is(err, ErrRoyaltiesDistributed)
}

// ErrorCode maps an error returned by a Label operation to its stable code.
// nil maps to CodeOK; errors outside the table (store I/O failures) map to -1.
func ErrorCode(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case IsNotFound(err):
		return CodeNotFound
	case IsAlreadyExists(err):
		return CodeAlreadyExists
	case IsUnauthorized(err):
		return CodeUnauthorized
	default:
		return -1
	}
}
