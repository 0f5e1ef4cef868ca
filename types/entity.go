// Package types provides common types shared by the label registries.
package types

import "time"

// Entity carries the bookkeeping timestamps every registry record has.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity returns an Entity stamped with the current UTC time.
func NewEntity() Entity {
	now := Now()
	return Entity{CreatedAt: now, UpdatedAt: now}
}

// Touch moves UpdatedAt to the current UTC time.
func (e *Entity) Touch() {
	e.UpdatedAt = Now()
}

// Now returns the current time truncated to microseconds in UTC, which is
// the finest resolution every backend round-trips unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
