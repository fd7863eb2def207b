package types

import (
	"time"

	"github.com/google/uuid"
)

// NewFilterID generates a UUIDv7 saved-filter identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewFilterID() FilterID {
	return FilterID(uuid.Must(uuid.NewV7()).String())
}

// ParseFilterID validates and converts a string to FilterID.
func ParseFilterID(s string) (FilterID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return FilterID(s), nil
}

// FilterIDTime extracts the timestamp embedded in a UUIDv7 ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func FilterIDTime(id FilterID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
