// Package idgen generates prefixed identifiers for events and windows.
package idgen

import (
	"github.com/google/uuid"
)

// ID prefixes for different records
const (
	PrefixEvent  = "evt_"
	PrefixWindow = "win_"
)

// NewEvent generates a new behavioral event ID with evt_ prefix
func NewEvent() string {
	return PrefixEvent + uuid.New().String()
}

// NewWindow generates a new unblock window ID with win_ prefix
func NewWindow() string {
	return PrefixWindow + uuid.New().String()
}
