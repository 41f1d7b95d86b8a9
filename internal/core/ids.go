package core

import (
	"github.com/adamavenir/tangent/internal/types"
	"github.com/google/uuid"
)

// NewTempID mints an id for a message that only exists locally.
func NewTempID() string {
	return types.TempIDPrefix + uuid.NewString()
}

// ShortID trims an id for display.
func ShortID(id string, length int) string {
	if length <= 0 {
		return ""
	}
	if len(id) <= length {
		return id
	}
	return id[:length]
}
