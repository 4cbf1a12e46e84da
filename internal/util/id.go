package util

import "github.com/google/uuid"

// NewID gera um UUID v4 em formato string.
func NewID() string {
	return uuid.NewString()
}
