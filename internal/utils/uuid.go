package utils

import (
	"strings"

	"github.com/google/uuid"
)

// UUIDGenerator produces identifiers for records created on this client.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate returns a time-ordered UUIDv7, falling back to a random one.
func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}

// Short returns an 8 character upper-case hex id, the format the queue
// server uses for patient ids.
func (g *UUIDGenerator) Short() string {
	return ShortID()
}

// ShortID returns the first 8 hex digits of a random UUID, upper-cased.
func ShortID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
