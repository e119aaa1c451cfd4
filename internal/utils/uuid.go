package utils

import "github.com/google/uuid"

// UUIDGenerator mints time-ordered identifiers. Audit entries use it so
// their raw IDs sort by creation time.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate returns a v7 UUID, falling back to v4 if the system clock or
// entropy source refuses a v7.
func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
