package crypto

import (
	"fmt"

	"github.com/google/uuid"
)

type IDGenerator interface {
	NewID() (string, error)
}

// UUIDGenerator issues random version 4 UUIDs, matching the uuid primary
// keys of the users and refresh_tokens tables.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate uuid: %w", err)
	}
	return id.String(), nil
}

// ValidID reports whether s is a UUID in canonical 36-character form, the
// only form bound to uuid columns. Identifiers that fail here cannot match
// any row.
func ValidID(s string) bool {
	return len(s) == 36 && uuid.Validate(s) == nil
}
