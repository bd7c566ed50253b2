package crypto

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/routeledger/backend/internal/common/constants"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches hash. Malformed hashes yield false.
	Verify(password string, hash string) bool
}

type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: constants.PasswordHashCost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = constants.PasswordHashCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(password string, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
