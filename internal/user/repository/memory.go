package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/routeledger/backend/internal/user/domain"
)

// MemoryRepository is an in-process Repository used by tests and local
// tooling.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[domain.ID]domain.User
}

func NewMemoryRepository(users ...domain.User) *MemoryRepository {
	r := &MemoryRepository{users: make(map[domain.ID]domain.User, len(users))}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *MemoryRepository) FindByIdentifier(_ context.Context, identifier string) (domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	r.mu.RLock()
	defer r.mu.RUnlock()

	var byEmail *domain.User
	for _, u := range r.users {
		if strings.EqualFold(u.Username, identifier) {
			return u, nil
		}
		if byEmail == nil && strings.EqualFold(u.Email, identifier) {
			match := u
			byEmail = &match
		}
	}
	if byEmail != nil {
		return *byEmail, nil
	}
	return domain.User{}, ErrUserNotFound
}

func (r *MemoryRepository) FindByID(_ context.Context, id domain.ID) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryRepository) Upsert(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.users {
		if strings.EqualFold(existing.Username, user.Username) {
			existing.Email = user.Email
			existing.FullName = user.FullName
			existing.PasswordHash = user.PasswordHash
			existing.Role = user.Role
			existing.IsActive = user.IsActive
			existing.UpdatedAt = user.CreatedAt
			r.users[id] = existing
			return existing, nil
		}
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.User{}, ErrUsernameAlreadyExists
		}
	}

	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	r.users[user.ID] = user
	return user, nil
}

// SetActive toggles the active flag of an existing user.
func (r *MemoryRepository) SetActive(id domain.ID, active bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return false
	}
	u.IsActive = active
	r.users[id] = u
	return true
}

// Delete removes a user.
func (r *MemoryRepository) Delete(id domain.ID) {
	r.mu.Lock()
	delete(r.users, id)
	r.mu.Unlock()
}
