// Package memory provides an in-memory user repository for testing and
// development.
package memory

import (
	"context"
	"sync"

	"github.com/tendant/simple-photos/pkg/simplephotos"
)

// Repository is an in-memory implementation of simplephotos.UserRepository
type Repository struct {
	mu         sync.RWMutex
	users      map[string]*simplephotos.User
	byNickname map[string]string
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		users:      make(map[string]*simplephotos.User),
		byNickname: make(map[string]string),
	}
}

func (r *Repository) Get(ctx context.Context, cognitoID string) (*simplephotos.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[cognitoID]
	if !ok {
		return nil, simplephotos.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (r *Repository) Save(ctx context.Context, user *simplephotos.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, taken := r.byNickname[user.NicknameNormalized]; taken && owner != user.CognitoID {
		return simplephotos.ErrNicknameTaken
	}

	if existing, ok := r.users[user.CognitoID]; ok && existing.NicknameNormalized != user.NicknameNormalized {
		delete(r.byNickname, existing.NicknameNormalized)
	}

	r.users[user.CognitoID] = cloneUser(user)
	if user.NicknameNormalized != "" {
		r.byNickname[user.NicknameNormalized] = user.CognitoID
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, cognitoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[cognitoID]
	if !ok {
		return simplephotos.ErrUserNotFound
	}
	delete(r.byNickname, user.NicknameNormalized)
	delete(r.users, cognitoID)
	return nil
}

func (r *Repository) FindByNickname(ctx context.Context, nickname string) (*simplephotos.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byNickname[nickname]
	if !ok {
		return nil, simplephotos.ErrUserNotFound
	}
	return cloneUser(r.users[id]), nil
}

// Len returns the number of stored users. Test helper.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func cloneUser(u *simplephotos.User) *simplephotos.User {
	clone := *u
	return &clone
}
