package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/melalfey/schoolos-admin-portal/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// Account is a directory user with its login secret.
type Account struct {
	User         models.User
	PasswordHash string
	Active       bool
}

// UserRepository is the in-memory user directory of the development API.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]Account
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]Account),
		byEmail: make(map[string]string),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepository) Create(_ context.Context, account Account) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := normalizeEmail(account.User.Email)
	if _, ok := r.byEmail[email]; ok {
		return models.User{}, ErrEmailTaken
	}
	if account.User.ID == "" {
		account.User.ID = uuid.NewString()
	}
	account.User.Email = email
	account.User.IsSuperAdmin = account.User.Role == models.RoleSuperAdmin

	r.byID[account.User.ID] = account
	r.byEmail[email] = account.User.ID
	return account.User, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return Account{}, ErrUserNotFound
	}
	return r.byID[id], nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return account.User, nil
}

// UserFilter narrows List. Empty fields match everything.
type UserFilter struct {
	Role     models.Role
	SchoolID string
}

func (r *UserRepository) List(_ context.Context, filter UserFilter) []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.User, 0, len(r.byID))
	for _, account := range r.byID {
		u := account.User
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.SchoolID != "" && u.SchoolID != filter.SchoolID {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

// Update applies the non-empty fields of in. A password is rehashed by the
// caller and passed as passwordHash.
func (r *UserRepository) Update(_ context.Context, id string, in models.UserInput, passwordHash string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}

	if email := normalizeEmail(in.Email); email != "" && email != account.User.Email {
		if _, taken := r.byEmail[email]; taken {
			return models.User{}, ErrEmailTaken
		}
		delete(r.byEmail, account.User.Email)
		r.byEmail[email] = id
		account.User.Email = email
	}
	if in.FirstName != "" {
		account.User.FirstName = in.FirstName
	}
	if in.LastName != "" {
		account.User.LastName = in.LastName
	}
	if in.Role != "" {
		account.User.Role = in.Role
		account.User.IsSuperAdmin = in.Role == models.RoleSuperAdmin
	}
	if in.SchoolID != "" {
		account.User.SchoolID = in.SchoolID
	}
	if passwordHash != "" {
		account.PasswordHash = passwordHash
	}

	r.byID[id] = account
	return account.User, nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, account.User.Email)
	return nil
}
