// user_repository.go implements the credential store: account creation,
// authentication, admin updates, and enumeration. Passwords are bcrypt-hashed
// on the way in and the hash never leaves this package except inside the
// stored record.
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/checklist-rve/checklist-rve/internal/kv"
	"github.com/checklist-rve/checklist-rve/internal/models"
)

const (
	userKeyPrefix = "user:"
	usersIndexKey = "users"

	// MinPasswordLength is the minimum accepted password length
	MinPasswordLength = 6
)

// UserRepository stores account credentials in the key-value store
type UserRepository struct {
	store      kv.Store
	bcryptCost int
}

// NewUserRepository creates a UserRepository with the given bcrypt work factor
func NewUserRepository(store kv.Store, bcryptCost int) *UserRepository {
	return &UserRepository{store: store, bcryptCost: bcryptCost}
}

func userKey(email string) string {
	return userKeyPrefix + email
}

// Register creates a new account. The role must be one of the two assignable
// roles and the password at least MinPasswordLength characters. When name is
// empty it defaults to the local part of the email.
func (r *UserRepository) Register(ctx context.Context, email, password, role, name string) (*models.User, error) {
	if email == "" || password == "" || role == "" {
		return nil, fmt.Errorf("%w: email, password and role are required", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: invalid role %q", ErrInvalidInput, role)
	}

	_, found, err := r.store.Get(ctx, userKey(email))
	if err != nil {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}
	if found {
		return nil, fmt.Errorf("%w: user %s", ErrAlreadyExists, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	if name == "" {
		name = models.DefaultName(email)
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := r.put(ctx, user); err != nil {
		return nil, err
	}
	if err := r.store.LPush(ctx, usersIndexKey, email); err != nil {
		return nil, fmt.Errorf("indexing user: %w", err)
	}

	return user, nil
}

// Authenticate verifies email and password. Both an unknown email and a
// wrong password fail with the same ErrInvalidCredentials so callers cannot
// probe which accounts exist.
func (r *UserRepository) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := r.Get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Get looks up an account by email
func (r *UserRepository) Get(ctx context.Context, email string) (*models.User, error) {
	raw, found, err := r.store.Get(ctx, userKey(email))
	if err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", email, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, email)
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decoding user %s: %w", email, err)
	}
	return &user, nil
}

// UserUpdate carries the fields an admin may change on an account.
// Nil pointers leave the stored value untouched.
type UserUpdate struct {
	Name        *string
	Role        *string
	IsActive    *bool
	NewPassword *string
}

// Update merges the provided fields over the stored account and refreshes
// its update timestamp. A new password is re-hashed and validated against
// the minimum length.
func (r *UserRepository) Update(ctx context.Context, email string, upd UserUpdate) (*models.User, error) {
	user, err := r.Get(ctx, email)
	if err != nil {
		return nil, err
	}

	if upd.NewPassword != nil {
		if len(*upd.NewPassword) < MinPasswordLength {
			return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.NewPassword), r.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if upd.Name != nil && *upd.Name != "" {
		user.Name = *upd.Name
	}
	if upd.Role != nil && *upd.Role != "" {
		if !models.ValidRole(*upd.Role) {
			return nil, fmt.Errorf("%w: invalid role %q", ErrInvalidInput, *upd.Role)
		}
		user.Role = *upd.Role
	}
	if upd.IsActive != nil {
		user.IsActive = *upd.IsActive
	}

	now := time.Now().UTC()
	user.UpdatedAt = &now

	if err := r.put(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes an account and its enumeration index entry
func (r *UserRepository) Delete(ctx context.Context, email string) error {
	if _, err := r.Get(ctx, email); err != nil {
		return err
	}

	if err := r.store.Delete(ctx, userKey(email)); err != nil {
		return fmt.Errorf("deleting user %s: %w", email, err)
	}
	if err := r.store.LRem(ctx, usersIndexKey, email); err != nil {
		return fmt.Errorf("removing user %s from index: %w", email, err)
	}
	return nil
}

// List returns every account in the store. Index entries whose record has
// gone missing are skipped rather than failing the whole listing.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	emails, err := r.store.LRange(ctx, usersIndexKey)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	users := make([]models.User, 0, len(emails))
	for _, email := range emails {
		user, err := r.Get(ctx, email)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		users = append(users, *user)
	}
	return users, nil
}

// Count returns the number of indexed accounts
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	emails, err := r.store.LRange(ctx, usersIndexKey)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return len(emails), nil
}

func (r *UserRepository) put(ctx context.Context, user *models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user %s: %w", user.Email, err)
	}
	if err := r.store.Set(ctx, userKey(user.Email), raw); err != nil {
		return fmt.Errorf("storing user %s: %w", user.Email, err)
	}
	return nil
}
