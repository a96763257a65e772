package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomcamp/tomcamp-core/internal/store"
)

// Unique user keys.
const (
	keyUsername = "username"
	keyEmail    = "email"
)

// UserRepository defines user account persistence.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// DocumentUserRepository stores users in the "users" document collection.
type DocumentUserRepository struct {
	users *store.Collection[User, *User]
}

// NewUserRepository creates a user repository over db.
func NewUserRepository(db *sql.DB, opts ...store.Option[User]) *DocumentUserRepository {
	opts = append([]store.Option[User]{
		store.WithUnique(keyUsername, func(u *User) string { return u.Username }),
		store.WithUnique(keyEmail, func(u *User) string { return u.Email }),
	}, opts...)
	return &DocumentUserRepository{users: store.NewCollection[User](db, "users", opts...)}
}

// Create inserts a new user. Returns ErrUsernameExists or ErrEmailExists on
// a collision.
func (r *DocumentUserRepository) Create(ctx context.Context, user *User) error {
	if err := r.users.Insert(ctx, user); err != nil {
		return mapUserError("creating user", err)
	}
	return nil
}

// GetByID retrieves a user by id.
func (r *DocumentUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := r.users.Get(ctx, id)
	if err != nil {
		return nil, mapUserError("getting user", err)
	}
	return u, nil
}

// GetByUsername retrieves a user by exact username.
func (r *DocumentUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := r.users.FindOne(ctx, keyUsername, username)
	if err != nil {
		return nil, mapUserError("getting user by username", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by exact email.
func (r *DocumentUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := r.users.FindOne(ctx, keyEmail, email)
	if err != nil {
		return nil, mapUserError("getting user by email", err)
	}
	return u, nil
}

// List returns all users in creation order.
func (r *DocumentUserRepository) List(ctx context.Context) ([]*User, error) {
	users, err := r.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Update writes user back under the revision it was read at.
func (r *DocumentUserRepository) Update(ctx context.Context, user *User) error {
	if err := r.users.Replace(ctx, user); err != nil {
		return mapUserError("updating user", err)
	}
	return nil
}

// Delete removes a user.
func (r *DocumentUserRepository) Delete(ctx context.Context, id string) error {
	if err := r.users.Delete(ctx, id); err != nil {
		return mapUserError("deleting user", err)
	}
	return nil
}

// Count returns the number of users.
func (r *DocumentUserRepository) Count(ctx context.Context) (int, error) {
	return r.users.Count(ctx)
}

func mapUserError(op string, err error) error {
	var dup *store.DuplicateError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrUserNotFound
	case errors.As(err, &dup) && dup.Field == keyEmail:
		return ErrEmailExists
	case errors.As(err, &dup):
		return ErrUsernameExists
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
