package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/tomcamp/tomcamp-core/internal/store"
)

func newTestUser(name string) *User {
	return &User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "$argon2id$placeholder",
		Role:         RoleAuthenticated,
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := NewUserRepository(testDB(t).DB)
	ctx := context.Background()

	user := newTestUser("alice")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == "" || user.Revision != 1 {
		t.Fatalf("Create() meta = %+v, want id and revision 1", user.Meta)
	}

	byID, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if byID.Username != "alice" || byID.PasswordHash != user.PasswordHash || byID.Role != RoleAuthenticated {
		t.Errorf("GetByID() = %+v, want stored user", byID)
	}

	byName, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if byName.ID != user.ID {
		t.Errorf("GetByUsername() id = %q, want %q", byName.ID, user.ID)
	}

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("GetByEmail() id = %q, want %q", byEmail.ID, user.ID)
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewUserRepository(testDB(t).DB)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetByUsername(ctx, "nonexistent"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByUsername() error = %v, want ErrUserNotFound", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Delete() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_Duplicates(t *testing.T) {
	repo := NewUserRepository(testDB(t).DB)
	ctx := context.Background()

	if err := repo.Create(ctx, newTestUser("dup")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	sameName := newTestUser("dup")
	sameName.Email = "other@example.com"
	if err := repo.Create(ctx, sameName); !errors.Is(err, ErrUsernameExists) {
		t.Errorf("Create(same username) error = %v, want ErrUsernameExists", err)
	}

	sameEmail := newTestUser("other")
	sameEmail.Email = "dup@example.com"
	if err := repo.Create(ctx, sameEmail); !errors.Is(err, ErrEmailExists) {
		t.Errorf("Create(same email) error = %v, want ErrEmailExists", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestUserRepository_UpdateAndList(t *testing.T) {
	repo := NewUserRepository(testDB(t).DB)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "charlie"} {
		if err := repo.Create(ctx, newTestUser(name)); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}

	bob, err := repo.GetByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	stale := *bob

	bob.Role = RoleEditor
	if err := repo.Update(ctx, bob); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	stale.Email = "bob2@example.com"
	if err := repo.Update(ctx, &stale); !errors.Is(err, store.ErrRevisionConflict) {
		t.Errorf("Update(stale) error = %v, want ErrRevisionConflict", err)
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("List() len = %d, want 3", len(users))
	}
	for _, u := range users {
		if u.Username == "bob" && u.Role != RoleEditor {
			t.Errorf("bob role = %v, want EDITOR", u.Role)
		}
	}

	if err := repo.Delete(ctx, bob.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByUsername(ctx, "bob"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByUsername(deleted) error = %v, want ErrUserNotFound", err)
	}
}
