package page

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tomcamp/tomcamp-core/internal/auth"
	"github.com/tomcamp/tomcamp-core/internal/infrastructure/database"
	"github.com/tomcamp/tomcamp-core/internal/store"
	"github.com/tomcamp/tomcamp-core/migrations"
)

func setup(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: filepath.Join(t.TempDir(), "page.db"), BusyTimeout: 5})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewService(db.DB)
}

func user(id string, role auth.Role) *auth.User {
	u := &auth.User{Username: id, Role: role}
	u.ID = id
	return u
}

func ptr(s string) *string { return &s }

func TestCreateGetList(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	editor := user("ed", auth.RoleEditor)

	p, err := svc.Create(ctx, editor, "About", "hello")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.AuthorID != "ed" || p.Revision != 1 {
		t.Errorf("Create() = %+v, want author ed revision 1", p)
	}

	got, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Body != "hello" {
		t.Errorf("Body = %q, want hello", got.Body)
	}

	if _, err := svc.Create(ctx, editor, "About", "again"); !errors.Is(err, ErrPageExists) {
		t.Errorf("Create(dup) error = %v, want ErrPageExists", err)
	}
	if _, err := svc.Create(ctx, user("u", auth.RoleAuthenticated), "Other", ""); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("Create(AUTHENTICATED) error = %v, want ErrForbidden", err)
	}
	if _, err := svc.Create(ctx, editor, "", ""); !errors.Is(err, ErrInvalidTitle) {
		t.Errorf("Create(blank) error = %v, want ErrInvalidTitle", err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() len = %d, want 1", len(list))
	}

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrPageNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	author := user("author", auth.RoleEditor)

	p, err := svc.Create(ctx, author, "Draft", "v1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Update(ctx, user("other", auth.RoleEditor), p.ID, nil, ptr("x"), 0); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("Update(other editor) error = %v, want ErrForbidden", err)
	}

	updated, err := svc.Update(ctx, author, p.ID, nil, ptr("v2"), 1)
	if err != nil {
		t.Fatalf("Update(author) error = %v", err)
	}
	if updated.Body != "v2" || updated.Title != "Draft" || updated.Revision != 2 {
		t.Errorf("Update() = %+v", updated)
	}
	if !updated.UpdatedDate.After(p.CreatedDate) && !updated.UpdatedDate.Equal(p.CreatedDate) {
		t.Errorf("UpdatedDate %v before CreatedDate %v", updated.UpdatedDate, p.CreatedDate)
	}

	if _, err := svc.Update(ctx, author, p.ID, nil, ptr("v3"), 1); !errors.Is(err, store.ErrRevisionConflict) {
		t.Errorf("Update(stale) error = %v, want ErrRevisionConflict", err)
	}

	if _, err := svc.Update(ctx, user("boss", auth.RoleAdmin), p.ID, ptr("Final"), nil, 0); err != nil {
		t.Errorf("Update(admin) error = %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	author := user("author", auth.RoleEditor)

	mine, err := svc.Create(ctx, author, "Mine", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	theirs, err := svc.Create(ctx, user("other", auth.RoleEditor), "Theirs", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, author, theirs.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("Delete(not author) error = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, author, mine.ID); err != nil {
		t.Errorf("Delete(author) error = %v", err)
	}
	if err := svc.Delete(ctx, user("boss", auth.RoleAdmin), theirs.ID); err != nil {
		t.Errorf("Delete(admin) error = %v", err)
	}
	if err := svc.Delete(ctx, author, mine.ID); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("Delete(again) error = %v, want ErrPageNotFound", err)
	}
}
