package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomcamp/tomcamp-core/internal/infrastructure/database"
	"github.com/tomcamp/tomcamp-core/migrations"
)

const testSecret = "test-secret-key-that-is-32-bytes!"

// testDB opens a temp-file SQLite database with all migrations applied.
func testDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "auth.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

func testTokens(t *testing.T) *TokenService {
	t.Helper()
	tokens, err := NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return tokens
}

// testService builds a Service over a fresh database.
func testService(t *testing.T) (*Service, *DocumentUserRepository) {
	t.Helper()
	repo := NewUserRepository(testDB(t).DB)
	svc, err := NewService(repo, NewHasher(2), testTokens(t))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc, repo
}

// seedTestUser registers a user with password "password-<username>".
func seedTestUser(t *testing.T, svc *Service, username string, role Role) *User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password-" + username,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("seeding user %s: %v", username, err)
	}
	return user
}

// fixedNow is the reference clock for auth tests.
var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
