package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/tomcamp/tomcamp-core/internal/infrastructure/config"
	"github.com/tomcamp/tomcamp-core/internal/infrastructure/logging"
)

// seedPasswordBytes is the number of random bytes for a generated admin password.
const seedPasswordBytes = 16

// SeedAdmin creates the configured initial ADMIN account if no user with
// that username exists. When no password is configured a random one is
// generated and logged once; it must be changed immediately.
//
// Returns the password used (empty if seeding was skipped).
func SeedAdmin(ctx context.Context, svc *Service, initial config.InitialUserConfig, logger *logging.Logger) (string, error) {
	_, err := svc.users.GetByUsername(ctx, initial.Username)
	if err == nil {
		logger.Info("initial admin exists, skipping seed", "username", initial.Username)
		return "", nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return "", fmt.Errorf("checking initial admin: %w", err)
	}

	password := initial.Password
	generated := password == ""
	if generated {
		b := make([]byte, seedPasswordBytes)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("generating seed password: %w", err)
		}
		password = hex.EncodeToString(b)
	}

	email := initial.Email
	if email == "" {
		email = initial.Username + "@localhost"
	}

	if _, err := svc.Register(ctx, RegisterInput{
		Username: initial.Username,
		Email:    email,
		Password: password,
		Role:     RoleAdmin,
	}); err != nil {
		return "", fmt.Errorf("creating initial admin: %w", err)
	}

	if generated {
		logger.Warn("initial admin account created",
			"username", initial.Username,
			"password", password,
			"action_required", "change this password immediately",
		)
	} else {
		logger.Info("initial admin account created", "username", initial.Username)
	}
	return password, nil
}
