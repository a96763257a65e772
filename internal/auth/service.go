package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// maxPasswordLength bounds password input so hashing cost stays predictable.
const maxPasswordLength = 256

// RegisterInput describes a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     Role
}

// UpdateInput is a partial profile update; nil fields are left unchanged.
type UpdateInput struct {
	Username *string
	Email    *string
	Password *string
	Role     *Role
}

// LoginResult is a successful login.
type LoginResult struct {
	AccessToken string
	ExpiresIn   time.Duration
	User        *User
}

// Service implements account management, login and bearer-token
// authentication.
type Service struct {
	users  UserRepository
	hasher *Hasher
	tokens *TokenService
	now    func() time.Time

	// dummyHash is verified against when the username is unknown so that
	// both failure paths cost one hash computation.
	dummyHash string
}

// NewService creates an account service.
func NewService(users UserRepository, hasher *Hasher, tokens *TokenService) (*Service, error) {
	dummy, err := HashPassword("tomcamp-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("preparing dummy hash: %w", err)
	}
	return &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

// SetClock overrides the time source used for token issuance and validation.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Tokens returns the token service.
func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// Login checks credentials and issues a bearer token. Every failure,
// whether the username is unknown or the password is wrong, is
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("looking up user: %w", err)
		}
		s.hasher.Verify(ctx, password, s.dummyHash)
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(ctx, password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user, password)
	}

	token, err := s.tokens.Issue(user.Username, s.now())
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: token, ExpiresIn: s.tokens.TTL(), User: user}, nil
}

// upgradeHash replaces a legacy hash after a successful login. Failure is
// not fatal to the login; the old hash keeps working.
func (s *Service) upgradeHash(ctx context.Context, user *User, password string) {
	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return
	}
	upgraded := *user
	upgraded.PasswordHash = hash
	if s.users.Update(ctx, &upgraded) == nil {
		*user = upgraded
	}
}

// Authenticate resolves a bearer token to its user. A valid token whose
// subject no longer exists is ErrTokenInvalid.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	username, err := s.tokens.Validate(token, s.now())
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("%w: unknown subject", ErrTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("loading token subject: %w", err)
	}
	return user, nil
}

// Register creates an account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if in.Role == 0 {
		in.Role = RoleAuthenticated
	}
	if err := validateAccount(in.Username, in.Email, in.Password, in.Role); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.users.List(ctx)
}

// UpdateProfile applies in to user id on behalf of caller. Callers may
// edit themselves; ADMINs may edit anyone and are the only ones who may
// change a role. The password hash is recomputed when a password is given.
func (s *Service) UpdateProfile(ctx context.Context, caller *User, id string, in UpdateInput) (*User, error) {
	if caller == nil {
		return nil, ErrForbidden
	}
	isAdmin := caller.Role == RoleAdmin
	if caller.ID != id && !isAdmin {
		return nil, ErrForbidden
	}
	if in.Role != nil && !isAdmin {
		return nil, ErrForbidden
	}
	if in.Role != nil && caller.ID == id && *in.Role != RoleAdmin {
		return nil, ErrSelfModification
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *user
	if in.Username != nil {
		updated.Username = *in.Username
	}
	if in.Email != nil {
		updated.Email = *in.Email
	}
	if in.Role != nil {
		updated.Role = *in.Role
	}
	password := "x"
	if in.Password != nil {
		password = *in.Password
	}
	if err := validateAccount(updated.Username, updated.Email, password, updated.Role); err != nil {
		return nil, err
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(ctx, *in.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		updated.PasswordHash = hash
	}

	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a user. ADMINs cannot delete themselves.
func (s *Service) Delete(ctx context.Context, caller *User, id string) error {
	if caller == nil {
		return ErrForbidden
	}
	if err := Authorize(caller.Role, RoleAdmin); err != nil {
		return err
	}
	if caller.ID == id {
		return ErrSelfModification
	}
	return s.users.Delete(ctx, id)
}

func validateAccount(username, email, password string, role Role) error {
	if !IsValidUsername(username) {
		return ErrInvalidUsername
	}
	if !IsValidEmail(email) {
		return ErrInvalidEmail
	}
	if password == "" || len(password) > maxPasswordLength {
		return ErrInvalidPassword
	}
	if !role.Valid() {
		return ErrInvalidRole
	}
	return nil
}
