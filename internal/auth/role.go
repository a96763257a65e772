package auth

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Role is an authorisation tier. Higher ranks include every capability of
// lower ranks.
type Role int

// Roles in ascending rank.
const (
	RoleAuthenticated Role = iota + 1
	RoleEditor
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleAuthenticated: "AUTHENTICATED",
	RoleEditor:        "EDITOR",
	RoleAdmin:         "ADMIN",
}

// Rank returns the role's position in the hierarchy.
func (r Role) Rank() int {
	return int(r)
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "Role(" + strconv.Itoa(int(r)) + ")"
}

// ParseRole accepts a role name (any case) or its numeric rank.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for role, name := range roleNames {
		if strings.EqualFold(s, name) {
			return role, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Role(n).Valid() {
		return Role(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// MarshalJSON encodes the role by name.
func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRole, int(r))
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts either "EDITOR" or 2.
func (r *Role) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		role, err := ParseRole(name)
		if err != nil {
			return err
		}
		*r = role
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRole, data)
	}
	if !Role(n).Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidRole, n)
	}
	*r = Role(n)
	return nil
}

// Authorize returns nil when role ranks at least required, otherwise
// ErrForbidden. Callers without an identity are rejected before this.
func Authorize(role, required Role) error {
	if !role.Valid() || role.Rank() < required.Rank() {
		return ErrForbidden
	}
	return nil
}

// CanModify reports whether caller may change a resource authored by
// authorID: its author or any ADMIN.
func CanModify(caller *User, authorID string) bool {
	if caller == nil {
		return false
	}
	return caller.Role == RoleAdmin || (authorID != "" && caller.ID == authorID)
}
