package auth

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRoleOrdering(t *testing.T) {
	roles := []Role{RoleAuthenticated, RoleEditor, RoleAdmin}

	for _, caller := range roles {
		for _, required := range roles {
			err := Authorize(caller, required)
			wantOK := caller.Rank() >= required.Rank()
			if wantOK && err != nil {
				t.Errorf("Authorize(%s, %s) error = %v, want nil", caller, required, err)
			}
			if !wantOK && !errors.Is(err, ErrForbidden) {
				t.Errorf("Authorize(%s, %s) error = %v, want ErrForbidden", caller, required, err)
			}
		}
	}
}

func TestRoleRanks(t *testing.T) {
	if RoleAdmin.Rank() != 3 || RoleEditor.Rank() != 2 || RoleAuthenticated.Rank() != 1 {
		t.Errorf("ranks = %d/%d/%d, want 3/2/1", RoleAdmin.Rank(), RoleEditor.Rank(), RoleAuthenticated.Rank())
	}
}

func TestAuthorize_InvalidRole(t *testing.T) {
	for _, role := range []Role{Role(0), Role(99)} {
		if err := Authorize(role, RoleAuthenticated); !errors.Is(err, ErrForbidden) {
			t.Errorf("Authorize(%d) error = %v, want ErrForbidden", int(role), err)
		}
	}
}

func TestCanModify(t *testing.T) {
	author := &User{Role: RoleEditor}
	author.ID = "author"
	other := &User{Role: RoleEditor}
	other.ID = "other"
	admin := &User{Role: RoleAdmin}
	admin.ID = "admin"

	tests := []struct {
		name     string
		caller   *User
		authorID string
		want     bool
	}{
		{"author", author, "author", true},
		{"other editor", other, "author", false},
		{"admin", admin, "author", true},
		{"nil caller", nil, "author", false},
		{"no author recorded", other, "", false},
		{"admin, no author recorded", admin, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanModify(tt.caller, tt.authorID); got != tt.want {
				t.Errorf("CanModify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"ADMIN", RoleAdmin, false},
		{"editor", RoleEditor, false},
		{" Authenticated ", RoleAuthenticated, false},
		{"3", RoleAdmin, false},
		{"1", RoleAuthenticated, false},
		{"0", 0, true},
		{"4", 0, true},
		{"owner", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRole) {
					t.Errorf("ParseRole(%q) error = %v, want ErrInvalidRole", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseRole(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestRoleJSON(t *testing.T) {
	b, err := json.Marshal(RoleEditor)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != `"EDITOR"` {
		t.Errorf("Marshal(RoleEditor) = %s, want \"EDITOR\"", b)
	}

	for input, want := range map[string]Role{`"ADMIN"`: RoleAdmin, `2`: RoleEditor, `"1"`: RoleAuthenticated} {
		var r Role
		if err := json.Unmarshal([]byte(input), &r); err != nil {
			t.Errorf("Unmarshal(%s) error = %v", input, err)
			continue
		}
		if r != want {
			t.Errorf("Unmarshal(%s) = %v, want %v", input, r, want)
		}
	}

	for _, input := range []string{`"ROOT"`, `7`, `true`} {
		var r Role
		if err := json.Unmarshal([]byte(input), &r); err == nil {
			t.Errorf("Unmarshal(%s) expected error", input)
		}
	}

	if _, err := json.Marshal(Role(9)); err == nil {
		t.Error("Marshal(Role(9)) expected error")
	}
}
