package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomcamp/tomcamp-core/internal/audit"
	"github.com/tomcamp/tomcamp-core/internal/auth"
)

type createUserRequest struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Role     auth.Role `json:"role,omitempty"`
}

type updateUserRequest struct {
	Username *string    `json:"username,omitempty"`
	Email    *string    `json:"email,omitempty"`
	Password *string    `json:"password,omitempty"`
	Role     *auth.Role `json:"role,omitempty"`
}

// handleGetCurrentUser returns the caller's own account.
func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newUserView(userFromContext(r.Context())))
}

// handleListUsers returns all accounts without password hashes.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.auth.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, mapViews(users, newUserView))
}

// handleGetUser returns one account.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, "get user", err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user))
}

// handleCreateUser registers an account. ADMIN only (enforced by the route).
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.auth.Register(r.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		s.writeServiceError(w, r, "create user", err)
		return
	}

	s.logger.Info("user created", "user_id", user.ID, "username", user.Username, "role", user.Role.String(),
		"created_by", userFromContext(r.Context()).Username)
	s.record(r, audit.ActionCreate, "user", user.ID, map[string]any{
		"username": user.Username,
		"role":     user.Role.String(),
	})

	writeJSON(w, http.StatusOK, newUserView(user))
}

// handleUpdateUser applies a partial profile update. The service decides
// whether the caller may touch this account and its role.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.auth.UpdateProfile(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"), auth.UpdateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		s.writeServiceError(w, r, "update user", err)
		return
	}

	details := map[string]any{"password_changed": req.Password != nil}
	if req.Role != nil {
		details["role"] = req.Role.String()
	}
	s.record(r, audit.ActionUpdate, "user", user.ID, details)

	writeJSON(w, http.StatusOK, newUserView(user))
}

// handleDeleteUser removes an account. ADMIN only.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.auth.Delete(r.Context(), userFromContext(r.Context()), id); err != nil {
		s.writeServiceError(w, r, "delete user", err)
		return
	}

	s.record(r, audit.ActionDelete, "user", id, nil)
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
