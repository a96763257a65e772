package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomcamp/tomcamp-core/internal/audit"
)

type createPageRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type updatePageRequest struct {
	Title    *string `json:"title,omitempty"`
	Body     *string `json:"body,omitempty"`
	Revision int64   `json:"revision,omitempty"`
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.pages.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "list pages", err)
		return
	}
	writeJSON(w, http.StatusOK, mapViews(pages, newPageView))
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	p, err := s.pages.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, "get page", err)
		return
	}
	writeJSON(w, http.StatusOK, newPageView(p))
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req createPageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := s.pages.Create(r.Context(), userFromContext(r.Context()), req.Title, req.Body)
	if err != nil {
		s.writeServiceError(w, r, "create page", err)
		return
	}

	s.record(r, audit.ActionCreate, "page", p.ID, map[string]any{"title": p.Title})
	writeJSON(w, http.StatusOK, newPageView(p))
}

func (s *Server) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	var req updatePageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := s.pages.Update(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"), req.Title, req.Body, req.Revision)
	if err != nil {
		s.writeServiceError(w, r, "update page", err)
		return
	}

	s.record(r, audit.ActionUpdate, "page", p.ID, map[string]any{"revision": p.Revision})
	writeJSON(w, http.StatusOK, newPageView(p))
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.pages.Delete(r.Context(), userFromContext(r.Context()), id); err != nil {
		s.writeServiceError(w, r, "delete page", err)
		return
	}

	s.record(r, audit.ActionDelete, "page", id, nil)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Page deleted"})
}
