package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomcamp/tomcamp-core/internal/audit"
	"github.com/tomcamp/tomcamp-core/internal/journal"
)

type createJournalRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Entries     []journal.EntryInput `json:"entries"`
}

// updateJournalRequest replaces the fields present. A non-zero Revision
// must match the stored revision or the update is rejected with 409.
type updateJournalRequest struct {
	Title       *string               `json:"title,omitempty"`
	Description *string               `json:"description,omitempty"`
	Entries     *[]journal.EntryInput `json:"entries,omitempty"`
	Revision    int64                 `json:"revision,omitempty"`
}

func (s *Server) handleListJournals(w http.ResponseWriter, r *http.Request) {
	journals, err := s.journals.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "list journals", err)
		return
	}
	writeJSON(w, http.StatusOK, mapViews(journals, newJournalView))
}

func (s *Server) handleGetJournal(w http.ResponseWriter, r *http.Request) {
	j, err := s.journals.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, "get journal", err)
		return
	}
	writeJSON(w, http.StatusOK, newJournalView(j))
}

// handleCreateJournal creates a journal authored by the caller.
func (s *Server) handleCreateJournal(w http.ResponseWriter, r *http.Request) {
	var req createJournalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	j, err := s.journals.Create(r.Context(), userFromContext(r.Context()), journal.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Entries:     req.Entries,
	})
	if err != nil {
		s.writeServiceError(w, r, "create journal", err)
		return
	}

	s.record(r, audit.ActionCreate, "journal", j.ID, map[string]any{"title": j.Title})
	writeJSON(w, http.StatusOK, newJournalView(j))
}

func (s *Server) handleUpdateJournal(w http.ResponseWriter, r *http.Request) {
	var req updateJournalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	j, err := s.journals.Update(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"), journal.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Entries:     req.Entries,
		Revision:    req.Revision,
	})
	if err != nil {
		s.writeServiceError(w, r, "update journal", err)
		return
	}

	s.record(r, audit.ActionUpdate, "journal", j.ID, map[string]any{"revision": j.Revision})
	writeJSON(w, http.StatusOK, newJournalView(j))
}

// handleAddJournalEntry appends a single entry.
func (s *Server) handleAddJournalEntry(w http.ResponseWriter, r *http.Request) {
	var req journal.EntryInput
	if !decodeJSON(w, r, &req) {
		return
	}

	j, err := s.journals.AddEntry(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeServiceError(w, r, "add journal entry", err)
		return
	}

	s.record(r, audit.ActionAppend, "journal", j.ID, map[string]any{"entries": len(j.Entries)})
	writeJSON(w, http.StatusOK, newJournalView(j))
}

func (s *Server) handleDeleteJournal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.journals.Delete(r.Context(), userFromContext(r.Context()), id); err != nil {
		s.writeServiceError(w, r, "delete journal", err)
		return
	}

	s.record(r, audit.ActionDelete, "journal", id, nil)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Journal deleted successfully"})
}
