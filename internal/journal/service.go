package journal

import (
	"context"
	"strings"
	"time"

	"github.com/tomcamp/tomcamp-core/internal/auth"
	"github.com/tomcamp/tomcamp-core/internal/store"
)

// CreateInput describes a new journal.
type CreateInput struct {
	Title       string
	Description string
	Entries     []EntryInput
}

// UpdateInput is a journal update. Nil fields are left unchanged. When
// Revision is non-zero it must equal the stored revision.
type UpdateInput struct {
	Title       *string
	Description *string
	Entries     *[]EntryInput
	Revision    int64
}

// Service implements journal operations with role and ownership checks.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a journal service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create stores a journal authored by caller. Requires EDITOR.
func (s *Service) Create(ctx context.Context, caller *auth.User, in CreateInput) (*Journal, error) {
	if caller == nil {
		return nil, auth.ErrForbidden
	}
	if err := auth.Authorize(caller.Role, auth.RoleEditor); err != nil {
		return nil, err
	}
	title, err := cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}
	entries, err := s.buildEntries(in.Entries)
	if err != nil {
		return nil, err
	}

	j := &Journal{
		Title:       title,
		AuthorID:    caller.ID,
		Description: in.Description,
		Entries:     entries,
	}
	if err := s.repo.Create(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

// Get returns a journal.
func (s *Service) Get(ctx context.Context, id string) (*Journal, error) {
	return s.repo.Get(ctx, id)
}

// List returns all journals.
func (s *Service) List(ctx context.Context) ([]*Journal, error) {
	return s.repo.List(ctx)
}

// Update changes a journal. Requires EDITOR and authorship, or ADMIN.
func (s *Service) Update(ctx context.Context, caller *auth.User, id string, in UpdateInput) (*Journal, error) {
	j, err := s.loadForWrite(ctx, caller, id, in.Revision)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if j.Title, err = cleanTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		j.Description = *in.Description
	}
	if in.Entries != nil {
		if j.Entries, err = s.buildEntries(*in.Entries); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

// AddEntry appends one entry. Same permissions as Update.
func (s *Service) AddEntry(ctx context.Context, caller *auth.User, id string, in EntryInput) (*Journal, error) {
	j, err := s.loadForWrite(ctx, caller, id, 0)
	if err != nil {
		return nil, err
	}
	entry, err := in.toEntry(s.now())
	if err != nil {
		return nil, err
	}
	j.Entries = append(j.Entries, entry)

	if err := s.repo.Update(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

// Delete removes a journal. Requires ADMIN.
func (s *Service) Delete(ctx context.Context, caller *auth.User, id string) error {
	if caller == nil {
		return auth.ErrForbidden
	}
	if err := auth.Authorize(caller.Role, auth.RoleAdmin); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) loadForWrite(ctx context.Context, caller *auth.User, id string, revision int64) (*Journal, error) {
	if caller == nil {
		return nil, auth.ErrForbidden
	}
	if err := auth.Authorize(caller.Role, auth.RoleEditor); err != nil {
		return nil, err
	}
	j, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanModify(caller, j.AuthorID) {
		return nil, auth.ErrForbidden
	}
	if revision != 0 && revision != j.Revision {
		return nil, store.ErrRevisionConflict
	}
	return j, nil
}

func (s *Service) buildEntries(inputs []EntryInput) ([]Entry, error) {
	now := s.now()
	entries := make([]Entry, 0, len(inputs))
	for _, in := range inputs {
		e, err := in.toEntry(now)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxTitleLength {
		return "", ErrInvalidTitle
	}
	return title, nil
}
