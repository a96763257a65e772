// Package page manages pages: titled, authored bodies of text.
//
// EDITORs and above create pages. The author or an ADMIN may update or
// delete a page.
package page

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tomcamp/tomcamp-core/internal/auth"
	"github.com/tomcamp/tomcamp-core/internal/store"
)

const maxTitleLength = 200

// Page is an authored text document with a unique title.
type Page struct {
	store.Meta
	Title    string `json:"title"`
	AuthorID string `json:"author_id"`
	Body     string `json:"body"`
}

// Sentinel errors for page operations.
var (
	ErrPageNotFound = errors.New("page: not found")
	ErrPageExists   = errors.New("page: title already registered")
	ErrInvalidTitle = errors.New("page: invalid title")
)

// Service implements page operations over the "pages" collection.
type Service struct {
	pages *store.Collection[Page, *Page]
}

// NewService creates a page service over db.
func NewService(db *sql.DB, opts ...store.Option[Page]) *Service {
	opts = append([]store.Option[Page]{
		store.WithUnique("title", func(p *Page) string { return p.Title }),
	}, opts...)
	return &Service{pages: store.NewCollection[Page](db, "pages", opts...)}
}

// Create stores a page authored by caller. Requires EDITOR.
func (s *Service) Create(ctx context.Context, caller *auth.User, title, body string) (*Page, error) {
	if caller == nil {
		return nil, auth.ErrForbidden
	}
	if err := auth.Authorize(caller.Role, auth.RoleEditor); err != nil {
		return nil, err
	}
	title, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}

	p := &Page{Title: title, AuthorID: caller.ID, Body: body}
	if err := s.pages.Insert(ctx, p); err != nil {
		return nil, mapError("creating page", err)
	}
	return p, nil
}

// Get returns a page.
func (s *Service) Get(ctx context.Context, id string) (*Page, error) {
	p, err := s.pages.Get(ctx, id)
	if err != nil {
		return nil, mapError("getting page", err)
	}
	return p, nil
}

// List returns all pages in creation order.
func (s *Service) List(ctx context.Context) ([]*Page, error) {
	ps, err := s.pages.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	return ps, nil
}

// Update changes a page's title and/or body. Requires EDITOR and
// authorship, or ADMIN. A non-zero revision must match the stored one.
func (s *Service) Update(ctx context.Context, caller *auth.User, id string, title, body *string, revision int64) (*Page, error) {
	p, err := s.loadForWrite(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if revision != 0 && revision != p.Revision {
		return nil, store.ErrRevisionConflict
	}

	if title != nil {
		if p.Title, err = cleanTitle(*title); err != nil {
			return nil, err
		}
	}
	if body != nil {
		p.Body = *body
	}

	if err := s.pages.Replace(ctx, p); err != nil {
		return nil, mapError("updating page", err)
	}
	return p, nil
}

// Delete removes a page. Requires EDITOR and authorship, or ADMIN.
func (s *Service) Delete(ctx context.Context, caller *auth.User, id string) error {
	if _, err := s.loadForWrite(ctx, caller, id); err != nil {
		return err
	}
	return mapError("deleting page", s.pages.Delete(ctx, id))
}

func (s *Service) loadForWrite(ctx context.Context, caller *auth.User, id string) (*Page, error) {
	if caller == nil {
		return nil, auth.ErrForbidden
	}
	if err := auth.Authorize(caller.Role, auth.RoleEditor); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanModify(caller, p.AuthorID) {
		return nil, auth.ErrForbidden
	}
	return p, nil
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxTitleLength {
		return "", ErrInvalidTitle
	}
	return title, nil
}

func mapError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrPageNotFound
	case errors.Is(err, store.ErrDuplicate):
		return ErrPageExists
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
