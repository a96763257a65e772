package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomcamp/tomcamp-core/internal/store"
)

const keyTitle = "title"

// Repository defines journal persistence.
type Repository interface {
	Create(ctx context.Context, j *Journal) error
	Get(ctx context.Context, id string) (*Journal, error)
	List(ctx context.Context) ([]*Journal, error)
	Update(ctx context.Context, j *Journal) error
	Delete(ctx context.Context, id string) error
}

// DocumentRepository stores journals in the "journals" collection.
type DocumentRepository struct {
	journals *store.Collection[Journal, *Journal]
}

// NewRepository creates a journal repository over db.
func NewRepository(db *sql.DB, opts ...store.Option[Journal]) *DocumentRepository {
	opts = append([]store.Option[Journal]{
		store.WithUnique(keyTitle, func(j *Journal) string { return j.Title }),
	}, opts...)
	return &DocumentRepository{journals: store.NewCollection[Journal](db, "journals", opts...)}
}

// Create inserts a journal.
func (r *DocumentRepository) Create(ctx context.Context, j *Journal) error {
	return mapError("creating journal", r.journals.Insert(ctx, j))
}

// Get returns a journal by id.
func (r *DocumentRepository) Get(ctx context.Context, id string) (*Journal, error) {
	j, err := r.journals.Get(ctx, id)
	if err != nil {
		return nil, mapError("getting journal", err)
	}
	return j, nil
}

// List returns all journals in creation order.
func (r *DocumentRepository) List(ctx context.Context) ([]*Journal, error) {
	js, err := r.journals.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing journals: %w", err)
	}
	return js, nil
}

// Update replaces a journal under the revision it was read at.
func (r *DocumentRepository) Update(ctx context.Context, j *Journal) error {
	return mapError("updating journal", r.journals.Replace(ctx, j))
}

// Delete removes a journal.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return mapError("deleting journal", r.journals.Delete(ctx, id))
}

func mapError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrJournalNotFound
	case errors.Is(err, store.ErrDuplicate):
		return ErrJournalExists
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
