package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Meta is embedded in every stored entity. The store owns all four fields:
// callers never set them directly.
type Meta struct {
	ID          string    `json:"id"`
	Revision    int64     `json:"-"`
	CreatedDate time.Time `json:"created_date"`
	UpdatedDate time.Time `json:"updated_date"`
}

func (m *Meta) meta() *Meta { return m }

// Document is satisfied by a pointer to any struct embedding Meta.
type Document interface {
	meta() *Meta
}

type uniqueKey[T any] struct {
	field string
	fn    func(*T) string
}

// Option configures a Collection.
type Option[T any] func(*options[T])

type options[T any] struct {
	keys  []uniqueKey[T]
	clock func() time.Time
}

// WithUnique declares a unique lookup key extracted by fn. FindOne accepts
// field as its field argument; Insert and Replace reject collisions with a
// DuplicateError. An empty value is not indexed.
func WithUnique[T any](field string, fn func(*T) string) Option[T] {
	return func(o *options[T]) {
		o.keys = append(o.keys, uniqueKey[T]{field: field, fn: fn})
	}
}

// WithClock overrides the time source used to stamp documents.
func WithClock[T any](clock func() time.Time) Option[T] {
	return func(o *options[T]) {
		o.clock = clock
	}
}

// Collection stores documents of one entity type as JSON in the shared
// documents table. Every write goes through a revision check.
type Collection[T any, PT interface {
	*T
	Document
}] struct {
	db    *sql.DB
	name  string
	keys  []uniqueKey[T]
	clock func() time.Time
}

// NewCollection creates a collection named name. The type argument is the
// entity struct, e.g. NewCollection[Journal](db, "journals").
func NewCollection[T any, PT interface {
	*T
	Document
}](db *sql.DB, name string, opts ...Option[T]) *Collection[T, PT] {
	o := options[T]{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Collection[T, PT]{
		db:    db,
		name:  name,
		keys:  o.keys,
		clock: o.clock,
	}
}

// Name returns the collection name.
func (c *Collection[T, PT]) Name() string {
	return c.name
}

func (c *Collection[T, PT]) now() time.Time {
	return c.clock().UTC()
}

// Insert stores a new document. It assigns the id, stamps created and
// updated dates, and sets the revision to 1.
func (c *Collection[T, PT]) Insert(ctx context.Context, doc PT) error {
	if doc == nil {
		return ErrInvalidDocument
	}
	m := doc.meta()
	saved := *m

	now := c.now()
	m.ID = uuid.NewString()
	m.Revision = 1
	m.CreatedDate = now
	m.UpdatedDate = now

	if err := c.insert(ctx, doc); err != nil {
		*m = saved
		return err
	}
	return nil
}

func (c *Collection[T, PT]) insert(ctx context.Context, doc PT) error {
	m := doc.meta()
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s document: %w", c.name, err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (collection, id, revision, created_at, updated_at, body)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.name, m.ID, m.Revision, formatTime(m.CreatedDate), formatTime(m.UpdatedDate), string(body),
	)
	if err != nil {
		return fmt.Errorf("inserting %s document: %w", c.name, err)
	}

	if err := c.writeKeys(ctx, tx, doc); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s insert: %w", c.name, err)
	}
	return nil
}

// Get returns the document with the given id.
func (c *Collection[T, PT]) Get(ctx context.Context, id string) (PT, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, revision, created_at, updated_at, body
		 FROM documents WHERE collection = ? AND id = ?`,
		c.name, id,
	)
	return c.scan(row)
}

// FindOne returns the document whose unique key field equals value.
func (c *Collection[T, PT]) FindOne(ctx context.Context, field, value string) (PT, error) {
	if !c.hasKey(field) {
		return nil, fmt.Errorf("%w: %s has no key %q", ErrInvalidDocument, c.name, field)
	}
	row := c.db.QueryRowContext(ctx,
		`SELECT d.id, d.revision, d.created_at, d.updated_at, d.body
		 FROM document_keys k
		 JOIN documents d ON d.collection = k.collection AND d.id = k.document_id
		 WHERE k.collection = ? AND k.field = ? AND k.value = ?`,
		c.name, field, value,
	)
	return c.scan(row)
}

// List returns every document in creation order.
func (c *Collection[T, PT]) List(ctx context.Context) ([]PT, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, revision, created_at, updated_at, body
		 FROM documents WHERE collection = ? ORDER BY created_at, id`,
		c.name,
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", c.name, err)
	}
	defer rows.Close()

	docs := []PT{}
	for rows.Next() {
		doc, err := c.scan(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", c.name, err)
	}
	return docs, nil
}

// Count returns the number of documents in the collection.
func (c *Collection[T, PT]) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE collection = ?", c.name,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", c.name, err)
	}
	return n, nil
}

// Replace writes doc over the stored document with the same id, provided
// the stored revision still equals doc's revision. On success doc carries
// the new revision and updated date.
//
// Returns ErrNotFound if the document is gone, ErrRevisionConflict if it was
// modified since it was read, or a *DuplicateError on a key collision.
func (c *Collection[T, PT]) Replace(ctx context.Context, doc PT) error {
	if doc == nil {
		return ErrInvalidDocument
	}
	m := doc.meta()
	saved := *m

	m.Revision = saved.Revision + 1
	m.UpdatedDate = c.now()

	if err := c.replace(ctx, doc, saved.Revision); err != nil {
		*m = saved
		return err
	}
	return nil
}

func (c *Collection[T, PT]) replace(ctx context.Context, doc PT, expected int64) error {
	m := doc.meta()
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s document: %w", c.name, err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	res, err := tx.ExecContext(ctx,
		`UPDATE documents SET body = ?, revision = revision + 1, updated_at = ?
		 WHERE collection = ? AND id = ? AND revision = ?`,
		string(body), formatTime(m.UpdatedDate), c.name, m.ID, expected,
	)
	if err != nil {
		return fmt.Errorf("updating %s document: %w", c.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking %s update: %w", c.name, err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM documents WHERE collection = ? AND id = ?", c.name, m.ID,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("checking %s document: %w", c.name, err)
		}
		return ErrRevisionConflict
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM document_keys WHERE collection = ? AND document_id = ?", c.name, m.ID,
	); err != nil {
		return fmt.Errorf("clearing %s keys: %w", c.name, err)
	}
	if err := c.writeKeys(ctx, tx, doc); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s update: %w", c.name, err)
	}
	return nil
}

// Delete removes the document and its keys.
func (c *Collection[T, PT]) Delete(ctx context.Context, id string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM document_keys WHERE collection = ? AND document_id = ?", c.name, id,
	); err != nil {
		return fmt.Errorf("deleting %s keys: %w", c.name, err)
	}
	res, err := tx.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ?", c.name, id,
	)
	if err != nil {
		return fmt.Errorf("deleting %s document: %w", c.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking %s delete: %w", c.name, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s delete: %w", c.name, err)
	}
	return nil
}

func (c *Collection[T, PT]) writeKeys(ctx context.Context, tx *sql.Tx, doc PT) error {
	id := doc.meta().ID
	for _, k := range c.keys {
		value := k.fn((*T)(doc))
		if value == "" {
			continue
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO document_keys (collection, field, value, document_id) VALUES (?, ?, ?, ?)",
			c.name, k.field, value, id,
		)
		if isConstraintViolation(err) {
			return &DuplicateError{Collection: c.name, Field: k.field}
		}
		if err != nil {
			return fmt.Errorf("indexing %s.%s: %w", c.name, k.field, err)
		}
	}
	return nil
}

func (c *Collection[T, PT]) hasKey(field string) bool {
	for _, k := range c.keys {
		if k.field == field {
			return true
		}
	}
	return false
}

type scanner interface {
	Scan(dest ...any) error
}

func (c *Collection[T, PT]) scan(s scanner) (PT, error) {
	var (
		id, createdAt, updatedAt, body string
		revision                       int64
	)
	if err := s.Scan(&id, &revision, &createdAt, &updatedAt, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning %s document: %w", c.name, err)
	}

	doc := PT(new(T))
	if err := json.Unmarshal([]byte(body), doc); err != nil {
		return nil, fmt.Errorf("decoding %s document %s: %w", c.name, id, err)
	}

	m := doc.meta()
	m.ID = id
	m.Revision = revision
	var err error
	if m.CreatedDate, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing %s created_at: %w", c.name, err)
	}
	if m.UpdatedDate, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing %s updated_at: %w", c.name, err)
	}
	return doc, nil
}

// timeLayout is fixed width so created_at sorts chronologically as text.
// time.RFC3339Nano trims trailing zeros and would not.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
