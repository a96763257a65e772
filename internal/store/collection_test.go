package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tomcamp/tomcamp-core/internal/infrastructure/database"
	"github.com/tomcamp/tomcamp-core/migrations"
)

type note struct {
	Meta
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags,omitempty"`
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: filepath.Join(t.TempDir(), "store.db"), WALMode: true, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newNotes(t *testing.T) (*Collection[note, *note], *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	notes := NewCollection[note](openTestDB(t).DB, "notes",
		WithUnique("title", func(n *note) string { return n.Title }),
		WithClock[note](clock.Now),
	)
	return notes, clock
}

func TestInsertAndGet(t *testing.T) {
	notes, clock := newNotes(t)
	ctx := context.Background()

	n := &note{Title: "first", Body: "hello", Tags: []string{"a"}}
	if err := notes.Insert(ctx, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if n.ID == "" {
		t.Fatal("Insert() did not assign an id")
	}
	if n.Revision != 1 {
		t.Errorf("Revision = %d, want 1", n.Revision)
	}
	if !n.CreatedDate.Equal(clock.Now()) || !n.UpdatedDate.Equal(clock.Now()) {
		t.Errorf("dates = %v/%v, want %v", n.CreatedDate, n.UpdatedDate, clock.Now())
	}

	got, err := notes.Get(ctx, n.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "first" || got.Body != "hello" || len(got.Tags) != 1 {
		t.Errorf("Get() = %+v, want stored fields", got)
	}
	if got.Revision != 1 || got.ID != n.ID {
		t.Errorf("Get() meta = %+v, want id %s revision 1", got.Meta, n.ID)
	}
	if !got.CreatedDate.Equal(n.CreatedDate) {
		t.Errorf("CreatedDate = %v, want %v", got.CreatedDate, n.CreatedDate)
	}
}

func TestGet_NotFound(t *testing.T) {
	notes, _ := newNotes(t)
	if _, err := notes.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestInsert_Duplicate(t *testing.T) {
	notes, _ := newNotes(t)
	ctx := context.Background()

	if err := notes.Insert(ctx, &note{Title: "same"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	dup := &note{Title: "same"}
	err := notes.Insert(ctx, dup)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Insert() error = %v, want ErrDuplicate", err)
	}
	var dupErr *DuplicateError
	if !errors.As(err, &dupErr) || dupErr.Field != "title" {
		t.Errorf("DuplicateError = %+v, want field title", dupErr)
	}
	if dup.ID != "" || dup.Revision != 0 {
		t.Errorf("failed Insert() left meta %+v, want zero", dup.Meta)
	}

	count, err := notes.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1 (duplicate rolled back)", count)
	}
}

func TestFindOne(t *testing.T) {
	notes, _ := newNotes(t)
	ctx := context.Background()

	n := &note{Title: "lookup"}
	if err := notes.Insert(ctx, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := notes.FindOne(ctx, "title", "lookup")
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if got.ID != n.ID {
		t.Errorf("FindOne() id = %s, want %s", got.ID, n.ID)
	}

	if _, err := notes.FindOne(ctx, "title", "Lookup"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindOne() is case-sensitive, error = %v, want ErrNotFound", err)
	}
	if _, err := notes.FindOne(ctx, "body", "x"); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("FindOne(undeclared) error = %v, want ErrInvalidDocument", err)
	}
}

func TestList_CreationOrder(t *testing.T) {
	notes, clock := newNotes(t)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		if err := notes.Insert(ctx, &note{Title: title}); err != nil {
			t.Fatalf("Insert(%s) error = %v", title, err)
		}
		clock.Advance(time.Second)
	}

	list, err := notes.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List() len = %d, want 3", len(list))
	}
	for i, want := range []string{"a", "b", "c"} {
		if list[i].Title != want {
			t.Errorf("List()[%d] = %s, want %s", i, list[i].Title, want)
		}
	}
}

func TestList_CreationOrderWithinSecond(t *testing.T) {
	notes, clock := newNotes(t)
	ctx := context.Background()

	// 100ms and 120ms would sort backwards as trimmed RFC 3339 text.
	clock.Advance(100 * time.Millisecond)
	if err := notes.Insert(ctx, &note{Title: "first"}); err != nil {
		t.Fatalf("Insert(first) error = %v", err)
	}
	clock.Advance(20 * time.Millisecond)
	if err := notes.Insert(ctx, &note{Title: "second"}); err != nil {
		t.Fatalf("Insert(second) error = %v", err)
	}
	clock.Advance(880 * time.Millisecond)
	if err := notes.Insert(ctx, &note{Title: "third"}); err != nil {
		t.Fatalf("Insert(third) error = %v", err)
	}

	list, err := notes.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List() len = %d, want 3", len(list))
	}
	for i, want := range []string{"first", "second", "third"} {
		if list[i].Title != want {
			t.Errorf("List()[%d] = %s, want %s", i, list[i].Title, want)
		}
	}
}

func TestList_Empty(t *testing.T) {
	notes, _ := newNotes(t)
	list, err := notes.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("List() = %v, want empty non-nil slice", list)
	}
}

func TestReplace(t *testing.T) {
	notes, clock := newNotes(t)
	ctx := context.Background()

	n := &note{Title: "draft"}
	if err := notes.Insert(ctx, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	created := n.CreatedDate

	clock.Advance(time.Minute)
	n.Title = "final"
	n.Body = "done"
	if err := notes.Replace(ctx, n); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if n.Revision != 2 {
		t.Errorf("Revision = %d, want 2", n.Revision)
	}
	if !n.UpdatedDate.Equal(clock.Now()) {
		t.Errorf("UpdatedDate = %v, want %v", n.UpdatedDate, clock.Now())
	}

	got, err := notes.Get(ctx, n.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "final" || got.Revision != 2 {
		t.Errorf("Get() = %+v, want title final revision 2", got)
	}
	if !got.CreatedDate.Equal(created) {
		t.Errorf("CreatedDate changed to %v, want %v", got.CreatedDate, created)
	}

	// Old key is released, new key is taken.
	if _, err := notes.FindOne(ctx, "title", "draft"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindOne(old title) error = %v, want ErrNotFound", err)
	}
	if err := notes.Insert(ctx, &note{Title: "draft"}); err != nil {
		t.Errorf("Insert(released title) error = %v", err)
	}
}

func TestReplace_StaleRevision(t *testing.T) {
	notes, _ := newNotes(t)
	ctx := context.Background()

	n := &note{Title: "shared"}
	if err := notes.Insert(ctx, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	first, _ := notes.Get(ctx, n.ID)  //nolint:errcheck // checked via second read
	second, _ := notes.Get(ctx, n.ID) //nolint:errcheck // checked via second read

	first.Body = "from first"
	if err := notes.Replace(ctx, first); err != nil {
		t.Fatalf("Replace(first) error = %v", err)
	}

	second.Body = "from second"
	if err := notes.Replace(ctx, second); !errors.Is(err, ErrRevisionConflict) {
		t.Fatalf("Replace(stale) error = %v, want ErrRevisionConflict", err)
	}
	if second.Revision != 1 {
		t.Errorf("stale copy revision = %d, want unchanged 1", second.Revision)
	}

	got, err := notes.Get(ctx, n.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Body != "from first" || got.Revision != 2 {
		t.Errorf("Get() = %+v, want first writer's body at revision 2", got)
	}
}

func TestReplace_Concurrent(t *testing.T) {
	notes, _ := newNotes(t)
	ctx := context.Background()

	n := &note{Title: "race"}
	if err := notes.Insert(ctx, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	const writers = 8
	copies := make([]*note, writers)
	for i := range copies {
		c, err := notes.Get(ctx, n.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		copies[i] = c
	}

	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := range copies {
		wg.Add(1)
		go func(c *note) {
			defer wg.Done()
			c.Body = c.ID
			results <- notes.Replace(ctx, c)
		}(copies[i])
	}
	wg.Wait()
	close(results)

	var ok, conflicts int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrRevisionConflict):
			conflicts++
		default:
			t.Errorf("Replace() unexpected error = %v", err)
		}
	}
	if ok != 1 || conflicts != writers-1 {
		t.Errorf("ok = %d, conflicts = %d, want 1 and %d", ok, conflicts, writers-1)
	}
}

func TestReplace_DuplicateKey(t *testing.T) {
	notes, _ := newNotes(t)
	ctx := context.Background()

	a := &note{Title: "a"}
	b := &note{Title: "b"}
	for _, n := range []*note{a, b} {
		if err := notes.Insert(ctx, n); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	b.Title = "a"
	if err := notes.Replace(ctx, b); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Replace() error = %v, want ErrDuplicate", err)
	}
	if b.Revision != 1 {
		t.Errorf("Revision after failed Replace() = %d, want 1", b.Revision)
	}

	got, err := notes.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "b" {
		t.Errorf("stored title = %q, want b (rolled back)", got.Title)
	}
	if _, err := notes.FindOne(ctx, "title", "b"); err != nil {
		t.Errorf("FindOne(b) after rollback error = %v", err)
	}
}

func TestReplace_Deleted(t *testing.T) {
	notes, _ := newNotes(t)
	ctx := context.Background()

	n := &note{Title: "gone"}
	if err := notes.Insert(ctx, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := notes.Delete(ctx, n.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := notes.Replace(ctx, n); !errors.Is(err, ErrNotFound) {
		t.Errorf("Replace(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	notes, _ := newNotes(t)
	ctx := context.Background()

	n := &note{Title: "temp"}
	if err := notes.Insert(ctx, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := notes.Delete(ctx, n.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := notes.Get(ctx, n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
	}
	if err := notes.Delete(ctx, n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	// Key is released.
	if err := notes.Insert(ctx, &note{Title: "temp"}); err != nil {
		t.Errorf("Insert(reused title) error = %v", err)
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	byTitle := WithUnique("title", func(n *note) string { return n.Title })
	a := NewCollection[note](db.DB, "a", byTitle)
	b := NewCollection[note](db.DB, "b", byTitle)

	n := &note{Title: "shared"}
	if err := a.Insert(ctx, n); err != nil {
		t.Fatalf("a.Insert() error = %v", err)
	}
	if err := b.Insert(ctx, &note{Title: "shared"}); err != nil {
		t.Errorf("b.Insert(same title) error = %v", err)
	}
	if _, err := b.Get(ctx, n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("b.Get(a's id) error = %v, want ErrNotFound", err)
	}
}

func TestNilDocument(t *testing.T) {
	notes, _ := newNotes(t)
	if err := notes.Insert(context.Background(), nil); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("Insert(nil) error = %v, want ErrInvalidDocument", err)
	}
	if err := notes.Replace(context.Background(), nil); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("Replace(nil) error = %v, want ErrInvalidDocument", err)
	}
}
