package journal

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomcamp/tomcamp-core/internal/store"
)

// EntryDateLayout is the plain date-time form accepted for entry dates
// besides RFC 3339.
const EntryDateLayout = "2006-01-02 15:04:05"

// maxTitleLength bounds journal and entry titles.
const maxTitleLength = 200

// Journal is a titled collection of entries owned by its author.
type Journal struct {
	store.Meta
	Title       string  `json:"title"`
	AuthorID    string  `json:"author_id"`
	Description string  `json:"description"`
	Entries     []Entry `json:"entries"`
}

// Entry is one dated record in a journal.
type Entry struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
	Body     string    `json:"body"`
	Images   []string  `json:"images"`
}

// EntryInput is an entry as submitted by a client. Date is free-form.
type EntryInput struct {
	ID       string   `json:"id,omitempty"`
	Title    string   `json:"title"`
	Date     string   `json:"date"`
	Location string   `json:"location"`
	Body     string   `json:"body"`
	Images   []string `json:"images"`
}

// ParseEntryDate reads RFC 3339 or EntryDateLayout. Anything else, blank
// included, yields now.
func ParseEntryDate(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(EntryDateLayout, s); err == nil {
		return t.UTC()
	}
	return now.UTC()
}

// toEntry converts input to a stored entry, assigning an id when absent.
func (in EntryInput) toEntry(now time.Time) (Entry, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || len(title) > maxTitleLength {
		return Entry{}, ErrInvalidEntry
	}
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return Entry{}, ErrInvalidEntry
	}
	images := in.Images
	if images == nil {
		images = []string{}
	}
	return Entry{
		ID:       id,
		Title:    title,
		Date:     ParseEntryDate(in.Date, now),
		Location: in.Location,
		Body:     in.Body,
		Images:   images,
	}, nil
}

// Sentinel errors for journal operations.
var (
	ErrJournalNotFound = errors.New("journal: not found")
	ErrJournalExists   = errors.New("journal: title already registered")
	ErrInvalidTitle    = errors.New("journal: invalid title")
	ErrInvalidEntry    = errors.New("journal: invalid entry")
)
