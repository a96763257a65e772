// Package store is the document store behind every Tom.Camp resource.
//
// Each entity type lives in its own Collection. Documents are persisted as
// JSON bodies in SQLite alongside a revision counter and store-stamped
// created/updated dates. Unique fields (usernames, titles, device ids,
// API keys) are indexed in a side table so lookups and collision checks are
// exact.
//
// # Revisions
//
// Insert sets revision 1. Replace only succeeds when the caller's revision
// still matches the stored one, then advances it by one. A caller that read
// a stale copy gets ErrRevisionConflict and must re-read.
//
//	type Page struct {
//	    store.Meta
//	    Title string `json:"title"`
//	}
//
//	pages := store.NewCollection[Page](db, "pages",
//	    store.WithUnique("title", func(p *Page) string { return p.Title }))
package store
