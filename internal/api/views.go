package api

import (
	"time"

	"github.com/tomcamp/tomcamp-core/internal/auth"
	"github.com/tomcamp/tomcamp-core/internal/device"
	"github.com/tomcamp/tomcamp-core/internal/journal"
	"github.com/tomcamp/tomcamp-core/internal/page"
)

// Response views. Stored entities carry secrets (password hashes, API
// keys) that must never reach a response, so handlers only ever encode
// these.

type userView struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Role        auth.Role `json:"role"`
	Revision    int64     `json:"revision"`
	CreatedDate time.Time `json:"created_date"`
	UpdatedDate time.Time `json:"updated_date"`
}

func newUserView(u *auth.User) userView {
	return userView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		Revision:    u.Revision,
		CreatedDate: u.CreatedDate,
		UpdatedDate: u.UpdatedDate,
	}
}

type journalView struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	AuthorID    string          `json:"author_id"`
	Description string          `json:"description"`
	Entries     []journal.Entry `json:"entries"`
	Revision    int64           `json:"revision"`
	CreatedDate time.Time       `json:"created_date"`
	UpdatedDate time.Time       `json:"updated_date"`
}

func newJournalView(j *journal.Journal) journalView {
	entries := j.Entries
	if entries == nil {
		entries = []journal.Entry{}
	}
	return journalView{
		ID:          j.ID,
		Title:       j.Title,
		AuthorID:    j.AuthorID,
		Description: j.Description,
		Entries:     entries,
		Revision:    j.Revision,
		CreatedDate: j.CreatedDate,
		UpdatedDate: j.UpdatedDate,
	}
}

type pageView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	AuthorID    string    `json:"author_id"`
	Body        string    `json:"body"`
	Revision    int64     `json:"revision"`
	CreatedDate time.Time `json:"created_date"`
	UpdatedDate time.Time `json:"updated_date"`
}

func newPageView(p *page.Page) pageView {
	return pageView{
		ID:          p.ID,
		Title:       p.Title,
		AuthorID:    p.AuthorID,
		Body:        p.Body,
		Revision:    p.Revision,
		CreatedDate: p.CreatedDate,
		UpdatedDate: p.UpdatedDate,
	}
}

// deviceView omits both the API key and the data log; the log is served
// by its own endpoint.
type deviceView struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"device_id"`
	Notes       string    `json:"notes,omitempty"`
	DataPoints  int       `json:"data_points"`
	Revision    int64     `json:"revision"`
	CreatedDate time.Time `json:"created_date"`
	UpdatedDate time.Time `json:"updated_date"`
}

func newDeviceView(d *device.Device) deviceView {
	return deviceView{
		ID:          d.ID,
		DeviceID:    d.DeviceID,
		Notes:       d.Notes,
		DataPoints:  len(d.Data),
		Revision:    d.Revision,
		CreatedDate: d.CreatedDate,
		UpdatedDate: d.UpdatedDate,
	}
}

// createdDeviceView is returned once, by the create handler.
type createdDeviceView struct {
	deviceView
	APIKey string `json:"api_key"`
}

func mapViews[T any, V any](items []*T, fn func(*T) V) []V {
	out := make([]V, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
