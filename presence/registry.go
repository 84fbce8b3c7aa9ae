package presence

import (
	"errors"
	"fmt"

	"storefront-realtime/domain"
)

var ErrDuplicateID = errors.New("connection id already registered")

// Registry maps connection ids to the page each connection is viewing and keeps
// an index of page -> ids so viewers of one page can be listed without a full scan.
//
// Registry is not safe for concurrent use. The lifecycle manager owns it and
// serializes every call.
type Registry struct {
	entries map[string]domain.Entry
	pages   map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]domain.Entry),
		pages:   make(map[string]map[string]struct{}),
	}
}

// Register adds conn with no page set.
func (r *Registry) Register(conn domain.Connection) error {
	id := conn.ID()
	if _, exists := r.entries[id]; exists {
		return fmt.Errorf("register %s: %w", id, ErrDuplicateID)
	}
	r.entries[id] = domain.Entry{ID: id, Conn: conn}
	return nil
}

// SetPage moves id to page and returns the page it was on before.
// Unknown ids are ignored and reported with ok=false.
func (r *Registry) SetPage(id, page string) (previous string, ok bool) {
	e, exists := r.entries[id]
	if !exists {
		return "", false
	}
	previous = e.Page
	if previous == page {
		return previous, true
	}

	r.unindex(id, previous)
	if page != "" {
		viewers, ok := r.pages[page]
		if !ok {
			viewers = make(map[string]struct{})
			r.pages[page] = viewers
		}
		viewers[id] = struct{}{}
	}

	e.Page = page
	r.entries[id] = e
	return previous, true
}

// Unregister removes id and returns the entry it had. Unknown ids are a no-op.
func (r *Registry) Unregister(id string) (domain.Entry, bool) {
	e, exists := r.entries[id]
	if !exists {
		return domain.Entry{}, false
	}
	r.unindex(id, e.Page)
	delete(r.entries, id)
	return e, true
}

// Snapshot returns a copy of every entry.
func (r *Registry) Snapshot() []domain.Entry {
	out := make([]domain.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

// Viewers returns a copy of the entries currently on page.
func (r *Registry) Viewers(page string) []domain.Entry {
	ids := r.pages[page]
	out := make([]domain.Entry, 0, len(ids))
	for id := range ids {
		out = append(out, r.entries[id])
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.entries)
}

func (r *Registry) unindex(id, page string) {
	if page == "" {
		return
	}
	viewers, ok := r.pages[page]
	if !ok {
		return
	}
	delete(viewers, id)
	if len(viewers) == 0 {
		delete(r.pages, page)
	}
}
