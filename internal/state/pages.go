package state

import (
	"errors"
	"fmt"
	"sync"
)

var ErrPageNotFound = errors.New("page not found")

// Page is a labeled scratch buffer. Strokes are not kept per page.
type Page struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// PageStore is the ordered list of pages plus the active index.
// IDs come from a counter and are never reused after deletion.
type PageStore struct {
	pages  []Page
	active int
	nextID int
	mu     sync.RWMutex
}

// NewPageStore returns a store holding one page.
func NewPageStore() *PageStore {
	ps := &PageStore{nextID: 1}
	ps.pages = []Page{ps.newPage()}
	return ps
}

func (ps *PageStore) newPage() Page {
	p := Page{ID: ps.nextID, Label: fmt.Sprintf("Page %d", ps.nextID)}
	ps.nextID++
	return p
}

// Add appends a page and makes it active.
func (ps *PageStore) Add() Page {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	p := ps.newPage()
	ps.pages = append(ps.pages, p)
	ps.active = len(ps.pages) - 1
	return p
}

// Switch activates the page with the given ID.
func (ps *PageStore) Switch(id int) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for i, p := range ps.pages {
		if p.ID == id {
			ps.active = i
			return nil
		}
	}
	return fmt.Errorf("switch to %d: %w", id, ErrPageNotFound)
}

// Delete removes the active page and activates the one before it. With a
// single page left nothing is removed and Delete returns false.
func (ps *PageStore) Delete() (Page, bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if len(ps.pages) <= 1 {
		return ps.pages[ps.active], false
	}
	removed := ps.pages[ps.active]
	ps.pages = append(ps.pages[:ps.active], ps.pages[ps.active+1:]...)
	ps.active = max(0, ps.active-1)
	return removed, true
}

// Pages returns a copy of the pages in display order.
func (ps *PageStore) Pages() []Page {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	out := make([]Page, len(ps.pages))
	copy(out, ps.pages)
	return out
}

func (ps *PageStore) Active() Page {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.pages[ps.active]
}

// Number is the 1-based display position of the active page.
func (ps *PageStore) Number() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.active + 1
}

func (ps *PageStore) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.pages)
}
