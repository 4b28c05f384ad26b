package service

import (
	"context"
	"sync"

	"github.com/noah-isme/student-console/internal/models"
)

// ShellState tracks whether the form is open and which record it edits.
// Refreshes counts published refresh signals and is informational only.
type ShellState struct {
	FormOpen  bool            `json:"form_open"`
	Selected  *models.Student `json:"selected,omitempty"`
	Refreshes uint64          `json:"refreshes"`
}

// OpenCreate shows the form for a new record.
func (s *ShellState) OpenCreate() {
	s.Selected = nil
	s.FormOpen = true
}

// OpenEdit shows the form for record.
func (s *ShellState) OpenEdit(record models.Student) {
	selected := record
	s.Selected = &selected
	s.FormOpen = true
}

// Close hides the form and clears the selection.
func (s *ShellState) Close() {
	s.Selected = nil
	s.FormOpen = false
}

// Editing reports whether the open form targets an existing record.
func (s *ShellState) Editing() bool {
	return s.FormOpen && s.Selected != nil
}

// RefreshListener reacts to a refresh of one console.
type RefreshListener func(ctx context.Context, console *Console) error

// RefreshSignal fans a "list changed" event out to its subscribers.
type RefreshSignal struct {
	mu        sync.RWMutex
	listeners []RefreshListener
}

// Subscribe registers fn for every later Publish.
func (r *RefreshSignal) Subscribe(fn RefreshListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Publish bumps the console's refresh count and calls every subscriber in
// registration order. The first listener error is returned after all have run.
func (r *RefreshSignal) Publish(ctx context.Context, console *Console) error {
	console.Shell.Refreshes++
	r.mu.RLock()
	listeners := make([]RefreshListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	var first error
	for _, fn := range listeners {
		if err := fn(ctx, console); err != nil && first == nil {
			first = err
		}
	}
	return first
}
