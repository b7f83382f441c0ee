// Package confirm implements the two-step delete flow used by the card and
// user screens: a delete is first requested, then confirmed or cancelled.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Kind names what is being deleted. It appears in the failure message.
type Kind string

const (
	KindUser Kind = "user"
	KindCard Kind = "card"
	KindItem Kind = "item"
)

// Handler performs the actual delete.
type Handler func(ctx context.Context, id string, kind Kind) error

// ErrInProgress is returned by Confirm while a previous Confirm is still
// running.
var ErrInProgress = errors.New("a delete is already in progress")

// Item is the pending delete target.
type Item struct {
	ID   string
	Kind Kind
}

// State is a snapshot of the workflow.
type State struct {
	Open     bool
	Item     *Item
	Deleting bool
	Err      string
}

// Workflow tracks one pending delete at a time.
type Workflow struct {
	handler Handler

	mu       sync.Mutex
	item     *Item
	deleting bool
	errMsg   string
}

// New returns a closed workflow that deletes through handler.
func New(handler Handler) *Workflow {
	return &Workflow{handler: handler}
}

// Request opens the confirmation for id and clears any previous error.
func (w *Workflow) Request(id string, kind Kind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.item = &Item{ID: id, Kind: kind}
	w.errMsg = ""
}

// Cancel closes the confirmation without deleting.
func (w *Workflow) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.item = nil
}

// Confirm runs the handler for the pending item. On success the
// confirmation closes; on failure it stays open with an error message and
// the handler's error is returned. With nothing pending it does nothing.
func (w *Workflow) Confirm(ctx context.Context) error {
	w.mu.Lock()
	if w.item == nil {
		w.mu.Unlock()
		return nil
	}
	if w.deleting {
		w.mu.Unlock()
		return ErrInProgress
	}
	item := *w.item
	w.deleting = true
	w.errMsg = ""
	w.mu.Unlock()

	err := w.handler(ctx, item.ID, item.Kind)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.deleting = false
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"id": item.ID, "kind": item.Kind}).Error("delete failed")
		w.errMsg = fmt.Sprintf("Failed to delete %s. Please try again.", item.Kind)
		return err
	}
	if w.item != nil && *w.item == item {
		w.item = nil
	}
	return nil
}

// State returns the current snapshot.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := State{
		Open:     w.item != nil,
		Deleting: w.deleting,
		Err:      w.errMsg,
	}
	if w.item != nil {
		item := *w.item
		st.Item = &item
	}
	return st
}
