package cards

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/guarzo/bcards/common/model"
)

// Loader fetches the list a view displays.
type Loader func(ctx context.Context, forceRefresh bool) ([]model.Card, error)

// AllCards loads the full directory.
func AllCards(svc CardsService) Loader {
	return svc.GetAllCards
}

// FavoriteCards loads the current user's liked cards.
func FavoriteCards(svc CardsService) Loader {
	return svc.GetFavoriteCards
}

// MyCards loads the current user's own cards. That list is never cached,
// so forceRefresh has nothing to bypass.
func MyCards(svc CardsService) Loader {
	return func(ctx context.Context, _ bool) ([]model.Card, error) {
		return svc.GetMyCards(ctx)
	}
}

const defaultReloadTimeout = 30 * time.Second

// ListView keeps a card list in sync with the service. While open it
// re-queries with forceRefresh whenever a mutation is broadcast. Results
// arriving after Close, or older than one already applied, are dropped.
type ListView struct {
	svc  CardsService
	load Loader

	mu       sync.Mutex
	sub      *Subscription
	open     bool
	cards    []model.Card
	err      error
	search   string
	seq      uint64
	applied  uint64
	onUpdate func([]model.Card, error)

	reloads sync.WaitGroup
}

// NewListView returns a closed view over load.
func NewListView(svc CardsService, load Loader) *ListView {
	return &ListView{svc: svc, load: load}
}

// OnUpdate sets a callback run after every applied load, with the filtered
// snapshot.
func (v *ListView) OnUpdate(fn func([]model.Card, error)) {
	v.mu.Lock()
	v.onUpdate = fn
	v.mu.Unlock()
}

// Open subscribes to change notifications and performs the initial load.
// Opening an open view only reloads.
func (v *ListView) Open(ctx context.Context) error {
	v.mu.Lock()
	if !v.open {
		v.open = true
		v.sub = v.svc.Subscribe(v.handleChange)
	}
	v.mu.Unlock()
	return v.reload(ctx, false)
}

// Close unsubscribes. Loads still in flight are discarded when they finish.
func (v *ListView) Close() {
	v.mu.Lock()
	sub := v.sub
	v.sub = nil
	v.open = false
	v.mu.Unlock()
	sub.Unsubscribe()
}

// Refresh re-queries, bypassing the cache.
func (v *ListView) Refresh(ctx context.Context) error {
	return v.reload(ctx, true)
}

// Wait blocks until reloads triggered by notifications have finished.
func (v *ListView) Wait() {
	v.reloads.Wait()
}

// SetSearch narrows Cards to those matching term.
func (v *ListView) SetSearch(term string) {
	v.mu.Lock()
	v.search = term
	v.mu.Unlock()
}

// Cards is the current snapshot, filtered by the search term.
func (v *ListView) Cards() []model.Card {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Filter(v.cards, v.search)
}

// Err is the error of the last applied load.
func (v *ListView) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

func (v *ListView) handleChange() {
	v.reloads.Add(1)
	go func() {
		defer v.reloads.Done()
		ctx, cancel := context.WithTimeout(context.Background(), defaultReloadTimeout)
		defer cancel()
		if err := v.reload(ctx, true); err != nil {
			log.WithError(err).Warn("card list refresh after change failed")
		}
	}()
}

func (v *ListView) reload(ctx context.Context, force bool) error {
	v.mu.Lock()
	if !v.open {
		v.mu.Unlock()
		return nil
	}
	v.seq++
	seq := v.seq
	v.mu.Unlock()

	cards, err := v.load(ctx, force)

	v.mu.Lock()
	if !v.open || seq < v.applied {
		v.mu.Unlock()
		return err
	}
	v.applied = seq
	if err == nil {
		v.cards = cards
	}
	v.err = err
	snapshot := Filter(v.cards, v.search)
	onUpdate := v.onUpdate
	v.mu.Unlock()

	if onUpdate != nil {
		onUpdate(snapshot, err)
	}
	return err
}
