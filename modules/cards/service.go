package cards

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/guarzo/bcards/common"
	"github.com/guarzo/bcards/common/model"
)

// DefaultCacheTTL is how long a cached card list stays valid.
const DefaultCacheTTL = 2 * time.Minute

// fetchTimeout bounds a shared list fetch.
const fetchTimeout = 30 * time.Second

const (
	allCardsKey      = "cards:all"
	favoriteCardsKey = "cards:favorites"

	slotAll       = "all"
	slotFavorites = "favorites"
)

// CardsService is the cached, change-propagating view of the cards
// endpoint that the rest of the application reads through.
type CardsService interface {
	// GetAllCards returns the whole directory, from cache while the cached
	// list is younger than the TTL and forceRefresh is false.
	GetAllCards(ctx context.Context, forceRefresh bool) ([]model.Card, error)
	// GetFavoriteCards returns the cards the current user has liked.
	GetFavoriteCards(ctx context.Context, forceRefresh bool) ([]model.Card, error)
	GetMyCards(ctx context.Context) ([]model.Card, error)
	GetCardByID(ctx context.Context, id string) (*model.Card, error)

	CreateCard(ctx context.Context, card model.CardInput) (*model.Card, error)
	UpdateCard(ctx context.Context, id string, card model.CardInput) (*model.Card, error)
	DeleteCard(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, id string) (*model.Card, error)

	// InvalidateAll clears both cached lists.
	InvalidateAll()
	// Subscribe registers fn to run after every successful mutation.
	Subscribe(fn func()) *Subscription
}

// Options tunes a CardsService. Zero values pick the defaults.
type Options struct {
	TTL     time.Duration
	Clock   common.Clock
	Metrics *common.Metrics
}

type cardsService struct {
	client   CardsClient
	cache    common.CacheRepository
	session  common.Session
	notifier *Notifier
	ttl      time.Duration
	clock    common.Clock
	metrics  *common.Metrics

	group singleflight.Group

	// mu guards generation and invalidatedAt. Every invalidation bumps the
	// generation; a fetch only stores its result if no invalidation happened
	// since it started. Entries captured before invalidatedAt are ignored
	// in case the store failed to delete them.
	mu            sync.Mutex
	generation    uint64
	invalidatedAt time.Time
}

// cacheEntry is what a slot holds in the CacheRepository.
type cacheEntry struct {
	Cards      []model.Card `json:"cards"`
	CapturedAt time.Time    `json:"captured_at"`
	Owner      string       `json:"owner,omitempty"`
}

// NewCardsService wires the cache and notification layers over client.
func NewCardsService(client CardsClient, cache common.CacheRepository, session common.Session, opts Options) CardsService {
	if opts.TTL <= 0 {
		opts.TTL = DefaultCacheTTL
	}
	if opts.Clock == nil {
		opts.Clock = common.SystemClock
	}
	if cache == nil {
		cache = common.NewCacheStore()
	}
	return &cardsService{
		client:   client,
		cache:    cache,
		session:  session,
		notifier: NewNotifier(),
		ttl:      opts.TTL,
		clock:    opts.Clock,
		metrics:  opts.Metrics,
	}
}

func (s *cardsService) GetAllCards(ctx context.Context, forceRefresh bool) ([]model.Card, error) {
	if !forceRefresh {
		if cards, ok := s.load(allCardsKey, ""); ok {
			log.Debug("using cached all cards")
			s.metrics.CacheHit(slotAll)
			return cards, nil
		}
	}
	s.metrics.CacheMiss(slotAll)

	gen := s.currentGeneration()
	ch := s.group.DoChan(fmt.Sprintf("%s:%d", slotAll, gen), func() (interface{}, error) {
		// shared by every caller of this generation, so no single caller's
		// cancellation may end it
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		capturedAt := s.clock.Now()
		cards, err := s.client.ListCards(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.store(allCardsKey, gen, cacheEntry{Cards: cards, CapturedAt: capturedAt})
		return cards, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		log.WithError(res.Err).Error("error fetching all cards")
		return nil, res.Err
	}
	return cloneCards(res.Val.([]model.Card)), nil
}

func (s *cardsService) GetFavoriteCards(ctx context.Context, forceRefresh bool) ([]model.Card, error) {
	ident, err := common.IdentityFromSession(s.session)
	if err != nil {
		return nil, err
	}

	if !forceRefresh {
		if cards, ok := s.load(favoriteCardsKey, ident.ID); ok {
			log.WithField("user", ident.ID).Debug("using cached favorite cards")
			s.metrics.CacheHit(slotFavorites)
			return cards, nil
		}
	}
	s.metrics.CacheMiss(slotFavorites)

	gen := s.currentGeneration()
	capturedAt := s.clock.Now()
	all, err := s.GetAllCards(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}

	favorites := likedBy(all, ident.ID)
	s.store(favoriteCardsKey, gen, cacheEntry{Cards: favorites, CapturedAt: capturedAt, Owner: ident.ID})
	return favorites, nil
}

func (s *cardsService) GetMyCards(ctx context.Context) ([]model.Card, error) {
	return s.client.ListMyCards(ctx)
}

func (s *cardsService) GetCardByID(ctx context.Context, id string) (*model.Card, error) {
	return s.client.GetCard(ctx, id)
}

func (s *cardsService) CreateCard(ctx context.Context, in model.CardInput) (*model.Card, error) {
	card, err := s.client.CreateCard(ctx, in)
	if err != nil {
		return nil, err
	}
	s.changed("create", card.ID)
	return card, nil
}

func (s *cardsService) UpdateCard(ctx context.Context, id string, in model.CardInput) (*model.Card, error) {
	card, err := s.client.UpdateCard(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.changed("update", id)
	return card, nil
}

func (s *cardsService) DeleteCard(ctx context.Context, id string) error {
	if err := s.client.DeleteCard(ctx, id); err != nil {
		return err
	}
	s.changed("delete", id)
	return nil
}

func (s *cardsService) ToggleLike(ctx context.Context, id string) (*model.Card, error) {
	card, err := s.client.ToggleLike(ctx, id)
	if err != nil {
		return nil, err
	}
	s.changed("like", id)
	return card, nil
}

func (s *cardsService) InvalidateAll() {
	s.mu.Lock()
	s.generation++
	s.invalidatedAt = s.clock.Now()
	s.cache.Delete(allCardsKey)
	s.cache.Delete(favoriteCardsKey)
	s.mu.Unlock()

	s.metrics.Invalidated()
	log.Debug("all card caches cleared")
}

func (s *cardsService) Subscribe(fn func()) *Subscription {
	return s.notifier.Subscribe(fn)
}

// changed runs after a successful mutation: the cache is cleared before
// listeners hear about it, so a listener that re-fetches never sees the
// pre-mutation list.
func (s *cardsService) changed(op, id string) {
	s.InvalidateAll()
	log.WithFields(log.Fields{"op": op, "card": id}).Debug("cards changed")
	s.notifier.Broadcast()
}

func (s *cardsService) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// load returns the cards in slot key if the entry exists, belongs to owner,
// is younger than the TTL and was captured no earlier than the last
// invalidation.
func (s *cardsService) load(key, owner string) ([]model.Card, bool) {
	data, found := s.cache.Get(key)
	if !found {
		return nil, false
	}
	var entry cacheEntry
	if err := model.JSONUnmarshal(data, &entry); err != nil {
		log.WithError(err).WithField("key", key).Warn("discarding unreadable cache entry")
		return nil, false
	}
	if entry.Owner != owner {
		return nil, false
	}
	if s.clock.Now().Sub(entry.CapturedAt) >= s.ttl {
		return nil, false
	}
	s.mu.Lock()
	stale := entry.CapturedAt.Before(s.invalidatedAt)
	s.mu.Unlock()
	if stale {
		log.WithField("key", key).Debug("ignoring entry captured before the last invalidation")
		return nil, false
	}
	if entry.Cards == nil {
		entry.Cards = []model.Card{}
	}
	return entry.Cards, true
}

// store writes entry unless the cache was invalidated after gen was read.
func (s *cardsService) store(key string, gen uint64, entry cacheEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("unable to encode cache entry")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		log.WithField("key", key).Debug("dropping result fetched before invalidation")
		return
	}
	s.cache.Set(key, data, s.ttl)
}

func likedBy(cards []model.Card, userID string) []model.Card {
	out := make([]model.Card, 0)
	for _, c := range cards {
		if c.Likes.Contains(userID) {
			out = append(out, c.Clone())
		}
	}
	return out
}

func cloneCards(cards []model.Card) []model.Card {
	out := make([]model.Card, len(cards))
	for i, c := range cards {
		out[i] = c.Clone()
	}
	return out
}
