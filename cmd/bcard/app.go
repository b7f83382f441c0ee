package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/guarzo/bcards/common"
	"github.com/guarzo/bcards/config"
	"github.com/guarzo/bcards/modules/cards"
	"github.com/guarzo/bcards/modules/users"
)

// app holds everything a command needs. It is built once per invocation
// in the root command's PersistentPreRunE.
type app struct {
	cfg      *config.Config
	session  common.Session
	http     common.HttpClient
	cards    cards.CardsService
	users    users.UsersService
	registry *prometheus.Registry
	redis    *redis.Client
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{
		cfg:      cfg,
		session:  common.NewFileSession(cfg.TokenFile),
		registry: prometheus.NewRegistry(),
	}
	metrics := common.NewMetrics(a.registry)

	a.http = common.NewCardsHttpClient(cfg.UserAgent, a.session, &http.Client{}, cfg.HTTPTimeout)

	var store common.CacheRepository
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store = common.NewRedisCacheStore(a.redis, "bcards:")
		log.WithField("addr", cfg.RedisAddr).Debug("using redis card cache")
	} else {
		store = common.NewCacheStore()
	}

	cardsClient := cards.NewCardsClient(common.NewRestClient(cfg.CardsAPI, a.http, metrics))
	a.cards = cards.NewCardsService(cardsClient, store, a.session, cards.Options{
		TTL:     cfg.CacheTTL,
		Metrics: metrics,
	})

	usersClient := users.NewUsersClient(common.NewRestClient(cfg.UsersAPI, a.http, metrics))
	a.users = users.NewUsersService(usersClient, a.session, a.cards)

	return a, nil
}

// writeMetrics dumps every collected counter in the Prometheus text format.
func (a *app) writeMetrics(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) close() {
	a.http.CloseIdleConnections()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.WithError(err).Warn("closing redis client")
		}
	}
}
