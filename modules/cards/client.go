package cards

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/guarzo/bcards/common"
	"github.com/guarzo/bcards/common/model"
)

// CardsClient is the lower-level interface to the cards endpoint. It does
// no caching; every call is one HTTP request.
type CardsClient interface {
	ListCards(ctx context.Context) ([]model.Card, error)
	ListMyCards(ctx context.Context) ([]model.Card, error)
	GetCard(ctx context.Context, id string) (*model.Card, error)
	CreateCard(ctx context.Context, card model.CardInput) (*model.Card, error)
	UpdateCard(ctx context.Context, id string, card model.CardInput) (*model.Card, error)
	DeleteCard(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, id string) (*model.Card, error)
}

var errMissingID = errors.New("card id is required")

type cardsClient struct {
	rest common.RestClient
}

// NewCardsClient constructs a CardsClient over a RestClient rooted at the
// cards endpoint.
func NewCardsClient(rest common.RestClient) CardsClient {
	return &cardsClient{rest: rest}
}

func (c *cardsClient) ListCards(ctx context.Context) ([]model.Card, error) {
	var out []model.Card
	if err := c.rest.GetJSON(ctx, "", &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *cardsClient) ListMyCards(ctx context.Context) ([]model.Card, error) {
	var out []model.Card
	if err := c.rest.GetJSON(ctx, "my-cards", &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *cardsClient) GetCard(ctx context.Context, id string) (*model.Card, error) {
	if id == "" {
		return nil, errMissingID
	}
	var card model.Card
	if err := c.rest.GetJSON(ctx, url.PathEscape(id), &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (c *cardsClient) CreateCard(ctx context.Context, in model.CardInput) (*model.Card, error) {
	var card model.Card
	if err := c.rest.SendJSON(ctx, http.MethodPost, "", in, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateCard sends only the writable fields; CardInput has no slot for the
// server-managed ones.
func (c *cardsClient) UpdateCard(ctx context.Context, id string, in model.CardInput) (*model.Card, error) {
	if id == "" {
		return nil, errMissingID
	}
	var card model.Card
	if err := c.rest.SendJSON(ctx, http.MethodPut, url.PathEscape(id), in, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (c *cardsClient) DeleteCard(ctx context.Context, id string) error {
	if id == "" {
		return errMissingID
	}
	_, err := c.rest.DoRequest(ctx, http.MethodDelete, url.PathEscape(id), nil)
	return err
}

// ToggleLike adds or removes the current user's like; the server derives the
// user from the session token.
func (c *cardsClient) ToggleLike(ctx context.Context, id string) (*model.Card, error) {
	if id == "" {
		return nil, errMissingID
	}
	var card model.Card
	if err := c.rest.SendJSON(ctx, http.MethodPatch, url.PathEscape(id), nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func nonNil(cards []model.Card) []model.Card {
	if cards == nil {
		return []model.Card{}
	}
	return cards
}
