package common

import (
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/jwt"

	"github.com/guarzo/bcards/common/model"
)

// DecodeToken reads the identity embedded in a session token. The signature
// is not checked; an invalid or expired token is only discovered when the
// server rejects a call made with it.
func DecodeToken(raw string) (*model.Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrUnauthenticated
	}

	tok, err := jwt.ParseString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnidentifiable, err)
	}

	id := claimString(tok, "_id")
	if id == "" {
		return nil, ErrUnidentifiable
	}

	return &model.Identity{
		ID:         id,
		Email:      claimString(tok, "email"),
		Name:       claimString(tok, "name"),
		IsAdmin:    claimBool(tok, "isAdmin"),
		IsBusiness: claimBool(tok, "isBusiness"),
		IssuedAt:   tok.IssuedAt(),
		ExpiresAt:  tok.Expiration(),
	}, nil
}

// IdentityFromSession decodes the token currently held by session.
func IdentityFromSession(session Session) (*model.Identity, error) {
	if session == nil {
		return nil, ErrUnauthenticated
	}
	tok, err := session.Token()
	if err != nil {
		return nil, err
	}
	return DecodeToken(tok.AccessToken)
}

func claimString(tok jwt.Token, name string) string {
	v, ok := tok.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func claimBool(tok jwt.Token, name string) bool {
	v, ok := tok.Get(name)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
