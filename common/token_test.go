package common_test

import (
	"errors"
	"testing"

	"github.com/go-chi/jwtauth"

	"github.com/guarzo/bcards/common"
)

func signToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	_, tok, err := jwtauth.New("HS256", []byte("test-secret"), nil).Encode(claims)
	if err != nil {
		t.Fatalf("encode token: %v", err)
	}
	return tok
}

func TestDecodeToken(t *testing.T) {
	raw := signToken(t, map[string]interface{}{
		"_id":        "u1",
		"isAdmin":    true,
		"isBusiness": false,
		"email":      "u1@example.com",
	})

	ident, err := common.DecodeToken(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ident.ID != "u1" || !ident.IsAdmin || ident.IsBusiness || ident.Email != "u1@example.com" {
		t.Errorf("unexpected identity: %+v", ident)
	}
}

func TestDecodeToken_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", common.ErrUnauthenticated},
		{"garbage", "not-a-token", common.ErrUnidentifiable},
		{"no id claim", signToken(t, map[string]interface{}{"email": "x@example.com"}), common.ErrUnidentifiable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := common.DecodeToken(tt.raw); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestIdentityFromSession(t *testing.T) {
	if _, err := common.IdentityFromSession(common.NewMemorySession("")); !errors.Is(err, common.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}

	s := common.NewMemorySession(signToken(t, map[string]interface{}{"_id": "u9"}))
	ident, err := common.IdentityFromSession(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ident.ID != "u9" {
		t.Errorf("expected u9, got %q", ident.ID)
	}
}
