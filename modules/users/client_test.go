package users_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/guarzo/bcards/common"
	"github.com/guarzo/bcards/common/model"
	"github.com/guarzo/bcards/modules/users"
)

func TestUsersClient_LoginTokenShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"raw", "abc.def.ghi", "abc.def.ghi"},
		{"json string", `"abc.def.ghi"`, "abc.def.ghi"},
		{"json object", `{"token":"abc.def.ghi"}`, "abc.def.ghi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/users/login" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				_, _ = io.WriteString(w, tt.body)
			}))
			defer ts.Close()

			client := users.NewUsersClient(common.NewRestClient(ts.URL+"/users", common.NewCardsHttpClient("UA", nil, nil, 0), nil))
			got, err := client.Login(context.Background(), model.Credentials{Email: "a@b.c", Password: "pw"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestUsersClient_LoginValidation(t *testing.T) {
	client := users.NewUsersClient(common.NewRestClient("http://127.0.0.1:1/users", common.NewCardsHttpClient("UA", nil, nil, 0), nil))
	if _, err := client.Login(context.Background(), model.Credentials{Email: "a@b.c"}); err == nil {
		t.Error("expected error for missing password")
	}
	if _, err := client.GetUser(context.Background(), ""); err == nil {
		t.Error("expected error for empty id")
	}
}
