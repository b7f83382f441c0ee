package common_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/guarzo/bcards/common"
)

func TestNewCardsHttpClient(t *testing.T) {
	client := common.NewCardsHttpClient("MyUserAgent", nil, nil, 0)
	if client == nil {
		t.Fatal("expected non-nil HttpClient")
	}
}

func TestHttpClient_Do_Headers(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "TestUserAgent" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "wrong user-agent")
			return
		}
		fmt.Fprint(w, r.Header.Get(common.AuthHeader))
	}))
	defer ts.Close()

	tests := []struct {
		name    string
		session common.Session
		want    string
	}{
		{name: "with token", session: common.NewMemorySession("abc.def.ghi"), want: "abc.def.ghi"},
		{name: "without token", session: common.NewMemorySession(""), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := common.NewCardsHttpClient("TestUserAgent", tt.session, &http.Client{}, 0)

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			if err != nil {
				t.Fatal(err)
			}
			resp, err := hc.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
			}
			if string(body) != tt.want {
				t.Errorf("expected token header %q, got %q", tt.want, string(body))
			}
			if req.Header.Get(common.AuthHeader) != "" {
				t.Error("original request must not be mutated")
			}
		})
	}
}

func TestHttpClient_TokenFollowsSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.Header.Get(common.AuthHeader))
	}))
	defer ts.Close()

	session := common.NewMemorySession("")
	hc := common.NewCardsHttpClient("UA", session, &http.Client{}, 0)

	get := func() string {
		req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
		resp, err := hc.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return string(body)
	}

	if got := get(); got != "" {
		t.Errorf("expected no token before login, got %q", got)
	}
	_ = session.SetToken("t1")
	if got := get(); got != "t1" {
		t.Errorf("expected t1 after login, got %q", got)
	}
	_ = session.Clear()
	if got := get(); got != "" {
		t.Errorf("expected no token after logout, got %q", got)
	}
}

func TestHTTPError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *common.HTTPError
		want string
	}{
		{"json message", &common.HTTPError{StatusCode: 400, Body: []byte(`{"message":"bad card"}`)}, "bad card"},
		{"json error", &common.HTTPError{StatusCode: 400, Body: []byte(`{"error":"nope"}`)}, "nope"},
		{"plain text", &common.HTTPError{StatusCode: 401, Body: []byte(" Authentication Error \n")}, "Authentication Error"},
		{"empty body", &common.HTTPError{StatusCode: 404}, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Message(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestIsStatus(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &common.HTTPError{StatusCode: http.StatusForbidden})
	if !common.IsStatus(err, http.StatusForbidden) {
		t.Error("expected wrapped 403 to match")
	}
	if common.IsStatus(err, http.StatusNotFound) {
		t.Error("did not expect 404 to match")
	}
	if common.IsStatus(fmt.Errorf("plain"), http.StatusForbidden) {
		t.Error("did not expect plain error to match")
	}
}
