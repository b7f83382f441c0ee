package common_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/guarzo/bcards/common"
)

func TestRestClient_SendJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/cards" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected json content type, got %q", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(body)
	}))
	defer ts.Close()

	reg := prometheus.NewRegistry()
	metrics := common.NewMetrics(reg)
	rc := common.NewRestClient(ts.URL+"/cards/", common.NewCardsHttpClient("UA", nil, nil, 0), metrics)

	var out struct {
		Title string `json:"title"`
	}
	err := rc.SendJSON(context.Background(), http.MethodPost, "", map[string]string{"title": "hello"}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Title != "hello" {
		t.Errorf("expected echoed title, got %q", out.Title)
	}
	if got := testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodPost, "2xx")); got != 1 {
		t.Errorf("expected 1 recorded request, got %v", got)
	}
}

func TestRestClient_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/abc" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("card not found"))
	}))
	defer ts.Close()

	rc := common.NewRestClient(ts.URL+"/cards", common.NewCardsHttpClient("UA", nil, nil, 0), nil)
	err := rc.GetJSON(context.Background(), "abc", &struct{}{})

	var httpErr *common.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusNotFound || httpErr.Message() != "card not found" {
		t.Errorf("unexpected error: %+v", httpErr)
	}
}

func TestRestClient_ExpectedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	rc := common.NewRestClient(ts.URL, common.NewCardsHttpClient("UA", nil, nil, 0), nil)
	if _, err := rc.DoRequest(context.Background(), http.MethodDelete, "x", nil); err != nil {
		t.Errorf("202 should pass the default 2xx check: %v", err)
	}
	if _, err := rc.DoRequest(context.Background(), http.MethodDelete, "x", nil, http.StatusOK); !common.IsStatus(err, http.StatusAccepted) {
		t.Errorf("expected 202 to be rejected when 200 is required, got %v", err)
	}
}

func TestRestClient_TransportError(t *testing.T) {
	rc := common.NewRestClient("http://127.0.0.1:1", common.NewCardsHttpClient("UA", nil, nil, 0), nil)
	err := rc.GetJSON(context.Background(), "", nil)
	if err == nil || !strings.Contains(err.Error(), "failed to execute request") {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestRestClient_InvalidBaseURL(t *testing.T) {
	rc := common.NewRestClient("not a url", common.NewCardsHttpClient("UA", nil, nil, 0), nil)
	if err := rc.GetJSON(context.Background(), "", nil); err == nil {
		t.Error("expected error for base URL without scheme")
	}
}
