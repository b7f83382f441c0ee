package common

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/guarzo/bcards/common/model"
)

// RestClient defines the lower-level JSON operations shared by the cards
// and users clients. Endpoints are resolved relative to the base URL.
type RestClient interface {
	GetJSON(ctx context.Context, endpoint string, out interface{}) error
	SendJSON(ctx context.Context, method, endpoint string, in, out interface{}, expectedStatus ...int) error
	DoRequest(ctx context.Context, method, endpoint string, body io.Reader, expectedStatus ...int) ([]byte, error)
}

type restClient struct {
	baseURL    string
	httpClient HttpClient
	metrics    *Metrics
}

// NewRestClient creates a RestClient rooted at baseURL. metrics may be nil.
func NewRestClient(baseURL string, httpClient HttpClient, metrics *Metrics) RestClient {
	return &restClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		metrics:    metrics,
	}
}

// GetJSON retrieves JSON from endpoint and unmarshals into out.
func (c *restClient) GetJSON(ctx context.Context, endpoint string, out interface{}) error {
	data, err := c.DoRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return decodeInto(data, out)
}

// SendJSON marshals in (when non-nil) as the request body and decodes the
// response into out (when non-nil).
func (c *restClient) SendJSON(ctx context.Context, method, endpoint string, in, out interface{}, expectedStatus ...int) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	data, err := c.DoRequest(ctx, method, endpoint, body, expectedStatus...)
	if err != nil {
		return err
	}
	return decodeInto(data, out)
}

// DoRequest is the core method that actually performs the HTTP request.
// Without expectedStatus any 2xx is accepted.
func (c *restClient) DoRequest(ctx context.Context, method, endpoint string, body io.Reader, expectedStatus ...int) ([]byte, error) {
	urlStr, err := c.buildURL(endpoint)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observeRequest(method, 0)
		log.WithFields(log.Fields{"method": method, "url": urlStr}).WithError(err).Error("request failed")
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	c.metrics.observeRequest(method, resp.StatusCode)

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("failed to read response body: %w", readErr)
	}

	if !statusMatches(resp.StatusCode, expectedStatus) {
		log.WithFields(log.Fields{
			"method": method,
			"url":    urlStr,
			"status": resp.StatusCode,
		}).Error("unexpected response status")
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       data,
		}
	}
	return data, nil
}

// buildURL appends endpoint to the base URL path. An empty endpoint is the
// collection root.
func (c *restClient) buildURL(endpoint string) (string, error) {
	raw := c.baseURL
	if endpoint = strings.TrimLeft(endpoint, "/"); endpoint != "" {
		raw += "/" + endpoint
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid endpoint URL: %q has no scheme or host", raw)
	}
	return u.String(), nil
}

func statusMatches(statusCode int, expected []int) bool {
	if len(expected) == 0 {
		return statusCode >= 200 && statusCode < 300
	}
	for _, s := range expected {
		if statusCode == s {
			return true
		}
	}
	return false
}

func decodeInto(data []byte, out interface{}) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := model.JSONUnmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
