package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/desertthunder/maestro/internal/shared"
)

const userAgent = "maestro/1.0"

// APIService sends JSON requests to a single API root.
//
// Credentials go in headers set with [APIService.SetHeader], never in the path,
// so transport errors cannot echo them.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	header     http.Header
}

// NewAPIService roots a client at baseURL, which defaults to the Gemini API.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &APIService{baseURL: baseURL, httpClient: client, header: http.Header{}}
}

// SetHeader adds a header sent with every request.
func (a *APIService) SetHeader(key, value string) {
	a.header.Set(key, value)
}

// APIResponse is a fully read response.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// IsJSON reports whether the body is well-formed JSON.
func (r *APIResponse) IsJSON() bool { return len(r.Body) > 0 && json.Valid(r.Body) }

// Decode unmarshals the body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: malformed response: %v", shared.ErrUpstream, err)
	}
	return nil
}

// Err turns a non-2xx response into an [shared.ErrUpstream] carrying the
// API's own message when the body has the {"error": {"message": ...}} shape.
func (r *APIResponse) Err() error {
	if r.OK() {
		return nil
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := fmt.Sprintf("API Error %d", r.StatusCode)
	if json.Unmarshal(r.Body, &body) == nil && body.Error.Message != "" {
		msg = body.Error.Message
	}
	return fmt.Errorf("%w: status %d: %s", shared.ErrUpstream, r.StatusCode, msg)
}

// Get fetches path.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.send(ctx, http.MethodGet, path, nil)
}

// Post sends an already encoded JSON body.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.send(ctx, http.MethodPost, path, data)
}

// PostJSON encodes payload and posts it.
func (a *APIService) PostJSON(ctx context.Context, path string, payload any) (*APIResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return a.Post(ctx, path, data)
}

func (a *APIService) send(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range a.header {
		req.Header[key] = values
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		// *url.Error prints the full URL; keep only the method, path and cause.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("request failed: %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: raw}, nil
}
