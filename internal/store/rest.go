package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nocap-ai/nocap/internal/model"
)

// RESTStore talks to a PostgREST-compatible tabular store (e.g. Supabase).
// Rows are exchanged as JSON arrays; single-row lookups filter with
// ?id=eq.<id> and writes ask for the stored representation back.
type RESTStore struct {
	baseURL    string
	table      string
	apiKey     string
	httpClient *http.Client
}

// NewRESTStore creates a REST store from configuration
func NewRESTStore(cfg *model.StoreConfig) (*RESTStore, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("store base_url is required for the rest backend")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("store api_key is required for the rest backend")
	}

	table := cfg.Table
	if table == "" {
		table = "claims"
	}

	return &RESTStore{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		table:   table,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// List returns all claims ordered newest-first by the backend
func (s *RESTStore) List(ctx context.Context) ([]model.Claim, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?order=created_at.desc", s.baseURL, s.table)

	var claims []model.Claim
	if err := s.do(ctx, http.MethodGet, endpoint, nil, &claims); err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return claims, nil
}

// Get returns the claim with the given id, or ErrNotFound
func (s *RESTStore) Get(ctx context.Context, id string) (*model.Claim, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?id=eq.%s", s.baseURL, s.table, url.QueryEscape(id))

	var claims []model.Claim
	if err := s.do(ctx, http.MethodGet, endpoint, nil, &claims); err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	if len(claims) == 0 {
		return nil, ErrNotFound
	}
	return &claims[0], nil
}

// Insert persists a new claim and returns the stored row
func (s *RESTStore) Insert(ctx context.Context, claim model.Claim) (*model.Claim, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, s.table)

	var rows []model.Claim
	if err := s.do(ctx, http.MethodPost, endpoint, claim, &rows); err != nil {
		return nil, fmt.Errorf("insert claim: %w", err)
	}
	if len(rows) == 0 {
		// Backend accepted the row but returned no representation
		return &claim, nil
	}
	return &rows[0], nil
}

// Update applies a partial update to the claim with the given id
func (s *RESTStore) Update(ctx context.Context, id string, update model.ClaimUpdate) (*model.Claim, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?id=eq.%s", s.baseURL, s.table, url.QueryEscape(id))

	var rows []model.Claim
	if err := s.do(ctx, http.MethodPatch, endpoint, update, &rows); err != nil {
		return nil, fmt.Errorf("update claim: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// do executes a request against the REST endpoint and decodes the JSON
// array response into out
func (s *RESTStore) do(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
