// Package nightscout provides a client for the Nightscout CGM API.
package nightscout

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a Nightscout API client. Authentication uses either the
// hashed API secret header or a bearer token, matching what the server
// is configured for.
type Client struct {
	baseURL    string
	apiSecret  string
	apiToken   string
	httpClient *http.Client
}

// NewClient creates a new Nightscout client. apiToken takes precedence
// over apiSecret when both are set.
func NewClient(baseURL, apiSecret, apiToken string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiSecret: apiSecret,
		apiToken:  apiToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// hashSecret generates the SHA1 hash Nightscout expects in the
// API-SECRET header.
func hashSecret(secret string) string {
	hasher := sha1.New()
	hasher.Write([]byte(secret))
	return hex.EncodeToString(hasher.Sum(nil))
}

// GetEntries retrieves CGM readings in [from, to], oldest bound first.
func (c *Client) GetEntries(ctx context.Context, from, to time.Time, count int) ([]Entry, error) {
	params := url.Values{}
	if !from.IsZero() {
		params.Set("find[date][$gte]", strconv.FormatInt(from.UnixMilli(), 10))
	}
	if !to.IsZero() {
		params.Set("find[date][$lte]", strconv.FormatInt(to.UnixMilli(), 10))
	}
	if count > 0 {
		params.Set("count", strconv.Itoa(count))
	}

	body, err := c.get(ctx, "/api/v1/entries/sgv.json", params)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decoding entries: %w", err)
	}
	return entries, nil
}

// GetTreatments retrieves pump and meal events in [from, to].
func (c *Client) GetTreatments(ctx context.Context, from, to time.Time, count int) ([]Treatment, error) {
	params := url.Values{}
	if !from.IsZero() {
		params.Set("find[created_at][$gte]", from.UTC().Format(time.RFC3339))
	}
	if !to.IsZero() {
		params.Set("find[created_at][$lte]", to.UTC().Format(time.RFC3339))
	}
	if count > 0 {
		params.Set("count", strconv.Itoa(count))
	}

	body, err := c.get(ctx, "/api/v1/treatments.json", params)
	if err != nil {
		return nil, err
	}

	var treatments []Treatment
	if err := json.Unmarshal(body, &treatments); err != nil {
		return nil, fmt.Errorf("decoding treatments: %w", err)
	}
	return treatments, nil
}

// TestConnection checks that the server is reachable and auth works.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.get(ctx, "/api/v1/status.json", nil)
	return err
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	} else if c.apiSecret != "" {
		req.Header.Set("API-SECRET", hashSecret(c.apiSecret))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
