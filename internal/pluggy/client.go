package pluggy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"cofre/internal/config"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultExpiresIn     = 7200 // seconds; aggregator default when expiresIn is omitted
	transactionsPageSize = 500
)

// apiKeyCache is the single mutable slot holding the cached credential.
// All reads and refreshes happen under its mutex, so concurrent syncs
// sharing one client never race on the key and at most one refresh is in
// flight at a time.
type apiKeyCache struct {
	mu        sync.Mutex
	key       string
	expiresAt time.Time
}

// Client handles communication with the Pluggy API. It is safe for
// concurrent use by multiple syncs.
type Client struct {
	httpClient *http.Client
	cfg        *config.PluggyConfig
	keys       apiKeyCache

	// now is swapped out in tests.
	now func() time.Time
}

// NewClient creates a new Pluggy API client.
func NewClient(cfg *config.PluggyConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		cfg: cfg,
		now: time.Now,
	}
}

// apiKey returns a valid credential, reusing the cached one while it is
// still inside the safety margin of its expiry and issuing a fresh one
// otherwise. The lock is held across the refresh so concurrent callers
// trigger a single issuance.
func (c *Client) apiKey(ctx context.Context) (string, error) {
	c.keys.mu.Lock()
	defer c.keys.mu.Unlock()

	if c.keys.key != "" && c.now().Before(c.keys.expiresAt.Add(-c.cfg.AuthSafetyMargin)) {
		return c.keys.key, nil
	}

	payload, err := json.Marshal(map[string]string{
		"clientId":     c.cfg.ClientID,
		"clientSecret": c.cfg.ClientSecret,
	})
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("failed to marshal credentials: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/auth", bytes.NewReader(payload))
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &AuthError{Err: &APIError{StatusCode: resp.StatusCode, Body: string(body)}}
	}

	var keyResp apiKeyResponse
	if err := json.Unmarshal(body, &keyResp); err != nil {
		return "", &AuthError{Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	expiresIn := int64(defaultExpiresIn)
	if keyResp.ExpiresIn != nil {
		expiresIn = *keyResp.ExpiresIn
	}

	c.keys.key = keyResp.APIKey
	c.keys.expiresAt = c.now().Add(time.Duration(expiresIn) * time.Second)

	return c.keys.key, nil
}

// get performs an authenticated GET and decodes the JSON response into out.
// A non-success status yields an *APIError carrying the status and body.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	key, err := c.apiKey(ctx)
	if err != nil {
		return err
	}

	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// GetItem fetches the current detail of one item.
func (c *Client) GetItem(ctx context.Context, itemID string) (*Item, error) {
	var item Item
	if err := c.get(ctx, "/items/"+url.PathEscape(itemID), nil, &item); err != nil {
		return nil, fmt.Errorf("failed to fetch item %s: %w", itemID, err)
	}
	return &item, nil
}

// GetAccounts fetches all accounts belonging to an item.
func (c *Client) GetAccounts(ctx context.Context, itemID string) ([]Account, error) {
	query := url.Values{}
	query.Set("itemId", itemID)

	var resp accountsResponse
	if err := c.get(ctx, "/accounts", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch accounts for item %s: %w", itemID, err)
	}
	return resp.Results, nil
}

// GetTransactions fetches all transactions for an item, optionally narrowed
// to one account. The endpoint is paginated; every page is drained before
// returning a single flattened slice.
func (c *Client) GetTransactions(ctx context.Context, itemID, accountID string) ([]Transaction, error) {
	var all []Transaction

	for page := 1; ; page++ {
		query := url.Values{}
		if itemID != "" {
			query.Set("itemId", itemID)
		}
		if accountID != "" {
			query.Set("accountId", accountID)
		}
		query.Set("page", strconv.Itoa(page))
		query.Set("pageSize", strconv.Itoa(transactionsPageSize))

		var resp transactionsPage
		if err := c.get(ctx, "/transactions", query, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch transactions page %d: %w", page, err)
		}

		all = append(all, resp.Results...)

		if page >= resp.TotalPages || len(resp.Results) == 0 {
			break
		}
	}

	return all, nil
}

// GetBalances fetches balance records, filtered by item and/or account.
func (c *Client) GetBalances(ctx context.Context, itemID, accountID string) ([]Balance, error) {
	query := url.Values{}
	if itemID != "" {
		query.Set("itemId", itemID)
	}
	if accountID != "" {
		query.Set("accountId", accountID)
	}

	var resp balancesResponse
	if err := c.get(ctx, "/balances", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch balances: %w", err)
	}
	return resp.Results, nil
}
