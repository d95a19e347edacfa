package pluggy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cofre/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.PluggyConfig{
		ClientID:         "client-id",
		ClientSecret:     "client-secret",
		BaseURL:          srv.URL,
		AuthSafetyMargin: time.Minute,
	}
	return NewClient(cfg), srv
}

func authHandler(authCalls *atomic.Int64, expiresIn int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"apiKey":    fmt.Sprintf("key-%d", authCalls.Load()),
			"expiresIn": expiresIn,
		})
	}
}

func TestClient_CredentialReuse(t *testing.T) {
	var authCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", authHandler(&authCalls, 7200))
	mux.HandleFunc("GET /accounts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("X-API-KEY"))
		json.NewEncoder(w).Encode(accountsResponse{})
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	_, err := client.GetAccounts(ctx, "item-1")
	require.NoError(t, err)
	_, err = client.GetAccounts(ctx, "item-1")
	require.NoError(t, err)

	assert.Equal(t, int64(1), authCalls.Load(), "two fetches inside the safety margin must share one issuance")
}

func TestClient_CredentialReissuedAfterExpiry(t *testing.T) {
	var authCalls atomic.Int64

	mux := http.NewServeMux()
	// expiresIn of 30s is inside the 1m safety margin, so the key is stale
	// as soon as it is issued.
	mux.HandleFunc("POST /auth", authHandler(&authCalls, 30))
	mux.HandleFunc("GET /accounts", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(accountsResponse{})
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	_, err := client.GetAccounts(ctx, "item-1")
	require.NoError(t, err)
	_, err = client.GetAccounts(ctx, "item-1")
	require.NoError(t, err)

	assert.Equal(t, int64(2), authCalls.Load(), "a stale credential must trigger exactly one re-issuance per fetch")
}

func TestClient_AuthFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid credentials"}`, http.StatusUnauthorized)
	})

	client, _ := newTestClient(t, mux)

	_, err := client.GetAccounts(context.Background(), "item-1")
	require.Error(t, err)
	assert.True(t, IsAuthError(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "invalid credentials")
}

func TestClient_FetchErrorCarriesStatusAndBody(t *testing.T) {
	var authCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", authHandler(&authCalls, 7200))
	mux.HandleFunc("GET /items/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"item not found"}`, http.StatusNotFound)
	})

	client, _ := newTestClient(t, mux)

	_, err := client.GetItem(context.Background(), "missing-item")
	require.Error(t, err)
	assert.False(t, IsAuthError(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "item not found")
}

func TestClient_TransactionsDrainAllPages(t *testing.T) {
	var authCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", authHandler(&authCalls, 7200))
	mux.HandleFunc("GET /transactions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "item-1", r.URL.Query().Get("itemId"))
		assert.Equal(t, "acc-1", r.URL.Query().Get("accountId"))

		page := r.URL.Query().Get("page")
		switch page {
		case "1":
			json.NewEncoder(w).Encode(transactionsPage{
				Total: 3, TotalPages: 2, Page: 1,
				Results: []Transaction{{ID: "tx-1"}, {ID: "tx-2"}},
			})
		case "2":
			json.NewEncoder(w).Encode(transactionsPage{
				Total: 3, TotalPages: 2, Page: 2,
				Results: []Transaction{{ID: "tx-3"}},
			})
		default:
			t.Errorf("unexpected page requested: %s", page)
		}
	})

	client, _ := newTestClient(t, mux)

	txs, err := client.GetTransactions(context.Background(), "item-1", "acc-1")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "tx-1", txs[0].ID)
	assert.Equal(t, "tx-3", txs[2].ID)
}

func TestClient_GetBalancesFilters(t *testing.T) {
	var authCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", authHandler(&authCalls, 7200))
	mux.HandleFunc("GET /balances", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "item-1", r.URL.Query().Get("itemId"))
		assert.Empty(t, r.URL.Query().Get("accountId"))
		json.NewEncoder(w).Encode(balancesResponse{Results: []Balance{{ID: "bal-1", AccountID: "acc-1"}}})
	})

	client, _ := newTestClient(t, mux)

	balances, err := client.GetBalances(context.Background(), "item-1", "")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "bal-1", balances[0].ID)
}
