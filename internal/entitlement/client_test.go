package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/smallbiznis/tally/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, pageSize int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.EntitlementConfig{BaseURL: srv.URL, Timeout: 5 * time.Second, PageSize: pageSize}, nil)
}

func TestGetSubscriptionsByOrgIDPaginates(t *testing.T) {
	var calls []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Query().Get("index"))
		assert.Equal(t, "org123", r.URL.Query().Get("orgId"))
		index, _ := strconv.Atoi(r.URL.Query().Get("index"))
		items := []Subscription{}
		if index == 0 {
			items = []Subscription{{ID: 1}, {ID: 2}}
		} else if index == 2 {
			items = []Subscription{{ID: 3}}
		}
		_ = json.NewEncoder(w).Encode(subscriptionPage{Items: items})
	}, 2)

	subs, err := client.GetSubscriptionsByOrgID(context.Background(), "org123")
	require.NoError(t, err)
	assert.Len(t, subs, 3)
	assert.Equal(t, []string{"0", "2"}, calls)
}

func TestGetSubscriptionBySubscriptionNumber(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("subscriptionNumber") == "subnum" {
			_ = json.NewEncoder(w).Encode(subscriptionPage{Items: []Subscription{{ID: 456, SubscriptionNumber: "subnum"}}})
			return
		}
		_ = json.NewEncoder(w).Encode(subscriptionPage{})
	}, 10)

	sub, err := client.GetSubscriptionBySubscriptionNumber(context.Background(), "subnum")
	require.NoError(t, err)
	assert.Equal(t, int64(456), sub.ID)

	_, err = client.GetSubscriptionBySubscriptionNumber(context.Background(), "other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetOfferingStatusHandling(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/offerings/MCT3718":
			_ = json.NewEncoder(w).Encode(Offering{SKU: "MCT3718", EngProductIDs: []int{69}})
		case "/v1/offerings/BROKEN":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}, 10)

	offering, err := client.GetOffering(context.Background(), "MCT3718")
	require.NoError(t, err)
	assert.Equal(t, []int{69}, offering.EngProductIDs)

	_, err = client.GetOffering(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.GetOffering(context.Background(), "BROKEN")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Body)
}

func TestClientCredentialsTokenIsSent(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"abc","token_type":"bearer","expires_in":3600}`))
	}))
	t.Cleanup(tokenSrv.Close)

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(Subscription{ID: 7})
	}))
	t.Cleanup(apiSrv.Close)

	client := NewClient(config.EntitlementConfig{
		BaseURL:      apiSrv.URL,
		TokenURL:     tokenSrv.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		Timeout:      5 * time.Second,
	}, nil)

	sub, err := client.GetSubscriptionByID(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), sub.ID)
}
