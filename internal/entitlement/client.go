// Package entitlement is the HTTP client for the upstream subscription and
// offering catalog service.
package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/smallbiznis/tally/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

var Module = fx.Module("entitlement.client",
	fx.Provide(New),
)

var ErrNotFound = errors.New("entitlement_not_found")

// APIError is returned for unexpected upstream status codes.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("entitlement api returned %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL  string
	pageSize int
	http     *http.Client
	log      *zap.Logger
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

func New(p Params) *Client {
	return NewClient(p.Config.Entitlement, p.Log)
}

// NewClient uses OAuth2 client credentials when a token URL is configured.
func NewClient(cfg config.EntitlementConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		httpClient = cc.Client(context.Background())
		httpClient.Timeout = cfg.Timeout
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 500
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		pageSize: pageSize,
		http:     httpClient,
		log:      log.Named("entitlement.client"),
	}
}

func (c *Client) GetSubscriptionByID(ctx context.Context, id string) (*Subscription, error) {
	var sub Subscription
	if err := c.get(ctx, "/v1/subscriptions/"+url.PathEscape(id), nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetSubscriptionBySubscriptionNumber returns ErrNotFound when nothing matches.
func (c *Client) GetSubscriptionBySubscriptionNumber(ctx context.Context, number string) (*Subscription, error) {
	var page subscriptionPage
	q := url.Values{"subscriptionNumber": {number}}
	if err := c.get(ctx, "/v1/subscriptions", q, &page); err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, ErrNotFound
	}
	return &page.Items[0], nil
}

// GetSubscriptionsByOrgID follows pages until a short page is returned.
func (c *Client) GetSubscriptionsByOrgID(ctx context.Context, orgID string) ([]Subscription, error) {
	var out []Subscription
	for index := 0; ; index += c.pageSize {
		var page subscriptionPage
		q := url.Values{
			"orgId":    {orgID},
			"index":    {strconv.Itoa(index)},
			"pageSize": {strconv.Itoa(c.pageSize)},
		}
		if err := c.get(ctx, "/v1/subscriptions", q, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if len(page.Items) < c.pageSize {
			break
		}
	}
	c.log.Debug("fetched subscriptions", zap.String("org_id", orgID), zap.Int("count", len(out)))
	return out, nil
}

func (c *Client) GetOffering(ctx context.Context, sku string) (*Offering, error) {
	var offering Offering
	if err := c.get(ctx, "/v1/offerings/"+url.PathEscape(sku), nil, &offering); err != nil {
		return nil, err
	}
	return &offering, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("entitlement request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode entitlement response: %w", err)
	}
	return nil
}
