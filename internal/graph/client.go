// Package graph posts object-creation requests to the ads platform API.
package graph

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
	"time"

	"github.com/rs/zerolog/log"

	"campaign-launcher/internal/observability"
	"campaign-launcher/internal/payload"
)

var ErrMissingID = errors.New("response has no object id")

// APIError is any non-2xx answer from the platform.
type APIError struct {
	Object     string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("create %s: status %d: %s", e.Object, e.StatusCode, e.Body)
}

type Config struct {
	BaseURL     string
	APIVersion  string
	AccessToken string
	Timeout     time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: httpClient}
}

func (c *Client) CreateCampaign(ctx context.Context, req payload.CampaignRequest) (string, error) {
	form, err := req.Form()
	if err != nil {
		return "", err
	}
	return c.post(ctx, "campaign", req.AccountID, "campaigns", form)
}

func (c *Client) CreateAdSet(ctx context.Context, req payload.AdSetRequest) (string, error) {
	form, err := req.Form()
	if err != nil {
		return "", err
	}
	return c.post(ctx, "adset", req.AccountID, "adsets", form)
}

func (c *Client) endpoint(accountID, edge string) string {
	return fmt.Sprintf("%s/%s/act_%s/%s", c.cfg.BaseURL, c.cfg.APIVersion, accountID, edge)
}

func (c *Client) post(ctx context.Context, object, accountID, edge string, form url.Values) (string, error) {
	form.Set("access_token", c.cfg.AccessToken)
	endpoint := c.endpoint(accountID, edge)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build %s request: %w", object, err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	log.Debug().Str("object", object).Str("url", endpoint).Msg("posting to platform")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		observability.APIRequests.WithLabelValues(object, "transport_error").Inc()
		return "", fmt.Errorf("send %s request: %w", object, err)
	}
	defer resp.Body.Close()
	observability.APIRequests.WithLabelValues(object, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s response (status %d): %w", object, resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{Object: object, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("decode %s response: %w", object, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create %s: %w", object, ErrMissingID)
	}
	return created.ID, nil
}
