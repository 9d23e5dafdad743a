package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/freekieb7/go-newsgate/internal/config"
)

// APIError is an error answer from the provider.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("news api %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// APIClient talks to a newsapi.org compatible provider.
type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewAPIClient(cfg config.News, logger *slog.Logger) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

func (c *APIClient) Search(ctx context.Context, query string, page, limit int) (ResultSet, bool) {
	return c.absent(c.fetch(ctx, "/everything", url.Values{
		"q":        {query},
		"page":     {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(limit)},
	}))
}

func (c *APIClient) TopHeadlines(ctx context.Context, country Country, limit int) (ResultSet, bool) {
	return c.absent(c.fetch(ctx, "/top-headlines", url.Values{
		"country":  {string(country)},
		"pageSize": {strconv.Itoa(limit)},
		"page":     {"1"},
	}))
}

func (c *APIClient) ByCountry(ctx context.Context, country Country) (ResultSet, bool) {
	return c.absent(c.fetch(ctx, "/top-headlines", url.Values{
		"country": {string(country)},
	}))
}

func (c *APIClient) BySource(ctx context.Context, sourceID string) (ResultSet, bool) {
	return c.absent(c.fetch(ctx, "/top-headlines", url.Values{
		"sources": {NormalizeSourceID(sourceID)},
	}))
}

func (c *APIClient) absent(result ResultSet, err error) (ResultSet, bool) {
	if err != nil {
		c.logger.Error("Failed: Encountered news provider error", slog.String("error", err.Error()))
		return ResultSet{}, false
	}
	return result, true
}

func (c *APIClient) fetch(ctx context.Context, endpoint string, params url.Values) (ResultSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return ResultSet{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ResultSet{}, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return ResultSet{}, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	var payload struct {
		Status string `json:"status"`
		ResultSet
		APIError
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ResultSet{}, fmt.Errorf("decode %s response (status %d): %w", endpoint, resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || payload.Status != "ok" {
		apiErr := payload.APIError
		apiErr.StatusCode = resp.StatusCode
		return ResultSet{}, &apiErr
	}

	if payload.Articles == nil {
		payload.Articles = []Article{}
	}
	return payload.ResultSet, nil
}
