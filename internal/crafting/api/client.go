// Package api is a small ArtifactsMMO REST gateway covering the endpoints
// the planner reads: items, characters, resources and maps.
package api

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

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/tidwall/gjson"

	"github.com/rsned/artifactsmmo-crafting-planner/internal/logger"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/metrics"
	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// DefaultBaseURL is the public ArtifactsMMO API.
const DefaultBaseURL = "https://api.artifactsmmo.com"

// pageSize is the largest page the API serves.
const pageSize = 100

// ErrNotFound is returned when the API reports that a resource does not exist.
var ErrNotFound = errors.New("not found")

// Error is a non-2xx API response.
type Error struct {
	Status  int
	Code    int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("artifacts api: status %d", e.Status)
	}
	return fmt.Sprintf("artifacts api: status %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	CacheSize  int
	CacheTTL   time.Duration
	HTTPClient *http.Client
}

// Client talks to the ArtifactsMMO API. Item lookups are cached.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	items      *expirable.LRU[string, *crafting.Item]
}

// New creates a Client from opts, filling in defaults.
func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		baseURL:    baseURL,
		token:      opts.Token,
		httpClient: httpClient,
	}
	if opts.CacheSize > 0 {
		c.items = expirable.NewLRU[string, *crafting.Item](opts.CacheSize, nil, opts.CacheTTL)
	}

	return c
}

// get performs a GET request and returns the raw body of a 2xx response.
// endpoint is the route template used as a metrics label.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.APIRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp.StatusCode, body)
	}

	return body, nil
}

// parseError builds an *Error from an API error body of the form
// {"error": {"code": 404, "message": "..."}}.
func parseError(status int, body []byte) *Error {
	e := &Error{Status: status}
	if gjson.ValidBytes(body) {
		e.Code = int(gjson.GetBytes(body, "error.code").Int())
		e.Message = gjson.GetBytes(body, "error.message").String()
	}
	return e
}

// getData GETs path and decodes the "data" field of the envelope into out.
func (c *Client) getData(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	body, err := c.get(ctx, endpoint, path, query)
	if err != nil {
		return err
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return ErrNotFound
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding %s data: %w", path, err)
	}

	return nil
}

// getPages fetches every page of a paginated list endpoint, calling
// decode with each page's "data" array.
func (c *Client) getPages(ctx context.Context, endpoint, path string, decode func(json.RawMessage) error) error {
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("size", strconv.Itoa(pageSize))

		body, err := c.get(ctx, endpoint, path, query)
		if err != nil {
			return err
		}

		var env struct {
			Data  json.RawMessage `json:"data"`
			Pages int             `json:"pages"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("decoding %s page %d: %w", path, page, err)
		}
		if err := decode(env.Data); err != nil {
			return fmt.Errorf("decoding %s page %d data: %w", path, page, err)
		}

		logger.FromContext(ctx).Debug("fetched page", "path", path, "page", page, "pages", env.Pages)
		if page >= env.Pages {
			return nil
		}
	}
}
