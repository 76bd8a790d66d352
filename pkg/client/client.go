// Package client provides the data.com search API client: it owns the paging
// settings, performs page requests and caches page responses.
package client

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
	"sync"
	"time"

	"github.com/Sternrassler/datacom-client/pkg/cache"
	"github.com/Sternrassler/datacom-client/pkg/logging"
	"github.com/Sternrassler/datacom-client/pkg/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for data.com client operations.
var (
	datacomRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datacom_requests_total",
		Help: "Total data.com requests by endpoint and status",
	}, []string{"endpoint", "status"})

	datacomRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "datacom_request_duration_seconds",
		Help:    "data.com request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	datacomErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datacom_errors_total",
		Help: "Total data.com errors by class",
	}, []string{"class"})
)

// Search endpoints.
const (
	EndpointSearchContact = "/searchContact.json"
	EndpointSearchCompany = "/searchCompany.json"
)

// recordFields maps each search endpoint to the payload field holding its records.
var recordFields = map[string]string{
	EndpointSearchContact: "contacts",
	EndpointSearchCompany: "companies",
}

// Page size bounds. A page size of 0 asks for the hit count only.
const (
	MinPageSize = 0
	MaxPageSize = 100
)

// Query parameter names understood by the API.
const (
	paramOffset   = "offset"
	paramPageSize = "pageSize"
)

// maxErrorBody caps how much of an error response ends up in an APIError.
const maxErrorBody = 4 << 10

// Client is the data.com search client. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger

	mu       sync.RWMutex
	pageSize int
}

// Config holds the client configuration.
type Config struct {
	// Token is the API token sent with every request (REQUIRED).
	Token string

	// BaseURL is the API root, without trailing slash.
	BaseURL string

	// PageSize is the initial records-per-page setting (0-100).
	PageSize int

	// MaxOffset is the largest offset the API serves.
	MaxOffset int

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// Redis enables the page response cache when non-nil.
	Redis *redis.Client

	// CacheTTL is how long page responses stay cached.
	CacheTTL time.Duration
}

// DefaultConfig returns a default configuration for token.
func DefaultConfig(token string) Config {
	return Config{
		Token:     token,
		BaseURL:   "https://www.jigsaw.com/rest",
		PageSize:  50,
		MaxOffset: 100_000,
		Timeout:   30 * time.Second,
		CacheTTL:  cache.DefaultTTL,
	}
}

// New creates a new data.com client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrTokenMissing
	}

	if err := validatePageSize(cfg.PageSize); err != nil {
		return nil, err
	}

	if cfg.MaxOffset < 0 {
		return nil, fmt.Errorf("max_offset must be >= 0 (got %d)", cfg.MaxOffset)
	}

	if _, err := url.Parse(cfg.BaseURL); err != nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config:   cfg,
		logger:   logging.NewLogger("datacom-client"),
		pageSize: cfg.PageSize,
	}

	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis)
	}

	return c, nil
}

func validatePageSize(n int) error {
	if n < MinPageSize || n > MaxPageSize {
		return &ParamError{Param: "page_size", Value: n, Min: MinPageSize, Max: MaxPageSize}
	}
	return nil
}

// PageSize returns the current records-per-page setting.
func (c *Client) PageSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pageSize
}

// SetPageSize changes the records-per-page setting for searches created
// afterwards. Existing collections keep the size they were created with.
func (c *Client) SetPageSize(n int) error {
	if err := validatePageSize(n); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageSize = n
	return nil
}

// MaxOffset returns the largest offset the API serves.
func (c *Client) MaxOffset() int {
	return c.config.MaxOffset
}

// SearchContact starts a lazy contact search for options.
func (c *Client) SearchContact(options url.Values) (*search.Collection[json.RawMessage], error) {
	return c.Search(EndpointSearchContact, options)
}

// SearchCompany starts a lazy company search for options.
func (c *Client) SearchCompany(options url.Values) (*search.Collection[json.RawMessage], error) {
	return c.Search(EndpointSearchCompany, options)
}

// Search starts a lazy search against endpoint.
func (c *Client) Search(endpoint string, options url.Values) (*search.Collection[json.RawMessage], error) {
	if _, ok := recordFields[endpoint]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}

	fetcher := search.FetcherFunc[json.RawMessage](func(ctx context.Context, params search.Params) (*search.Response[json.RawMessage], error) {
		return c.Fetch(ctx, endpoint, params)
	})

	return search.New[json.RawMessage](fetcher, c, options)
}

// Fetch performs one page request against endpoint, serving it from the
// cache when possible.
func (c *Client) Fetch(ctx context.Context, endpoint string, params search.Params) (*search.Response[json.RawMessage], error) {
	field, ok := recordFields[endpoint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}

	query := cloneQuery(params.Options)
	query.Set(paramOffset, strconv.Itoa(params.Offset))
	query.Set(paramPageSize, strconv.Itoa(params.PageSize))

	cacheKey := cache.Key{Endpoint: endpoint, Query: query}

	if c.cache != nil {
		entry, err := c.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			c.logger.Debug().
				Str("endpoint", endpoint).
				Int("offset", params.Offset).
				Msg("Page served from cache")
			return &search.Response[json.RawMessage]{
				TotalHits: entry.TotalHits,
				Records:   entry.Records,
			}, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	resp, err := c.get(ctx, endpoint, query, field)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, cache.NewEntry(resp.TotalHits, resp.Records, c.config.CacheTTL)); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to cache page")
		}
	}

	return resp, nil
}

// get executes the HTTP request and decodes the payload.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, field string) (*search.Response[json.RawMessage], error) {
	startTime := time.Now()
	defer func() {
		datacomRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	query = cloneQuery(query)
	query.Set(cache.TokenParam, c.config.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("offset", query.Get(paramOffset)).
		Str("page_size", query.Get(paramPageSize)).
		Msg("Executing search request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		datacomErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		datacomRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, &APIError{
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	datacomRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if class := classifyStatus(resp.StatusCode); class != "" {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		datacomErrorsTotal.WithLabelValues(string(class)).Inc()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Search request error")

		message := strings.TrimSpace(string(body))
		if message == "" {
			message = resp.Status
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    message,
		}
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		datacomErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "decode search payload",
			Err:        err,
		}
	}

	out := &search.Response[json.RawMessage]{}
	if raw, ok := payload["totalHits"]; ok {
		if err := json.Unmarshal(raw, &out.TotalHits); err != nil {
			datacomErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassDecode,
				Message:    "decode totalHits",
				Err:        err,
			}
		}
	}
	if raw, ok := payload[field]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &out.Records); err != nil {
			datacomErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassDecode,
				Message:    "decode " + field,
				Err:        err,
			}
		}
	}

	return out, nil
}

func cloneQuery(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for key, values := range v {
		out[key] = append([]string(nil), values...)
	}
	return out
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
