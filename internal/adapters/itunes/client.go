// Package itunes provides the catalog adapter for the iTunes Search API.
// It resolves song suggestions to playable tracks with preview URLs, using a
// two-tier search with a rate-limit-aware fetch helper.
package itunes

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ewilliams-labs/moodmuse/internal/core/ports"
)

const (
	defaultBaseURL    = "https://itunes.apple.com"
	defaultCountry    = "US"
	defaultMaxRetries = 2
	defaultBackoff    = 500 * time.Millisecond
)

// Client is an HTTP client for the iTunes Search API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	country    string
	maxRetries int
	baseDelay  time.Duration
	logger     *log.Logger
}

// compile-time interface assertion
var _ ports.CatalogResolver = (*Client)(nil)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	HTTPClient *http.Client
	BaseURL    string
	Country    string
	MaxRetries int
	BaseDelay  time.Duration
}

// NewClient constructs a new catalog client.
func NewClient(opts Options, logger *log.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	country := opts.Country
	if country == "" {
		country = defaultCountry
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBackoff
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		country:    country,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// searchURL builds a song search URL for the given term. The country pin
// keeps results deterministic across lookups in one session.
func (c *Client) searchURL(term string, limit int) string {
	q := url.Values{}
	q.Set("term", term)
	q.Set("media", "music")
	q.Set("entity", "song")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("country", c.country)
	return c.baseURL + "/search?" + q.Encode()
}
