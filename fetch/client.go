// Package fetch retrieves and models the remote pages the extraction
// pipeline reads: a retrying HTTP client, a parsed page, and the
// section scanner that locates tables under their headings.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// ErrUnavailable marks a page that answered with a non-OK status.
var ErrUnavailable = errors.New("page unavailable")

// DefaultUserAgent identifies the crawler to the wiki servers.
const DefaultUserAgent = "Mozilla/5.0 (compatible; pollgrid/1.0)"

// Config controls the HTTP behavior of a Client.
type Config struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	Retries        int
}

// Client fetches pages with retries and backoff.
type Client struct {
	http *http.Client
	cfg  Config
	log  *zap.Logger
}

// NewClient builds a client from cfg, filling unset fields with
// defaults. A nil logger disables logging.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = "en"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.Retries
	rc.RetryWaitMin = 1 * time.Second
	rc.RetryWaitMax = 30 * time.Second
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = nil // its own logging is noise next to ours

	return &Client{http: rc.StandardClient(), cfg: cfg, log: log}
}

// Get retrieves one page and parses it.
func (c *Client) Get(ctx context.Context, rawurl string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", rawurl, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept-Language", c.cfg.AcceptLanguage)

	c.log.Debug("fetching page", zap.String("url", rawurl))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawurl, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrUnavailable, rawurl, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", rawurl, err)
	}
	return &Page{URL: rawurl, doc: doc}, nil
}
