package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"washbot/pkg/logx"
)

type ClientConfig struct {
	URL     string
	Timeout time.Duration
}

// Client fetches the upstream page and parses it into snapshots and the
// machine catalog. One page fetch backs each call; parsing itself is pure
// (see parse.go), so the same markup always yields the same result.
type Client struct {
	url  string
	http *http.Client
	log  logx.Logger
}

func NewClient(cfg ClientConfig, log logx.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		url:  cfg.URL,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

func (c *Client) fetch(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: http status %d", ErrUnavailable, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	c.log.Debug("page fetched", logx.String("url", c.url))
	return doc, nil
}

// FetchSnapshot returns the current status map and the page's last-update
// stamp. A missing last-update stamp degrades to a zero value: the stamp is
// display-only and must not block status tracking.
func (c *Client) FetchSnapshot(ctx context.Context) (Snapshot, LastUpdate, error) {
	doc, err := c.fetch(ctx)
	if err != nil {
		return nil, LastUpdate{}, err
	}

	snap, skipped, err := ParseSnapshot(doc)
	if err != nil {
		c.log.Error("machine status markup not recognized; parser needs attention", logx.Err(err))
		return nil, LastUpdate{}, err
	}
	if skipped > 0 {
		c.log.Warn("malformed machine entries skipped", logx.Int("count", skipped))
	}

	at, err := ParseLastUpdate(doc)
	if err != nil {
		c.log.Error("last-update markup not recognized; parser needs attention", logx.Err(err))
		at = LastUpdate{}
	}
	return snap, at, nil
}

// FetchCatalog returns the machine catalog as currently published.
func (c *Client) FetchCatalog(ctx context.Context) ([]Machine, error) {
	doc, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	machines, skipped, err := ParseCatalog(doc)
	if err != nil {
		c.log.Error("machine catalog markup not recognized; parser needs attention", logx.Err(err))
		return nil, err
	}
	if skipped > 0 {
		c.log.Warn("malformed catalog entries skipped", logx.Int("count", skipped))
	}
	return machines, nil
}
