// Package pokeapi fetches reference tables from the PokeAPI CSV mirror.
package pokeapi

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cory-johannsen/abilitygen/internal/reference"
)

// Defaults used when Options leaves a field empty.
const (
	DefaultBaseURL   = "https://raw.githubusercontent.com/PokeAPI/pokeapi/master/data/v2/csv"
	DefaultTimeout   = 60 * time.Second
	DefaultUserAgent = "abilitygen/1.0"
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the transport. Its own Timeout is ignored in
	// favour of Timeout.
	HTTPClient *http.Client
}

// Client implements reference.Fetcher over HTTP.
type Client struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	http      *http.Client
}

// NewClient constructs a Client, filling unset options with defaults.
//
// Postcondition: returns a non-nil Client.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		http:      opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c
}

// URL returns the address of table.
func (c *Client) URL(table string) string {
	return c.baseURL + "/" + table
}

// Fetch downloads table and returns its rows without the header row.
// Rows may have any number of columns; callers decide what is malformed.
//
// Postcondition: every returned error wraps reference.ErrTransport.
func (c *Client) Fetch(ctx context.Context, table string) ([][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(table), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", reference.ErrTransport, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", reference.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, fmt.Errorf("%w: GET %s: unexpected status %s", reference.ErrTransport, c.URL(table), resp.Status)
	}

	r := csv.NewReader(resp.Body)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", reference.ErrTransport, table, err)
	}
	if len(records) > 0 {
		records = records[1:]
	}
	return records, nil
}
