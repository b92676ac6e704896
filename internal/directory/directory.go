// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package directory provides the country calling-code list for the login
// screen. The list is fetched once from a public directory; when that fails
// a small static list is used instead. There is no retry.
package directory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jeranaias/chatspaces/internal/model"
)

// Defaults.
const (
	DefaultURL     = "https://restcountries.com/v2/all"
	DefaultTimeout = 10 * time.Second
	DefaultCode    = "+91"
)

// Country is one selectable calling code.
type Country struct {
	Name        string `json:"name"`
	CallingCode string `json:"callingCode"`
}

// Label returns "India (+91)".
func (c Country) Label() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.CallingCode)
}

// Fallback returns the static list used when the remote directory fails.
func Fallback() []Country {
	return []Country{
		{Name: "India", CallingCode: "+91"},
		{Name: "United States", CallingCode: "+1"},
		{Name: "United Kingdom", CallingCode: "+44"},
	}
}

// DefaultIndex returns the index of DefaultCode in countries, or 0.
func DefaultIndex(countries []Country) int {
	for i, c := range countries {
		if c.CallingCode == DefaultCode {
			return i
		}
	}
	return 0
}

// remoteCountry is the subset of the restcountries v2 schema we read.
type remoteCountry struct {
	Name         string   `json:"name"`
	CallingCodes []string `json:"callingCodes"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client fetches and memoises the directory. Concurrent callers share one
// request.
type Client struct {
	url    string
	http   *resty.Client
	logger zerolog.Logger
	group  singleflight.Group

	mu        sync.Mutex
	done      bool
	countries []Country
	err       error
}

type result struct {
	countries []Country
	err       error
}

// NewClient creates a client for url (DefaultURL when empty).
func NewClient(url string, timeout time.Duration, logger zerolog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rc := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "chatspaces/1.0")

	return &Client{
		url:    url,
		http:   rc,
		logger: logger.With().Str("component", "directory").Logger(),
	}
}

// Countries returns the sorted directory. On failure it returns Fallback()
// together with a *model.DirectoryFetchError. The first completed outcome is
// reused for the life of the client; a call ended by its own context is not
// kept.
func (c *Client) Countries(ctx context.Context) ([]Country, error) {
	c.mu.Lock()
	if c.done {
		countries, err := cloneCountries(c.countries), c.err
		c.mu.Unlock()
		return countries, err
	}
	c.mu.Unlock()

	v, _, _ := c.group.Do("countries", func() (interface{}, error) {
		c.mu.Lock()
		if c.done {
			r := result{countries: c.countries, err: c.err}
			c.mu.Unlock()
			return r, nil
		}
		c.mu.Unlock()

		countries, err := c.fetch(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Str("url", c.url).Msg("using fallback country list")
			countries = Fallback()
			err = &model.DirectoryFetchError{URL: c.url, Err: err}
		}

		if ctx.Err() == nil {
			c.mu.Lock()
			c.done = true
			c.countries = countries
			c.err = err
			c.mu.Unlock()
		}
		return result{countries: countries, err: err}, nil
	})

	r := v.(result)
	return cloneCountries(r.countries), r.err
}

func (c *Client) fetch(ctx context.Context) ([]Country, error) {
	var remote []remoteCountry
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&remote).
		Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("status %d", resp.StatusCode())
	}

	countries := normalize(remote)
	if len(countries) == 0 {
		return nil, errors.New("directory returned no calling codes")
	}
	c.logger.Debug().Int("count", len(countries)).Msg("country directory loaded")
	return countries, nil
}

// normalize maps remote records to countries, drops entries without a
// calling code and sorts by name.
func normalize(remote []remoteCountry) []Country {
	out := make([]Country, 0, len(remote))
	for _, r := range remote {
		if len(r.CallingCodes) == 0 || strings.TrimSpace(r.CallingCodes[0]) == "" {
			continue
		}
		out = append(out, Country{
			Name:        r.Name,
			CallingCode: "+" + strings.TrimSpace(r.CallingCodes[0]),
		})
	}
	SortByName(out)
	return out
}

// SortByName sorts countries by locale-aware name order.
func SortByName(countries []Country) {
	col := collate.New(language.English)
	sort.SliceStable(countries, func(i, j int) bool {
		return col.CompareString(countries[i].Name, countries[j].Name) < 0
	})
}

func cloneCountries(in []Country) []Country {
	out := make([]Country, len(in))
	copy(out, in)
	return out
}
