package hebcal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/dgallion1/torahtrack/internal/fetch"
)

// DefaultBaseURL is the public Hebcal API.
const DefaultBaseURL = "https://www.hebcal.com"

// CategoryParashat tags weekly Torah readings in calendar output.
const CategoryParashat = "parashat"

// Client queries the Hebcal Jewish calendar API.
type Client struct {
	baseURL string
	fetch   *fetch.Client
}

func NewClient(baseURL string, opts fetch.Options, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetch:   fetch.NewClient("hebcal", opts, log),
	}
}

// Item is one calendar entry.
type Item struct {
	Title    string  `json:"title"`
	Hebrew   string  `json:"hebrew"`
	Date     string  `json:"date"`
	Category string  `json:"category"`
	Leyning  Leyning `json:"leyning"`
}

// IsWeeklyReading reports whether the item is a parashat entry with leyning.
func (it Item) IsWeeklyReading() bool {
	return it.Category == CategoryParashat && len(it.Leyning) > 0
}

// Leyning maps reading keys ("1".."7", "M", "torah", "haftarah", ...) to their
// raw JSON values. Most are strings; some, like "triennial", are objects.
type Leyning map[string]json.RawMessage

// String returns the value for key when it is a non-empty string.
func (l Leyning) String(key string) (string, bool) {
	raw, ok := l[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// Aliyah returns the verse-range string for weekday aliyah n.
func (l Leyning) Aliyah(n int) (string, bool) {
	return l.String(strconv.Itoa(n))
}

type yearResponse struct {
	Items []Item `json:"items"`
}

// Year fetches every observance for Gregorian year, with Shabbat readings.
func (c *Client) Year(ctx context.Context, year int) ([]Item, error) {
	q := url.Values{}
	q.Set("v", "1")
	q.Set("cfg", "json")
	q.Set("s", "on")
	q.Set("year", strconv.Itoa(year))
	u := c.baseURL + "/hebcal?" + q.Encode()

	var resp yearResponse
	if err := c.fetch.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("hebcal year %d: %w", year, err)
	}
	return resp.Items, nil
}

// Stats exposes upstream latency for reporting.
func (c *Client) Stats() fetch.StatsSnapshot {
	return c.fetch.Stats().Snapshot()
}

// Close releases idle connections.
func (c *Client) Close() {
	c.fetch.Close()
}
