package sefaria

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/dgallion1/torahtrack/internal/fetch"
)

// DefaultBaseURL is the public Sefaria API.
const DefaultBaseURL = "https://www.sefaria.org"

// ChapterEnd is passed as the last verse to request "to the end of the
// chapter"; the service clamps it to the chapter's real length.
const ChapterEnd = 999

// Client retrieves Hebrew verse text from Sefaria.
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
		fetch:   fetch.NewClient("sefaria", opts, log),
	}
}

// Passage is the Hebrew text of a requested reference.
type Passage struct {
	Ref    string
	Hebrew []string
	// Single is set when the service collapsed the request to one verse and
	// returned a bare string instead of a list.
	Single bool
}

type textsResponse struct {
	Ref   string          `json:"ref"`
	He    json.RawMessage `json:"he"`
	Text  json.RawMessage `json:"text"`
	Error string          `json:"error"`
}

// Ref formats a Sefaria reference: "Book.ch.v" or "Book.ch.sv-ev".
func Ref(book string, chapter, startVerse, endVerse int) string {
	if startVerse == endVerse {
		return fmt.Sprintf("%s.%d.%d", book, chapter, startVerse)
	}
	return fmt.Sprintf("%s.%d.%d-%d", book, chapter, startVerse, endVerse)
}

// Text fetches verses startVerse..endVerse of one chapter.
func (c *Client) Text(ctx context.Context, book string, chapter, startVerse, endVerse int) (Passage, error) {
	ref := Ref(book, chapter, startVerse, endVerse)
	u := c.baseURL + "/api/texts/" + url.PathEscape(ref) + "?context=0"

	var resp textsResponse
	if err := c.fetch.GetJSON(ctx, u, &resp); err != nil {
		return Passage{}, fmt.Errorf("sefaria %s: %w", ref, err)
	}
	if resp.Error != "" {
		return Passage{}, &fetch.Error{Service: "sefaria", URL: u, Message: resp.Error}
	}

	p := Passage{Ref: resp.Ref}
	if len(resp.He) == 0 || string(resp.He) == "null" {
		return p, nil
	}
	var list []string
	if err := json.Unmarshal(resp.He, &list); err == nil {
		p.Hebrew = list
		return p, nil
	}
	var single string
	if err := json.Unmarshal(resp.He, &single); err == nil {
		p.Hebrew = []string{single}
		p.Single = true
		return p, nil
	}
	return Passage{}, &fetch.Error{Service: "sefaria", URL: u, Message: "unexpected shape for field he"}
}

// Stats exposes upstream latency for reporting.
func (c *Client) Stats() fetch.StatsSnapshot {
	return c.fetch.Stats().Snapshot()
}

// Close releases idle connections.
func (c *Client) Close() {
	c.fetch.Close()
}
