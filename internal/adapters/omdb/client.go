// Package omdb looks up film details in the OMDb API.
package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public OMDb endpoint.
const DefaultBaseURL = "https://www.omdbapi.com/"

// Lookup errors.
var (
	ErrNoAPIKey     = errors.New("omdb api key not configured")
	ErrFilmNotFound = errors.New("film not found in omdb")
)

// Film is the subset of an OMDb record a nomination uses.
type Film struct {
	Title     string
	Year      int
	IMDbID    string
	PosterURL string
}

// response mirrors the OMDb JSON body.
type response struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Poster   string `json:"Poster"`
	ImdbID   string `json:"imdbID"`
	Type     string `json:"Type"`
}

// Client queries OMDb by IMDb id or title.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a client. An empty baseURL uses DefaultBaseURL.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled reports whether lookups can be made.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Lookup fetches a film by IMDb id ("tt…") when ref is set, otherwise by
// title and optional year.
// POST: returns ErrFilmNotFound when OMDb reports no match
func (c *Client) Lookup(ctx context.Context, ref, title string, year int) (Film, error) {
	if !c.Enabled() {
		return Film{}, ErrNoAPIKey
	}
	q := url.Values{"apikey": {c.apiKey}, "type": {"movie"}}
	switch {
	case strings.HasPrefix(ref, "tt"):
		q.Set("i", ref)
	case strings.TrimSpace(title) != "":
		q.Set("t", strings.TrimSpace(title))
		if year > 0 {
			q.Set("y", strconv.Itoa(year))
		}
	default:
		return Film{}, fmt.Errorf("%w: no id or title given", ErrFilmNotFound)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Film{}, fmt.Errorf("build omdb request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Film{}, fmt.Errorf("omdb request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Film{}, fmt.Errorf("omdb status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Film{}, fmt.Errorf("decode omdb response: %w", err)
	}
	if body.Response != "True" {
		return Film{}, fmt.Errorf("%w: %s", ErrFilmNotFound, body.Error)
	}

	film := Film{Title: body.Title, IMDbID: body.ImdbID}
	if body.Poster != "N/A" {
		film.PosterURL = body.Poster
	}
	// Series report ranges like "1999–2003"; keep the first year.
	if len(body.Year) >= 4 {
		film.Year, _ = strconv.Atoi(body.Year[:4])
	}
	return film, nil
}
