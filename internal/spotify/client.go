// Package spotify fetches playlist contents from the Spotify Web API and
// groups them into albums.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL  = "https://api.spotify.com/v1"
	defaultTokenURL = "https://accounts.spotify.com/api/token"

	// pageSize is the largest page the playlist tracks endpoint serves.
	pageSize = 100
)

// ErrNoCredentials is returned when neither a user token nor client
// credentials are configured.
var ErrNoCredentials = errors.New("spotify credentials not configured")

// Credentials selects how the client authenticates. AccessToken wins when
// set; it is required for private playlists.
type Credentials struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	TokenURL     string // defaults to the Spotify accounts endpoint
}

// CredentialsFromEnv reads SPOTIFY_ACCESS_TOKEN, SPOTIFY_CLIENT_ID and
// SPOTIFY_CLIENT_SECRET.
func CredentialsFromEnv() Credentials {
	return Credentials{
		ClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		ClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		AccessToken:  os.Getenv("SPOTIFY_ACCESS_TOKEN"),
	}
}

// Available reports whether the credentials are enough to authenticate.
func (c Credentials) Available() bool {
	return c.AccessToken != "" || (c.ClientID != "" && c.ClientSecret != "")
}

// Client is a minimal read-only Spotify Web API client.
type Client struct {
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
	backoffs []time.Duration

	// OnResponse, if set, is called with the status code of every HTTP
	// response, retries included.
	OnResponse func(code int)
}

// NewClient creates a client authenticated with creds. ctx scopes the
// token source's own HTTP calls.
func NewClient(ctx context.Context, creds Credentials) (*Client, error) {
	if !creds.Available() {
		return nil, ErrNoCredentials
	}

	var hc *http.Client
	if creds.AccessToken != "" {
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.AccessToken}))
	} else {
		tokenURL := creds.TokenURL
		if tokenURL == "" {
			tokenURL = defaultTokenURL
		}
		cc := &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     tokenURL,
		}
		hc = cc.Client(ctx)
	}
	hc.Timeout = 30 * time.Second

	return &Client{
		baseURL:  defaultBaseURL,
		client:   hc,
		limiter:  rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
		backoffs: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}, nil
}

// Playlist is the header information of a playlist.
type Playlist struct {
	ID    string
	Name  string
	Owner string
}

// Playlist fetches the playlist's name and owner.
func (c *Client) Playlist(ctx context.Context, id string) (Playlist, error) {
	q := url.Values{"fields": {"name,owner(display_name,id)"}}
	var resp playlistResponse
	if err := c.get(ctx, "/playlists/"+url.PathEscape(id), q, &resp); err != nil {
		return Playlist{}, fmt.Errorf("get playlist: %w", err)
	}
	owner := resp.Owner.DisplayName
	if owner == "" {
		owner = resp.Owner.ID
	}
	return Playlist{ID: id, Name: resp.Name, Owner: owner}, nil
}

// items pages through every entry of the playlist, calling fn per page.
func (c *Client) items(ctx context.Context, id string, fn func([]playlistItem)) error {
	path := "/playlists/" + url.PathEscape(id) + "/tracks"
	for offset := 0; ; {
		q := url.Values{
			"limit":  {strconv.Itoa(pageSize)},
			"offset": {strconv.Itoa(offset)},
		}
		var page tracksPage
		if err := c.get(ctx, path, q, &page); err != nil {
			return fmt.Errorf("get playlist tracks at offset %d: %w", offset, err)
		}
		if len(page.Items) == 0 {
			return nil
		}
		fn(page.Items)
		offset += len(page.Items)
		if len(page.Items) < pageSize {
			return nil
		}
	}
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	body, err := c.doWithRetry(ctx, c.baseURL+path+"?"+q.Encode())
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// doWithRetry retries up to len(backoffs) times on transport errors, 429
// and 5xx. A 429 Retry-After header replaces the backoff, capped at 30s.
func (c *Client) doWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	maxRetries := len(c.backoffs)

	wait := func(d time.Duration) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
			return nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt < maxRetries {
				if err := wait(c.backoffs[attempt]); err != nil {
					return nil, err
				}
			}
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		resp.Body.Close()
		if c.OnResponse != nil {
			c.OnResponse(resp.StatusCode)
		}
		if readErr != nil {
			lastErr = fmt.Errorf("read response: %w", readErr)
			if attempt < maxRetries {
				if err := wait(c.backoffs[attempt]); err != nil {
					return nil, err
				}
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = &APIError{Status: resp.StatusCode, Body: string(body)}
			if attempt < maxRetries {
				delay := c.backoffs[attempt]
				if resp.StatusCode == http.StatusTooManyRequests {
					if d, ok := retryAfter(resp.Header.Get("Retry-After")); ok {
						delay = d
					}
				}
				if err := wait(delay); err != nil {
					return nil, err
				}
			}
			continue
		}

		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	return nil, fmt.Errorf("spotify request failed after %d retries: %w", maxRetries, lastErr)
}

func retryAfter(v string) (time.Duration, bool) {
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds <= 0 {
		return 0, false
	}
	d := time.Duration(seconds) * time.Second
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d, true
}

// APIError is a non-2xx answer from the Web API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify API error (status %d): %s", e.Status, e.Body)
}
