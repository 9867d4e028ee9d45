// Package subsonic reads a music library through the Subsonic REST API.
package subsonic

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	apiVersion = "1.16.1"
	clientName = "library-themes"
	saltLength = 6
	saltChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ErrStatus is returned when the server answers with a non-"ok" status.
var ErrStatus = errors.New("subsonic request failed")

// Config holds server location and credentials.
type Config struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

// Client is an authenticated Subsonic API client.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// NewClient creates a client for the server at cfg.URL.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// envelope is the common response wrapper.
type envelope struct {
	Response struct {
		Status string `json:"status"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Artists *struct {
			Index []struct {
				Artist []artistRef `json:"artist"`
			} `json:"index"`
		} `json:"artists"`
		Artist *struct {
			artistRef
			Album []albumRef `json:"album"`
		} `json:"artist"`
		Album *struct {
			albumRef
			Song []song `json:"song"`
		} `json:"album"`
	} `json:"subsonic-response"`
}

type artistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type albumRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Year int    `json:"year"`
}

type song struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Genre     string `json:"genre"`
	Year      int    `json:"year"`
	Duration  int    `json:"duration"`
	PlayCount int    `json:"playCount"`
	Played    string `json:"played"`
	Created   string `json:"created"`
}

// token returns the salted md5 auth token and its salt.
func token(password string) (tok, salt string) {
	b := make([]byte, saltLength)
	for i := range b {
		b[i] = saltChars[rand.IntN(len(saltChars))]
	}
	salt = string(b)
	sum := md5.Sum([]byte(password + salt))
	return hex.EncodeToString(sum[:]), salt
}

// call performs an authenticated request to /rest/{endpoint}.
func (c *Client) call(ctx context.Context, endpoint string, params url.Values) (*envelope, error) {
	tok, salt := token(c.password)
	q := url.Values{
		"u": {c.username},
		"t": {tok},
		"s": {salt},
		"v": {apiVersion},
		"c": {clientName},
		"f": {"json"},
	}
	for k, v := range params {
		q[k] = v
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/"+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", endpoint, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", endpoint, err)
	}
	if env.Response.Status != "ok" {
		msg := env.Response.Status
		if env.Response.Error != nil {
			msg = fmt.Sprintf("%d %s", env.Response.Error.Code, env.Response.Error.Message)
		}
		return nil, fmt.Errorf("%s: %s: %w", endpoint, msg, ErrStatus)
	}
	return &env, nil
}

// Ping checks connectivity and credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, "ping", nil)
	return err
}

func (c *Client) artists(ctx context.Context) ([]artistRef, error) {
	env, err := c.call(ctx, "getArtists", nil)
	if err != nil {
		return nil, err
	}
	var refs []artistRef
	if env.Response.Artists != nil {
		for _, idx := range env.Response.Artists.Index {
			refs = append(refs, idx.Artist...)
		}
	}
	return refs, nil
}

func (c *Client) albums(ctx context.Context, artistID string) ([]albumRef, error) {
	env, err := c.call(ctx, "getArtist", url.Values{"id": {artistID}})
	if err != nil {
		return nil, err
	}
	if env.Response.Artist == nil {
		return nil, nil
	}
	return env.Response.Artist.Album, nil
}

func (c *Client) songs(ctx context.Context, albumID string) ([]song, error) {
	env, err := c.call(ctx, "getAlbum", url.Values{"id": {albumID}})
	if err != nil {
		return nil, err
	}
	if env.Response.Album == nil {
		return nil, nil
	}
	return env.Response.Album.Song, nil
}
