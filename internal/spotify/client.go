// Package spotify looks up track popularity through the Spotify Web API.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrMissingCredentials is returned when the client id or secret is empty.
var ErrMissingCredentials = errors.New("missing spotify client credentials")

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api *spotify.Client
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client) *Client {
	return &Client{api: api}
}

// NewWithCredentials authenticates with the client-credentials flow.
// No user authorization is needed for catalog search.
func NewWithCredentials(ctx context.Context, clientID, clientSecret string) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}

	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return New(spotify.New(cfg.Client(ctx))), nil
}

// newWithBaseURL is used by tests to point the client at a fake API.
func newWithBaseURL(httpClient *http.Client, baseURL string) *Client {
	return New(spotify.New(httpClient, spotify.WithBaseURL(baseURL)))
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
