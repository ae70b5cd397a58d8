// Package identity implements the Google OAuth2 authorization-code exchange.
// The core only needs a short-lived access token string, which it passes
// opaquely to the object-store calls.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultAuthBaseURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenBaseURL = "https://oauth2.googleapis.com"

	// DriveFileScope is the least-privilege scope: per-file access only,
	// never the whole drive.
	DriveFileScope = "https://www.googleapis.com/auth/drive.file"
)

// Config carries the OAuth application credentials. The client ID is the
// user-provided free-text credential; secret and redirect come from the
// server environment.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthBaseURL  string
	TokenBaseURL string
}

// Token is the successful exchange result.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// apiError mirrors the OAuth2 error payload.
type apiError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// Client exposes the identity operations used by the sync session.
type Client interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*Token, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	cfg        Config
}

// NewClient builds an identity client for the provided application credentials.
func NewClient(cfg Config) *APIClient {
	if cfg.AuthBaseURL == "" {
		cfg.AuthBaseURL = defaultAuthBaseURL
	}
	if cfg.TokenBaseURL == "" {
		cfg.TokenBaseURL = defaultTokenBaseURL
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(cfg.TokenBaseURL).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetTimeout(15 * time.Second)

	return &APIClient{httpClient: restyClient, cfg: cfg}
}

// AuthCodeURL builds the consent URL the user is sent to.
func (c *APIClient) AuthCodeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURL)
	q.Set("response_type", "code")
	q.Set("scope", DriveFileScope)
	q.Set("state", state)
	return c.cfg.AuthBaseURL + "?" + q.Encode()
}

// ExchangeCode trades the consent code for an access token.
func (c *APIClient) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	result := new(Token)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":     c.cfg.ClientID,
			"client_secret": c.cfg.ClientSecret,
			"code":          code,
			"grant_type":    "authorization_code",
			"redirect_uri":  c.cfg.RedirectURL,
		}).
		SetResult(result).
		SetError(apiErr).
		Post("/token")
	if err != nil {
		return nil, fmt.Errorf("request token: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("token endpoint error: code=%s, description=%s", apiErr.Code, apiErr.Description)
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}

	return result, nil
}
