package auth

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gojektech/heimdall/v6/httpclient"
	"github.com/pquerna/ffjson/ffjson"

	"github.com/krumpled/krumd/internal/core"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
	googleInfoURL  = "https://openidconnect.googleapis.com/v1/userinfo"

	googleScope = "email profile"
)

// ErrExchangeFailed covers any refusal from the provider during a code
// exchange; the detail is logged server-side, never surfaced to callers.
var ErrExchangeFailed = errors.New("identity provider rejected the code exchange")

// GoogleAuthorizer implements Authorizer against Google's OAuth endpoints.
type GoogleAuthorizer struct {
	clientID     string
	clientSecret string
	redirectURI  string

	client *httpclient.Client
}

// NewGoogleAuthorizer builds the authorizer from the google section of the
// config.
func NewGoogleAuthorizer(cfg *core.Config) *GoogleAuthorizer {
	return &GoogleAuthorizer{
		clientID:     cfg.Google.ClientID,
		clientSecret: cfg.Google.ClientSecret,
		redirectURI:  cfg.Google.RedirectURI,
		client:       httpclient.NewClient(httpclient.WithHTTPTimeout(10 * time.Second)),
	}
}

// RedirectURL returns the consent page URL a new login is sent to.
func (g *GoogleAuthorizer) RedirectURL() string {
	values := url.Values{}
	values.Set("response_type", "code")
	values.Set("client_id", g.clientID)
	values.Set("redirect_uri", g.redirectURI)
	values.Set("scope", googleScope)
	return googleAuthURL + "?" + values.Encode()
}

// Exchange trades the callback code for an access token and uses it to load
// the caller's profile.
func (g *GoogleAuthorizer) Exchange(code string) (*Identity, error) {
	values := url.Values{}
	values.Set("grant_type", "authorization_code")
	values.Set("code", code)
	values.Set("client_id", g.clientID)
	values.Set("client_secret", g.clientSecret)
	values.Set("redirect_uri", g.redirectURI)

	headers := http.Header{}
	headers.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Post(googleTokenURL, strings.NewReader(values.Encode()), headers)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, ErrExchangeFailed
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := decodeBody(resp.Body, &token); err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	if token.AccessToken == "" {
		return nil, ErrExchangeFailed
	}

	return g.identify(token.AccessToken)
}

func (g *GoogleAuthorizer) identify(accessToken string) (*Identity, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.client.Get(googleInfoURL, headers)
	if err != nil {
		return nil, fmt.Errorf("identify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, ErrExchangeFailed
	}

	var identity Identity
	if err := decodeBody(resp.Body, &identity); err != nil {
		return nil, fmt.Errorf("identify: %w", err)
	}
	return &identity, nil
}

func decodeBody(r io.Reader, out interface{}) error {
	contents, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return ffjson.Unmarshal(contents, out)
}
