package rollcallsdk

import (
	"net/http"
	"strings"
	"time"
)

// SDKClient talks to a rollcall service. Health probes are unauthenticated;
// everything else goes through a Session.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new rollcall client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// TokenSource returns the bearer token for the next request.
type TokenSource func() (string, error)

// StaticToken is a TokenSource for a token obtained elsewhere.
func StaticToken(token string) TokenSource {
	return func() (string, error) { return token, nil }
}

// NewSession returns a Session authenticating every request with tokens
// from src. Tokens are issued by the auth service; rollcall never mints
// them.
func (c *SDKClient) NewSession(src TokenSource) *Session {
	return &Session{client: c, tokens: src}
}

// Session performs authenticated operations. It is safe for concurrent use
// when its TokenSource is.
type Session struct {
	client *SDKClient
	tokens TokenSource
}
