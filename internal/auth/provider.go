// Package auth obtains and caches the bearer credential used against the
// RingCentral platform.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"voicemail-relay-go/internal/apperrors"
)

const (
	// TokenPath is the credential exchange endpoint relative to the server URL
	TokenPath = "/restapi/oauth/token"

	// JWTBearerGrant is the grant type for exchanging a pre-issued signed assertion
	JWTBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	// DefaultExpiryMargin is how long before expiry a cached token stops being used
	DefaultExpiryMargin = 60 * time.Second

	defaultTokenTTL = time.Hour
)

// Config configures a Provider
type Config struct {
	Server       string
	ClientID     string
	ClientSecret string
	Assertion    string
	Timeout      time.Duration
	ExpiryMargin time.Duration
	HTTPClient   *http.Client
	Now          func() time.Time
}

// Provider exchanges a signed JWT assertion for an access token and caches it
// until shortly before it expires. It implements oauth2.TokenSource.
type Provider struct {
	oauth      clientcredentials.Config
	httpClient *http.Client
	margin     time.Duration
	now        func() time.Time

	mu    sync.Mutex
	token *oauth2.Token
}

// NewProvider creates a token provider for the given server and client identity
func NewProvider(cfg Config) *Provider {
	margin := cfg.ExpiryMargin
	if margin <= 0 {
		margin = DefaultExpiryMargin
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Provider{
		oauth: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.Server + TokenPath,
			AuthStyle:    oauth2.AuthStyleInHeader,
			EndpointParams: url.Values{
				"grant_type": {JWTBearerGrant},
				"assertion":  {cfg.Assertion},
			},
		},
		httpClient: httpClient,
		margin:     margin,
		now:        now,
	}
}

// Token returns the cached token or exchanges a new one
func (p *Provider) Token() (*oauth2.Token, error) {
	return p.TokenContext(context.Background())
}

// AccessToken returns the bearer string of a valid token
func (p *Provider) AccessToken(ctx context.Context) (string, error) {
	tok, err := p.TokenContext(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// TokenContext returns the cached token while it is more than the expiry
// margin away from expiring. Otherwise it performs a fresh exchange and
// replaces the cache. Concurrent callers share one exchange.
func (p *Provider) TokenContext(ctx context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.usable(p.token) {
		return p.token, nil
	}

	tok, err := p.exchange(ctx)
	if err != nil {
		return nil, err
	}
	p.token = tok
	return tok, nil
}

// Invalidate drops the cached token so the next call performs an exchange
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = nil
}

func (p *Provider) usable(tok *oauth2.Token) bool {
	if tok == nil || tok.AccessToken == "" {
		return false
	}
	return p.now().Before(tok.Expiry.Add(-p.margin))
}

func (p *Provider) exchange(ctx context.Context) (*oauth2.Token, error) {
	issuedAt := p.now()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.oauth.Token(ctx)
	if err != nil {
		authErr := &apperrors.AuthError{Op: "token exchange", Err: err}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			authErr.StatusCode = retrieveErr.Response.StatusCode
		}
		return nil, authErr
	}

	tok.Expiry = issuedAt.Add(expiresIn(tok))
	logrus.Debugf("Obtained access token, expires at %s", tok.Expiry.Format(time.RFC3339))
	return tok, nil
}

// expiresIn reads the lifetime from the raw token response, falling back to
// one hour when the field is missing or malformed.
func expiresIn(tok *oauth2.Token) time.Duration {
	var seconds int64
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		seconds = int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			seconds = n
		}
	case fmt.Stringer:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		if err == nil {
			seconds = n
		}
	}
	if seconds <= 0 {
		return defaultTokenTTL
	}
	return time.Duration(seconds) * time.Second
}
