package authenticator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/xlangai/waitlist/models"
)

const (
	googleIssuerURL   = "https://accounts.google.com"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	googleRevokeURL   = "https://oauth2.googleapis.com/revoke"
)

// GoogleProvider implements the Provider interface for Google
type GoogleProvider struct {
	config      oauth2.Config
	httpClient  *http.Client
	userInfoURL string
	revokeURL   string
	issuerURL   string

	// The OIDC verifier needs provider discovery, so it is built lazily on
	// the first callback that carries an id_token.
	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

// GoogleConfig holds Google-specific configuration
type GoogleConfig struct {
	ClientSecretsFile string
	Scopes            []string
	CallbackURL       string
}

// NewGoogleProvider creates a new Google provider from a client secrets
// file downloaded from the Google API console.
func NewGoogleProvider(cfg GoogleConfig) (*GoogleProvider, error) {
	// Validate required configuration
	if cfg.ClientSecretsFile == "" {
		return nil, errors.New("client secrets file is required")
	}
	if len(cfg.Scopes) == 0 {
		return nil, errors.New("at least one scope is required")
	}
	if cfg.CallbackURL == "" {
		return nil, errors.New("callback URL is required")
	}

	secrets, err := os.ReadFile(cfg.ClientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secrets file: %w", err)
	}

	conf, err := google.ConfigFromJSON(secrets, cfg.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secrets file: %w", err)
	}
	conf.RedirectURL = cfg.CallbackURL

	return &GoogleProvider{
		config:      *conf,
		httpClient:  http.DefaultClient,
		userInfoURL: googleUserInfoURL,
		revokeURL:   googleRevokeURL,
		issuerURL:   googleIssuerURL,
	}, nil
}

// AuthCodeURL returns the authorization URL for Google, requesting offline
// access and incremental scope grants.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// Exchange exchanges an authorization code for a credential record
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Credentials, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	// Verify the ID token when the response carries one
	if rawIDToken, ok := token.Extra("id_token").(string); ok && rawIDToken != "" {
		if err := p.verifyIDToken(ctx, rawIDToken); err != nil {
			return nil, fmt.Errorf("failed to verify ID token: %w", err)
		}
	}

	return CredentialsFromToken(&p.config, token), nil
}

// UserInfo fetches the authenticated user's profile from the userinfo
// endpoint using the stored access token.
func (p *GoogleProvider) UserInfo(ctx context.Context, creds *Credentials) (*models.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.Token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("userinfo request failed with status %d", resp.StatusCode)
	}

	var profile models.UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	if profile.Email == "" {
		return nil, errors.New("userinfo response is missing the email field")
	}

	return &profile, nil
}

// Revoke asks the provider to revoke the stored access token. Any status
// other than 200 maps to ErrRevokeFailed.
func (p *GoogleProvider) Revoke(ctx context.Context, creds *Credentials) error {
	revokeURL := p.revokeURL + "?token=" + url.QueryEscape(creds.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, revokeURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call revoke endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrRevokeFailed, resp.StatusCode)
	}
	return nil
}

func (p *GoogleProvider) verifyIDToken(ctx context.Context, rawIDToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.verifier == nil {
		provider, err := oidc.NewProvider(ctx, p.issuerURL)
		if err != nil {
			return fmt.Errorf("failed to discover OIDC provider: %w", err)
		}
		p.verifier = provider.Verifier(&oidc.Config{ClientID: p.config.ClientID})
	}

	if _, err := p.verifier.Verify(ctx, rawIDToken); err != nil {
		return err
	}
	return nil
}
