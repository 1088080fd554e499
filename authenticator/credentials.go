package authenticator

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// SessionCredentialsKey is the fixed session key the credential record is
// stored under between requests.
const SessionCredentialsKey = "go_credentials"

// Credentials is the token bundle proving a user authorized this
// application. It lives only in the session; the scope set is fixed per
// deployment, not chosen by the user.
type Credentials struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
	Token        string   `json:"token"`
	TokenURI     string   `json:"token_uri"`
	RefreshToken string   `json:"refresh_token"`
	Expiry       string   `json:"expiry"`
}

// CredentialsFromToken builds a credential record from the provider's token
// response and the static client configuration. Optional fields default to
// the empty string.
func CredentialsFromToken(conf *oauth2.Config, token *oauth2.Token) *Credentials {
	expiry := ""
	if !token.Expiry.IsZero() {
		expiry = token.Expiry.UTC().Format(time.RFC3339)
	}

	return &Credentials{
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
		Scopes:       conf.Scopes,
		Token:        token.AccessToken,
		TokenURI:     conf.Endpoint.TokenURL,
		RefreshToken: token.RefreshToken,
		Expiry:       expiry,
	}
}

// Encode serializes the record into its session form.
func (c *Credentials) Encode() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode credentials: %w", err)
	}
	return string(b), nil
}

// DecodeCredentials restores a credential record from a raw session value.
// A nil or foreign value means the user never completed the flow and maps
// to ErrNoCredentials.
func DecodeCredentials(value interface{}) (*Credentials, error) {
	raw, ok := value.(string)
	if !ok || raw == "" {
		return nil, ErrNoCredentials
	}

	var c Credentials
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("failed to decode session credentials: %w", err)
	}

	// A record without an access token should never have been stored.
	if c.Token == "" {
		return nil, ErrNoCredentials
	}

	return &c, nil
}
