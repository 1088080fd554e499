package authenticator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestCredentialsSessionRoundTrip(t *testing.T) {
	creds := &Credentials{
		ClientID:     "client-id.apps.googleusercontent.com",
		ClientSecret: "client-secret",
		Scopes:       []string{"openid", "https://www.googleapis.com/auth/userinfo.email"},
		Token:        "ya29.access-token",
		TokenURI:     "https://oauth2.googleapis.com/token",
		RefreshToken: "1//refresh-token",
		Expiry:       "2026-01-02T15:04:05Z",
	}

	encoded, err := creds.Encode()
	require.NoError(t, err)

	restored, err := DecodeCredentials(encoded)
	require.NoError(t, err)
	assert.Equal(t, creds, restored)
}

func TestCredentialsFromToken(t *testing.T) {
	conf := &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Scopes:       []string{"openid"},
		Endpoint:     oauth2.Endpoint{TokenURL: "https://oauth2.googleapis.com/token"},
	}

	expiry := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	token := &oauth2.Token{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		Expiry:       expiry,
	}

	creds := CredentialsFromToken(conf, token)
	assert.Equal(t, "client-id", creds.ClientID)
	assert.Equal(t, "client-secret", creds.ClientSecret)
	assert.Equal(t, []string{"openid"}, creds.Scopes)
	assert.Equal(t, "access-token", creds.Token)
	assert.Equal(t, "https://oauth2.googleapis.com/token", creds.TokenURI)
	assert.Equal(t, "refresh-token", creds.RefreshToken)
	assert.Equal(t, "2026-01-02T15:04:05Z", creds.Expiry)
}

func TestCredentialsFromTokenOptionalFieldsDefaultEmpty(t *testing.T) {
	conf := &oauth2.Config{ClientID: "client-id"}
	token := &oauth2.Token{AccessToken: "access-token"}

	creds := CredentialsFromToken(conf, token)
	assert.Equal(t, "", creds.RefreshToken)
	assert.Equal(t, "", creds.Expiry)
}

func TestDecodeCredentialsFailures(t *testing.T) {
	// Nothing stored in the session yet.
	_, err := DecodeCredentials(nil)
	assert.ErrorIs(t, err, ErrNoCredentials)

	// A foreign value under the session key.
	_, err = DecodeCredentials(42)
	assert.ErrorIs(t, err, ErrNoCredentials)

	// A record without an access token should never have been stored.
	_, err = DecodeCredentials(`{"client_id":"client-id"}`)
	assert.ErrorIs(t, err, ErrNoCredentials)

	// Corrupted session payload.
	_, err = DecodeCredentials("{not json")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCredentials)
}
