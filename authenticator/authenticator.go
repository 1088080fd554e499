package authenticator

import (
	"context"
	"errors"

	"github.com/xlangai/waitlist/models"
)

// ErrNoCredentials is returned when the session holds no usable credential
// record. Callers should treat the user as unauthenticated and restart the
// flow.
var ErrNoCredentials = errors.New("no credentials in session")

// ErrRevokeFailed is returned when the provider rejects a revocation
// request. The stored credentials remain in the session so the user can
// retry.
var ErrRevokeFailed = errors.New("token revocation rejected by provider")

// Provider interface abstracts OAuth provider operations
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Credentials, error)
	UserInfo(ctx context.Context, creds *Credentials) (*models.UserProfile, error)
	Revoke(ctx context.Context, creds *Credentials) error
}
