package models

// UserProfile is the authenticated user's profile as returned by
// GET https://www.googleapis.com/oauth2/v2/userinfo.
type UserProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}
