package controllers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"gitea.com/go-chi/session"
	"go.uber.org/zap"

	"github.com/xlangai/waitlist/authenticator"
	"github.com/xlangai/waitlist/notify"
	"github.com/xlangai/waitlist/storage"
)

const sessionStateKey = "state"

// joinResult is the JSON body of the joined endpoint.
type joinResult struct {
	Result bool   `json:"result"`
	Msg    string `json:"msg"`
	Email  string `json:"email,omitempty"`
}

// AuthController owns the authorize -> connect -> joined flow plus the
// revoke/clear credential maintenance routes.
type AuthController struct {
	provider authenticator.Provider
	store    storage.Waitlist
	notifier notify.Notifier
	log      *zap.Logger
}

func NewAuthController(provider authenticator.Provider, store storage.Waitlist, notifier notify.Notifier, log *zap.Logger) *AuthController {
	return &AuthController{
		provider: provider,
		store:    store,
		notifier: notifier,
		log:      log,
	}
}

// Authorize redirects to the provider's authentication domain
func (ac *AuthController) Authorize(w http.ResponseWriter, r *http.Request) {
	// Generate random state
	state, err := generateRandomState()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Save the state in the session to validate in callback
	sess := session.GetSession(r)
	if err := sess.Set(sessionStateKey, state); err != nil {
		http.Error(w, "Failed to save session state", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, ac.provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Connect receives the authorization response from the provider and
// exchanges the code for credentials.
func (ac *AuthController) Connect(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)

	// A callback without a pending state means the flow was never started
	// here; send the user back to the beginning instead of failing.
	storedState := sess.Get(sessionStateKey)
	if storedState == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if r.URL.Query().Get("state") != storedState.(string) {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	// Exchange the code for credentials
	creds, err := ac.provider.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		ac.log.Error("token exchange failed", zap.Error(err))
		http.Error(w, "Failed to exchange authorization code for a token", http.StatusUnauthorized)
		return
	}

	// Store credentials in the session
	encoded, err := creds.Encode()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := sess.Set(authenticator.SessionCredentialsKey, encoded); err != nil {
		http.Error(w, "Failed to save credentials in session", http.StatusInternalServerError)
		return
	}

	// Clear the state from session
	_ = sess.Delete(sessionStateKey)

	http.Redirect(w, r, "/auth/google/joined", http.StatusSeeOther)
}

// Joined resolves the authenticated user's waitlist membership, inserting
// and notifying on first join only. Repeated calls for the same identity
// are safe and never re-notify.
func (ac *AuthController) Joined(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)

	creds, err := authenticator.DecodeCredentials(sess.Get(authenticator.SessionCredentialsKey))
	if err != nil {
		if !errors.Is(err, authenticator.ErrNoCredentials) {
			ac.log.Error("failed to restore session credentials", zap.Error(err))
		}
		writeJSON(w, http.StatusOK, joinResult{Result: false, Msg: "Application authorization failed."})
		return
	}

	profile, err := ac.provider.UserInfo(r.Context(), creds)
	if err != nil {
		ac.log.Error("failed to fetch user profile", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, joinResult{Result: false, Msg: "Failed to fetch user profile."})
		return
	}

	found, err := ac.store.Find(r.Context(), profile.Email)
	if err != nil {
		ac.log.Error("waitlist lookup failed", zap.String("email", profile.Email), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, joinResult{Result: false, Msg: "Waitlist is temporarily unavailable."})
		return
	}

	if !found {
		created, err := ac.store.Insert(r.Context(), profile)
		if err != nil {
			ac.log.Error("waitlist insert failed", zap.String("email", profile.Email), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, joinResult{Result: false, Msg: "Waitlist is temporarily unavailable."})
			return
		}

		// created is false when a concurrent join won the insert; only the
		// winner notifies.
		if created {
			ac.notifier.Send(profile.Email)
			ac.log.Info("new user joined the waitlist",
				zap.String("username", profile.Name),
				zap.String("email", profile.Email),
			)
			writeJSON(w, http.StatusOK, joinResult{Result: true, Msg: "Congratulations, you have joined the Waitlist."})
			return
		}
	}

	ac.log.Info("user re-accessed the waitlist",
		zap.String("username", profile.Name),
		zap.String("email", profile.Email),
	)
	writeJSON(w, http.StatusOK, joinResult{
		Result: true,
		Msg:    "You have already joined the Waitlist.",
		Email:  profile.Email,
	})
}

// Revoke asks the provider to revoke the stored token and, on success,
// drops the credentials from the session.
func (ac *AuthController) Revoke(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)

	creds, err := authenticator.DecodeCredentials(sess.Get(authenticator.SessionCredentialsKey))
	if err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `You need to <a href="/auth/google/authorize">authorize</a> before testing the code to revoke credentials.`)
		return
	}

	if err := ac.provider.Revoke(r.Context(), creds); err != nil {
		// Leave the session intact so the user can retry.
		ac.log.Error("token revocation failed", zap.Error(err))
		fmt.Fprint(w, "An error occurred.")
		return
	}

	_ = sess.Delete(authenticator.SessionCredentialsKey)
	fmt.Fprint(w, "Credentials successfully revoked.")
}

// Clear drops the credentials from the session. Safe to call in any state.
func (ac *AuthController) Clear(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)
	_ = sess.Delete(authenticator.SessionCredentialsKey)
	fmt.Fprint(w, "Credentials successfully cleared")
}

// generateRandomState generates a random state value for CSRF protection
func generateRandomState() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
