package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/xlangai/waitlist/authenticator"
	"github.com/xlangai/waitlist/notify"
	"github.com/xlangai/waitlist/storage"
)

// writeJSON renders v as a JSON response with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to render response", http.StatusInternalServerError)
	}
}

// Controllers holds all controller instances
type Controllers struct {
	Auth *AuthController
}

// New creates and initializes all controller instances
func New(provider authenticator.Provider, store storage.Waitlist, notifier notify.Notifier, log *zap.Logger) *Controllers {
	return &Controllers{
		Auth: NewAuthController(provider, store, notifier, log),
	}
}

// Navigator serves the landing page linking the auth routes.
func Navigator(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	fmt.Fprint(w, `<!DOCTYPE html>
<html lang="en">
<head>
    <title>WaitlistAI</title>
</head>
<body>
    <div><a href='/auth/google/authorize'>Continue with Google</a></div>
    <div><a href='/auth/google/revoke'>Revoke Credentials</a></div>
    <div><a href='/auth/google/clear'>Clear Credentials</a></div>
</body>
</html>
`)
}

// Health serves the liveness probe.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status": "healthy", "service": "waitlist"}`)
}
