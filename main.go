package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"gitea.com/go-chi/session"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/xlangai/waitlist/authenticator"
	"github.com/xlangai/waitlist/config"
	"github.com/xlangai/waitlist/controllers"
	"github.com/xlangai/waitlist/logger"
	authmiddleware "github.com/xlangai/waitlist/middleware"
	"github.com/xlangai/waitlist/notify"
	"github.com/xlangai/waitlist/storage"
)

func main() {
	// Load environment variables from .env file, if one exists. All keys
	// also live in system.yaml, so the file is optional.
	_ = godotenv.Load()

	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(&cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// Initialize the waitlist store selected by configuration
	store, err := storage.New(context.Background(), &cfg.Storage, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize waitlist storage", zap.Error(err))
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	// Initialize the Google provider
	callbackURL := fmt.Sprintf("%s://%s/auth/google/connect", cfg.OAuth2.Google.Scheme(), cfg.Server.Addr())
	provider, err := authenticator.NewGoogleProvider(authenticator.GoogleConfig{
		ClientSecretsFile: cfg.OAuth2.Google.ClientSecretsFile,
		Scopes:            cfg.OAuth2.Google.Scopes,
		CallbackURL:       callbackURL,
	})
	if err != nil {
		zlog.Fatal("failed to initialize Google provider", zap.Error(err))
	}

	notifier := notify.NewSMTPNotifier(cfg.Notify.SMTP, zlog)

	ctrl := controllers.New(provider, store, notifier, zlog)

	r, err := setupRouter(ctrl, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to setup router", zap.Error(err))
	}

	zlog.Info("waitlist backend starting",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("callback", callbackURL),
	)
	zlog.Fatal("server exited", zap.Error(http.ListenAndServe(cfg.Server.Addr(), r)))
}

// setupRouter configures all routes
func setupRouter(ctrl *controllers.Controllers, cfg *config.Config, zlog *zap.Logger) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Middleware
	r.Use(authmiddleware.RequestLogger(zlog))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second)) // 60 second timeout for OAuth callbacks
	r.Use(chimiddleware.Compress(5))

	// Session middleware
	sessionHandler, err := session.Sessioner(session.Options{
		Provider:       "memory",
		ProviderConfig: "",
		CookieName:     "waitlist_session",
		Secure:         !cfg.OAuth2.Google.Insecure,
		Gclifetime:     3600, // Session lifetime in seconds
		Maxlifetime:    3600,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	r.Use(sessionHandler)

	r.Get("/", controllers.Navigator)
	r.Get("/health", controllers.Health)

	r.Route("/auth/google", func(r chi.Router) {
		r.Get("/authorize", ctrl.Auth.Authorize)
		r.Get("/connect", ctrl.Auth.Connect)
		r.Get("/joined", ctrl.Auth.Joined)
		r.Get("/revoke", ctrl.Auth.Revoke)
		r.Get("/clear", ctrl.Auth.Clear)
	})

	return r, nil
}
