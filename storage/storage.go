package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xlangai/waitlist/config"
	"github.com/xlangai/waitlist/models"
)

// Waitlist is the durable set of emails that have completed sign-in at
// least once.
type Waitlist interface {
	// Find reports whether the email has already joined. Absence is not an
	// error.
	Find(ctx context.Context, email string) (bool, error)

	// Insert records the profile if its email is not already present and
	// reports whether this call created the entry. Concurrent inserts for
	// the same email create exactly one entry.
	Insert(ctx context.Context, profile *models.UserProfile) (bool, error)
}

// New builds the waitlist store selected by configuration. The backend is
// chosen once at startup and never switched at runtime.
func New(ctx context.Context, cfg *config.StorageConfig, log *zap.Logger) (Waitlist, error) {
	var store Waitlist
	var err error

	switch cfg.Backend {
	case config.BackendMemory:
		store, err = NewMemoryStore(cfg.WaitlistFile)
	case config.BackendMongo:
		store, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.BackendSQLite:
		store, err = NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Info("waitlist storage initialized", zap.String("backend", string(cfg.Backend)))
	return store, nil
}
