package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "waitlist.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreFindInsertFind(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	found, err := store.Find(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, found)

	created, err := store.Insert(ctx, testProfile("a@x.com"))
	require.NoError(t, err)
	assert.True(t, created)

	found, err = store.Find(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSQLiteStoreInsertIsIdempotent(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	created, err := store.Insert(ctx, testProfile("a@x.com"))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.Insert(ctx, testProfile("a@x.com"))
	require.NoError(t, err)
	assert.False(t, created)

	// The primary key keeps it at exactly one row.
	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM waitlist WHERE email = ?`, "a@x.com").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSQLiteStoreStoresProfileFields(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	_, err := store.Insert(ctx, testProfile("a@x.com"))
	require.NoError(t, err)

	var userID, name string
	var verified bool
	err = store.db.QueryRow(
		`SELECT user_id, name, verified_email FROM waitlist WHERE email = ?`, "a@x.com",
	).Scan(&userID, &name, &verified)
	require.NoError(t, err)

	assert.Equal(t, "100000000000000000001", userID)
	assert.Equal(t, "Ada X", name)
	assert.True(t, verified)
}

func TestSQLiteStoreEmailsAreCaseSensitive(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	// Emails are recorded exactly as the provider supplied them.
	created, err := store.Insert(ctx, testProfile("A@x.com"))
	require.NoError(t, err)
	assert.True(t, created)

	found, err := store.Find(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, found)
}
