package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xlangai/waitlist/models"
)

func testProfile(email string) *models.UserProfile {
	return &models.UserProfile{
		ID:            "100000000000000000001",
		Email:         email,
		VerifiedEmail: true,
		Name:          "Ada X",
		GivenName:     "Ada",
	}
}

func TestMemoryStoreFindInsertFind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waitlist.emails.txt")
	store, err := NewMemoryStore(path)
	require.NoError(t, err)

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

func TestMemoryStoreInsertIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waitlist.emails.txt")
	store, err := NewMemoryStore(path)
	require.NoError(t, err)

	ctx := context.Background()

	created, err := store.Insert(ctx, testProfile("a@x.com"))
	require.NoError(t, err)
	assert.True(t, created)

	// Only the first insert creates the entry.
	created, err = store.Insert(ctx, testProfile("a@x.com"))
	require.NoError(t, err)
	assert.False(t, created)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", string(content))
}

func TestMemoryStorePersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waitlist.emails.txt")
	store, err := NewMemoryStore(path)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = store.Insert(ctx, testProfile("a@x.com"))
	require.NoError(t, err)
	_, err = store.Insert(ctx, testProfile("b@x.com"))
	require.NoError(t, err)

	// A fresh store over the same file sees both entries.
	reloaded, err := NewMemoryStore(path)
	require.NoError(t, err)

	for _, email := range []string{"a@x.com", "b@x.com"} {
		found, err := reloaded.Find(ctx, email)
		require.NoError(t, err)
		assert.True(t, found, email)
	}

	found, err := reloaded.Find(ctx, "c@x.com")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database", "waitlist.emails.txt")
	_, err := NewMemoryStore(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestMemoryStoreConcurrentInsertCreatesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waitlist.emails.txt")
	store, err := NewMemoryStore(path)
	require.NoError(t, err)

	ctx := context.Background()

	var wg sync.WaitGroup
	var createdCount int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := store.Insert(ctx, testProfile("a@x.com"))
			assert.NoError(t, err)
			if created {
				atomic.AddInt32(&createdCount, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), createdCount)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", string(content))
}
