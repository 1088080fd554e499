package storage

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/xlangai/waitlist/models"
)

// MemoryStore keeps the waitlist as an in-memory set mirrored to a flat
// text file, one email per line. Every insert rewrites the whole file
// before returning, so a successful insert is durable.
type MemoryStore struct {
	path string

	mu     sync.RWMutex
	emails map[string]struct{}
}

// NewMemoryStore loads the email set from path. A missing file means an
// empty waitlist; the file (and its directory) is created eagerly so the
// first insert cannot fail on a missing directory.
func NewMemoryStore(path string) (*MemoryStore, error) {
	store := &MemoryStore{
		path:   path,
		emails: make(map[string]struct{}),
	}

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create waitlist directory: %w", err)
			}
		}
		if err := store.flush(); err != nil {
			return nil, err
		}
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open waitlist file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if email := strings.TrimSpace(scanner.Text()); email != "" {
			store.emails[email] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read waitlist file: %w", err)
	}

	return store, nil
}

// Find reports set membership; it never touches the file.
func (s *MemoryStore) Find(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.emails[email]
	return ok, nil
}

// Insert adds the email to the set and synchronously rewrites the file.
// The membership check and the insert happen under one lock, so two
// concurrent joins for the same email create the entry once.
func (s *MemoryStore) Insert(_ context.Context, profile *models.UserProfile) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[profile.Email]; ok {
		return false, nil
	}

	s.emails[profile.Email] = struct{}{}
	if err := s.flush(); err != nil {
		// Keep the set consistent with the file.
		delete(s.emails, profile.Email)
		return false, err
	}
	return true, nil
}

// flush rewrites the whole file from the set. Callers must hold the write
// lock (or own the store exclusively, as during construction).
func (s *MemoryStore) flush() error {
	emails := make([]string, 0, len(s.emails))
	for email := range s.emails {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	if err := os.WriteFile(s.path, []byte(strings.Join(emails, "\n")), 0o644); err != nil {
		return fmt.Errorf("failed to write waitlist file: %w", err)
	}
	return nil
}
