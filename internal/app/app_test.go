package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"clipshare/pkg/storage"
	"clipshare/pkg/store"
)

// captureNotifier records the last code sent per email.
type captureNotifier struct {
	mu    sync.Mutex
	codes map[string]string
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{codes: make(map[string]string)}
}

func (n *captureNotifier) SendOneTimeCode(_ context.Context, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes[email] = code
	return nil
}

func (n *captureNotifier) lastCode(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[email]
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) (bool, error) { return false, nil }

type testEnv struct {
	app      *App
	store    *store.MemoryStore
	objects  *storage.MemoryObjectStore
	notifier *captureNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dataStore := store.NewMemoryStore()
	objects := storage.NewMemoryObjectStore()
	notifier := newCaptureNotifier()
	a, err := New(Config{
		JWTSecret:        "test-secret",
		AccessTokenTTL:   time.Minute,
		ContentTTL:       6 * 24 * time.Hour,
		MaxImagesPerPost: 5,
		Store:            dataStore,
		Objects:          objects,
		Notifier:         notifier,
	})
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	return &testEnv{app: a, store: dataStore, objects: objects, notifier: notifier}
}
