package session

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

type fakeKeyer struct{}

func (fakeKeyer) AccessSessionKey(accessID string) string { return "session:access:" + accessID }

func newTestManager() (*Manager, *fakeStore) {
	store := newFakeStore()
	return &Manager{store: store, keyer: fakeKeyer{}, ttl: time.Hour}, store
}

func TestGenerateStoresRefreshToken(t *testing.T) {
	mgr, store := newTestManager()

	accessID := NewAccessID()
	token, err := mgr.Generate(context.Background(), accessID)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty refresh token")
	}
	if stored := store.values["session:access:"+accessID]; stored != token {
		t.Fatalf("stored token %q does not match returned token %q", stored, token)
	}
}

func TestRotateInvalidatesOldSession(t *testing.T) {
	mgr, store := newTestManager()

	oldID := NewAccessID()
	oldToken, err := mgr.Generate(context.Background(), oldID)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	newID, newToken, err := mgr.Rotate(context.Background(), oldID, oldToken)
	if err != nil {
		t.Fatalf("Rotate returned error: %v", err)
	}
	if newID == oldID {
		t.Fatal("expected a new access id after rotation")
	}
	if newToken == oldToken {
		t.Fatal("expected a new refresh token after rotation")
	}
	if _, ok := store.values["session:access:"+oldID]; ok {
		t.Fatal("old session should have been deleted")
	}
	if stored := store.values["session:access:"+newID]; stored != newToken {
		t.Fatal("new session not stored")
	}
}

func TestRotateRejectsWrongToken(t *testing.T) {
	mgr, _ := newTestManager()

	accessID := NewAccessID()
	if _, err := mgr.Generate(context.Background(), accessID); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if _, _, err := mgr.Rotate(context.Background(), accessID, "forged-token"); err != ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRotateUnknownAccessID(t *testing.T) {
	mgr, _ := newTestManager()

	if _, _, err := mgr.Rotate(context.Background(), NewAccessID(), "anything"); err != ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRevokeAndHasSession(t *testing.T) {
	mgr, _ := newTestManager()

	accessID := NewAccessID()
	if _, err := mgr.Generate(context.Background(), accessID); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	ok, err := mgr.HasSession(context.Background(), accessID)
	if err != nil || !ok {
		t.Fatalf("expected active session, got ok=%v err=%v", ok, err)
	}

	if err := mgr.Revoke(context.Background(), accessID); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}

	ok, err = mgr.HasSession(context.Background(), accessID)
	if err != nil {
		t.Fatalf("HasSession returned error: %v", err)
	}
	if ok {
		t.Fatal("expected session to be revoked")
	}
}
