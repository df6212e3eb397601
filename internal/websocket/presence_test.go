package chatws

import (
	"context"
	"testing"

	"github.com/arman-s/GymAppBack/internal/models"
)

type recordingPresenceStore struct {
	onlineCalls  []int64
	offlineCalls []int64
}

func (s *recordingPresenceStore) SetOnline(_ context.Context, userID int64, _ string, _ string) error {
	s.onlineCalls = append(s.onlineCalls, userID)
	return nil
}

func (s *recordingPresenceStore) SetOffline(_ context.Context, userID int64, _ string) error {
	s.offlineCalls = append(s.offlineCalls, userID)
	return nil
}

func TestRegistryFirstSessionFlag(t *testing.T) {
	store := &recordingPresenceStore{}
	registry := NewRegistry(store)
	ctx := context.Background()

	if first := registry.MarkOnline(ctx, 5, models.SenderTypeClient, "Dana Reed", "sess-a"); !first {
		t.Fatal("expected first session to report first=true")
	}
	if first := registry.MarkOnline(ctx, 5, models.SenderTypeClient, "Dana Reed", "sess-b"); first {
		t.Fatal("expected second session to report first=false")
	}
	if len(store.onlineCalls) != 2 {
		t.Fatalf("expected 2 persisted online writes, got %d", len(store.onlineCalls))
	}
	if !registry.IsOnline(5) {
		t.Fatal("expected user 5 online")
	}
}

func TestRegistryRemoveReportsLastSession(t *testing.T) {
	store := &recordingPresenceStore{}
	registry := NewRegistry(store)
	ctx := context.Background()

	registry.MarkOnline(ctx, 5, models.SenderTypeClient, "Dana Reed", "sess-a")
	registry.MarkOnline(ctx, 5, models.SenderTypeClient, "Dana Reed", "sess-b")

	userID, userType, last := registry.Remove("sess-a")
	if userID != 5 || userType != models.SenderTypeClient {
		t.Fatalf("unexpected identity (%d, %s)", userID, userType)
	}
	if last {
		t.Fatal("expected last=false with another session alive")
	}
	if !registry.IsOnline(5) {
		t.Fatal("expected user 5 still online")
	}

	_, _, last = registry.Remove("sess-b")
	if !last {
		t.Fatal("expected last=true on final session")
	}
	if registry.IsOnline(5) {
		t.Fatal("expected user 5 offline")
	}

	// Remove does not persist; the gateway flips the row afterwards.
	if len(store.offlineCalls) != 0 {
		t.Fatalf("expected no offline writes from Remove, got %d", len(store.offlineCalls))
	}
	if !registry.MarkOffline(ctx, 5, models.SenderTypeClient) {
		t.Fatal("expected MarkOffline to persist with no live session")
	}
	if len(store.offlineCalls) != 1 {
		t.Fatalf("expected 1 offline write, got %d", len(store.offlineCalls))
	}
}

func TestRegistryMarkOfflineSkipsWhenSessionReconnected(t *testing.T) {
	store := &recordingPresenceStore{}
	registry := NewRegistry(store)
	ctx := context.Background()

	registry.MarkOnline(ctx, 5, models.SenderTypeClient, "Dana Reed", "sess-a")
	_, _, last := registry.Remove("sess-a")
	if !last {
		t.Fatal("expected last=true")
	}

	// Another device connects before the offline write lands.
	registry.MarkOnline(ctx, 5, models.SenderTypeClient, "Dana Reed", "sess-b")

	if registry.MarkOffline(ctx, 5, models.SenderTypeClient) {
		t.Fatal("expected MarkOffline to be skipped while a session is live")
	}
	if len(store.offlineCalls) != 0 {
		t.Fatalf("expected no offline write, got %d", len(store.offlineCalls))
	}
	if !registry.IsOnline(5) {
		t.Fatal("expected user 5 still online")
	}
}

func TestRegistryRefreshTouchesOnlyLiveSessions(t *testing.T) {
	store := &recordingPresenceStore{}
	registry := NewRegistry(store)
	ctx := context.Background()

	registry.MarkOnline(ctx, 5, models.SenderTypeClient, "Dana Reed", "sess-a")
	registry.Refresh(ctx, "sess-a")
	registry.Refresh(ctx, "gone")

	if len(store.onlineCalls) != 2 {
		t.Fatalf("expected 2 online writes (connect + refresh), got %d", len(store.onlineCalls))
	}
}

func TestRegistryRemoveUnknownSession(t *testing.T) {
	registry := NewRegistry(&recordingPresenceStore{})

	if _, _, last := registry.Remove("missing"); last {
		t.Fatal("expected unknown session to report last=false")
	}
}

func TestRegistryListOnline(t *testing.T) {
	registry := NewRegistry(&recordingPresenceStore{})
	ctx := context.Background()

	registry.MarkOnline(ctx, 5, models.SenderTypeClient, "Dana Reed", "sess-a")
	registry.MarkOnline(ctx, 9, models.SenderTypeTrainer, "Sam Cole", "sess-b")

	online := registry.ListOnline()
	if len(online) != 2 {
		t.Fatalf("expected 2 online users, got %d", len(online))
	}
	seen := map[int64]bool{}
	for _, id := range online {
		seen[id] = true
	}
	if !seen[5] || !seen[9] {
		t.Fatalf("expected users 5 and 9, got %v", online)
	}
}
