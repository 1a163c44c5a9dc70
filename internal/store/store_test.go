package store

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func saved(id string, offset int) SavedScenario {
	return SavedScenario{
		ID:        id,
		Name:      "scenario-" + id,
		CreatedAt: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(offset) * time.Minute),
	}
}

func TestMemoryStoreAddAndList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Add(ctx, "alice", saved("a", 0)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Add(ctx, "alice", saved("b", 1)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Add(ctx, "bob", saved("c", 2)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	alice, err := s.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(alice) != 2 || alice[0].ID != "a" || alice[1].ID != "b" {
		t.Errorf("alice list = %+v, expected [a b] oldest first", alice)
	}

	bob, err := s.List(ctx, "bob")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(bob) != 1 || bob[0].ID != "c" {
		t.Errorf("bob list = %+v, expected [c]", bob)
	}
}

func TestMemoryStoreTrimsOldest(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < s.maxPerUser+3; i++ {
		if err := s.Add(ctx, "alice", saved(fmt.Sprintf("s%02d", i), i)); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	list, err := s.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != s.maxPerUser {
		t.Fatalf("expected %d entries after trim, got %d", s.maxPerUser, len(list))
	}
	if list[0].ID != "s03" {
		t.Errorf("oldest surviving entry = %s, expected s03", list[0].ID)
	}
	if list[len(list)-1].ID != fmt.Sprintf("s%02d", s.maxPerUser+2) {
		t.Errorf("newest entry = %s, expected s%02d", list[len(list)-1].ID, s.maxPerUser+2)
	}
}

func TestMemoryStoreRemoveAndClear(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		if err := s.Add(ctx, "alice", saved(id, i)); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	if err := s.Remove(ctx, "alice", "b"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	list, _ := s.List(ctx, "alice")
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "c" {
		t.Errorf("list after remove = %+v, expected [a c]", list)
	}

	// Removing an unknown id is a no-op.
	if err := s.Remove(ctx, "alice", "nope"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	list, _ = s.List(ctx, "alice")
	if len(list) != 2 {
		t.Errorf("remove of unknown id changed the list: %+v", list)
	}

	if err := s.Clear(ctx, "alice"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	list, _ = s.List(ctx, "alice")
	if len(list) != 0 {
		t.Errorf("list after clear = %+v, expected empty", list)
	}
}

func TestMemoryStoreEmptyToken(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Add(ctx, "", saved("a", 0)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	list, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if list != nil {
		t.Errorf("empty-token list = %+v, expected nil", list)
	}
	if err := s.Remove(ctx, "", "a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := s.Clear(ctx, ""); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
}
