package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harborcx/agentdesk-backend/internal/domain"
)

func TestMemoryStore_AppendAndHistoryInOrder(t *testing.T) {
	s := newMemoryConversationStore(time.Hour)
	ctx := context.Background()

	id, err := s.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	turns := []domain.Turn{
		{Role: domain.RoleAgent, Content: "Hello"},
		{Role: domain.RoleCustomer, Content: "Hi"},
		{Role: domain.RoleAgent, Content: "How can I help?"},
	}
	for _, turn := range turns {
		if err := s.Append(ctx, id, turn); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := s.History(ctx, id)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != len(turns) {
		t.Fatalf("expected %d turns, got %d", len(turns), len(got))
	}
	for i := range turns {
		if got[i] != turns[i] {
			t.Fatalf("order lost at %d: %+v", i, got[i])
		}
	}
}

func TestMemoryStore_UnknownConversation(t *testing.T) {
	s := newMemoryConversationStore(time.Hour)
	ctx := context.Background()

	if err := s.Append(ctx, "missing", domain.Turn{Role: domain.RoleAgent, Content: "x"}); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
	if _, err := s.History(ctx, "missing"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestMemoryStore_HistoryReturnsCopy(t *testing.T) {
	s := newMemoryConversationStore(time.Hour)
	ctx := context.Background()

	id, _ := s.Create(ctx)
	_ = s.Append(ctx, id, domain.Turn{Role: domain.RoleAgent, Content: "original"})

	got, _ := s.History(ctx, id)
	got[0].Content = "mutated"

	again, _ := s.History(ctx, id)
	if again[0].Content != "original" {
		t.Fatalf("history must not expose internal state")
	}
}

func TestMemoryStore_ExpiredConversationsEvictedOnCreate(t *testing.T) {
	s := newMemoryConversationStore(time.Millisecond)
	ctx := context.Background()

	old, _ := s.Create(ctx)
	time.Sleep(5 * time.Millisecond)
	_, _ = s.Create(ctx)

	if _, err := s.History(ctx, old); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expired conversation should be gone, got %v", err)
	}
}
