package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/harborcx/agentdesk-backend/internal/domain"
	"github.com/harborcx/agentdesk-backend/internal/platform/logger"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationStore holds live conversation transcripts for the agent desk.
// Transcripts are append-only and short-lived; they exist so the insights
// endpoint can be driven by conversation id instead of re-posting the full
// history each time.
type ConversationStore interface {
	Create(ctx context.Context) (string, error)
	Append(ctx context.Context, id string, turn domain.Turn) error
	History(ctx context.Context, id string) ([]domain.Turn, error)
}

// NewConversationStore picks redis when an address is configured, otherwise
// an in-process store. Both behave identically at the interface.
func NewConversationStore(log *logger.Logger, redisAddr string, ttl time.Duration) ConversationStore {
	if redisAddr == "" {
		log.Info("conversation store: in-memory")
		return newMemoryConversationStore(ttl)
	}
	log.Info("conversation store: redis", "addr", redisAddr)
	return &redisConversationStore{
		client: redis.NewClient(&redis.Options{Addr: redisAddr}),
		ttl:    ttl,
	}
}

// ---------------- redis ----------------

type redisConversationStore struct {
	client *redis.Client
	ttl    time.Duration
}

func convKey(id string) string { return "conv:" + id }

func (s *redisConversationStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	// Seed with an empty marker so History can distinguish "new" from "missing".
	if err := s.client.Set(ctx, convKey(id)+":exists", "1", s.ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *redisConversationStore) Append(ctx context.Context, id string, turn domain.Turn) error {
	ok, err := s.client.Exists(ctx, convKey(id)+":exists").Result()
	if err != nil {
		return err
	}
	if ok == 0 {
		return ErrConversationNotFound
	}
	raw, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, convKey(id), raw)
	pipe.Expire(ctx, convKey(id), s.ttl)
	pipe.Expire(ctx, convKey(id)+":exists", s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *redisConversationStore) History(ctx context.Context, id string) ([]domain.Turn, error) {
	ok, err := s.client.Exists(ctx, convKey(id)+":exists").Result()
	if err != nil {
		return nil, err
	}
	if ok == 0 {
		return nil, ErrConversationNotFound
	}
	items, err := s.client.LRange(ctx, convKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	turns := make([]domain.Turn, 0, len(items))
	for _, item := range items {
		var t domain.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// ---------------- in-memory ----------------

type memoryConversation struct {
	turns   []domain.Turn
	touched time.Time
}

type memoryConversationStore struct {
	mu    sync.RWMutex
	ttl   time.Duration
	conns map[string]*memoryConversation
}

func newMemoryConversationStore(ttl time.Duration) *memoryConversationStore {
	return &memoryConversationStore{ttl: ttl, conns: map[string]*memoryConversation{}}
}

func (s *memoryConversationStore) Create(_ context.Context) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	s.evictExpiredLocked()
	s.conns[id] = &memoryConversation{touched: time.Now()}
	s.mu.Unlock()
	return id, nil
}

func (s *memoryConversationStore) Append(_ context.Context, id string, turn domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[id]
	if !ok {
		return ErrConversationNotFound
	}
	c.turns = append(c.turns, turn)
	c.touched = time.Now()
	return nil
}

func (s *memoryConversationStore) History(_ context.Context, id string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conns[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	out := make([]domain.Turn, len(c.turns))
	copy(out, c.turns)
	return out, nil
}

func (s *memoryConversationStore) evictExpiredLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.ttl)
	for id, c := range s.conns {
		if c.touched.Before(cutoff) {
			delete(s.conns, id)
		}
	}
}
