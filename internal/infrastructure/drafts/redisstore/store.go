package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

const keyPrefix = "intake:draft:"

// releaseScript deletes the lock only when it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Store keeps drafts in Redis so several API replicas can share them.
type Store struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func New(client *redis.Client, ttl, lockTTL time.Duration) *Store {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &Store{client: client, ttl: ttl, lockTTL: lockTTL}
}

// Connect builds a client and verifies the server answers.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  addr,
		DB:                    db,
		ContextTimeoutEnabled: true,
		ReadTimeout:           5 * time.Second,
		WriteTimeout:          5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// record keeps the document bytes that the draft's JSON form omits.
type record struct {
	Draft      domain.Draft `json:"draft"`
	SourceData []byte       `json:"source_data,omitempty"`
}

func draftKey(id string) string { return keyPrefix + id }
func lockKey(id string) string  { return keyPrefix + id + ":lock" }

func (s *Store) Save(ctx context.Context, draft *domain.Draft) error {
	if draft == nil || draft.ID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "save draft", fmt.Errorf("draft id is required"))
	}
	rec := record{Draft: *draft}
	if draft.Source != nil {
		rec.SourceData = draft.Source.Data
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(draft.ID), raw, s.ttl).Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "save draft", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Draft, error) {
	raw, err := s.client.Get(ctx, draftKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.WrapError(domain.ErrDraftNotFound, "get draft", fmt.Errorf("id %q", id))
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "get draft", err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal draft: %w", err)
	}
	draft := rec.Draft
	if draft.Source != nil {
		draft.Source.Data = rec.SourceData
	}
	if draft.Departments == nil {
		draft.Departments = []domain.Department{}
	}
	if draft.Categories == nil {
		draft.Categories = []string{}
	}
	return &draft, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, draftKey(id)).Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "delete draft", err)
	}
	return nil
}

// Lock takes a SET NX PX token. The lock expires on its own if the holder dies.
func (s *Store) Lock(ctx context.Context, id string) (func(), error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, lockKey(id), token, s.lockTTL).Result()
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "lock draft", err)
	}
	if !ok {
		return nil, domain.WrapError(domain.ErrBusy, "lock draft", fmt.Errorf("id %q", id))
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, s.client, []string{lockKey(id)}, token).Err(); err != nil {
			slog.Warn("draft_unlock_failed", "draft_id", id, "error", err)
		}
	}, nil
}
