package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 50

// RedisStore keeps each session as JSON under session:{id} and indexes ids
// per user in the set session:user:{username}.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return "session:" + id
}

func userKey(username string) string {
	return "session:user:" + username
}

func (s *RedisStore) Create(ctx context.Context, username string) (*State, error) {
	now := time.Now().UTC()
	st := &State{ID: uuid.NewString(), Username: username, CreatedAt: now, UpdatedAt: now}
	data, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(st.ID), data, s.ttl)
	pipe.SAdd(ctx, userKey(username), st.ID)
	pipe.Expire(ctx, userKey(username), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return st, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*State, error) {
	data, err := s.client.GetEx(ctx, sessionKey(id), s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &st, nil
}

// Update runs fn inside WATCH so concurrent writers to one session retry
// instead of losing writes.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*State)) (*State, error) {
	key := sessionKey(id)
	var out *State
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var st State
		if err := json.Unmarshal(data, &st); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		fn(&st)
		st.ID = id
		st.UpdatedAt = time.Now().UTC()
		encoded, err := json.Marshal(&st)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		if err == nil {
			out = &st
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("update session %s: too much contention", id)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	st, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, userKey(st.Username), id)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) DeleteUser(ctx context.Context, username string) error {
	ids, err := s.client.SMembers(ctx, userKey(username)).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userKey(username))
	return s.client.Del(ctx, keys...).Err()
}
