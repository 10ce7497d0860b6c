package redisad

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sunflower_web/internal/session"
)

// Sessions is a session.Repository backed by Redis; every save refreshes the TTL.
type Sessions struct {
	c   *redis.Client
	ttl time.Duration
}

func NewSessions(c *redis.Client, ttl time.Duration) *Sessions {
	return &Sessions{c: c, ttl: ttl}
}

func sessionKey(id string) string { return "sunflower:session:" + id }

func (s *Sessions) Load(ctx context.Context, id string) (session.Session, bool, error) {
	b, err := s.c.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return session.Session{}, false, nil
	}
	if err != nil {
		return session.Session{}, false, fmt.Errorf("load session: %w", err)
	}
	var out session.Session
	if err := json.Unmarshal(b, &out); err != nil {
		return session.Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	return out, true, nil
}

func (s *Sessions) Save(ctx context.Context, id string, sess session.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.c.Set(ctx, sessionKey(id), b, s.ttl).Err()
}

func (s *Sessions) Delete(ctx context.Context, id string) error {
	return s.c.Del(ctx, sessionKey(id)).Err()
}
