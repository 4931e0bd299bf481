// Package directory provides session-directory adapters. The signaling
// core reads session handles through them exactly once per connection
// attempt and never caches the result.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pyth0nkod3r/coding-interview-platform/internal/domain"
)

const keyPrefix = "session:"

// sessionDoc mirrors the JSON document the session service keeps in Redis.
type sessionDoc struct {
	ID            string `json:"id"`
	InterviewerID string `json:"interviewerId"`
	CandidateID   string `json:"candidateId,omitempty"`
	Status        string `json:"status"`
}

type RedisDirectory struct {
	client *redis.Client
}

func NewRedisDirectory(ctx context.Context, addr, password string, db int) (*RedisDirectory, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisDirectory{client: client}, nil
}

func (d *RedisDirectory) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	raw, err := d.client.Get(ctx, keyPrefix+string(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var doc sessionDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &domain.Session{
		ID:            id,
		InterviewerID: domain.ParticipantID(doc.InterviewerID),
		CandidateID:   domain.ParticipantID(doc.CandidateID),
		Open:          doc.Status != "ended",
	}, nil
}

func (d *RedisDirectory) Close() error { return d.client.Close() }
