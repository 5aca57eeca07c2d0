package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"manualpilot/internal/model"
)

// HistoryCache keeps per-session conversation turns in redis. Redis is the
// only store for history; an expired key simply starts the session fresh.
type HistoryCache struct {
	client     *redisv9.Client
	historyTTL time.Duration
	maxTurns   int
}

func NewHistoryCache(client *redisv9.Client, historyTTL time.Duration, maxTurns int) *HistoryCache {
	if historyTTL <= 0 {
		historyTTL = 30 * time.Minute
	}
	if maxTurns <= 0 {
		maxTurns = 20
	}
	return &HistoryCache{
		client:     client,
		historyTTL: historyTTL,
		maxTurns:   maxTurns,
	}
}

func (c *HistoryCache) GetHistory(ctx context.Context, sessionID string) ([]model.ConversationTurn, error) {
	raw, err := c.client.Get(ctx, c.historyKey(sessionID)).Result()
	if err == redisv9.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get history failed: %w", err)
	}

	var turns []model.ConversationTurn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, fmt.Errorf("unmarshal cached history failed: %w", err)
	}
	return turns, nil
}

// AppendTurns adds turns to the session history, trims it to the most recent
// maxTurns entries and refreshes the TTL.
func (c *HistoryCache) AppendTurns(ctx context.Context, sessionID string, turns ...model.ConversationTurn) error {
	history, err := c.GetHistory(ctx, sessionID)
	if err != nil {
		return err
	}
	history = append(history, turns...)
	if len(history) > c.maxTurns {
		history = history[len(history)-c.maxTurns:]
	}
	return c.SetHistory(ctx, sessionID, history)
}

func (c *HistoryCache) SetHistory(ctx context.Context, sessionID string, turns []model.ConversationTurn) error {
	payload, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal history cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.historyKey(sessionID), payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) DeleteHistory(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, c.historyKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) historyKey(sessionID string) string {
	return fmt.Sprintf("chat:history:%s", sessionID)
}
