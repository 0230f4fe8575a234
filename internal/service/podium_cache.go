package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edulearn-io/edulearn-go-api/internal/dto"
)

// LeaderboardCache caches computed course podiums. Misses and backend
// failures degrade to recomputation, never to request failure.
type LeaderboardCache interface {
	GetCourse(ctx context.Context, courseID uint) ([]dto.PodiumRow, bool)
	SetCourse(ctx context.Context, courseID uint, rows []dto.PodiumRow)
	InvalidateCourse(ctx context.Context, courseID uint)
}

type redisLeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewLeaderboardCache builds a Redis-backed podium cache. A nil client yields
// a cache that never hits.
func NewLeaderboardCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) LeaderboardCache {
	return &redisLeaderboardCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "leaderboard_cache").Logger(),
	}
}

func podiumCacheKey(courseID uint) string {
	return fmt.Sprintf("podium:course:%d", courseID)
}

func (c *redisLeaderboardCache) GetCourse(ctx context.Context, courseID uint) ([]dto.PodiumRow, bool) {
	if c.client == nil {
		return nil, false
	}

	cached, err := c.client.Get(ctx, podiumCacheKey(courseID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("failed to read podium cache")
		}
		return nil, false
	}

	var rows []dto.PodiumRow
	if err := json.Unmarshal([]byte(cached), &rows); err != nil {
		return nil, false
	}

	return rows, true
}

func (c *redisLeaderboardCache) SetCourse(ctx context.Context, courseID uint, rows []dto.PodiumRow) {
	if c.client == nil {
		return
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, podiumCacheKey(courseID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to store podium cache")
	}
}

func (c *redisLeaderboardCache) InvalidateCourse(ctx context.Context, courseID uint) {
	if c.client == nil {
		return
	}

	if err := c.client.Del(ctx, podiumCacheKey(courseID)).Err(); err != nil {
		c.logger.Warn().Err(err).Uint("course_id", courseID).Msg("failed to invalidate podium cache")
	}
}
