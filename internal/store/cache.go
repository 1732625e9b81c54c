// internal/store/cache.go

// Package store persists run artifacts: a Redis cache holding the
// per-run stage outputs while a run is in flight, and a Postgres store
// archiving completed reports.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"research-pipeline/internal/common/database"
	"research-pipeline/internal/stage"
)

// StageCache keeps validated stage results keyed by run and stage so an
// interrupted run can be inspected and an interactive session can be
// resumed.
type StageCache struct {
	client *database.RedisClient
	ttl    time.Duration
}

func NewStageCache(client *database.RedisClient, ttl time.Duration) *StageCache {
	return &StageCache{client: client, ttl: ttl}
}

func cacheKey(runID string, name stage.Name) string {
	return fmt.Sprintf("run:%s:stage:%s", runID, name)
}

// Put stores one stage result under the run's keyspace.
func (c *StageCache) Put(ctx context.Context, runID string, name stage.Name, result stage.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal stage result: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(runID, name), data, c.ttl); err != nil {
		return fmt.Errorf("cache stage result: %w", err)
	}
	return nil
}

// Get loads one stage result. The second return is false when the stage
// has no cached result for this run.
func (c *StageCache) Get(ctx context.Context, runID string, name stage.Name) (stage.Result, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(runID, name))
	if err == redis.Nil {
		return stage.Result{}, false, nil
	}
	if err != nil {
		return stage.Result{}, false, fmt.Errorf("read stage result: %w", err)
	}

	var result stage.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return stage.Result{}, false, fmt.Errorf("decode stage result: %w", err)
	}
	return result, true, nil
}

// Clear drops every cached stage result for the run.
func (c *StageCache) Clear(ctx context.Context, runID string) error {
	keys, err := c.client.Keys(ctx, fmt.Sprintf("run:%s:stage:*", runID))
	if err != nil {
		return fmt.Errorf("list run keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...)
}
