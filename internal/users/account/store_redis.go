// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/userdir/internal/platform/constants"
)

// RedisReportCache implements [ReportCache] with a generation counter key and
// one JSON report key per generation. Superseded reports simply expire.
type RedisReportCache struct {
	client        redis.Cmdable
	generationKey string
}

// NewRedisReportCache creates a Redis-backed demographics cache.
func NewRedisReportCache(client redis.Cmdable) *RedisReportCache {
	return &RedisReportCache{
		client:        client,
		generationKey: constants.RedisPrefixDemographics + ":generation",
	}
}

func (cache *RedisReportCache) reportKey(generation int64) string {
	return constants.RedisPrefixDemographics + ":report:" + strconv.FormatInt(generation, 10)
}

// Generation returns the current write generation, 0 before the first write.
func (cache *RedisReportCache) Generation(context context.Context) (int64, error) {
	generation, err := cache.client.Get(context, cache.generationKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis_report_cache_generation_failed: %w", err)
	}
	return generation, nil
}

/*
Get loads the report filed under generation.

Returns:
  - *Report: The cached report, nil on a miss
  - bool: Whether the key was present
  - error: Connectivity or decoding failures
*/
func (cache *RedisReportCache) Get(context context.Context, generation int64) (*Report, bool, error) {
	payload, err := cache.client.Get(context, cache.reportKey(generation)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis_report_cache_get_failed: %w", err)
	}

	var report Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false, fmt.Errorf("redis_report_cache_decode_failed: %w", err)
	}
	return &report, true, nil
}

// Set files report under generation until ttl elapses.
func (cache *RedisReportCache) Set(context context.Context, generation int64, report *Report, ttl time.Duration) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("redis_report_cache_encode_failed: %w", err)
	}

	if err := cache.client.Set(context, cache.reportKey(generation), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_report_cache_set_failed: %w", err)
	}
	return nil
}

// Invalidate starts a new generation. Reports of earlier ones are unreachable.
func (cache *RedisReportCache) Invalidate(context context.Context) error {
	if err := cache.client.Incr(context, cache.generationKey).Err(); err != nil {
		return fmt.Errorf("redis_report_cache_invalidate_failed: %w", err)
	}
	return nil
}
