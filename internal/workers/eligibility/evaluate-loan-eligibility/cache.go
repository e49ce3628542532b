// internal/workers/eligibility/evaluate-loan-eligibility/cache.go
package evaluateloaneligibility

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"homebuyer-workers/internal/common/errors"
	"homebuyer-workers/internal/common/logger"
	"homebuyer-workers/internal/common/metrics"
	"homebuyer-workers/internal/eligibility"
)

const cacheKeyPrefix = "eligibility:result:"

// CacheKey fingerprints a profile. Struct encoding keeps field order fixed,
// so equal profiles always share a key.
func CacheKey(profile eligibility.UserProfile) (string, error) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	sum := sha256.Sum256(raw)
	return cacheKeyPrefix + hex.EncodeToString(sum[:]), nil
}

// resultCache stores evaluations in Redis. Failures are logged and treated
// as misses; they never fail a job.
type resultCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func newResultCache(client *redis.Client, ttl time.Duration, log logger.Logger) *resultCache {
	return &resultCache{client: client, ttl: ttl, logger: log}
}

func (c *resultCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// get returns the cached entry and the lookup result label.
func (c *resultCache) get(ctx context.Context, key string) (*cachedEvaluation, string) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		metrics.EligibilityCacheLookups.WithLabelValues(metrics.CacheMiss).Inc()
		return nil, metrics.CacheMiss
	}
	if err != nil {
		metrics.EligibilityCacheLookups.WithLabelValues(metrics.CacheError).Inc()
		c.unavailable("get", key, err)
		return nil, metrics.CacheError
	}

	var entry cachedEvaluation
	if err := json.Unmarshal(raw, &entry); err != nil {
		metrics.EligibilityCacheLookups.WithLabelValues(metrics.CacheError).Inc()
		c.unavailable("decode", key, err)
		return nil, metrics.CacheError
	}
	metrics.EligibilityCacheLookups.WithLabelValues(metrics.CacheHit).Inc()
	return &entry, metrics.CacheHit
}

func (c *resultCache) set(ctx context.Context, key string, entry *cachedEvaluation) {
	raw, err := json.Marshal(entry)
	if err != nil {
		c.unavailable("encode", key, err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.unavailable("set", key, err)
	}
}

func (c *resultCache) unavailable(op, key string, err error) {
	stdErr := errors.NewCacheUnavailableError(op, err)
	c.logger.Warn("result cache unavailable, bypassing", map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"operation": op,
		"cacheKey":  key,
		"error":     err.Error(),
	})
}
