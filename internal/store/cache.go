package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	swipeCacheKeyPrefix = "discovery:swiped:"
	swipeCacheTTL       = 6 * time.Hour
)

// SwipeCache keeps each user's swiped-job exclusion set in a Redis set so
// discovery does not hit the swipes collection on every call. Strictly
// best-effort: any cache failure falls through to the store, and the set
// is dropped whenever its write-through cannot be guaranteed.
type SwipeCache struct {
	rdb *redis.Client
}

// NewSwipeCache wraps a Redis client. A nil client disables caching; every
// lookup then misses.
func NewSwipeCache(rdb *redis.Client) *SwipeCache {
	return &SwipeCache{rdb: rdb}
}

func cacheKey(userID primitive.ObjectID) string {
	return swipeCacheKeyPrefix + userID.Hex()
}

// SwipedJobIDs returns the cached exclusion set and whether the cache held
// one. Only sets carrying the sentinel written by Store count as hits: a
// set without it was started by a bare Add after the full copy expired and
// holds an unknown fraction of the user's swipes, so serving it would let
// discovery re-offer already-swiped jobs. Malformed members likewise
// invalidate the whole set.
func (c *SwipeCache) SwipedJobIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, bool) {
	if c.rdb == nil {
		return nil, false
	}

	key := cacheKey(userID)
	members, err := c.rdb.SMembers(ctx, key).Result()
	if err != nil || len(members) == 0 {
		return nil, false
	}

	complete := false
	ids := make([]primitive.ObjectID, 0, len(members))
	for _, m := range members {
		if m == sentinelMember {
			complete = true
			continue
		}
		id, err := primitive.ObjectIDFromHex(m)
		if err != nil {
			slog.Warn("swipe cache holds malformed member, dropping set", "key", key, "member", m)
			c.Invalidate(ctx, userID)
			return nil, false
		}
		ids = append(ids, id)
	}
	if !complete {
		slog.Warn("swipe cache holds partial set, dropping", "key", key)
		c.Invalidate(ctx, userID)
		return nil, false
	}
	return ids, true
}

// sentinelMember keeps the set non-empty for users with no swipes yet, so
// an empty exclusion set is still a cache hit.
const sentinelMember = "-"

// Store replaces the user's cached exclusion set.
func (c *SwipeCache) Store(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) {
	if c.rdb == nil {
		return
	}

	key := cacheKey(userID)
	members := make([]interface{}, 0, len(ids)+1)
	members = append(members, sentinelMember)
	for _, id := range ids {
		members = append(members, id.Hex())
	}

	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, swipeCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("swipe cache store failed", "key", key, "err", err)
	}
}

// Add appends one freshly swiped job to the cached set. If the append
// cannot be confirmed the set is dropped so a stale copy can never
// re-offer the job. When the key has already expired the append starts a
// fresh set without the sentinel; SwipedJobIDs reads that as a miss, so a
// partial set is never served as a complete one. ExpireNX keeps such a
// remnant from outliving the normal TTL.
func (c *SwipeCache) Add(ctx context.Context, userID, jobID primitive.ObjectID) {
	if c.rdb == nil {
		return
	}

	key := cacheKey(userID)
	pipe := c.rdb.TxPipeline()
	pipe.SAdd(ctx, key, jobID.Hex())
	pipe.ExpireNX(ctx, key, swipeCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("swipe cache append failed, dropping set", "key", key, "err", err)
		c.Invalidate(ctx, userID)
	}
}

// Invalidate drops the user's cached set.
func (c *SwipeCache) Invalidate(ctx context.Context, userID primitive.ObjectID) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, cacheKey(userID)).Err(); err != nil {
		slog.Warn("swipe cache invalidate failed", "key", cacheKey(userID), "err", err)
	}
}
