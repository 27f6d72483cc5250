// Package redis implements the Redis caching layer for the readiness engine.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/venturehub/readiness-hub/internal/domain/scoring"
	"github.com/venturehub/readiness-hub/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE CACHE ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrScoreBoardEmpty is returned when the score board has no entries.
	ErrScoreBoardEmpty = errors.New("score_cache: score board is empty")

	// ErrScoreNotCached is returned when an assessment has no cached score.
	ErrScoreNotCached = errors.New("score_cache: assessment not in cache")
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE CACHE
// ══════════════════════════════════════════════════════════════════════════════

// BoardEntry is one row of the cached score board.
type BoardEntry struct {
	// AssessmentID identifies the assessment.
	AssessmentID string `json:"assessment_id"`

	// TotalScore is the current weighted total.
	TotalScore int `json:"total_score"`

	// Rank is the position on the board (1-based, highest total first).
	Rank int64 `json:"rank"`
}

// ScoreCache keeps the current total of every scored assessment in a
// Redis sorted set, giving the read side O(log N) rank queries without
// touching PostgreSQL. Writes go through a circuit breaker: a down Redis
// degrades reads to the database, it never blocks scoring.
//
// Layout:
//   - Sorted set "score:board" maps assessmentID -> current total
//   - String "score:{assessmentID}" holds the cached result payload
type ScoreCache struct {
	cache   *Cache
	breaker *circuitbreaker.CircuitBreaker
}

// keyScoreBoard is the sorted set of current totals.
const keyScoreBoard = "score:board"

// NewScoreCache creates a ScoreCache on top of a connected Cache.
func NewScoreCache(cache *Cache) *ScoreCache {
	return &ScoreCache{
		cache: cache,
		breaker: circuitbreaker.New("score-cache",
			circuitbreaker.WithFailureThreshold(5),
			circuitbreaker.WithTimeout(15*time.Second),
		),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Write side (driven by scoring events)
// ─────────────────────────────────────────────────────────────────────────────

// SetCurrent stores the current total for an assessment on the board.
func (s *ScoreCache) SetCurrent(ctx context.Context, assessmentID string, totalScore int) error {
	if assessmentID == "" {
		return ErrCacheKeyEmpty
	}

	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.cache.Client().ZAdd(ctx, keyScoreBoard, redis.Z{
			Score:  float64(totalScore),
			Member: assessmentID,
		}).Err()
	})
}

// InvalidateScore drops any cached payload for an assessment and removes
// it from the board. Called when a result is superseded; the next write
// re-adds the assessment with its new total.
func (s *ScoreCache) InvalidateScore(ctx context.Context, assessmentID string) error {
	if assessmentID == "" {
		return ErrCacheKeyEmpty
	}

	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		pipe := s.cache.Client().Pipeline()
		pipe.ZRem(ctx, keyScoreBoard, assessmentID)
		pipe.Del(ctx, ScoreKey(assessmentID))
		_, err := pipe.Exec(ctx)
		return err
	})
}

// CacheResult stores a full score result payload for fast reads.
func (s *ScoreCache) CacheResult(ctx context.Context, result *scoring.ScoreResult) error {
	if result == nil || result.AssessmentID == "" {
		return ErrCacheKeyEmpty
	}

	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.cache.Set(ctx, ScoreKey(result.AssessmentID), result, TTLScoreCache)
	})
}

// Rebuild replaces the whole board from the authoritative store. Used by
// the cache-rebuild job after bulk re-scores.
func (s *ScoreCache) Rebuild(ctx context.Context, results []*scoring.ScoreResult) error {
	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		pipe := s.cache.Client().Pipeline()
		pipe.Del(ctx, keyScoreBoard)

		members := make([]redis.Z, 0, len(results))
		for _, r := range results {
			members = append(members, redis.Z{
				Score:  float64(r.TotalScore),
				Member: r.AssessmentID,
			})
		}
		if len(members) > 0 {
			pipe.ZAdd(ctx, keyScoreBoard, members...)
		}

		_, err := pipe.Exec(ctx)
		return err
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Read side
// ─────────────────────────────────────────────────────────────────────────────

// GetResult returns a cached score result payload.
// Returns ErrScoreNotCached on a miss.
func (s *ScoreCache) GetResult(ctx context.Context, assessmentID string) (*scoring.ScoreResult, error) {
	var result scoring.ScoreResult
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.cache.Get(ctx, ScoreKey(assessmentID), &result)
	})
	if errors.Is(err, ErrCacheMiss) {
		return nil, ErrScoreNotCached
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// TopScores returns the highest-scoring assessments, best first.
func (s *ScoreCache) TopScores(ctx context.Context, limit int) ([]BoardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	var entries []BoardEntry
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		zs, err := s.cache.Client().ZRevRangeWithScores(ctx, keyScoreBoard, 0, int64(limit-1)).Result()
		if err != nil {
			return err
		}
		if len(zs) == 0 {
			return ErrScoreBoardEmpty
		}

		entries = make([]BoardEntry, 0, len(zs))
		for i, z := range zs {
			id, ok := z.Member.(string)
			if !ok {
				return fmt.Errorf("score_cache: unexpected member type %T", z.Member)
			}
			entries = append(entries, BoardEntry{
				AssessmentID: id,
				TotalScore:   int(z.Score),
				Rank:         int64(i + 1),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Rank returns an assessment's 1-based rank and total on the board.
func (s *ScoreCache) Rank(ctx context.Context, assessmentID string) (*BoardEntry, error) {
	var entry BoardEntry
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		rank, err := s.cache.Client().ZRevRank(ctx, keyScoreBoard, assessmentID).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrScoreNotCached
			}
			return err
		}

		total, err := s.cache.Client().ZScore(ctx, keyScoreBoard, assessmentID).Result()
		if err != nil {
			return err
		}

		entry = BoardEntry{
			AssessmentID: assessmentID,
			TotalScore:   int(total),
			Rank:         rank + 1,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// Size returns the number of assessments on the board.
func (s *ScoreCache) Size(ctx context.Context) (int64, error) {
	var n int64
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		count, err := s.cache.Client().ZCard(ctx, keyScoreBoard).Result()
		if err != nil {
			return err
		}
		n = count
		return nil
	})
	return n, err
}
