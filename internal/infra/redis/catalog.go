package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiniela-scoring-service/internal/domain"
)

// CatalogLoader fetches a race's active questions from a backing store.
type CatalogLoader interface {
	LoadRaceQuestions(ctx context.Context, raceID string) ([]domain.Question, error)
}

// Catalog caches question definitions in Redis (hash per race) and falls back
// to a loader on cache miss. Questions are stored as:
//
//	HSET race:{raceID}:questions {questionID} {question JSON}
//
// Official and participant answers are deliberately not cached: a recompute
// must always see their current state.
type Catalog struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalog(client *redis.Client, loader CatalogLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Catalog) ListActiveQuestions(ctx context.Context, raceID string) ([]domain.Question, error) {
	key := c.questionsKey(raceID)

	cached, err := c.client.HGetAll(ctx, key).Result()
	if err == nil && len(cached) > 0 {
		return decodeQuestions(cached)
	}

	result, err, _ := c.sf.Do(raceID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := c.client.HGetAll(ctx, key).Result()
		if err == nil && len(cached) > 0 {
			return decodeQuestions(cached)
		}

		questions, err := c.loader.LoadRaceQuestions(ctx, raceID)
		if err != nil {
			return nil, err
		}

		ttl := c.ttlWithJitter()
		pipe := c.client.Pipeline()
		for _, q := range questions {
			data, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("marshal question %s: %w", q.ID, err)
			}
			pipe.HSet(ctx, key, q.ID, string(data))
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops a race's cached questions so the next recompute reloads
// them, e.g. after an admin edits the quiniela.
func (c *Catalog) Invalidate(ctx context.Context, raceID string) error {
	return c.client.Del(ctx, c.questionsKey(raceID)).Err()
}

func (c *Catalog) questionsKey(raceID string) string {
	return "race:" + raceID + ":questions"
}

func decodeQuestions(cached map[string]string) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, len(cached))
	for id, raw := range cached {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, fmt.Errorf("unmarshal cached question %s: %w", id, err)
		}
		questions = append(questions, q)
	}
	// Hash iteration order is random; keep the set deterministic.
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions, nil
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
