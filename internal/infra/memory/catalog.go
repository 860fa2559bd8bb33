package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiniela-scoring-service/internal/domain"
)

// CatalogLoader fetches a race's active questions from a backing store.
type CatalogLoader interface {
	LoadRaceQuestions(ctx context.Context, raceID string) ([]domain.Question, error)
}

// CachedCatalog caches question sets with TTL to avoid repeated DB hits while
// an admin triggers several recomputes in a row.
type CachedCatalog struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewCachedCatalog(loader CatalogLoader, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuestions),
	}
}

func (c *CachedCatalog) ListActiveQuestions(ctx context.Context, raceID string) ([]domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[raceID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(raceID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[raceID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.loader.LoadRaceQuestions(ctx, raceID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[raceID] = cachedQuestions{
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops a race's cached questions, e.g. after an admin edit.
func (c *CachedCatalog) Invalidate(raceID string) {
	c.mu.Lock()
	delete(c.cache, raceID)
	c.mu.Unlock()
}

func (c *CachedCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticCatalog is a simple loader backed by in-memory maps (useful for tests
// and demos). It serves only questions flagged active.
type StaticCatalog struct {
	questions map[string][]domain.Question
}

func NewStaticCatalog(questions map[string][]domain.Question) *StaticCatalog {
	return &StaticCatalog{questions: questions}
}

func (c *StaticCatalog) LoadRaceQuestions(_ context.Context, raceID string) ([]domain.Question, error) {
	all, ok := c.questions[raceID]
	if !ok {
		return nil, domain.ErrRaceNotFound
	}
	active := make([]domain.Question, 0, len(all))
	for _, q := range all {
		if q.Active {
			active = append(active, q)
		}
	}
	return active, nil
}

// ListActiveQuestions lets a StaticCatalog stand in for the cached catalog.
func (c *StaticCatalog) ListActiveQuestions(ctx context.Context, raceID string) ([]domain.Question, error) {
	return c.LoadRaceQuestions(ctx, raceID)
}
